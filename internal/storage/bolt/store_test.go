package bolt_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/zhouzirui/minimalist-ai/backend/internal/storage"
	"github.com/zhouzirui/minimalist-ai/backend/internal/storage/bolt"
)

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "chat.db")

	store, err := bolt.Open(path)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if err := store.Put(ctx, "chatMessages", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Put err: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close err: %v", err)
	}

	reopened, err := bolt.Open(path)
	if err != nil {
		t.Fatalf("reopen err: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "chatMessages")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if string(got) != `[{"id":"1"}]` {
		t.Fatalf("unexpected value: %s", got)
	}
}

func TestStoreDeleteMissingKey(t *testing.T) {
	ctx := context.Background()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	defer store.Close()

	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
