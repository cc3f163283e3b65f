// Package bootstrap assembles the conversation store from configuration.
// Both the HTTP server and the terminal client start through it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zhouzirui/minimalist-ai/backend/internal/config"
	chatservice "github.com/zhouzirui/minimalist-ai/backend/internal/service/chat"
	"github.com/zhouzirui/minimalist-ai/backend/internal/service/reply"
	"github.com/zhouzirui/minimalist-ai/backend/internal/storage"
	"github.com/zhouzirui/minimalist-ai/backend/internal/storage/bolt"
	"github.com/zhouzirui/minimalist-ai/backend/internal/storage/memory"
	"github.com/zhouzirui/minimalist-ai/backend/internal/storage/postgres"
)

// App holds the long-lived pieces behind a running client.
type App struct {
	Chat      *chatservice.Service
	snapshots storage.Store
}

// New opens the snapshot store, builds the reply chain and restores the conversation.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	snapshots, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	cannedModel := reply.NewCannedModel(nil, cfg.Reply.Latency, cfg.Reply.Seed)
	replySvc, err := reply.NewService(ctx, cannedModel, cfg.Reply.HistoryLimit)
	if err != nil {
		_ = snapshots.Close()
		return nil, err
	}

	chatSvc := chatservice.NewService(replySvc, snapshots, chatservice.Options{
		SnapshotKey:         cfg.Store.SnapshotKey,
		StagingDelay:        cfg.Reply.StagingDelay,
		DiscardStaleReplies: cfg.Reply.DiscardStaleReplies,
	})
	chatSvc.Restore(ctx)

	return &App{Chat: chatSvc, snapshots: snapshots}, nil
}

// OpenStore returns the snapshot store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Println("[bootstrap] using in-memory snapshot store, history will not survive restarts")
		return memory.NewStore(), nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Println("[bootstrap] using postgres snapshot store")
		return store, nil
	case config.DriverBolt, "":
		store, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Printf("[bootstrap] using bolt snapshot store at %s", cfg.Path)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown snapshot store driver %q", cfg.Driver)
	}
}

// Close waits for pending replies, bounded by ctx, then closes the snapshot store.
func (a *App) Close(ctx context.Context) error {
	waitErr := a.Chat.Close(ctx)
	closeErr := a.snapshots.Close()
	return errors.Join(waitErr, closeErr)
}
