package memory

import (
	"context"
	"sync"

	"github.com/zhouzirui/minimalist-ai/backend/internal/storage"
)

// Store implements storage.Store with an in-process map, suitable for tests and ephemeral runs.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{items: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.items[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }
