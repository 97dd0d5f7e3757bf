package memory

import (
	"context"
	"sync"

	"strategy-supervisor/internal/storage"
)

// SystemStateStore is an in-memory implementation of storage.SystemStateStore.
type SystemStateStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewSystemStateStore creates a new in-memory system state store.
func NewSystemStateStore() *SystemStateStore {
	return &SystemStateStore{data: make(map[string]string)}
}

// Compile-time interface check.
var _ storage.SystemStateStore = (*SystemStateStore)(nil)

// Set writes one key.
func (s *SystemStateStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

// SetMulti writes several keys under one lock.
func (s *SystemStateStore) SetMulti(_ context.Context, kv map[string]string) error {
	for key := range kv {
		if key == "" {
			return storage.ErrInvalidInput
		}
	}
	s.mu.Lock()
	for key, value := range kv {
		s.data[key] = value
	}
	s.mu.Unlock()
	return nil
}

// Get reads one key. Returns ErrNotFound if the key was never set.
func (s *SystemStateStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}
