package memory

import (
	"context"
	"sync"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// CriteriaStore is an in-memory implementation of storage.CriteriaStore.
// The row keyed by the empty string is the global default.
type CriteriaStore struct {
	mu   sync.RWMutex
	data map[string]domain.PromotionCriteria
}

// NewCriteriaStore creates a new in-memory criteria store.
func NewCriteriaStore() *CriteriaStore {
	return &CriteriaStore{data: make(map[string]domain.PromotionCriteria)}
}

// Compile-time interface check.
var _ storage.CriteriaStore = (*CriteriaStore)(nil)

// Upsert inserts or replaces the criteria row for c.Strategy.
func (s *CriteriaStore) Upsert(_ context.Context, c domain.PromotionCriteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[c.Strategy] = c
	return nil
}

// Get retrieves the row for the given strategy. Returns ErrNotFound if
// not exists.
func (s *CriteriaStore) Get(_ context.Context, strategy string) (domain.PromotionCriteria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[strategy]
	if !ok {
		return domain.PromotionCriteria{}, storage.ErrNotFound
	}
	return c, nil
}
