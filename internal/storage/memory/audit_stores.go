package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// DecisionStore is an in-memory implementation of storage.DecisionStore.
type DecisionStore struct {
	mu   sync.RWMutex
	ids  map[string]struct{}
	data []*domain.CycleDecision
}

// NewDecisionStore creates a new in-memory decision audit store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{ids: make(map[string]struct{})}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

// Append records one decision. Returns ErrDuplicateKey on an ID collision.
func (s *DecisionStore) Append(_ context.Context, d *domain.CycleDecision) error {
	if d == nil || d.DecisionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[d.DecisionID]; exists {
		return storage.ErrDuplicateKey
	}
	s.ids[d.DecisionID] = struct{}{}
	clone := *d
	s.data = append(s.data, &clone)
	return nil
}

// GetRecent retrieves up to limit decisions, newest first.
func (s *DecisionStore) GetRecent(_ context.Context, limit int) ([]*domain.CycleDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.CycleDecision, len(s.data))
	for i, d := range s.data {
		clone := *d
		out[i] = &clone
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EvaluationStore is an in-memory implementation of storage.EvaluationStore.
type EvaluationStore struct {
	mu   sync.RWMutex
	ids  map[string]struct{}
	data []*domain.PromotionEvaluation
}

// NewEvaluationStore creates a new in-memory evaluation audit store.
func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{ids: make(map[string]struct{})}
}

// Compile-time interface check.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)

// Append records one evaluation. Returns ErrDuplicateKey on an ID collision.
func (s *EvaluationStore) Append(_ context.Context, e *domain.PromotionEvaluation) error {
	if e == nil || e.EvaluationID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[e.EvaluationID]; exists {
		return storage.ErrDuplicateKey
	}
	s.ids[e.EvaluationID] = struct{}{}
	clone := *e
	s.data = append(s.data, &clone)
	return nil
}

// GetByVersion retrieves all evaluations for a version, newest first.
func (s *EvaluationStore) GetByVersion(_ context.Context, strategy, version string) ([]*domain.PromotionEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PromotionEvaluation
	for _, e := range s.data {
		if e.Strategy == strategy && e.Version == version {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EvaluatedAt.After(out[j].EvaluatedAt) })
	return out, nil
}

// RollbackStore is an in-memory implementation of storage.RollbackStore.
type RollbackStore struct {
	mu   sync.RWMutex
	ids  map[string]struct{}
	data []*domain.RollbackEvent
}

// NewRollbackStore creates a new in-memory rollback audit store.
func NewRollbackStore() *RollbackStore {
	return &RollbackStore{ids: make(map[string]struct{})}
}

// Compile-time interface check.
var _ storage.RollbackStore = (*RollbackStore)(nil)

// Append records one rollback event. Returns ErrDuplicateKey on an ID collision.
func (s *RollbackStore) Append(_ context.Context, e *domain.RollbackEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}
	s.ids[e.EventID] = struct{}{}
	clone := *e
	s.data = append(s.data, &clone)
	return nil
}

// GetByStrategy retrieves all rollback events for a strategy, newest first.
func (s *RollbackStore) GetByStrategy(_ context.Context, strategy string) ([]*domain.RollbackEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RollbackEvent
	for _, e := range s.data {
		if e.Strategy == strategy {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}
