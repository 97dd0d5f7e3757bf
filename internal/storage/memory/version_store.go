// Package memory provides in-memory storage implementations, used in
// tests and in shadow/dry-run setups with no database attached.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// VersionStore is an in-memory implementation of storage.VersionStore.
type VersionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyVersion // keyed by strategy@version
}

// NewVersionStore creates a new in-memory version store.
func NewVersionStore() *VersionStore {
	return &VersionStore{data: make(map[string]*domain.StrategyVersion)}
}

// Compile-time interface check.
var _ storage.VersionStore = (*VersionStore)(nil)

func versionKey(strategy, version string) string {
	return strategy + "@" + version
}

// Insert adds a new version. Returns ErrDuplicateKey if it exists.
func (s *VersionStore) Insert(_ context.Context, v *domain.StrategyVersion) error {
	if v == nil || v.Strategy == "" || v.Version == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := versionKey(v.Strategy, v.Version)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = cloneVersion(v)
	return nil
}

// Get retrieves one version. Returns ErrNotFound if not exists.
func (s *VersionStore) Get(_ context.Context, strategy, version string) (*domain.StrategyVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[versionKey(strategy, version)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneVersion(v), nil
}

// GetByStrategy retrieves all versions of a strategy, created-at ASC.
func (s *VersionStore) GetByStrategy(_ context.Context, strategy string) ([]*domain.StrategyVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.StrategyVersion
	for _, v := range s.data {
		if v.Strategy == strategy {
			out = append(out, cloneVersion(v))
		}
	}
	sortVersions(out)
	return out, nil
}

// GetByState retrieves all versions currently in the given state.
func (s *VersionStore) GetByState(_ context.Context, state domain.DeploymentState) ([]*domain.StrategyVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.StrategyVersion
	for _, v := range s.data {
		if v.State == state {
			out = append(out, cloneVersion(v))
		}
	}
	sortVersions(out)
	return out, nil
}

// UpdateState moves a version to a new state. Returns ErrNotFound if the
// version does not exist.
func (s *VersionStore) UpdateState(_ context.Context, strategy, version string, state domain.DeploymentState, promotedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[versionKey(strategy, version)]
	if !ok {
		return storage.ErrNotFound
	}
	v.State = state
	v.UpdatedAt = time.Now().UTC()
	if promotedAt != nil {
		at := *promotedAt
		v.PromotedAt = &at
	}
	return nil
}

func cloneVersion(v *domain.StrategyVersion) *domain.StrategyVersion {
	out := *v
	if v.Parameters != nil {
		out.Parameters = make(map[string]string, len(v.Parameters))
		for k, val := range v.Parameters {
			out.Parameters[k] = val
		}
	}
	if v.PromotedAt != nil {
		at := *v.PromotedAt
		out.PromotedAt = &at
	}
	return &out
}

func sortVersions(vs []*domain.StrategyVersion) {
	sort.Slice(vs, func(i, j int) bool {
		if !vs[i].CreatedAt.Equal(vs[j].CreatedAt) {
			return vs[i].CreatedAt.Before(vs[j].CreatedAt)
		}
		return vs[i].Key() < vs[j].Key()
	})
}
