package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// DeploymentStore is an in-memory implementation of storage.DeploymentStore.
type DeploymentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyDeployment // keyed by strategy@version/env
}

// NewDeploymentStore creates a new in-memory deployment store.
func NewDeploymentStore() *DeploymentStore {
	return &DeploymentStore{data: make(map[string]*domain.StrategyDeployment)}
}

// Compile-time interface check.
var _ storage.DeploymentStore = (*DeploymentStore)(nil)

func deploymentKey(strategy, version string, env domain.Environment) string {
	return strategy + "@" + version + "/" + string(env)
}

// Insert adds a new deployment. Returns ErrDuplicateKey if the row exists.
func (s *DeploymentStore) Insert(_ context.Context, d *domain.StrategyDeployment) error {
	if d == nil || d.Strategy == "" || d.Version == "" || d.Environment == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := deploymentKey(d.Strategy, d.Version, d.Environment)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = cloneDeployment(d)
	return nil
}

// Get retrieves one deployment. Returns ErrNotFound if not exists.
func (s *DeploymentStore) Get(_ context.Context, strategy, version string, env domain.Environment) (*domain.StrategyDeployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[deploymentKey(strategy, version, env)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneDeployment(d), nil
}

// GetByEnvironment retrieves all deployments in an environment,
// deployed-at ASC.
func (s *DeploymentStore) GetByEnvironment(_ context.Context, env domain.Environment) ([]*domain.StrategyDeployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.StrategyDeployment
	for _, d := range s.data {
		if d.Environment == env {
			out = append(out, cloneDeployment(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DeployedAt.Equal(out[j].DeployedAt) {
			return out[i].DeployedAt.Before(out[j].DeployedAt)
		}
		return out[i].Strategy+out[i].Version < out[j].Strategy+out[j].Version
	})
	return out, nil
}

// Update replaces the mutable fields of an existing deployment. Returns
// ErrNotFound if the row does not exist.
func (s *DeploymentStore) Update(_ context.Context, d *domain.StrategyDeployment) error {
	if d == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := deploymentKey(d.Strategy, d.Version, d.Environment)
	if _, ok := s.data[key]; !ok {
		return storage.ErrNotFound
	}
	s.data[key] = cloneDeployment(d)
	return nil
}

func cloneDeployment(d *domain.StrategyDeployment) *domain.StrategyDeployment {
	out := *d
	if d.LastEvalAt != nil {
		at := *d.LastEvalAt
		out.LastEvalAt = &at
	}
	if d.Performance != nil {
		p := *d.Performance
		out.Performance = &p
	}
	return &out
}
