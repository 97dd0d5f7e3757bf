package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

func testDeployment(strategy, version string, env domain.Environment) *domain.StrategyDeployment {
	return &domain.StrategyDeployment{
		Strategy:    strategy,
		Version:     version,
		Environment: env,
		State:       domain.StateTestnetActive,
		DeployedAt:  time.Now().UTC(),
	}
}

func TestDeploymentStore_InsertAndGet(t *testing.T) {
	s := NewDeploymentStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDeployment("momentum", "1.0.0", domain.EnvTestnet)))

	got, err := s.Get(ctx, "momentum", "1.0.0", domain.EnvTestnet)
	require.NoError(t, err)
	assert.Equal(t, domain.StateTestnetActive, got.State)
}

func TestDeploymentStore_DuplicateAndNotFound(t *testing.T) {
	s := NewDeploymentStore()
	ctx := context.Background()

	d := testDeployment("momentum", "1.0.0", domain.EnvTestnet)
	require.NoError(t, s.Insert(ctx, d))
	assert.ErrorIs(t, s.Insert(ctx, d), storage.ErrDuplicateKey)

	_, err := s.Get(ctx, "momentum", "1.0.0", domain.EnvMainnet)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeploymentStore_SameVersionTwoEnvironments(t *testing.T) {
	s := NewDeploymentStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, testDeployment("momentum", "1.0.0", domain.EnvTestnet)))
	require.NoError(t, s.Insert(ctx, testDeployment("momentum", "1.0.0", domain.EnvMainnet)))

	testnet, err := s.GetByEnvironment(ctx, domain.EnvTestnet)
	require.NoError(t, err)
	assert.Len(t, testnet, 1)
}

func TestDeploymentStore_Update(t *testing.T) {
	s := NewDeploymentStore()
	ctx := context.Background()

	d := testDeployment("momentum", "1.0.0", domain.EnvMainnet)
	require.NoError(t, s.Insert(ctx, d))

	now := time.Now().UTC()
	d.State = domain.StateMainnetActive
	d.LastEvalAt = &now
	d.Performance = &domain.PerformanceMetrics{TotalTrades: 12}
	require.NoError(t, s.Update(ctx, d))

	got, err := s.Get(ctx, "momentum", "1.0.0", domain.EnvMainnet)
	require.NoError(t, err)
	assert.Equal(t, domain.StateMainnetActive, got.State)
	require.NotNil(t, got.Performance)
	assert.Equal(t, 12, got.Performance.TotalTrades)
}

func TestDeploymentStore_UpdateNotFound(t *testing.T) {
	s := NewDeploymentStore()

	err := s.Update(context.Background(), testDeployment("ghost", "1.0.0", domain.EnvTestnet))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
