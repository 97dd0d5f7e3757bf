package postgres

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
		DeployedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestDeploymentStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewDeploymentStore(pool)

	d := testDeployment("momentum", "1.0.0", domain.EnvTestnet)
	require.NoError(t, store.Insert(ctx, d))

	got, err := store.Get(ctx, "momentum", "1.0.0", domain.EnvTestnet)
	require.NoError(t, err)
	assert.Equal(t, domain.StateTestnetActive, got.State)
	assert.False(t, got.ShadowMode)
	assert.Nil(t, got.Performance)
}

func TestDeploymentStore_DuplicateAndNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewDeploymentStore(pool)

	d := testDeployment("momentum", "1.0.0", domain.EnvTestnet)
	require.NoError(t, store.Insert(ctx, d))
	assert.ErrorIs(t, store.Insert(ctx, d), storage.ErrDuplicateKey)

	_, err := store.Get(ctx, "momentum", "1.0.0", domain.EnvMainnet)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeploymentStore_SameVersionTwoEnvironments(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewDeploymentStore(pool)

	require.NoError(t, store.Insert(ctx, testDeployment("momentum", "1.0.0", domain.EnvTestnet)))
	require.NoError(t, store.Insert(ctx, testDeployment("momentum", "1.0.0", domain.EnvMainnet)))

	testnet, err := store.GetByEnvironment(ctx, domain.EnvTestnet)
	require.NoError(t, err)
	assert.Len(t, testnet, 1)
}

func TestDeploymentStore_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewDeploymentStore(pool)

	d := testDeployment("momentum", "1.0.0", domain.EnvMainnet)
	require.NoError(t, store.Insert(ctx, d))

	d.State = domain.StateMainnetActive
	d.LastEvalAt = ptr(time.Now().UTC().Truncate(time.Millisecond))
	d.Performance = &domain.PerformanceMetrics{TotalTrades: 12, WinRatePct: 58.3}
	require.NoError(t, store.Update(ctx, d))

	got, err := store.Get(ctx, "momentum", "1.0.0", domain.EnvMainnet)
	require.NoError(t, err)
	assert.Equal(t, domain.StateMainnetActive, got.State)
	require.NotNil(t, got.LastEvalAt)
	require.NotNil(t, got.Performance)
	assert.Equal(t, 12, got.Performance.TotalTrades)
	assert.InDelta(t, 58.3, got.Performance.WinRatePct, 1e-9)
}

func TestDeploymentStore_UpdateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewDeploymentStore(pool)

	err := store.Update(context.Background(), testDeployment("ghost", "1.0.0", domain.EnvTestnet))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
