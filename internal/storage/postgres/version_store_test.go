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

func testVersion(strategy, version string, state domain.DeploymentState) *domain.StrategyVersion {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.StrategyVersion{
		Strategy:    strategy,
		Version:     version,
		State:       state,
		ContentHash: "deadbeef",
		Parameters:  map[string]string{"lookback": "24", "threshold": "0.8"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestVersionStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewVersionStore(pool)

	v := testVersion("momentum", "1.0.0", domain.StateDevelopment)
	require.NoError(t, store.Insert(ctx, v))

	got, err := store.Get(ctx, "momentum", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, v.ContentHash, got.ContentHash)
	assert.Equal(t, domain.StateDevelopment, got.State)
	assert.Equal(t, "24", got.Parameters["lookback"])
	assert.Nil(t, got.PromotedAt)
}

func TestVersionStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewVersionStore(pool)

	v := testVersion("momentum", "1.0.0", domain.StateDevelopment)
	require.NoError(t, store.Insert(ctx, v))
	assert.ErrorIs(t, store.Insert(ctx, v), storage.ErrDuplicateKey)
}

func TestVersionStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewVersionStore(pool)

	_, err := store.Get(context.Background(), "momentum", "9.9.9")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestVersionStore_GetByStrategyAndState(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewVersionStore(pool)

	v1 := testVersion("momentum", "1.0.0", domain.StateMainnetActive)
	v2 := testVersion("momentum", "2.0.0", domain.StateTestnetActive)
	v2.CreatedAt = v1.CreatedAt.Add(time.Hour)
	v3 := testVersion("breakout", "1.0.0", domain.StateMainnetActive)
	require.NoError(t, store.Insert(ctx, v1))
	require.NoError(t, store.Insert(ctx, v2))
	require.NoError(t, store.Insert(ctx, v3))

	byStrategy, err := store.GetByStrategy(ctx, "momentum")
	require.NoError(t, err)
	require.Len(t, byStrategy, 2)
	assert.Equal(t, "1.0.0", byStrategy[0].Version)
	assert.Equal(t, "2.0.0", byStrategy[1].Version)

	byState, err := store.GetByState(ctx, domain.StateMainnetActive)
	require.NoError(t, err)
	assert.Len(t, byState, 2)
}

func TestVersionStore_UpdateState(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewVersionStore(pool)

	require.NoError(t, store.Insert(ctx, testVersion("momentum", "1.0.0", domain.StateMainnetShadow)))

	promoted := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.UpdateState(ctx, "momentum", "1.0.0", domain.StateMainnetActive, &promoted))

	got, err := store.Get(ctx, "momentum", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, domain.StateMainnetActive, got.State)
	require.NotNil(t, got.PromotedAt)
	assert.True(t, got.PromotedAt.Equal(promoted))

	// A later transition without a promotion time keeps the original stamp.
	require.NoError(t, store.UpdateState(ctx, "momentum", "1.0.0", domain.StateMainnetPaused, nil))
	got, err = store.Get(ctx, "momentum", "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, got.PromotedAt)
	assert.True(t, got.PromotedAt.Equal(promoted))
}

func TestVersionStore_UpdateStateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewVersionStore(pool)

	err := store.UpdateState(context.Background(), "ghost", "1.0.0", domain.StateDeprecated, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
