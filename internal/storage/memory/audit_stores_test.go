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

func TestDecisionStore_AppendAndGetRecent(t *testing.T) {
	s := NewDecisionStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"d1", "d2", "d3"} {
		require.NoError(t, s.Append(ctx, &domain.CycleDecision{
			DecisionID: id,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := s.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d3", got[0].DecisionID)
	assert.Equal(t, "d2", got[1].DecisionID)
}

func TestDecisionStore_AppendDuplicate(t *testing.T) {
	s := NewDecisionStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, &domain.CycleDecision{DecisionID: "d1", CreatedAt: time.Now()}))
	assert.ErrorIs(t, s.Append(ctx, &domain.CycleDecision{DecisionID: "d1"}), storage.ErrDuplicateKey)
}

func TestEvaluationStore_GetByVersion(t *testing.T) {
	s := NewEvaluationStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Append(ctx, &domain.PromotionEvaluation{
		EvaluationID: "e1", Strategy: "momentum", Version: "1.0.0", EvaluatedAt: now,
	}))
	require.NoError(t, s.Append(ctx, &domain.PromotionEvaluation{
		EvaluationID: "e2", Strategy: "momentum", Version: "1.0.0", EvaluatedAt: now.Add(time.Hour),
	}))
	require.NoError(t, s.Append(ctx, &domain.PromotionEvaluation{
		EvaluationID: "e3", Strategy: "breakout", Version: "1.0.0", EvaluatedAt: now,
	}))

	got, err := s.GetByVersion(ctx, "momentum", "1.0.0")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].EvaluationID) // newest first
}

func TestRollbackStore_GetByStrategy(t *testing.T) {
	s := NewRollbackStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, &domain.RollbackEvent{
		EventID: "r1", Strategy: "momentum", FromVersion: "2.0.0", ToVersion: "1.0.0",
		Automatic: true, OccurredAt: time.Now(),
	}))

	got, err := s.GetByStrategy(ctx, "momentum")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Automatic)

	empty, err := s.GetByStrategy(ctx, "breakout")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAuditStores_RejectEmptyIDs(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, NewDecisionStore().Append(ctx, &domain.CycleDecision{}), storage.ErrInvalidInput)
	assert.ErrorIs(t, NewEvaluationStore().Append(ctx, &domain.PromotionEvaluation{}), storage.ErrInvalidInput)
	assert.ErrorIs(t, NewRollbackStore().Append(ctx, &domain.RollbackEvent{}), storage.ErrInvalidInput)
}
