package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage/memory"
)

type reportFixture struct {
	gen         *Generator
	decisions   *memory.DecisionStore
	versions    *memory.VersionStore
	evaluations *memory.EvaluationStore
	rollbacks   *memory.RollbackStore
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{
		decisions:   memory.NewDecisionStore(),
		versions:    memory.NewVersionStore(),
		evaluations: memory.NewEvaluationStore(),
		rollbacks:   memory.NewRollbackStore(),
	}
	f.gen = NewGenerator(GeneratorOptions{
		Decisions:   f.decisions,
		Versions:    f.versions,
		Evaluations: f.evaluations,
		Rollbacks:   f.rollbacks,
		Window:      50,
		Now:         func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	return f
}

func seedDecision(t *testing.T, f *reportFixture, id string, at time.Time, tier domain.RiskTier, paused bool, reasoning ...string) {
	t.Helper()
	require.NoError(t, f.decisions.Append(context.Background(), &domain.CycleDecision{
		DecisionID:  id,
		CreatedAt:   at,
		Allocations: map[string]float64{"momentum": 40, "breakout": 30},
		LeverageCap: 10,
		RiskTier:    tier,
		ShouldPause: paused,
		RiskScore:   42,
		LatencyMs:   1200,
		Reasoning:   reasoning,
	}))
}

func TestGenerate_CycleSummary(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seedDecision(t, f, "d1", base, domain.TierNormal, false)
	seedDecision(t, f, "d2", base.Add(15*time.Minute), domain.TierReduced, false,
		"risk_parameter oracle fell back to conservative default")
	seedDecision(t, f, "d3", base.Add(30*time.Minute), domain.TierMinimum, true)

	r, err := f.gen.Generate(ctx, nil)
	require.NoError(t, err)

	s := r.CycleSummary
	assert.Equal(t, 3, s.TotalDecisions)
	assert.Equal(t, 1, s.PausedCycles)
	assert.Equal(t, 1, s.NormalCycles)
	assert.Equal(t, 1, s.ReducedCycles)
	assert.Equal(t, 1, s.MinimumCycles)
	assert.Equal(t, 1, s.FallbackCycles)
	assert.InDelta(t, 42, s.AvgRiskScore, 1e-9)
	assert.Equal(t, int64(1200), s.AvgLatencyMs)
	assert.Equal(t, base, s.FirstAt)
	assert.Equal(t, base.Add(30*time.Minute), s.LastAt)

	// Newest decision first.
	require.Len(t, r.Decisions, 3)
	assert.Equal(t, "d3", r.Decisions[0].DecisionID)
	assert.InDelta(t, 70, r.Decisions[0].AllocationSum, 1e-9)
}

func TestGenerate_VersionsWithLatestEvaluation(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	require.NoError(t, f.versions.Insert(ctx, &domain.StrategyVersion{
		Strategy: "momentum", Version: "1.0.0", State: domain.StateMainnetShadow,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, f.evaluations.Append(ctx, &domain.PromotionEvaluation{
		EvaluationID: "e1", Strategy: "momentum", Version: "1.0.0",
		Passed: false, FailedCriteria: []string{"sharpe ratio 0.20 below minimum 0.50"},
		EvaluatedAt: time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, f.evaluations.Append(ctx, &domain.PromotionEvaluation{
		EvaluationID: "e2", Strategy: "momentum", Version: "1.0.0",
		Passed:      true,
		EvaluatedAt: time.Date(2024, 4, 30, 21, 0, 0, 0, time.UTC),
	}))

	r, err := f.gen.Generate(ctx, []string{"momentum"})
	require.NoError(t, err)

	require.Len(t, r.Versions, 1)
	v := r.Versions[0]
	assert.Equal(t, domain.StateMainnetShadow, v.State)
	require.NotNil(t, v.LastEvalAt)
	assert.True(t, v.LastEvalPassed, "latest evaluation wins")
	assert.Empty(t, v.FailedCriteria)
}

func TestGenerate_RollbacksNewestFirst(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	require.NoError(t, f.rollbacks.Append(ctx, &domain.RollbackEvent{
		EventID: "r1", Strategy: "momentum", FromVersion: "2.0.0", ToVersion: "1.0.0",
		Reason: "drawdown breach", Automatic: true,
		OccurredAt: time.Date(2024, 4, 29, 8, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, f.rollbacks.Append(ctx, &domain.RollbackEvent{
		EventID: "r2", Strategy: "breakout", FromVersion: "3.1.0",
		Reason: "operator request", Automatic: false,
		OccurredAt: time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC),
	}))

	r, err := f.gen.Generate(ctx, []string{"momentum", "breakout"})
	require.NoError(t, err)

	require.Len(t, r.Rollbacks, 2)
	assert.Equal(t, "breakout", r.Rollbacks[0].Strategy)
	assert.False(t, r.Rollbacks[0].Automatic)
	assert.Equal(t, "momentum", r.Rollbacks[1].Strategy)
}

func TestGenerate_DerivesStrategiesFromAllocations(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	seedDecision(t, f, "d1", time.Now().UTC(), domain.TierNormal, false)
	require.NoError(t, f.versions.Insert(ctx, &domain.StrategyVersion{
		Strategy: "breakout", Version: "1.0.0", State: domain.StateDevelopment,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}))

	r, err := f.gen.Generate(ctx, nil)
	require.NoError(t, err)

	// "breakout" appears in the decision allocations, so its versions are
	// reported without being named explicitly.
	require.Len(t, r.Versions, 1)
	assert.Equal(t, "breakout", r.Versions[0].Strategy)
}

func TestRenderMarkdown_Sections(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	seedDecision(t, f, "d1", time.Now().UTC(), domain.TierNormal, false)
	r, err := f.gen.Generate(ctx, nil)
	require.NoError(t, err)

	md := RenderMarkdown(r)
	assert.Contains(t, md, "# Supervisor Report")
	assert.Contains(t, md, "## Cycle Summary")
	assert.Contains(t, md, "## Recent Decisions")
	assert.Contains(t, md, "## Strategy Versions")
	assert.Contains(t, md, "## Rollbacks")
	assert.Contains(t, md, "No rollbacks recorded.")
}

func TestRenderCSV_Rows(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	seedDecision(t, f, "d1", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), domain.TierReduced, true)
	r, err := f.gen.Generate(ctx, nil)
	require.NoError(t, err)

	csv := RenderCSV(r.Decisions)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "decision_id")
	assert.Contains(t, lines[1], "d1")
	assert.Contains(t, lines[1], "true")
}
