package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-supervisor/internal/domain"
)

func TestFallbackHealth_NeverPauses(t *testing.T) {
	for _, tier := range []domain.RiskTier{domain.TierNormal, domain.TierReduced, domain.TierMinimum} {
		h := FallbackHealth(tier)
		assert.False(t, h.ShouldPause, "tier %s", tier)
		assert.NotEmpty(t, h.AnomaliesDetected)
	}

	assert.Equal(t, HealthDegraded, FallbackHealth(domain.TierNormal).OverallHealth)
	assert.Equal(t, HealthCritical, FallbackHealth(domain.TierMinimum).OverallHealth)
}

func TestFallbackRiskParameters_MirrorsDefaults(t *testing.T) {
	def := domain.DefaultRiskParameters()
	r := FallbackRiskParameters(domain.TierNormal)

	assert.InDelta(t, def.Leverage.Normal, r.LeverageCaps.Normal, 1e-9)
	assert.InDelta(t, def.Drawdown.PausePct, r.RiskThresholds.DrawdownPausePct, 1e-9)
	assert.InDelta(t, 50, r.CurrentRiskScore, 1e-9)
	assert.InDelta(t, 75, FallbackRiskParameters(domain.TierReduced).CurrentRiskScore, 1e-9)
}

func TestFallbackAllocations(t *testing.T) {
	current := map[string]float64{"momentum": 60, "breakout": 40}
	a := FallbackAllocations(current)
	require.Len(t, a.Strategies, 2)
	assert.InDelta(t, 60, a.Strategies["momentum"].RecommendedAllocation, 1e-9)

	// Empty current allocations fall back to the equal split.
	a = FallbackAllocations(nil)
	require.Len(t, a.Strategies, len(domain.ManagedStrategies()))
	for name, s := range a.Strategies {
		assert.InDelta(t, 25, s.RecommendedAllocation, 1e-9, name)
	}
}

func TestFallbackConflicts_TierMatchedCap(t *testing.T) {
	alloc := FallbackAllocations(map[string]float64{"momentum": 50, "breakout": 50})
	caps := domain.LeverageCaps{Normal: 10, Reduced: 5, Minimum: 2}

	c := FallbackConflicts(alloc, caps, domain.TierReduced)
	assert.InDelta(t, 5, c.LeverageCap, 1e-9)
	assert.InDelta(t, 50, c.ResolvedAllocations["momentum"], 1e-9)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
}
