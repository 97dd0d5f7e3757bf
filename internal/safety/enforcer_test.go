package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-supervisor/internal/domain"
)

func TestEnforce_WithinBoundsIsNoop(t *testing.T) {
	p := domain.DefaultRiskParameters()

	out, actions := Enforce(p)

	assert.Equal(t, p, out)
	assert.Empty(t, actions)
}

func TestEnforce_ClampsLooseValues(t *testing.T) {
	p := domain.DefaultRiskParameters()
	p.Drawdown = domain.DrawdownThresholds{WarningPct: -1, CriticalPct: -2, PausePct: -3}
	p.Leverage = domain.LeverageCaps{Normal: 50, Reduced: 25, Minimum: 10}
	p.Exposure.MaxTotalExposurePct = 120
	p.VolatilityScalar = 3.0

	out, actions := Enforce(p)

	assert.LessOrEqual(t, out.Drawdown.WarningPct, MaxDrawdownWarningPct)
	assert.LessOrEqual(t, out.Drawdown.CriticalPct, MaxDrawdownCriticalPct)
	assert.LessOrEqual(t, out.Drawdown.PausePct, MaxDrawdownPausePct)
	assert.Equal(t, MaxLeverageNormal, out.Leverage.Normal)
	assert.Equal(t, MaxLeverageReduced, out.Leverage.Reduced)
	assert.Equal(t, MaxLeverageMinimum, out.Leverage.Minimum)
	assert.Equal(t, MaxTotalExposurePct, out.Exposure.MaxTotalExposurePct)
	assert.Equal(t, MaxVolatilityScalar, out.VolatilityScalar)
	assert.NotEmpty(t, actions)
}

func TestEnforce_RepairsDrawdownOrdering(t *testing.T) {
	p := domain.DefaultRiskParameters()
	// Warning deeper than critical after clamping: ordering is broken.
	p.Drawdown = domain.DrawdownThresholds{WarningPct: -20, CriticalPct: -10, PausePct: -15}

	out, _ := Enforce(p)

	require.Greater(t, out.Drawdown.WarningPct, out.Drawdown.CriticalPct)
	require.Greater(t, out.Drawdown.CriticalPct, out.Drawdown.PausePct)
	assert.Equal(t, out.Drawdown.WarningPct-drawdownRepairStepPct, out.Drawdown.CriticalPct)
	assert.Equal(t, out.Drawdown.CriticalPct-drawdownRepairStepPct, out.Drawdown.PausePct)
}

func TestEnforce_RepairsLeverageOrdering_Adversarial(t *testing.T) {
	p := domain.DefaultRiskParameters()
	// minimum >= reduced >= normal, the worst-case inversion.
	p.Leverage = domain.LeverageCaps{Normal: 2, Reduced: 5, Minimum: 6}

	out, _ := Enforce(p)

	assert.Less(t, out.Leverage.Minimum, out.Leverage.Reduced)
	assert.Less(t, out.Leverage.Reduced, out.Leverage.Normal)
}

func TestEnforce_Idempotent(t *testing.T) {
	inputs := []domain.RiskParameters{
		domain.DefaultRiskParameters(),
		{
			Drawdown:         domain.DrawdownThresholds{WarningPct: 5, CriticalPct: 3, PausePct: 1},
			Leverage:         domain.LeverageCaps{Normal: 100, Reduced: 100, Minimum: 100},
			Exposure:         domain.ExposureLimits{MaxTotalExposurePct: 500, MaxSingleSymbolPct: 400},
			VolatilityScalar: 0,
		},
		{
			Drawdown:         domain.DrawdownThresholds{WarningPct: -30, CriticalPct: -10, PausePct: -50},
			Leverage:         domain.LeverageCaps{Normal: 1, Reduced: 8, Minimum: 4},
			Exposure:         domain.ExposureLimits{MaxTotalExposurePct: 90, MaxSingleSymbolPct: 90},
			VolatilityScalar: 1.5,
		},
	}

	for i, p := range inputs {
		once, _ := Enforce(p)
		twice, actions := Enforce(once)
		assert.Equal(t, once, twice, "input %d: enforce(enforce(x)) != enforce(x)", i)
		assert.Empty(t, actions, "input %d: second pass must take no actions", i)
	}
}

func TestEnforce_SingleSymbolBoundedByTotal(t *testing.T) {
	p := domain.DefaultRiskParameters()
	p.Exposure = domain.ExposureLimits{MaxTotalExposurePct: 60, MaxSingleSymbolPct: 80}

	out, _ := Enforce(p)

	assert.Equal(t, 60.0, out.Exposure.MaxSingleSymbolPct)
}

func TestEnforce_ScalarFloor(t *testing.T) {
	p := domain.DefaultRiskParameters()
	p.VolatilityScalar = 0.1

	out, _ := Enforce(p)

	assert.Equal(t, MinVolatilityScalar, out.VolatilityScalar)
}
