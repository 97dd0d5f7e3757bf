// Package safety applies the deterministic constraint clamps that bound
// every oracle-suggested risk parameter. Enforce is pure and idempotent:
// applying it to its own output is a no-op.
package safety

import (
	"fmt"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/oracle"
)

// FromOracle converts a validated risk oracle result into unclamped risk
// parameters tagged as oracle-set. The result still must pass Enforce
// before taking effect.
func FromOracle(p *oracle.RiskParameterResult) domain.RiskParameters {
	return domain.RiskParameters{
		Drawdown: domain.DrawdownThresholds{
			WarningPct:  p.RiskThresholds.DrawdownWarningPct,
			CriticalPct: p.RiskThresholds.DrawdownCriticalPct,
			PausePct:    p.RiskThresholds.DrawdownPausePct,
		},
		Leverage: domain.LeverageCaps{
			Normal:  p.LeverageCaps.Normal,
			Reduced: p.LeverageCaps.Reduced,
			Minimum: p.LeverageCaps.Minimum,
		},
		Exposure: domain.ExposureLimits{
			MaxTotalExposurePct:  p.ExposureLimits.MaxTotalExposurePct,
			MaxSingleSymbolPct:   p.ExposureLimits.MaxSingleSymbolPct,
			MaxConcurrentSymbols: p.ExposureLimits.MaxConcurrentSymbols,
		},
		VolatilityScalar: p.VolatilityAdjustments.PositionSizeScalar,
		SetBy:            domain.SourceOracle,
	}
}

// Enforce clamps every value in p to its hard limit and re-derives the
// required orderings. The returned action list names each adjustment made,
// for the cycle's reasoning trail; it is empty when p was already within
// bounds.
func Enforce(p domain.RiskParameters) (domain.RiskParameters, []string) {
	var actions []string
	out := p

	// Drawdown thresholds: each clamped to be at least as deep as its
	// limit, then ordering warning > critical > pause repaired.
	if out.Drawdown.WarningPct > MaxDrawdownWarningPct {
		actions = append(actions, fmt.Sprintf("clamped drawdown warning %.1f%% to %.1f%%", out.Drawdown.WarningPct, MaxDrawdownWarningPct))
		out.Drawdown.WarningPct = MaxDrawdownWarningPct
	}
	if out.Drawdown.CriticalPct > MaxDrawdownCriticalPct {
		actions = append(actions, fmt.Sprintf("clamped drawdown critical %.1f%% to %.1f%%", out.Drawdown.CriticalPct, MaxDrawdownCriticalPct))
		out.Drawdown.CriticalPct = MaxDrawdownCriticalPct
	}
	if out.Drawdown.PausePct > MaxDrawdownPausePct {
		actions = append(actions, fmt.Sprintf("clamped drawdown pause %.1f%% to %.1f%%", out.Drawdown.PausePct, MaxDrawdownPausePct))
		out.Drawdown.PausePct = MaxDrawdownPausePct
	}
	if !(out.Drawdown.WarningPct > out.Drawdown.CriticalPct && out.Drawdown.CriticalPct > out.Drawdown.PausePct) {
		out.Drawdown.CriticalPct = out.Drawdown.WarningPct - drawdownRepairStepPct
		out.Drawdown.PausePct = out.Drawdown.CriticalPct - drawdownRepairStepPct
		actions = append(actions, fmt.Sprintf("repaired drawdown ordering: warning=%.1f%% critical=%.1f%% pause=%.1f%%",
			out.Drawdown.WarningPct, out.Drawdown.CriticalPct, out.Drawdown.PausePct))
	}

	// Leverage ceilings, then ordering minimum < reduced < normal.
	if out.Leverage.Normal > MaxLeverageNormal {
		actions = append(actions, fmt.Sprintf("clamped normal leverage %.1fx to %.1fx", out.Leverage.Normal, MaxLeverageNormal))
		out.Leverage.Normal = MaxLeverageNormal
	}
	if out.Leverage.Reduced > MaxLeverageReduced {
		actions = append(actions, fmt.Sprintf("clamped reduced leverage %.1fx to %.1fx", out.Leverage.Reduced, MaxLeverageReduced))
		out.Leverage.Reduced = MaxLeverageReduced
	}
	if out.Leverage.Minimum > MaxLeverageMinimum {
		actions = append(actions, fmt.Sprintf("clamped minimum leverage %.1fx to %.1fx", out.Leverage.Minimum, MaxLeverageMinimum))
		out.Leverage.Minimum = MaxLeverageMinimum
	}
	if out.Leverage.Reduced >= out.Leverage.Normal {
		out.Leverage.Reduced = out.Leverage.Normal / 2
		actions = append(actions, fmt.Sprintf("repaired leverage ordering: reduced=%.2fx", out.Leverage.Reduced))
	}
	if out.Leverage.Minimum >= out.Leverage.Reduced {
		out.Leverage.Minimum = out.Leverage.Reduced / 2
		actions = append(actions, fmt.Sprintf("repaired leverage ordering: minimum=%.2fx", out.Leverage.Minimum))
	}

	// Exposure: total ceiling, single-symbol bounded by total.
	if out.Exposure.MaxTotalExposurePct > MaxTotalExposurePct {
		actions = append(actions, fmt.Sprintf("clamped total exposure %.1f%% to %.1f%%", out.Exposure.MaxTotalExposurePct, MaxTotalExposurePct))
		out.Exposure.MaxTotalExposurePct = MaxTotalExposurePct
	}
	if out.Exposure.MaxSingleSymbolPct > out.Exposure.MaxTotalExposurePct {
		actions = append(actions, fmt.Sprintf("clamped single-symbol exposure %.1f%% to total %.1f%%",
			out.Exposure.MaxSingleSymbolPct, out.Exposure.MaxTotalExposurePct))
		out.Exposure.MaxSingleSymbolPct = out.Exposure.MaxTotalExposurePct
	}

	// Volatility scalar bounds.
	if out.VolatilityScalar < MinVolatilityScalar {
		actions = append(actions, fmt.Sprintf("clamped volatility scalar %.2f to %.2f", out.VolatilityScalar, MinVolatilityScalar))
		out.VolatilityScalar = MinVolatilityScalar
	}
	if out.VolatilityScalar > MaxVolatilityScalar {
		actions = append(actions, fmt.Sprintf("clamped volatility scalar %.2f to %.2f", out.VolatilityScalar, MaxVolatilityScalar))
		out.VolatilityScalar = MaxVolatilityScalar
	}

	return out, actions
}
