package oracle

import (
	"strategy-supervisor/internal/domain"
)

// Conservative fallbacks, one per oracle role. Used whenever the call
// fails, times out, or the validator rejects the output. Each fallback is
// scoped to the current risk tier and never recommends taking on more
// risk than the system already carries.

// FallbackHealth reports DEGRADED health without forcing a pause. A hard
// pause stays reserved for an explicit oracle verdict or the drawdown
// thresholds; losing the oracle alone only tightens the tier.
func FallbackHealth(tier domain.RiskTier) *HealthResult {
	overall := HealthDegraded
	if tier == domain.TierMinimum {
		overall = HealthCritical
	}
	return &HealthResult{
		OverallHealth:     overall,
		ShouldPause:       false,
		RiskLevel:         "conservative",
		AnomaliesDetected: []string{"health oracle unavailable, conservative fallback in effect"},
		Confidence:        0,
	}
}

// FallbackRiskParameters mirrors the default risk parameters so a failed
// risk oracle never loosens the effective knobs.
func FallbackRiskParameters(tier domain.RiskTier) *RiskParameterResult {
	def := domain.DefaultRiskParameters()
	score := 50.0
	if tier != domain.TierNormal {
		score = 75.0
	}
	return &RiskParameterResult{
		RiskThresholds: RiskThresholds{
			DrawdownWarningPct:  def.Drawdown.WarningPct,
			DrawdownCriticalPct: def.Drawdown.CriticalPct,
			DrawdownPausePct:    def.Drawdown.PausePct,
		},
		LeverageCaps: LeverageCaps{
			Normal:  def.Leverage.Normal,
			Reduced: def.Leverage.Reduced,
			Minimum: def.Leverage.Minimum,
		},
		ExposureLimits: ExposureLimits{
			MaxTotalExposurePct:  def.Exposure.MaxTotalExposurePct,
			MaxSingleSymbolPct:   def.Exposure.MaxSingleSymbolPct,
			MaxConcurrentSymbols: def.Exposure.MaxConcurrentSymbols,
		},
		VolatilityAdjustments: VolatilityAdjustments{PositionSizeScalar: def.VolatilityScalar},
		CurrentRiskScore:      score,
		RiskTrend:             "STABLE",
		MarketStressLevel:     "unknown",
		Confidence:            0,
	}
}

// FallbackAllocations keeps the current allocations untouched. An empty
// current map falls back to the equal split over the managed strategies.
func FallbackAllocations(current map[string]float64) *AllocationResult {
	strategies := make(map[string]StrategyAssessment)
	if len(current) > 0 {
		for name, pct := range current {
			strategies[name] = StrategyAssessment{
				Health:                "unknown",
				RecommendedAllocation: pct,
				Reasoning:             "allocation oracle unavailable, holding current allocation",
			}
		}
	} else {
		names := domain.ManagedStrategies()
		equal := 100.0 / float64(len(names))
		for _, name := range names {
			strategies[name] = StrategyAssessment{
				Health:                "unknown",
				RecommendedAllocation: equal,
				Reasoning:             "allocation oracle unavailable, equal split",
			}
		}
	}
	return &AllocationResult{Strategies: strategies, Confidence: 0}
}

// FallbackConflicts passes the allocation recommendation through unchanged
// with no position actions, capped at the tier-matching leverage.
func FallbackConflicts(alloc *AllocationResult, caps domain.LeverageCaps, tier domain.RiskTier) *ConflictResult {
	return &ConflictResult{
		ResolvedAllocations: alloc.RecommendedAllocations(),
		LeverageCap:         caps.ForTier(tier),
		AdjustmentsMade:     []string{"conflict oracle unavailable, allocation recommendation passed through"},
		Confidence:          0,
	}
}
