package safety

// Hard limits no oracle output may exceed. These are compile-time system
// invariants, not tunables: changing them is a code change by intent.
const (
	// Drawdown thresholds in percent; a threshold may never sit closer to
	// zero than its limit. More negative = more severe.
	MaxDrawdownWarningPct  = -5.0
	MaxDrawdownCriticalPct = -10.0
	MaxDrawdownPausePct    = -15.0

	// Spacing applied when clamping breaks the required ordering
	// warning > critical > pause.
	drawdownRepairStepPct = 5.0

	// Leverage ceilings per tier.
	MaxLeverageNormal  = 15.0
	MaxLeverageReduced = 8.0
	MaxLeverageMinimum = 4.0

	// Exposure ceiling across all positions.
	MaxTotalExposurePct = 90.0

	// Volatility position-size scalar bounds.
	MinVolatilityScalar = 0.3
	MaxVolatilityScalar = 1.5
)
