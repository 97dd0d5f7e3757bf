package domain

// RiskTier gates how much leverage and exposure the system may take.
type RiskTier string

const (
	TierNormal  RiskTier = "NORMAL"
	TierReduced RiskTier = "REDUCED"
	TierMinimum RiskTier = "MINIMUM"
)

// IsValid reports whether t is a known risk tier.
func (t RiskTier) IsValid() bool {
	return t == TierNormal || t == TierReduced || t == TierMinimum
}

// ParameterSource records who last set the effective risk parameters.
type ParameterSource string

const (
	SourceOracle  ParameterSource = "oracle"
	SourceDefault ParameterSource = "default"
	SourceManual  ParameterSource = "manual"
)

// DrawdownThresholds are equity-decline triggers in percent (negative,
// more negative = more severe). Required ordering: Pause < Critical < Warning.
type DrawdownThresholds struct {
	WarningPct  float64
	CriticalPct float64
	PausePct    float64
}

// LeverageCaps are maximum leverage multiples per risk tier.
// Required ordering: Minimum < Reduced < Normal.
type LeverageCaps struct {
	Normal  float64
	Reduced float64
	Minimum float64
}

// ForTier returns the cap matching the given tier.
func (c LeverageCaps) ForTier(t RiskTier) float64 {
	switch t {
	case TierReduced:
		return c.Reduced
	case TierMinimum:
		return c.Minimum
	default:
		return c.Normal
	}
}

// ExposureLimits bound total deployed capital.
type ExposureLimits struct {
	MaxTotalExposurePct  float64
	MaxSingleSymbolPct   float64
	MaxConcurrentSymbols int
}

// RiskParameters are the currently effective, constraint-clamped risk knobs.
// Only the safety enforcer's output or an explicit reset may replace them.
type RiskParameters struct {
	Drawdown         DrawdownThresholds
	Leverage         LeverageCaps
	Exposure         ExposureLimits
	VolatilityScalar float64 // position-size multiplier, clamped to [0.3, 1.5]
	SetBy            ParameterSource
}

// DefaultRiskParameters returns the conservative baseline used at startup
// and whenever the risk oracle output is rejected.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		Drawdown: DrawdownThresholds{
			WarningPct:  -5,
			CriticalPct: -10,
			PausePct:    -15,
		},
		Leverage: LeverageCaps{
			Normal:  10,
			Reduced: 5,
			Minimum: 2,
		},
		Exposure: ExposureLimits{
			MaxTotalExposurePct:  80,
			MaxSingleSymbolPct:   25,
			MaxConcurrentSymbols: 8,
		},
		VolatilityScalar: 1.0,
		SetBy:            SourceDefault,
	}
}
