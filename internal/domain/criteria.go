package domain

// PromotionCriteria holds the quantitative thresholds a version must meet
// before promotion. A per-strategy row overrides the global default.
type PromotionCriteria struct {
	Strategy string // empty for the global default row

	MinTestnetRuntimeHours float64
	MinShadowModeHours     float64
	MinTrades              int
	MinSharpeRatio         float64
	MaxDrawdownPct         float64 // negative, e.g. -20 means -20%
	MinWinRatePct          float64
	MinProfitFactor        float64
	MaxConsecutiveLosses   int
}

// DefaultPromotionCriteria returns the global default thresholds used when
// no per-strategy override exists.
func DefaultPromotionCriteria() PromotionCriteria {
	return PromotionCriteria{
		MinTestnetRuntimeHours: 48,
		MinShadowModeHours:     24,
		MinTrades:              20,
		MinSharpeRatio:         0.5,
		MaxDrawdownPct:         -20,
		MinWinRatePct:          40,
		MinProfitFactor:        1.2,
		MaxConsecutiveLosses:   5,
	}
}
