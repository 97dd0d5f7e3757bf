package domain

import "time"

// TradeResult is one closed trade attributed to a strategy version.
type TradeResult struct {
	TradeID   string
	Strategy  string
	Version   string
	Symbol    string
	PnlPct    float64 // realized return in percent of position value
	PnlUSD    float64
	OpenedAt  time.Time
	ClosedAt  time.Time
	ShadowRun bool // true when produced by a shadow-mode deployment
}

// PerformanceMetrics is the aggregate a promotion or rollback decision is
// evaluated against.
type PerformanceMetrics struct {
	TotalTrades       int
	Wins              int
	Losses            int
	WinRatePct        float64
	SharpeRatio       float64
	MaxDrawdownPct    float64 // worst peak-to-trough, negative
	ProfitFactor      float64 // gross profit / gross loss
	ConsecutiveLosses int     // longest losing streak
	TotalPnlUSD       float64
	ComputedAt        time.Time
}

// Strategy name constants for the four managed strategies.
const (
	StrategyMomentum      = "momentum"
	StrategyMeanReversion = "mean_reversion"
	StrategyBreakout      = "breakout"
	StrategyFundingArb    = "funding_arbitrage"
)

// ManagedStrategies lists the four strategies under supervision, in the
// order used for deterministic iteration and equal-split fallbacks.
func ManagedStrategies() []string {
	return []string{
		StrategyMomentum,
		StrategyMeanReversion,
		StrategyBreakout,
		StrategyFundingArb,
	}
}
