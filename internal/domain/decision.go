package domain

import "time"

// CycleDecision is the orchestrator's final applied output for one tick.
// Created fresh each cycle, persisted for audit, never mutated afterwards.
type CycleDecision struct {
	DecisionID string
	CreatedAt  time.Time

	// Allocations maps strategy name to percent of capital. Values sum to
	// 100 +/- 0.01 under the NORMAL tier; lower tiers deliberately deploy
	// less. Each value is in [0, 50].
	Allocations map[string]float64

	DisableStrategies []string
	EnableStrategies  []string // only ever populated by a manual command
	CloseSymbols      []string

	LeverageCap float64
	RiskTier    RiskTier

	ShouldPause bool
	PauseReason string

	// Reasoning is the human-readable audit trail: one line per oracle
	// headline plus every constraint action taken.
	Reasoning []string

	RiskScore   float64 // 0-100 from the risk oracle
	RiskTrend   string  // IMPROVING | STABLE | DETERIORATING
	OracleModel string  // model identifier that produced the advisory inputs
	LatencyMs   int64
}

// AllocationSum returns the sum of all allocation values.
func (d *CycleDecision) AllocationSum() float64 {
	sum := 0.0
	for _, v := range d.Allocations {
		sum += v
	}
	return sum
}
