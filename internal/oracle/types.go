// Package oracle defines the advisory service contract: the four result
// shapes the supervisor consumes, the Advisor interface, and conservative
// fallbacks used when an oracle fails or its output is rejected.
//
// Oracle output is untrusted until it passes the validation package; the
// JSON tags here are the parse boundary, not a trust boundary.
package oracle

import (
	"context"

	"strategy-supervisor/internal/domain"
)

// Kind tags which oracle variant produced a result.
type Kind string

const (
	KindHealth     Kind = "health"
	KindRisk       Kind = "risk_parameter"
	KindAllocation Kind = "allocation"
	KindConflict   Kind = "conflict_resolution"
)

// Health levels reported by the health oracle.
const (
	HealthOK       = "OK"
	HealthDegraded = "DEGRADED"
	HealthCritical = "CRITICAL"
)

// Input is the account/cycle state handed to each oracle call. Later
// oracles receive fields derived from earlier oracle outputs (tier from
// the health result, leverage caps from the risk result).
type Input struct {
	Snapshot     domain.AccountSnapshot
	RiskTier     domain.RiskTier
	LeverageCaps domain.LeverageCaps
}

// HealthResult is the health oracle's verdict on the whole system.
type HealthResult struct {
	OverallHealth     string   `json:"overall_health"` // OK | DEGRADED | CRITICAL
	ShouldPause       bool     `json:"should_pause"`
	PauseReason       string   `json:"pause_reason"`
	RiskLevel         string   `json:"risk_level"` // conservative | moderate | aggressive
	AnomaliesDetected []string `json:"anomalies_detected"`
	Recommendations   []string `json:"recommendations"`
	Confidence        float64  `json:"confidence"`
}

// Tier maps the health verdict to a risk tier: CRITICAL collapses to
// MINIMUM, DEGRADED to REDUCED, everything else runs NORMAL.
func (h *HealthResult) Tier() domain.RiskTier {
	switch h.OverallHealth {
	case HealthCritical:
		return domain.TierMinimum
	case HealthDegraded:
		return domain.TierReduced
	default:
		return domain.TierNormal
	}
}

// RiskThresholds is the nested drawdown block of the risk oracle output.
type RiskThresholds struct {
	DrawdownWarningPct  float64 `json:"drawdown_warning_pct"`
	DrawdownCriticalPct float64 `json:"drawdown_critical_pct"`
	DrawdownPausePct    float64 `json:"drawdown_pause_pct"`
}

// LeverageCaps is the nested per-tier leverage block.
type LeverageCaps struct {
	Normal  float64 `json:"normal"`
	Reduced float64 `json:"reduced"`
	Minimum float64 `json:"minimum"`
}

// ExposureLimits is the nested exposure block.
type ExposureLimits struct {
	MaxTotalExposurePct  float64 `json:"max_total_exposure_pct"`
	MaxSingleSymbolPct   float64 `json:"max_single_symbol_pct"`
	MaxConcurrentSymbols int     `json:"max_concurrent_symbols"`
}

// VolatilityAdjustments is the nested volatility block.
type VolatilityAdjustments struct {
	PositionSizeScalar float64 `json:"position_size_scalar"`
}

// ImmediateAction is a protective action the risk oracle wants executed
// this cycle, outside the normal allocation flow.
type ImmediateAction struct {
	Action   string `json:"action"` // CLOSE_POSITION | PAUSE_STRATEGY | REDUCE_LEVERAGE | TIGHTEN_STOPS
	Symbol   string `json:"symbol,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Reason   string `json:"reason"`
}

// RiskParameterResult is the risk-parameter oracle's suggested knob values.
// Every field is clamped by the safety enforcer before taking effect.
type RiskParameterResult struct {
	RiskThresholds        RiskThresholds        `json:"risk_thresholds"`
	LeverageCaps          LeverageCaps          `json:"leverage_caps"`
	ExposureLimits        ExposureLimits        `json:"exposure_limits"`
	VolatilityAdjustments VolatilityAdjustments `json:"volatility_adjustments"`
	ImmediateActions      []ImmediateAction     `json:"immediate_actions"`
	CurrentRiskScore      float64               `json:"current_risk_score"` // 0-100
	RiskTrend             string                `json:"risk_trend"`         // IMPROVING | STABLE | DETERIORATING
	MarketStressLevel     string                `json:"market_stress_level"`
	Confidence            float64               `json:"confidence"`
}

// StrategyAssessment is the allocation oracle's view of one strategy.
type StrategyAssessment struct {
	Health                string  `json:"health"`
	RegimeFit             float64 `json:"regime_fit"` // 0-1
	RecommendedAllocation float64 `json:"recommended_allocation"`
	Reasoning             string  `json:"reasoning"`
}

// AllocationResult is the allocation oracle's per-strategy recommendation.
type AllocationResult struct {
	Strategies        map[string]StrategyAssessment `json:"strategies"`
	DisableStrategies []string                      `json:"disable_strategies"`
	Confidence        float64                       `json:"confidence"`
}

// RecommendedAllocations flattens the per-strategy assessments into a
// plain allocation map.
func (a *AllocationResult) RecommendedAllocations() map[string]float64 {
	out := make(map[string]float64, len(a.Strategies))
	for name, s := range a.Strategies {
		out[name] = s.RecommendedAllocation
	}
	return out
}

// SignalResolution records how the conflict oracle settled one
// contradictory signal pair.
type SignalResolution struct {
	Symbol     string `json:"symbol"`
	Resolution string `json:"resolution"`
	Reason     string `json:"reason"`
}

// PositionAction is the conflict oracle's verdict on one open position.
type PositionAction struct {
	Symbol string `json:"symbol"`
	Action string `json:"action"` // KEEP | CLOSE | REDUCE
	Reason string `json:"reason"`
}

// Position action constants.
const (
	PositionKeep   = "KEEP"
	PositionClose  = "CLOSE"
	PositionReduce = "REDUCE"
)

// ConflictResult is the conflict-resolution oracle's merged output.
type ConflictResult struct {
	ResolvedAllocations map[string]float64 `json:"resolved_allocations"`
	SignalResolutions   []SignalResolution `json:"signal_resolutions"`
	PositionActions     []PositionAction   `json:"position_actions"`
	LeverageCap         float64            `json:"leverage_cap"`
	AdjustmentsMade     []string           `json:"adjustments_made"`
	Confidence          float64            `json:"confidence"`
}

// Advisor is the four-variant oracle contract. Each call may fail or
// return garbage; callers route every result through validation before
// trusting a single field.
type Advisor interface {
	// EvaluateHealth assesses overall system health.
	EvaluateHealth(ctx context.Context, in Input) (*HealthResult, error)

	// EvaluateRiskParameters suggests system-wide risk knob values for
	// the given tier.
	EvaluateRiskParameters(ctx context.Context, in Input) (*RiskParameterResult, error)

	// EvaluateAllocations recommends per-strategy capital allocations.
	EvaluateAllocations(ctx context.Context, in Input) (*AllocationResult, error)

	// ResolveConflicts merges the earlier outputs into final allocations
	// and per-position actions, bounded by the supplied leverage caps.
	ResolveConflicts(ctx context.Context, in Input, alloc *AllocationResult, health *HealthResult) (*ConflictResult, error)

	// Model returns the identifier of the underlying model, for audit.
	Model() string
}
