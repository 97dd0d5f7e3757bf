// Package validation is the trust boundary for oracle output. Nothing an
// oracle returns is used until it has passed the checks here; a rejected
// result makes the caller fall back to the conservative default for that
// oracle role only.
package validation

import (
	"fmt"

	"strategy-supervisor/internal/oracle"
)

// LowConfidenceThreshold marks results needing extra scrutiny. Low
// confidence is an anomaly, not a failure.
const LowConfidenceThreshold = 0.3

// Allocation bounds for the allocation oracle: each recommendation must be
// in [0, 100] and the raw sum may not exceed 150 (normalization handles
// the rest downstream).
const (
	maxSingleAllocation = 100.0
	maxAllocationSum    = 150.0
)

// Result is the validator verdict: Valid=false means the output must not
// be used at all; Anomalies are ordered observations, present on both
// valid and invalid results.
type Result struct {
	Valid     bool
	Anomalies []string
}

// flag appends an anomaly without invalidating the result.
func (r *Result) flag(format string, args ...any) {
	r.Anomalies = append(r.Anomalies, fmt.Sprintf(format, args...))
}

// reject appends an anomaly and marks the result invalid.
func (r *Result) reject(format string, args ...any) {
	r.Valid = false
	r.flag(format, args...)
}

// checkConfidence applies the shared confidence rules.
func (r *Result) checkConfidence(confidence float64) {
	if confidence < 0 || confidence > 1 {
		r.reject("confidence %.2f outside [0,1]", confidence)
		return
	}
	if confidence < LowConfidenceThreshold {
		r.flag("low confidence %.2f, extra scrutiny required", confidence)
	}
}

// ValidateHealth checks the health oracle output.
func ValidateHealth(h *oracle.HealthResult) Result {
	r := Result{Valid: true}
	if h == nil {
		r.reject("health result is nil")
		return r
	}

	r.checkConfidence(h.Confidence)

	switch h.OverallHealth {
	case oracle.HealthOK, oracle.HealthDegraded, oracle.HealthCritical:
	case "":
		r.reject("overall_health missing")
	default:
		r.reject("overall_health %q is not OK|DEGRADED|CRITICAL", h.OverallHealth)
	}
	if !r.Valid {
		return r
	}

	// Contradictions are flagged, not fatal; the pause flag wins downstream.
	if h.OverallHealth == oracle.HealthOK && h.ShouldPause {
		r.flag("contradiction: overall_health OK with should_pause=true")
	}
	if h.OverallHealth == oracle.HealthCritical && !h.ShouldPause && len(h.AnomaliesDetected) == 0 {
		r.flag("contradiction: overall_health CRITICAL with no protective action")
	}
	if h.ShouldPause && h.PauseReason == "" {
		r.flag("should_pause=true without pause_reason")
	}

	return r
}

// ValidateRiskParameters checks the risk-parameter oracle output. The
// safety enforcer clamps values afterwards; the validator only rejects
// output that is structurally unusable.
func ValidateRiskParameters(p *oracle.RiskParameterResult) Result {
	r := Result{Valid: true}
	if p == nil {
		r.reject("risk parameter result is nil")
		return r
	}

	r.checkConfidence(p.Confidence)

	t := p.RiskThresholds
	if t.DrawdownWarningPct > 0 || t.DrawdownCriticalPct > 0 || t.DrawdownPausePct > 0 {
		r.reject("drawdown thresholds must be negative: warning=%.1f critical=%.1f pause=%.1f",
			t.DrawdownWarningPct, t.DrawdownCriticalPct, t.DrawdownPausePct)
	}

	c := p.LeverageCaps
	if c.Normal <= 0 || c.Reduced <= 0 || c.Minimum <= 0 {
		r.reject("leverage caps must be positive: normal=%.1f reduced=%.1f minimum=%.1f",
			c.Normal, c.Reduced, c.Minimum)
	}

	if p.VolatilityAdjustments.PositionSizeScalar <= 0 {
		r.reject("position_size_scalar %.2f must be positive", p.VolatilityAdjustments.PositionSizeScalar)
	}

	if p.CurrentRiskScore < 0 || p.CurrentRiskScore > 100 {
		r.reject("current_risk_score %.1f outside [0,100]", p.CurrentRiskScore)
	}

	switch p.RiskTrend {
	case "IMPROVING", "STABLE", "DETERIORATING", "":
	default:
		r.flag("unknown risk_trend %q", p.RiskTrend)
	}

	for i, a := range p.ImmediateActions {
		switch a.Action {
		case "CLOSE_POSITION", "PAUSE_STRATEGY", "REDUCE_LEVERAGE", "TIGHTEN_STOPS":
		default:
			r.flag("immediate_actions[%d]: unknown action %q", i, a.Action)
		}
	}

	return r
}

// ValidateAllocations checks the allocation oracle output.
func ValidateAllocations(a *oracle.AllocationResult) Result {
	r := Result{Valid: true}
	if a == nil {
		r.reject("allocation result is nil")
		return r
	}

	r.checkConfidence(a.Confidence)

	if len(a.Strategies) == 0 {
		r.reject("strategies map is empty")
		return r
	}

	sum := 0.0
	for name, s := range a.Strategies {
		if s.RecommendedAllocation < 0 || s.RecommendedAllocation > maxSingleAllocation {
			r.reject("strategy %s allocation %.1f outside [0,%.0f]", name, s.RecommendedAllocation, maxSingleAllocation)
		}
		sum += s.RecommendedAllocation
	}
	if sum > maxAllocationSum {
		r.reject("allocation sum %.1f exceeds %.0f", sum, maxAllocationSum)
	}

	for _, name := range a.DisableStrategies {
		if _, ok := a.Strategies[name]; !ok {
			r.flag("disable_strategies names unassessed strategy %q", name)
		}
	}

	return r
}

// ValidateConflicts checks the conflict-resolution oracle output.
func ValidateConflicts(c *oracle.ConflictResult) Result {
	r := Result{Valid: true}
	if c == nil {
		r.reject("conflict result is nil")
		return r
	}

	r.checkConfidence(c.Confidence)

	if c.ResolvedAllocations == nil {
		r.reject("resolved_allocations missing")
		return r
	}

	for name, pct := range c.ResolvedAllocations {
		if pct < 0 || pct > maxSingleAllocation {
			r.reject("resolved allocation %s=%.1f outside [0,%.0f]", name, pct, maxSingleAllocation)
		}
	}

	if c.LeverageCap < 0 {
		r.reject("leverage_cap %.1f is negative", c.LeverageCap)
	}

	for i, a := range c.PositionActions {
		switch a.Action {
		case oracle.PositionKeep, oracle.PositionClose, oracle.PositionReduce:
		default:
			r.flag("position_actions[%d]: unknown action %q", i, a.Action)
		}
	}

	return r
}
