package validation

import (
	"strings"
	"testing"

	"strategy-supervisor/internal/oracle"
)

func validHealth() *oracle.HealthResult {
	return &oracle.HealthResult{
		OverallHealth: oracle.HealthOK,
		RiskLevel:     "moderate",
		Confidence:    0.9,
	}
}

func TestValidateHealth_Valid(t *testing.T) {
	r := ValidateHealth(validHealth())
	if !r.Valid {
		t.Fatalf("expected valid, anomalies: %v", r.Anomalies)
	}
	if len(r.Anomalies) != 0 {
		t.Errorf("expected no anomalies, got %v", r.Anomalies)
	}
}

func TestValidateHealth_Nil(t *testing.T) {
	r := ValidateHealth(nil)
	if r.Valid {
		t.Fatal("nil result must be invalid")
	}
}

func TestValidateHealth_UnknownLevel(t *testing.T) {
	h := validHealth()
	h.OverallHealth = "FINE"
	if r := ValidateHealth(h); r.Valid {
		t.Fatal("unknown overall_health must be invalid")
	}
}

func TestValidateHealth_ConfidenceOutOfRange(t *testing.T) {
	h := validHealth()
	h.Confidence = 1.5
	if r := ValidateHealth(h); r.Valid {
		t.Fatal("confidence > 1 must be invalid")
	}
}

func TestValidateHealth_LowConfidenceIsAnomalyNotFailure(t *testing.T) {
	h := validHealth()
	h.Confidence = 0.2
	r := ValidateHealth(h)
	if !r.Valid {
		t.Fatal("low confidence must stay valid")
	}
	if len(r.Anomalies) == 0 || !strings.Contains(r.Anomalies[0], "low confidence") {
		t.Errorf("expected low-confidence anomaly, got %v", r.Anomalies)
	}
}

func TestValidateHealth_OKWithPauseContradiction(t *testing.T) {
	h := validHealth()
	h.ShouldPause = true
	h.PauseReason = "volatility spike"
	r := ValidateHealth(h)
	if !r.Valid {
		t.Fatal("contradiction must not invalidate the result")
	}
	found := false
	for _, a := range r.Anomalies {
		if strings.Contains(a, "contradiction") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected contradiction anomaly, got %v", r.Anomalies)
	}
}

func TestValidateHealth_CriticalWithoutProtectiveAction(t *testing.T) {
	h := validHealth()
	h.OverallHealth = oracle.HealthCritical
	r := ValidateHealth(h)
	if !r.Valid {
		t.Fatal("contradiction must not invalidate the result")
	}
	if len(r.Anomalies) == 0 {
		t.Error("expected contradiction anomaly for CRITICAL with no action")
	}
}

func validRisk() *oracle.RiskParameterResult {
	return &oracle.RiskParameterResult{
		RiskThresholds: oracle.RiskThresholds{
			DrawdownWarningPct:  -5,
			DrawdownCriticalPct: -10,
			DrawdownPausePct:    -15,
		},
		LeverageCaps:          oracle.LeverageCaps{Normal: 10, Reduced: 5, Minimum: 2},
		VolatilityAdjustments: oracle.VolatilityAdjustments{PositionSizeScalar: 1},
		CurrentRiskScore:      40,
		RiskTrend:             "STABLE",
		Confidence:            0.8,
	}
}

func TestValidateRiskParameters_Valid(t *testing.T) {
	r := ValidateRiskParameters(validRisk())
	if !r.Valid {
		t.Fatalf("expected valid, anomalies: %v", r.Anomalies)
	}
}

func TestValidateRiskParameters_PositiveDrawdown(t *testing.T) {
	p := validRisk()
	p.RiskThresholds.DrawdownPausePct = 15
	if r := ValidateRiskParameters(p); r.Valid {
		t.Fatal("positive drawdown threshold must be invalid")
	}
}

func TestValidateRiskParameters_ZeroLeverage(t *testing.T) {
	p := validRisk()
	p.LeverageCaps.Minimum = 0
	if r := ValidateRiskParameters(p); r.Valid {
		t.Fatal("zero leverage cap must be invalid")
	}
}

func TestValidateRiskParameters_RiskScoreOutOfRange(t *testing.T) {
	p := validRisk()
	p.CurrentRiskScore = 180
	if r := ValidateRiskParameters(p); r.Valid {
		t.Fatal("risk score above 100 must be invalid")
	}
}

func TestValidateRiskParameters_UnknownImmediateAction(t *testing.T) {
	p := validRisk()
	p.ImmediateActions = []oracle.ImmediateAction{{Action: "LIQUIDATE_EVERYTHING", Reason: "x"}}
	r := ValidateRiskParameters(p)
	if !r.Valid {
		t.Fatal("unknown immediate action is an anomaly, not a failure")
	}
	if len(r.Anomalies) == 0 {
		t.Error("expected anomaly for unknown action")
	}
}

func validAlloc() *oracle.AllocationResult {
	return &oracle.AllocationResult{
		Strategies: map[string]oracle.StrategyAssessment{
			"momentum":       {Health: "healthy", RecommendedAllocation: 30},
			"mean_reversion": {Health: "healthy", RecommendedAllocation: 30},
			"breakout":       {Health: "healthy", RecommendedAllocation: 20},
		},
		Confidence: 0.7,
	}
}

func TestValidateAllocations_Valid(t *testing.T) {
	r := ValidateAllocations(validAlloc())
	if !r.Valid {
		t.Fatalf("expected valid, anomalies: %v", r.Anomalies)
	}
}

func TestValidateAllocations_EmptyStrategies(t *testing.T) {
	if r := ValidateAllocations(&oracle.AllocationResult{Confidence: 0.9}); r.Valid {
		t.Fatal("empty strategies map must be invalid")
	}
}

func TestValidateAllocations_SingleOutOfBounds(t *testing.T) {
	a := validAlloc()
	a.Strategies["momentum"] = oracle.StrategyAssessment{RecommendedAllocation: 120}
	if r := ValidateAllocations(a); r.Valid {
		t.Fatal("allocation above 100 must be invalid")
	}
}

func TestValidateAllocations_SumAboveCap(t *testing.T) {
	a := validAlloc()
	a.Strategies["momentum"] = oracle.StrategyAssessment{RecommendedAllocation: 60}
	a.Strategies["mean_reversion"] = oracle.StrategyAssessment{RecommendedAllocation: 60}
	a.Strategies["breakout"] = oracle.StrategyAssessment{RecommendedAllocation: 60}
	if r := ValidateAllocations(a); r.Valid {
		t.Fatal("allocation sum above 150 must be invalid")
	}
}

func TestValidateAllocations_DisableUnknownStrategyFlagged(t *testing.T) {
	a := validAlloc()
	a.DisableStrategies = []string{"scalper"}
	r := ValidateAllocations(a)
	if !r.Valid {
		t.Fatal("unknown disable target is an anomaly, not a failure")
	}
	if len(r.Anomalies) == 0 {
		t.Error("expected anomaly for unknown disable target")
	}
}

func TestValidateConflicts_Valid(t *testing.T) {
	c := &oracle.ConflictResult{
		ResolvedAllocations: map[string]float64{"momentum": 50, "breakout": 50},
		LeverageCap:         8,
		Confidence:          0.8,
	}
	r := ValidateConflicts(c)
	if !r.Valid {
		t.Fatalf("expected valid, anomalies: %v", r.Anomalies)
	}
}

func TestValidateConflicts_MissingAllocations(t *testing.T) {
	if r := ValidateConflicts(&oracle.ConflictResult{Confidence: 0.8}); r.Valid {
		t.Fatal("missing resolved_allocations must be invalid")
	}
}

func TestValidateConflicts_NegativeLeverageCap(t *testing.T) {
	c := &oracle.ConflictResult{
		ResolvedAllocations: map[string]float64{"momentum": 100},
		LeverageCap:         -1,
		Confidence:          0.8,
	}
	if r := ValidateConflicts(c); r.Valid {
		t.Fatal("negative leverage cap must be invalid")
	}
}

func TestValidateConflicts_UnknownPositionActionFlagged(t *testing.T) {
	c := &oracle.ConflictResult{
		ResolvedAllocations: map[string]float64{"momentum": 100},
		PositionActions:     []oracle.PositionAction{{Symbol: "BTCUSDT", Action: "HEDGE"}},
		Confidence:          0.8,
	}
	r := ValidateConflicts(c)
	if !r.Valid {
		t.Fatal("unknown position action is an anomaly, not a failure")
	}
	if len(r.Anomalies) == 0 {
		t.Error("expected anomaly for unknown position action")
	}
}
