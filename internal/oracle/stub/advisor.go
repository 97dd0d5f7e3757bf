// Package stub provides a scriptable oracle.Advisor for tests.
package stub

import (
	"context"
	"sync"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/oracle"
)

// Advisor is a scriptable oracle.Advisor. Each variant returns the
// configured result or error; call order is recorded for assertions.
type Advisor struct {
	mu    sync.Mutex
	calls []oracle.Kind

	Health      *oracle.HealthResult
	HealthErr   error
	Risk        *oracle.RiskParameterResult
	RiskErr     error
	Alloc       *oracle.AllocationResult
	AllocErr    error
	Conflict    *oracle.ConflictResult
	ConflictErr error

	ModelID string
}

// Compile-time interface check.
var _ oracle.Advisor = (*Advisor)(nil)

// NewHealthy returns a stub scripted with a fully valid, unremarkable set
// of results: OK health, default-equivalent risk knobs, equal allocations.
func NewHealthy() *Advisor {
	names := domain.ManagedStrategies()
	strategies := make(map[string]oracle.StrategyAssessment, len(names))
	resolved := make(map[string]float64, len(names))
	for _, name := range names {
		strategies[name] = oracle.StrategyAssessment{
			Health:                "healthy",
			RegimeFit:             0.7,
			RecommendedAllocation: 25,
			Reasoning:             "baseline",
		}
		resolved[name] = 25
	}

	return &Advisor{
		Health: &oracle.HealthResult{
			OverallHealth: oracle.HealthOK,
			RiskLevel:     "moderate",
			Confidence:    0.9,
		},
		Risk: &oracle.RiskParameterResult{
			RiskThresholds: oracle.RiskThresholds{
				DrawdownWarningPct:  -5,
				DrawdownCriticalPct: -10,
				DrawdownPausePct:    -15,
			},
			LeverageCaps:          oracle.LeverageCaps{Normal: 10, Reduced: 5, Minimum: 2},
			ExposureLimits:        oracle.ExposureLimits{MaxTotalExposurePct: 80, MaxSingleSymbolPct: 25, MaxConcurrentSymbols: 8},
			VolatilityAdjustments: oracle.VolatilityAdjustments{PositionSizeScalar: 1.0},
			CurrentRiskScore:      35,
			RiskTrend:             "STABLE",
			MarketStressLevel:     "low",
			Confidence:            0.85,
		},
		Alloc: &oracle.AllocationResult{
			Strategies: strategies,
			Confidence: 0.8,
		},
		Conflict: &oracle.ConflictResult{
			ResolvedAllocations: resolved,
			LeverageCap:         10,
			Confidence:          0.8,
		},
		ModelID: "stub-model",
	}
}

// Calls returns the variants invoked so far, in order.
func (a *Advisor) Calls() []oracle.Kind {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]oracle.Kind, len(a.calls))
	copy(out, a.calls)
	return out
}

func (a *Advisor) record(k oracle.Kind) {
	a.mu.Lock()
	a.calls = append(a.calls, k)
	a.mu.Unlock()
}

// EvaluateHealth implements oracle.Advisor.
func (a *Advisor) EvaluateHealth(_ context.Context, _ oracle.Input) (*oracle.HealthResult, error) {
	a.record(oracle.KindHealth)
	return a.Health, a.HealthErr
}

// EvaluateRiskParameters implements oracle.Advisor.
func (a *Advisor) EvaluateRiskParameters(_ context.Context, _ oracle.Input) (*oracle.RiskParameterResult, error) {
	a.record(oracle.KindRisk)
	return a.Risk, a.RiskErr
}

// EvaluateAllocations implements oracle.Advisor.
func (a *Advisor) EvaluateAllocations(_ context.Context, _ oracle.Input) (*oracle.AllocationResult, error) {
	a.record(oracle.KindAllocation)
	return a.Alloc, a.AllocErr
}

// ResolveConflicts implements oracle.Advisor.
func (a *Advisor) ResolveConflicts(_ context.Context, _ oracle.Input, _ *oracle.AllocationResult, _ *oracle.HealthResult) (*oracle.ConflictResult, error) {
	a.record(oracle.KindConflict)
	return a.Conflict, a.ConflictErr
}

// Model implements oracle.Advisor.
func (a *Advisor) Model() string {
	if a.ModelID == "" {
		return "stub-model"
	}
	return a.ModelID
}
