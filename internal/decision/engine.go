// Package decision merges the validated, constrained oracle outputs into
// one final CycleDecision. Merge is a pure function; precedence between
// conflicting inputs is fixed here and nowhere else.
package decision

import (
	"fmt"
	"math"
	"sort"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/oracle"
)

// SumTolerance is the accepted deviation of an allocation sum from 100.
const SumTolerance = 0.01

// MaxSingleAllocationPct caps any one strategy's share of capital.
const MaxSingleAllocationPct = 50.0

// ReducedTierScale shrinks every allocation under the REDUCED tier; the
// sum is deliberately left under 100 so less capital is deployed.
const ReducedTierScale = 0.7

// MinimumTierAllocationPct is the single-strategy allocation under the
// MINIMUM tier.
const MinimumTierAllocationPct = 30.0

// Input carries everything Merge needs. Health, Alloc and Conflict have
// already passed validation (or are the role's fallback); Params has
// already passed the safety enforcer.
type Input struct {
	Health   *oracle.HealthResult
	Risk     *oracle.RiskParameterResult
	Alloc    *oracle.AllocationResult
	Conflict *oracle.ConflictResult
	Params   domain.RiskParameters
	Snapshot domain.AccountSnapshot

	// ConstraintActions are the clamps the safety enforcer applied this
	// cycle; they go into the reasoning trail verbatim.
	ConstraintActions []string
}

// Merge produces the final cycle decision. Steps run in strict precedence
// order; the pause short-circuit suppresses everything after it.
func Merge(in Input) *domain.CycleDecision {
	tier := in.Health.Tier()
	d := &domain.CycleDecision{
		RiskTier:    tier,
		RiskScore:   in.Risk.CurrentRiskScore,
		RiskTrend:   in.Risk.RiskTrend,
		Reasoning:   headlines(in),
		Allocations: map[string]float64{},
	}

	// Step 1: pause short-circuit. Zero allocations, leverage 0, every
	// open position force-closed. Nothing else runs.
	if in.Health.ShouldPause {
		for name := range in.Conflict.ResolvedAllocations {
			d.Allocations[name] = 0
		}
		d.ShouldPause = true
		d.PauseReason = in.Health.PauseReason
		if d.PauseReason == "" {
			d.PauseReason = "health oracle requested pause"
		}
		d.LeverageCap = 0
		d.CloseSymbols = in.Snapshot.OpenSymbols()
		d.Reasoning = append(d.Reasoning, fmt.Sprintf("pause short-circuit: %s", d.PauseReason))
		return d
	}

	// Steps 2-4: allocation pipeline.
	allocs, notes := normalize(in.Conflict.ResolvedAllocations)
	allocs, capNotes := capAndRescale(allocs)
	notes = append(notes, capNotes...)
	allocs, tierNotes := applyTier(allocs, tier)
	notes = append(notes, tierNotes...)
	d.Allocations = allocs
	d.Reasoning = append(d.Reasoning, notes...)

	// Step 5: leverage cap from the risk parameters' tier-matching cap.
	d.LeverageCap = in.Params.Leverage.ForTier(tier)

	// Step 6: disable-list passthrough. Enabling is never automatic.
	d.DisableStrategies = append([]string(nil), in.Alloc.DisableStrategies...)

	// Step 7: close-list extraction.
	for _, a := range in.Conflict.PositionActions {
		if a.Action == oracle.PositionClose {
			d.CloseSymbols = append(d.CloseSymbols, a.Symbol)
		}
	}

	d.Reasoning = append(d.Reasoning, in.ConstraintActions...)
	return d
}

// headlines collects each oracle's one-line finding for the audit trail.
func headlines(in Input) []string {
	lines := []string{
		fmt.Sprintf("health: %s risk_level=%s confidence=%.2f", in.Health.OverallHealth, in.Health.RiskLevel, in.Health.Confidence),
		fmt.Sprintf("risk: score=%.0f trend=%s stress=%s", in.Risk.CurrentRiskScore, in.Risk.RiskTrend, in.Risk.MarketStressLevel),
		fmt.Sprintf("allocation: %d strategies assessed, %d disabled", len(in.Alloc.Strategies), len(in.Alloc.DisableStrategies)),
	}
	if len(in.Conflict.AdjustmentsMade) > 0 {
		lines = append(lines, fmt.Sprintf("conflict: %d adjustments made", len(in.Conflict.AdjustmentsMade)))
	}
	return lines
}

// normalize rescales the resolved allocation map to sum to 100. A zero
// sum falls back to the equal split over the managed strategies; division
// by zero is impossible by construction.
func normalize(resolved map[string]float64) (map[string]float64, []string) {
	sum := 0.0
	for _, v := range resolved {
		sum += v
	}

	if sum == 0 {
		names := domain.ManagedStrategies()
		equal := 100.0 / float64(len(names))
		out := make(map[string]float64, len(names))
		for _, name := range names {
			out[name] = equal
		}
		return out, []string{"zero allocation sum, equal split applied"}
	}

	out := make(map[string]float64, len(resolved))
	if math.Abs(sum-100) <= SumTolerance {
		for name, v := range resolved {
			out[name] = v
		}
		return out, nil
	}

	scale := 100.0 / sum
	for name, v := range resolved {
		out[name] = v * scale
	}
	return out, []string{fmt.Sprintf("allocation sum %.2f rescaled to 100", sum)}
}

// capAndRescale caps each allocation at 50%, then proportionally scales
// the uncapped entries back up so the total returns to 100. Entries at
// the cap stay at the cap; a map where everything sits at the cap keeps
// its reduced sum.
func capAndRescale(allocs map[string]float64) (map[string]float64, []string) {
	var notes []string
	out := make(map[string]float64, len(allocs))
	capped := make(map[string]bool, len(allocs))

	for name, v := range allocs {
		if v > MaxSingleAllocationPct {
			notes = append(notes, fmt.Sprintf("capped %s allocation %.1f%% at %.0f%%", name, v, MaxSingleAllocationPct))
			out[name] = MaxSingleAllocationPct
			capped[name] = true
		} else {
			out[name] = v
		}
	}
	if len(notes) == 0 {
		return out, nil
	}

	sum := 0.0
	uncappedSum := 0.0
	for name, v := range out {
		sum += v
		if !capped[name] {
			uncappedSum += v
		}
	}
	if sum >= 100-SumTolerance || sum <= 0 || uncappedSum <= 0 {
		return out, notes
	}

	// Distribute the shortfall over the uncapped entries; they cannot
	// cross the cap because the shortfall came from entries above it.
	scale := (100 - (sum - uncappedSum)) / uncappedSum
	for name, v := range out {
		if !capped[name] {
			out[name] = math.Min(v*scale, MaxSingleAllocationPct)
		}
	}
	notes = append(notes, "rescaled uncapped allocations to restore sum of 100")
	return out, notes
}

// applyTier reduces deployed capital below the NORMAL tier. REDUCED
// scales everything by 0.7; MINIMUM collapses to the single top-ranked
// strategy at a fixed 30%.
func applyTier(allocs map[string]float64, tier domain.RiskTier) (map[string]float64, []string) {
	switch tier {
	case domain.TierReduced:
		out := make(map[string]float64, len(allocs))
		for name, v := range allocs {
			out[name] = v * ReducedTierScale
		}
		return out, []string{fmt.Sprintf("REDUCED tier: allocations scaled by %.1f", ReducedTierScale)}

	case domain.TierMinimum:
		top := topStrategy(allocs)
		out := make(map[string]float64, len(allocs))
		for name := range allocs {
			out[name] = 0
		}
		if top != "" {
			out[top] = MinimumTierAllocationPct
		}
		return out, []string{fmt.Sprintf("MINIMUM tier: collapsed to %s at %.0f%%", top, MinimumTierAllocationPct)}

	default:
		return allocs, nil
	}
}

// topStrategy returns the highest-allocated strategy, ties broken by name
// for determinism.
func topStrategy(allocs map[string]float64) string {
	names := make([]string, 0, len(allocs))
	for name := range allocs {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestVal := math.Inf(-1)
	for _, name := range names {
		if allocs[name] > bestVal {
			best = name
			bestVal = allocs[name]
		}
	}
	return best
}
