// Package reporting builds oversight reports from the decision audit
// trail and the lifecycle stores.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

const defaultWindow = 100

// GeneratorOptions configures a Generator. Decisions is required; the
// lifecycle stores may be nil, in which case the corresponding report
// sections stay empty.
type GeneratorOptions struct {
	Decisions   storage.DecisionStore
	Versions    storage.VersionStore
	Evaluations storage.EvaluationStore
	Rollbacks   storage.RollbackStore

	// Window is the number of recent decisions to aggregate; zero selects
	// the default of 100.
	Window int

	// Now overrides the time source. Test hook.
	Now func() time.Time
}

// Generator assembles a Report from the stores.
type Generator struct {
	decisions   storage.DecisionStore
	versions    storage.VersionStore
	evaluations storage.EvaluationStore
	rollbacks   storage.RollbackStore
	window      int
	now         func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	window := opts.Window
	if window <= 0 {
		window = defaultWindow
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		decisions:   opts.Decisions,
		versions:    opts.Versions,
		evaluations: opts.Evaluations,
		rollbacks:   opts.Rollbacks,
		window:      window,
		now:         now,
	}
}

// Generate builds the report. strategies names the strategies whose
// lifecycle state and rollback history are included; when empty, the
// strategy set is derived from the decision window's allocations.
func (g *Generator) Generate(ctx context.Context, strategies []string) (*Report, error) {
	decisions, err := g.decisions.GetRecent(ctx, g.window)
	if err != nil {
		return nil, fmt.Errorf("load decisions: %w", err)
	}

	r := &Report{
		GeneratedAt:  g.now().UTC(),
		Window:       g.window,
		CycleSummary: summarize(decisions),
	}
	for _, d := range decisions {
		r.Decisions = append(r.Decisions, DecisionRow{
			DecisionID:    d.DecisionID,
			CreatedAt:     d.CreatedAt,
			RiskTier:      d.RiskTier,
			AllocationSum: d.AllocationSum(),
			LeverageCap:   d.LeverageCap,
			RiskScore:     d.RiskScore,
			Paused:        d.ShouldPause,
			Closes:        len(d.CloseSymbols),
			Disables:      len(d.DisableStrategies),
		})
	}

	if len(strategies) == 0 {
		strategies = strategiesFromDecisions(decisions)
	}

	if g.versions != nil {
		for _, strategy := range strategies {
			if err := g.appendVersionRows(ctx, r, strategy); err != nil {
				return nil, err
			}
		}
	}
	if g.rollbacks != nil {
		for _, strategy := range strategies {
			events, err := g.rollbacks.GetByStrategy(ctx, strategy)
			if err != nil {
				return nil, fmt.Errorf("load rollbacks for %s: %w", strategy, err)
			}
			for _, ev := range events {
				r.Rollbacks = append(r.Rollbacks, RollbackRow{
					Strategy:    ev.Strategy,
					FromVersion: ev.FromVersion,
					ToVersion:   ev.ToVersion,
					Reason:      ev.Reason,
					Automatic:   ev.Automatic,
					OccurredAt:  ev.OccurredAt,
				})
			}
		}
		sort.SliceStable(r.Rollbacks, func(i, j int) bool {
			return r.Rollbacks[i].OccurredAt.After(r.Rollbacks[j].OccurredAt)
		})
	}

	return r, nil
}

func (g *Generator) appendVersionRows(ctx context.Context, r *Report, strategy string) error {
	versions, err := g.versions.GetByStrategy(ctx, strategy)
	if err != nil {
		return fmt.Errorf("load versions for %s: %w", strategy, err)
	}
	for _, v := range versions {
		row := VersionRow{
			Strategy:   v.Strategy,
			Version:    v.Version,
			State:      v.State,
			CreatedAt:  v.CreatedAt,
			PromotedAt: v.PromotedAt,
		}
		if g.evaluations != nil {
			evals, err := g.evaluations.GetByVersion(ctx, v.Strategy, v.Version)
			if err != nil {
				return fmt.Errorf("load evaluations for %s@%s: %w", v.Strategy, v.Version, err)
			}
			if len(evals) > 0 {
				latest := evals[0]
				at := latest.EvaluatedAt
				row.LastEvalAt = &at
				row.LastEvalPassed = latest.Passed
				row.FailedCriteria = latest.FailedCriteria
			}
		}
		r.Versions = append(r.Versions, row)
	}
	return nil
}

// summarize aggregates the decision window.
func summarize(decisions []*domain.CycleDecision) CycleSummary {
	s := CycleSummary{TotalDecisions: len(decisions)}
	if len(decisions) == 0 {
		return s
	}

	var scoreSum float64
	var latencySum int64
	for _, d := range decisions {
		if d.ShouldPause {
			s.PausedCycles++
		}
		switch d.RiskTier {
		case domain.TierNormal:
			s.NormalCycles++
		case domain.TierReduced:
			s.ReducedCycles++
		case domain.TierMinimum:
			s.MinimumCycles++
		}
		for _, line := range d.Reasoning {
			if strings.Contains(line, "fell back") {
				s.FallbackCycles++
				break
			}
		}
		scoreSum += d.RiskScore
		latencySum += d.LatencyMs
	}
	s.AvgRiskScore = scoreSum / float64(len(decisions))
	s.AvgLatencyMs = latencySum / int64(len(decisions))

	// GetRecent returns newest first.
	s.LastAt = decisions[0].CreatedAt
	s.FirstAt = decisions[len(decisions)-1].CreatedAt
	return s
}

// strategiesFromDecisions collects every strategy that appears in an
// allocation map, sorted.
func strategiesFromDecisions(decisions []*domain.CycleDecision) []string {
	seen := make(map[string]bool)
	for _, d := range decisions {
		for strategy := range d.Allocations {
			seen[strategy] = true
		}
	}
	out := make([]string, 0, len(seen))
	for strategy := range seen {
		out = append(out, strategy)
	}
	sort.Strings(out)
	return out
}
