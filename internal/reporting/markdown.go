package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Supervisor Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Window: last %d decisions\n\n", r.Window))

	// Cycle summary
	sb.WriteString("## Cycle Summary\n\n")
	s := r.CycleSummary
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Decisions | %d |\n", s.TotalDecisions))
	sb.WriteString(fmt.Sprintf("| Paused Cycles | %d |\n", s.PausedCycles))
	sb.WriteString(fmt.Sprintf("| NORMAL / REDUCED / MINIMUM | %d / %d / %d |\n",
		s.NormalCycles, s.ReducedCycles, s.MinimumCycles))
	sb.WriteString(fmt.Sprintf("| Cycles With Oracle Fallback | %d |\n", s.FallbackCycles))
	sb.WriteString(fmt.Sprintf("| Avg Risk Score | %.1f |\n", s.AvgRiskScore))
	sb.WriteString(fmt.Sprintf("| Avg Cycle Latency (ms) | %d |\n", s.AvgLatencyMs))
	if s.TotalDecisions > 0 {
		sb.WriteString(fmt.Sprintf("| Range | %s to %s |\n",
			s.FirstAt.Format(time.RFC3339), s.LastAt.Format(time.RFC3339)))
	}
	sb.WriteString("\n")

	// Decisions
	sb.WriteString("## Recent Decisions\n\n")
	if len(r.Decisions) > 0 {
		sb.WriteString("| Time | Tier | AllocSum | LevCap | Risk | Paused | Closes | Disables |\n")
		sb.WriteString("|------|------|----------|--------|------|--------|--------|----------|\n")
		for _, d := range r.Decisions {
			paused := ""
			if d.Paused {
				paused = "PAUSED"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %.1fx | %.0f | %s | %d | %d |\n",
				d.CreatedAt.Format("2006-01-02 15:04"), d.RiskTier,
				d.AllocationSum, d.LeverageCap, d.RiskScore, paused, d.Closes, d.Disables))
		}
	} else {
		sb.WriteString("No decisions recorded.\n")
	}
	sb.WriteString("\n")

	// Versions
	sb.WriteString("## Strategy Versions\n\n")
	if len(r.Versions) > 0 {
		sb.WriteString("| Strategy | Version | State | Promoted | Last Eval | Failed Criteria |\n")
		sb.WriteString("|----------|---------|-------|----------|-----------|------------------|\n")
		for _, v := range r.Versions {
			promoted := "-"
			if v.PromotedAt != nil {
				promoted = v.PromotedAt.Format("2006-01-02 15:04")
			}
			eval := "-"
			if v.LastEvalAt != nil {
				verdict := "FAIL"
				if v.LastEvalPassed {
					verdict = "PASS"
				}
				eval = fmt.Sprintf("%s %s", verdict, v.LastEvalAt.Format("2006-01-02 15:04"))
			}
			failed := strings.Join(v.FailedCriteria, "; ")
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				v.Strategy, v.Version, v.State, promoted, eval, failed))
		}
	} else {
		sb.WriteString("No versions registered.\n")
	}
	sb.WriteString("\n")

	// Rollbacks
	sb.WriteString("## Rollbacks\n\n")
	if len(r.Rollbacks) > 0 {
		sb.WriteString("| Time | Strategy | From | To | Trigger | Reason |\n")
		sb.WriteString("|------|----------|------|----|---------|--------|\n")
		for _, ev := range r.Rollbacks {
			trigger := "manual"
			if ev.Automatic {
				trigger = "automatic"
			}
			to := ev.ToVersion
			if to == "" {
				to = "(none)"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				ev.OccurredAt.Format("2006-01-02 15:04"), ev.Strategy,
				ev.FromVersion, to, trigger, ev.Reason))
		}
	} else {
		sb.WriteString("No rollbacks recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
