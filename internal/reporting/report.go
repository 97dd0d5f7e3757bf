package reporting

import (
	"time"

	"strategy-supervisor/internal/domain"
)

// Report is the oversight report: a summary of recent cycle decisions,
// the lifecycle position of every strategy version, and the audit trail
// of promotions and rollbacks.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Window      int // decisions considered, newest first

	// Cycle summary over the window
	CycleSummary CycleSummary

	// Recent decisions (newest first)
	Decisions []DecisionRow

	// Lifecycle state per version (sorted by strategy, then created-at)
	Versions []VersionRow

	// Rollback history (newest first)
	Rollbacks []RollbackRow
}

// CycleSummary aggregates the decision window.
type CycleSummary struct {
	TotalDecisions int
	PausedCycles   int
	NormalCycles   int
	ReducedCycles  int
	MinimumCycles  int
	FallbackCycles int // cycles where at least one oracle fell back

	AvgRiskScore float64
	AvgLatencyMs int64

	FirstAt time.Time
	LastAt  time.Time
}

// DecisionRow is one cycle decision in table form.
type DecisionRow struct {
	DecisionID    string
	CreatedAt     time.Time
	RiskTier      domain.RiskTier
	AllocationSum float64
	LeverageCap   float64
	RiskScore     float64
	Paused        bool
	Closes        int
	Disables      int
}

// VersionRow is one strategy version plus its latest promotion verdict.
type VersionRow struct {
	Strategy   string
	Version    string
	State      domain.DeploymentState
	CreatedAt  time.Time
	PromotedAt *time.Time

	// Latest promotion evaluation, if any was ever recorded.
	LastEvalAt     *time.Time
	LastEvalPassed bool
	FailedCriteria []string
}

// RollbackRow is one rollback event in table form.
type RollbackRow struct {
	Strategy    string
	FromVersion string
	ToVersion   string
	Reason      string
	Automatic   bool
	OccurredAt  time.Time
}
