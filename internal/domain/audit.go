package domain

import "time"

// PromotionEvaluation is an immutable audit record of one promotion check.
type PromotionEvaluation struct {
	EvaluationID string
	Strategy     string
	Version      string
	CurrentState DeploymentState
	TargetState  DeploymentState

	Criteria PromotionCriteria   // snapshot of the thresholds used
	Metrics  *PerformanceMetrics // snapshot of the metrics evaluated

	Passed         bool
	FailedCriteria []string
	EvaluatedAt    time.Time
}

// RollbackEvent is an immutable audit record of one rollback, automatic
// or manual. ToVersion is empty when no replacement version was found.
type RollbackEvent struct {
	EventID     string
	Strategy    string
	FromVersion string
	ToVersion   string
	Reason      string
	Automatic   bool
	OccurredAt  time.Time
}
