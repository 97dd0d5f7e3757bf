// Package storage defines the persistence contract of the supervisor.
// The relational store holds entity state; the audit stores are strictly
// append-only.
package storage

import (
	"context"
	"time"

	"strategy-supervisor/internal/domain"
)

// Well-known system state keys.
const (
	KeyTradingEnabled     = "trading_enabled"
	KeyStatus             = "status"
	KeyPauseReason        = "pause_reason"
	KeyLastCycleAt        = "last_cycle_at"
	KeyCurrentAllocations = "current_allocations"
	KeyRiskParameters     = "risk_parameters"
)

// VersionStore provides access to strategy_versions storage.
type VersionStore interface {
	// Insert adds a new version. Returns ErrDuplicateKey if
	// (strategy, version) exists.
	Insert(ctx context.Context, v *domain.StrategyVersion) error

	// Get retrieves one version. Returns ErrNotFound if not exists.
	Get(ctx context.Context, strategy, version string) (*domain.StrategyVersion, error)

	// GetByStrategy retrieves all versions of a strategy, ordered by
	// created-at ASC.
	GetByStrategy(ctx context.Context, strategy string) ([]*domain.StrategyVersion, error)

	// GetByState retrieves all versions currently in the given state.
	GetByState(ctx context.Context, state domain.DeploymentState) ([]*domain.StrategyVersion, error)

	// UpdateState moves a version to a new state, stamping updated-at and,
	// when promotedAt is non-nil, promoted-at. Returns ErrNotFound if the
	// version does not exist. Transition legality is the caller's duty.
	UpdateState(ctx context.Context, strategy, version string, state domain.DeploymentState, promotedAt *time.Time) error
}

// DeploymentStore provides access to strategy_deployments storage, one
// row per (strategy, version, environment).
type DeploymentStore interface {
	// Insert adds a new deployment. Returns ErrDuplicateKey if the
	// (strategy, version, environment) row exists.
	Insert(ctx context.Context, d *domain.StrategyDeployment) error

	// Get retrieves one deployment. Returns ErrNotFound if not exists.
	Get(ctx context.Context, strategy, version string, env domain.Environment) (*domain.StrategyDeployment, error)

	// GetByEnvironment retrieves all deployments in an environment,
	// ordered by deployed-at ASC.
	GetByEnvironment(ctx context.Context, env domain.Environment) ([]*domain.StrategyDeployment, error)

	// Update replaces the mutable fields (state, shadow flag, last
	// evaluation, cached metrics) of an existing deployment. Returns
	// ErrNotFound if the row does not exist.
	Update(ctx context.Context, d *domain.StrategyDeployment) error
}

// CriteriaStore provides access to promotion_criteria storage. The row
// with an empty strategy name is the global default.
type CriteriaStore interface {
	// Upsert inserts or replaces the criteria row for c.Strategy.
	Upsert(ctx context.Context, c domain.PromotionCriteria) error

	// Get retrieves the row for the given strategy (empty string for the
	// global default). Returns ErrNotFound if not exists.
	Get(ctx context.Context, strategy string) (domain.PromotionCriteria, error)
}

// SystemStateStore is the system-wide key-value state (trading-enabled
// flag, status, pause reason, last cycle timestamp, current allocations).
type SystemStateStore interface {
	// Set writes one key.
	Set(ctx context.Context, key, value string) error

	// SetMulti writes several keys atomically where the backend supports
	// transactions; the memory store applies them under one lock.
	SetMulti(ctx context.Context, kv map[string]string) error

	// Get reads one key. Returns ErrNotFound if the key was never set.
	Get(ctx context.Context, key string) (string, error)
}

// DecisionStore is the append-only audit log of cycle decisions.
type DecisionStore interface {
	// Append records one decision. Returns ErrDuplicateKey on an ID collision.
	Append(ctx context.Context, d *domain.CycleDecision) error

	// GetRecent retrieves up to limit decisions, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.CycleDecision, error)
}

// EvaluationStore is the append-only audit log of promotion evaluations.
type EvaluationStore interface {
	// Append records one evaluation. Returns ErrDuplicateKey on an ID collision.
	Append(ctx context.Context, e *domain.PromotionEvaluation) error

	// GetByVersion retrieves all evaluations for a version, newest first.
	GetByVersion(ctx context.Context, strategy, version string) ([]*domain.PromotionEvaluation, error)
}

// RollbackStore is the append-only audit log of rollback events.
type RollbackStore interface {
	// Append records one rollback event. Returns ErrDuplicateKey on an ID collision.
	Append(ctx context.Context, e *domain.RollbackEvent) error

	// GetByStrategy retrieves all rollback events for a strategy, newest first.
	GetByStrategy(ctx context.Context, strategy string) ([]*domain.RollbackEvent, error)
}
