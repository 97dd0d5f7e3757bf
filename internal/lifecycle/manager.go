// Package lifecycle drives strategy versions through the deployment
// pipeline: creation, manual transitions, criteria-gated promotion and
// degradation-triggered rollback.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/idhash"
	"strategy-supervisor/internal/storage"
)

// MetricsProvider supplies live performance metrics for a deployed version.
type MetricsProvider interface {
	MetricsFor(ctx context.Context, strategy, version string) (*domain.PerformanceMetrics, error)
}

// Options configures a Manager. All stores and the metrics provider are
// required; Now is optional and defaults to time.Now.
type Options struct {
	Versions    storage.VersionStore
	Deployments storage.DeploymentStore
	Criteria    storage.CriteriaStore
	Evaluations storage.EvaluationStore
	Rollbacks   storage.RollbackStore
	Metrics     MetricsProvider
	Now         func() time.Time
}

// Manager owns every write to version and deployment state.
type Manager struct {
	versions    storage.VersionStore
	deployments storage.DeploymentStore
	criteria    storage.CriteriaStore
	evaluations storage.EvaluationStore
	rollbacks   storage.RollbackStore
	metrics     MetricsProvider
	now         func() time.Time
}

func NewManager(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		versions:    opts.Versions,
		deployments: opts.Deployments,
		criteria:    opts.Criteria,
		evaluations: opts.Evaluations,
		rollbacks:   opts.Rollbacks,
		metrics:     opts.Metrics,
		now:         now,
	}
}

// CreateVersion registers a new version in the development state. The
// content hash is computed over the parameter map so identical tunings
// are detectable across versions.
func (m *Manager) CreateVersion(ctx context.Context, strategy, version string, params map[string]string) (*domain.StrategyVersion, error) {
	if strategy == "" || version == "" {
		return nil, fmt.Errorf("%w: strategy and version are required", storage.ErrInvalidInput)
	}

	now := m.now().UTC()
	v := &domain.StrategyVersion{
		Strategy:    strategy,
		Version:     version,
		State:       domain.StateDevelopment,
		ContentHash: idhash.ComputeVersionHash(strategy, version, params),
		Parameters:  params,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.versions.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("insert version %s: %w", v.Key(), err)
	}
	log.Printf("[lifecycle] created %s in %s", v.Key(), v.State)
	return v, nil
}

// Transition applies a manual state change. Illegal moves return
// *InvalidTransitionError without touching storage.
func (m *Manager) Transition(ctx context.Context, strategy, version string, target domain.DeploymentState) error {
	v, err := m.versions.Get(ctx, strategy, version)
	if err != nil {
		return fmt.Errorf("load version %s@%s: %w", strategy, version, err)
	}
	if !v.State.CanTransition(target) {
		return &InvalidTransitionError{Strategy: strategy, Version: version, From: v.State, To: target}
	}
	return m.applyTransition(ctx, v, target)
}

// applyTransition writes the version state change and keeps deployments
// in step. Legality has already been established by the caller.
func (m *Manager) applyTransition(ctx context.Context, v *domain.StrategyVersion, target domain.DeploymentState) error {
	now := m.now().UTC()

	var promotedAt *time.Time
	if target == domain.StateMainnetActive && v.PromotedAt == nil {
		promotedAt = &now
	}
	if target == domain.StateMainnetActive {
		if err := m.deprecateOtherActive(ctx, v); err != nil {
			return err
		}
	}

	if err := m.versions.UpdateState(ctx, v.Strategy, v.Version, target, promotedAt); err != nil {
		return fmt.Errorf("update version %s: %w", v.Key(), err)
	}
	if err := m.syncDeployments(ctx, v, target, now); err != nil {
		return err
	}

	log.Printf("[lifecycle] %s: %s -> %s", v.Key(), v.State, target)
	v.State = target
	return nil
}

// deprecateOtherActive enforces the single-active-mainnet invariant: any
// other version of the same strategy already in mainnet_active steps down
// to deprecated before the new one steps up.
func (m *Manager) deprecateOtherActive(ctx context.Context, v *domain.StrategyVersion) error {
	active, err := m.versions.GetByState(ctx, domain.StateMainnetActive)
	if err != nil {
		return fmt.Errorf("list active versions: %w", err)
	}
	for _, other := range active {
		if other.Strategy != v.Strategy || other.Version == v.Version {
			continue
		}
		if err := m.versions.UpdateState(ctx, other.Strategy, other.Version, domain.StateDeprecated, nil); err != nil {
			return fmt.Errorf("deprecate %s: %w", other.Key(), err)
		}
		m.setDeploymentState(ctx, other.Strategy, other.Version, domain.EnvMainnet, domain.StateDeprecated)
		log.Printf("[lifecycle] %s deprecated in favor of %s", other.Key(), v.Key())
	}
	return nil
}

// syncDeployments creates or updates the deployment row implied by the
// new version state.
func (m *Manager) syncDeployments(ctx context.Context, v *domain.StrategyVersion, target domain.DeploymentState, now time.Time) error {
	switch target {
	case domain.StateTestnetActive:
		return m.ensureDeployment(ctx, &domain.StrategyDeployment{
			Strategy:    v.Strategy,
			Version:     v.Version,
			Environment: domain.EnvTestnet,
			State:       target,
			DeployedAt:  now,
		})
	case domain.StateMainnetShadow:
		return m.ensureDeployment(ctx, &domain.StrategyDeployment{
			Strategy:    v.Strategy,
			Version:     v.Version,
			Environment: domain.EnvMainnet,
			State:       target,
			ShadowMode:  true,
			DeployedAt:  now,
		})
	case domain.StateTestnetValidated:
		m.setDeploymentState(ctx, v.Strategy, v.Version, domain.EnvTestnet, target)
	case domain.StateMainnetActive, domain.StateMainnetPaused:
		m.setDeploymentState(ctx, v.Strategy, v.Version, domain.EnvMainnet, target)
	case domain.StateDeprecated:
		m.setDeploymentState(ctx, v.Strategy, v.Version, domain.EnvTestnet, target)
		m.setDeploymentState(ctx, v.Strategy, v.Version, domain.EnvMainnet, target)
	}
	return nil
}

// ensureDeployment inserts the row, or revives an existing one (a paused
// version returning to service keeps its original row).
func (m *Manager) ensureDeployment(ctx context.Context, d *domain.StrategyDeployment) error {
	err := m.deployments.Insert(ctx, d)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("insert deployment %s@%s/%s: %w", d.Strategy, d.Version, d.Environment, err)
	}
	existing, err := m.deployments.Get(ctx, d.Strategy, d.Version, d.Environment)
	if err != nil {
		return fmt.Errorf("load deployment %s@%s/%s: %w", d.Strategy, d.Version, d.Environment, err)
	}
	existing.State = d.State
	existing.ShadowMode = d.ShadowMode
	return m.deployments.Update(ctx, existing)
}

// setDeploymentState is best-effort: a missing row (e.g. a version
// deprecated straight out of development) is not an error.
func (m *Manager) setDeploymentState(ctx context.Context, strategy, version string, env domain.Environment, state domain.DeploymentState) {
	d, err := m.deployments.Get(ctx, strategy, version, env)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[lifecycle] load deployment %s@%s/%s: %v", strategy, version, env, err)
		}
		return
	}
	d.State = state
	if state == domain.StateMainnetActive {
		d.ShadowMode = false
	}
	if err := m.deployments.Update(ctx, d); err != nil {
		log.Printf("[lifecycle] update deployment %s@%s/%s: %v", strategy, version, env, err)
	}
}

// ResolveCriteria returns the thresholds for a strategy: per-strategy
// override first, then the stored global default, then the compiled-in
// default.
func (m *Manager) ResolveCriteria(ctx context.Context, strategy string) (domain.PromotionCriteria, error) {
	c, err := m.criteria.Get(ctx, strategy)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.PromotionCriteria{}, fmt.Errorf("load criteria for %q: %w", strategy, err)
	}
	c, err = m.criteria.Get(ctx, "")
	if err == nil {
		c.Strategy = strategy
		return c, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.PromotionCriteria{}, fmt.Errorf("load default criteria: %w", err)
	}
	c = domain.DefaultPromotionCriteria()
	c.Strategy = strategy
	return c, nil
}

// promotableStates in pipeline order.
var promotableStates = []domain.DeploymentState{
	domain.StateTestnetActive,
	domain.StateTestnetValidated,
	domain.StateMainnetShadow,
}

// PromotionSweep evaluates every version awaiting promotion and advances
// the ones that pass. Each version is processed independently: a failure
// on one strategy never blocks the others.
func (m *Manager) PromotionSweep(ctx context.Context) ([]*domain.PromotionEvaluation, error) {
	var evals []*domain.PromotionEvaluation
	var errs []error

	for _, state := range promotableStates {
		versions, err := m.versions.GetByState(ctx, state)
		if err != nil {
			return evals, fmt.Errorf("list versions in %s: %w", state, err)
		}
		for _, v := range versions {
			eval, err := m.evaluateOne(ctx, v)
			if err != nil {
				log.Printf("[lifecycle] promotion check %s: %v", v.Key(), err)
				errs = append(errs, fmt.Errorf("%s: %w", v.Key(), err))
				continue
			}
			evals = append(evals, eval)
		}
	}
	return evals, errors.Join(errs...)
}

func (m *Manager) evaluateOne(ctx context.Context, v *domain.StrategyVersion) (*domain.PromotionEvaluation, error) {
	env := stateEnvironment(v.State)
	dep, err := m.deployments.Get(ctx, v.Strategy, v.Version, env)
	if err != nil {
		return nil, fmt.Errorf("load deployment: %w", err)
	}
	criteria, err := m.ResolveCriteria(ctx, v.Strategy)
	if err != nil {
		return nil, err
	}
	metrics, err := m.metrics.MetricsFor(ctx, v.Strategy, v.Version)
	if err != nil {
		return nil, fmt.Errorf("load metrics: %w", err)
	}

	now := m.now().UTC()
	eval := EvaluatePromotion(v, dep, criteria, metrics, now)

	dep.LastEvalAt = &now
	dep.Performance = metrics
	if err := m.deployments.Update(ctx, dep); err != nil {
		log.Printf("[lifecycle] cache metrics for %s: %v", v.Key(), err)
	}
	if err := m.evaluations.Append(ctx, eval); err != nil {
		return nil, fmt.Errorf("record evaluation: %w", err)
	}

	if eval.Passed {
		if err := m.applyTransition(ctx, v, eval.TargetState); err != nil {
			return nil, fmt.Errorf("promote to %s: %w", eval.TargetState, err)
		}
		log.Printf("[lifecycle] promoted %s to %s", v.Key(), eval.TargetState)
	} else {
		log.Printf("[lifecycle] %s stays in %s: %d criteria failed", v.Key(), v.State, len(eval.FailedCriteria))
	}
	return eval, nil
}

// RollbackSweep checks every active mainnet version for degradation and
// rolls back the ones that breached the rollback thresholds.
func (m *Manager) RollbackSweep(ctx context.Context) ([]*domain.RollbackEvent, error) {
	active, err := m.versions.GetByState(ctx, domain.StateMainnetActive)
	if err != nil {
		return nil, fmt.Errorf("list active versions: %w", err)
	}

	var events []*domain.RollbackEvent
	var errs []error
	for _, v := range active {
		criteria, err := m.ResolveCriteria(ctx, v.Strategy)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		metrics, err := m.metrics.MetricsFor(ctx, v.Strategy, v.Version)
		if err != nil {
			log.Printf("[lifecycle] rollback check %s: metrics unavailable: %v", v.Key(), err)
			errs = append(errs, fmt.Errorf("%s: %w", v.Key(), err))
			continue
		}
		trigger, reasons := ShouldRollback(metrics, criteria)
		if !trigger {
			continue
		}
		ev, err := m.executeRollback(ctx, v, strings.Join(reasons, "; "), true)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.Key(), err))
			continue
		}
		events = append(events, ev)
	}
	return events, errors.Join(errs...)
}

// ManualRollback pauses the active mainnet version of a strategy on
// operator request and reactivates the previous one if available.
func (m *Manager) ManualRollback(ctx context.Context, strategy, reason string) (*domain.RollbackEvent, error) {
	active, err := m.versions.GetByState(ctx, domain.StateMainnetActive)
	if err != nil {
		return nil, fmt.Errorf("list active versions: %w", err)
	}
	for _, v := range active {
		if v.Strategy == strategy {
			return m.executeRollback(ctx, v, reason, false)
		}
	}
	return nil, fmt.Errorf("%w: no active mainnet version for strategy %q", storage.ErrNotFound, strategy)
}

// executeRollback pauses the current version and reactivates the most
// recently promoted prior version. Rollback is the one path allowed to
// pull a deprecated version back into service.
func (m *Manager) executeRollback(ctx context.Context, current *domain.StrategyVersion, reason string, automatic bool) (*domain.RollbackEvent, error) {
	now := m.now().UTC()

	if err := m.versions.UpdateState(ctx, current.Strategy, current.Version, domain.StateMainnetPaused, nil); err != nil {
		return nil, fmt.Errorf("pause %s: %w", current.Key(), err)
	}
	m.setDeploymentState(ctx, current.Strategy, current.Version, domain.EnvMainnet, domain.StateMainnetPaused)

	prior, err := m.findRollbackTarget(ctx, current)
	if err != nil {
		return nil, err
	}

	ev := &domain.RollbackEvent{
		EventID:     uuid.NewString(),
		Strategy:    current.Strategy,
		FromVersion: current.Version,
		Reason:      reason,
		Automatic:   automatic,
		OccurredAt:  now,
	}

	if prior != nil {
		if err := m.versions.UpdateState(ctx, prior.Strategy, prior.Version, domain.StateMainnetActive, nil); err != nil {
			return nil, fmt.Errorf("reactivate %s: %w", prior.Key(), err)
		}
		m.setDeploymentState(ctx, prior.Strategy, prior.Version, domain.EnvMainnet, domain.StateMainnetActive)
		ev.ToVersion = prior.Version
		log.Printf("[lifecycle] rolled back %s: %s -> %s (%s)", current.Strategy, current.Version, prior.Version, reason)
	} else {
		log.Printf("[lifecycle] paused %s@%s with no rollback target (%s)", current.Strategy, current.Version, reason)
	}

	if err := m.rollbacks.Append(ctx, ev); err != nil {
		return nil, fmt.Errorf("record rollback: %w", err)
	}
	return ev, nil
}

// findRollbackTarget picks the previously promoted version with the most
// recent promotion time, among paused and deprecated versions.
func (m *Manager) findRollbackTarget(ctx context.Context, current *domain.StrategyVersion) (*domain.StrategyVersion, error) {
	all, err := m.versions.GetByStrategy(ctx, current.Strategy)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", current.Strategy, err)
	}
	var best *domain.StrategyVersion
	for _, v := range all {
		if v.Version == current.Version || v.PromotedAt == nil {
			continue
		}
		if v.State != domain.StateMainnetPaused && v.State != domain.StateDeprecated {
			continue
		}
		if best == nil || v.PromotedAt.After(*best.PromotedAt) {
			best = v
		}
	}
	return best, nil
}

func stateEnvironment(state domain.DeploymentState) domain.Environment {
	switch state {
	case domain.StateMainnetShadow, domain.StateMainnetActive, domain.StateMainnetPaused:
		return domain.EnvMainnet
	default:
		return domain.EnvTestnet
	}
}
