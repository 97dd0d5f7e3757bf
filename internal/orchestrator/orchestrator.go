// Package orchestrator runs the supervision cycle.
// It coordinates: lifecycle sweeps → oracle calls → validation →
// safety clamps → decision merge → apply → audit.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"strategy-supervisor/internal/account"
	"strategy-supervisor/internal/decision"
	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/execution"
	"strategy-supervisor/internal/lifecycle"
	"strategy-supervisor/internal/observability"
	"strategy-supervisor/internal/oracle"
	"strategy-supervisor/internal/safety"
	"strategy-supervisor/internal/storage"
	"strategy-supervisor/internal/validation"
)

// DefaultOracleTimeout bounds each individual oracle call.
const DefaultOracleTimeout = 30 * time.Second

// Orchestrator coordinates one supervision cycle end to end. Every
// oracle failure is contained to its role; the cycle always produces
// and persists a decision.
type Orchestrator struct {
	advisor  oracle.Advisor
	accounts account.Provider
	executor execution.Executor
	manager  *lifecycle.Manager

	systemState storage.SystemStateStore
	decisions   storage.DecisionStore

	oracleTimeout time.Duration
	now           func() time.Time
}

// Options for creating an Orchestrator.
type Options struct {
	Advisor  oracle.Advisor
	Accounts account.Provider
	Executor execution.Executor
	Manager  *lifecycle.Manager

	SystemState storage.SystemStateStore
	Decisions   storage.DecisionStore

	// OracleTimeout bounds each oracle call; zero selects the default.
	OracleTimeout time.Duration

	// Now overrides the time source. Test hook.
	Now func() time.Time
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	timeout := opts.OracleTimeout
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		advisor:       opts.Advisor,
		accounts:      opts.Accounts,
		executor:      opts.Executor,
		manager:       opts.Manager,
		systemState:   opts.SystemState,
		decisions:     opts.Decisions,
		oracleTimeout: timeout,
		now:           now,
	}
}

// RunCycle executes one full supervision cycle and returns the applied
// decision. It returns an error only when the cycle could not run at all
// (no account snapshot) or the decision could not be persisted; oracle
// and executor failures degrade the cycle instead of aborting it.
func (o *Orchestrator) RunCycle(ctx context.Context) (*domain.CycleDecision, error) {
	started := o.now()
	log.Printf("[cycle] starting")

	// Lifecycle sweeps run first so the decision applies to the version
	// set that survives promotion and rollback. Sweep errors never block
	// the decision cycle.
	o.runSweeps(ctx)

	snapshot, err := o.accounts.Snapshot(ctx)
	if err != nil {
		observability.RecordCycle("skipped", o.now().Sub(started).Seconds())
		observability.DefaultMetrics.AccountFeedUp.Set(0)
		return nil, fmt.Errorf("account snapshot unavailable, cycle skipped: %w", err)
	}
	observability.DefaultMetrics.AccountFeedUp.Set(1)

	health, risk, alloc, conflict, fallbacks := o.consultOracles(ctx, *snapshot)

	params, clampActions := safety.Enforce(safety.FromOracle(risk))
	observability.RecordConstraintClamps(len(clampActions))

	d := decision.Merge(decision.Input{
		Health:            health,
		Risk:              risk,
		Alloc:             alloc,
		Conflict:          conflict,
		Params:            params,
		Snapshot:          *snapshot,
		ConstraintActions: clampActions,
	})
	d.DecisionID = uuid.NewString()
	d.CreatedAt = o.now().UTC()
	d.OracleModel = o.advisor.Model()
	d.LatencyMs = o.now().Sub(started).Milliseconds()
	for _, kind := range fallbacks {
		d.Reasoning = append(d.Reasoning, fmt.Sprintf("%s oracle fell back to conservative default", kind))
	}

	applyErr := o.apply(ctx, d, params, risk.ImmediateActions)

	if err := o.decisions.Append(ctx, d); err != nil {
		observability.RecordCycle("audit_error", o.now().Sub(started).Seconds())
		return d, fmt.Errorf("persist decision %s: %w", d.DecisionID, err)
	}

	status := "ok"
	if d.ShouldPause {
		status = "paused"
	}
	observability.RecordCycle(status, o.now().Sub(started).Seconds())
	observability.UpdateDecisionGauges(d.Allocations, d.LeverageCap, d.RiskScore, !d.ShouldPause)
	observability.DefaultMetrics.LastSuccessfulCycle.Set(float64(o.now().Unix()))

	log.Printf("[cycle] decision %s: tier=%s pause=%v allocation_sum=%.1f latency=%dms",
		d.DecisionID, d.RiskTier, d.ShouldPause, d.AllocationSum(), d.LatencyMs)
	return d, applyErr
}

// runSweeps runs the promotion and rollback sweeps, recording outcomes.
func (o *Orchestrator) runSweeps(ctx context.Context) {
	evals, err := o.manager.PromotionSweep(ctx)
	if err != nil {
		log.Printf("[cycle] promotion sweep: %v", err)
	}
	for _, e := range evals {
		observability.RecordPromotion(e.Passed)
	}

	events, err := o.manager.RollbackSweep(ctx)
	if err != nil {
		log.Printf("[cycle] rollback sweep: %v", err)
	}
	for _, e := range events {
		observability.RecordRollback(e.Automatic)
	}
}

// consultOracles runs the four oracle stages in order. Each failed or
// rejected result is replaced by its conservative fallback; the returned
// kinds list names the stages that fell back.
func (o *Orchestrator) consultOracles(ctx context.Context, snapshot domain.AccountSnapshot) (
	*oracle.HealthResult, *oracle.RiskParameterResult, *oracle.AllocationResult, *oracle.ConflictResult, []oracle.Kind,
) {
	var fallbacks []oracle.Kind
	fellBack := func(kind oracle.Kind, reason string) {
		log.Printf("[cycle] %s oracle: %s, using fallback", kind, reason)
		observability.RecordOracleFallback(string(kind))
		fallbacks = append(fallbacks, kind)
	}

	in := oracle.Input{Snapshot: snapshot, RiskTier: domain.TierNormal}

	health, err := o.callHealth(ctx, in)
	if err != nil {
		fellBack(oracle.KindHealth, err.Error())
		health = oracle.FallbackHealth(domain.TierNormal)
	}
	tier := health.Tier()
	in.RiskTier = tier

	risk, err := o.callRisk(ctx, in)
	if err != nil {
		fellBack(oracle.KindRisk, err.Error())
		risk = oracle.FallbackRiskParameters(tier)
	}
	in.LeverageCaps = domain.LeverageCaps{
		Normal:  risk.LeverageCaps.Normal,
		Reduced: risk.LeverageCaps.Reduced,
		Minimum: risk.LeverageCaps.Minimum,
	}

	alloc, err := o.callAllocations(ctx, in)
	if err != nil {
		fellBack(oracle.KindAllocation, err.Error())
		alloc = oracle.FallbackAllocations(snapshot.CurrentAllocations)
	}

	conflict, err := o.callConflicts(ctx, in, alloc, health)
	if err != nil {
		fellBack(oracle.KindConflict, err.Error())
		conflict = oracle.FallbackConflicts(alloc, in.LeverageCaps, tier)
	}

	return health, risk, alloc, conflict, fallbacks
}

func (o *Orchestrator) callHealth(ctx context.Context, in oracle.Input) (*oracle.HealthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.oracleTimeout)
	defer cancel()

	started := o.now()
	res, err := o.advisor.EvaluateHealth(ctx, in)
	observability.RecordOracleLatency(string(oracle.KindHealth), o.now().Sub(started).Seconds())
	if err != nil {
		return nil, err
	}
	return res, checkValidation(oracle.KindHealth, validation.ValidateHealth(res))
}

func (o *Orchestrator) callRisk(ctx context.Context, in oracle.Input) (*oracle.RiskParameterResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.oracleTimeout)
	defer cancel()

	started := o.now()
	res, err := o.advisor.EvaluateRiskParameters(ctx, in)
	observability.RecordOracleLatency(string(oracle.KindRisk), o.now().Sub(started).Seconds())
	if err != nil {
		return nil, err
	}
	return res, checkValidation(oracle.KindRisk, validation.ValidateRiskParameters(res))
}

func (o *Orchestrator) callAllocations(ctx context.Context, in oracle.Input) (*oracle.AllocationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.oracleTimeout)
	defer cancel()

	started := o.now()
	res, err := o.advisor.EvaluateAllocations(ctx, in)
	observability.RecordOracleLatency(string(oracle.KindAllocation), o.now().Sub(started).Seconds())
	if err != nil {
		return nil, err
	}
	return res, checkValidation(oracle.KindAllocation, validation.ValidateAllocations(res))
}

func (o *Orchestrator) callConflicts(ctx context.Context, in oracle.Input, alloc *oracle.AllocationResult, health *oracle.HealthResult) (*oracle.ConflictResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.oracleTimeout)
	defer cancel()

	started := o.now()
	res, err := o.advisor.ResolveConflicts(ctx, in, alloc, health)
	observability.RecordOracleLatency(string(oracle.KindConflict), o.now().Sub(started).Seconds())
	if err != nil {
		return nil, err
	}
	return res, checkValidation(oracle.KindConflict, validation.ValidateConflicts(res))
}

// checkValidation logs anomalies and converts a rejection into an error.
func checkValidation(kind oracle.Kind, r validation.Result) error {
	for _, a := range r.Anomalies {
		log.Printf("[cycle] %s oracle anomaly: %s", kind, a)
	}
	if !r.Valid {
		return fmt.Errorf("output rejected: %d anomalies", len(r.Anomalies))
	}
	return nil
}

// apply executes the decision against the executor and persists system
// state. Executor errors are collected, not fatal: a failed close is
// retried implicitly next cycle because the position stays in the
// snapshot.
func (o *Orchestrator) apply(ctx context.Context, d *domain.CycleDecision, params domain.RiskParameters, immediate []oracle.ImmediateAction) error {
	var errs []error

	if d.ShouldPause {
		observability.RecordPause()
		if err := o.executor.CloseAllPositions(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close all positions: %w", err))
		}
		if err := o.writeState(ctx, d, params, false); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}

	for _, a := range immediate {
		switch a.Action {
		case "CLOSE_POSITION":
			if a.Symbol == "" {
				continue
			}
			d.Reasoning = append(d.Reasoning, fmt.Sprintf("immediate action: close %s (%s)", a.Symbol, a.Reason))
			if err := o.executor.ClosePosition(ctx, a.Symbol); err != nil {
				errs = append(errs, fmt.Errorf("immediate close %s: %w", a.Symbol, err))
			}
		case "PAUSE_STRATEGY":
			if a.Strategy == "" {
				continue
			}
			d.Reasoning = append(d.Reasoning, fmt.Sprintf("immediate action: disable %s (%s)", a.Strategy, a.Reason))
			if err := o.executor.DisableStrategy(ctx, a.Strategy); err != nil {
				errs = append(errs, fmt.Errorf("immediate disable %s: %w", a.Strategy, err))
			}
		default:
			// REDUCE_LEVERAGE and TIGHTEN_STOPS are advisory; the leverage
			// cap and the executor's own stops handle them.
			d.Reasoning = append(d.Reasoning, fmt.Sprintf("immediate action noted: %s (%s)", a.Action, a.Reason))
		}
	}

	for _, symbol := range d.CloseSymbols {
		if err := o.executor.ClosePosition(ctx, symbol); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", symbol, err))
		}
	}
	for _, strategy := range d.DisableStrategies {
		if err := o.executor.DisableStrategy(ctx, strategy); err != nil {
			errs = append(errs, fmt.Errorf("disable %s: %w", strategy, err))
		}
	}
	for _, strategy := range d.EnableStrategies {
		if err := o.executor.EnableStrategy(ctx, strategy); err != nil {
			errs = append(errs, fmt.Errorf("enable %s: %w", strategy, err))
		}
	}

	if err := o.writeState(ctx, d, params, true); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// writeState persists the post-cycle system state in one transactional
// write.
func (o *Orchestrator) writeState(ctx context.Context, d *domain.CycleDecision, params domain.RiskParameters, enabled bool) error {
	allocations, err := json.Marshal(d.Allocations)
	if err != nil {
		return fmt.Errorf("marshal allocations: %w", err)
	}
	riskParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal risk parameters: %w", err)
	}

	kv := map[string]string{
		storage.KeyTradingEnabled:     strconv.FormatBool(enabled),
		storage.KeyLastCycleAt:        d.CreatedAt.Format(time.RFC3339),
		storage.KeyCurrentAllocations: string(allocations),
		storage.KeyRiskParameters:     string(riskParams),
	}
	if enabled {
		kv[storage.KeyStatus] = "active"
		kv[storage.KeyPauseReason] = ""
	} else {
		kv[storage.KeyStatus] = "paused"
		kv[storage.KeyPauseReason] = d.PauseReason
	}

	if err := o.systemState.SetMulti(ctx, kv); err != nil {
		return fmt.Errorf("write system state: %w", err)
	}
	return nil
}
