package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"strategy-supervisor/internal/domain"
)

// EvaluatePromotion checks a version against its promotion criteria and
// computed metrics. Pure function: no store access, no side effects.
//
// The runtime requirement depends on the current state: testnet_active
// needs MinTestnetRuntimeHours, mainnet_shadow needs MinShadowModeHours.
// Metric criteria (Sharpe, drawdown, win rate, profit factor, streak) are
// only evaluated once the minimum trade count is met; below it only the
// trade-count failure is reported.
func EvaluatePromotion(
	v *domain.StrategyVersion,
	dep *domain.StrategyDeployment,
	criteria domain.PromotionCriteria,
	metrics *domain.PerformanceMetrics,
	now time.Time,
) *domain.PromotionEvaluation {
	target, _ := v.State.PromotionTarget()
	eval := &domain.PromotionEvaluation{
		EvaluationID: uuid.NewString(),
		Strategy:     v.Strategy,
		Version:      v.Version,
		CurrentState: v.State,
		TargetState:  target,
		Criteria:     criteria,
		Metrics:      metrics,
		EvaluatedAt:  now,
	}

	runtimeHours := dep.RuntimeHours(now)
	switch v.State {
	case domain.StateTestnetActive:
		if runtimeHours < criteria.MinTestnetRuntimeHours {
			eval.FailedCriteria = append(eval.FailedCriteria,
				fmt.Sprintf("testnet runtime %.1fh below required %.1fh", runtimeHours, criteria.MinTestnetRuntimeHours))
		}
	case domain.StateMainnetShadow:
		if runtimeHours < criteria.MinShadowModeHours {
			eval.FailedCriteria = append(eval.FailedCriteria,
				fmt.Sprintf("shadow mode runtime %.1fh below required %.1fh", runtimeHours, criteria.MinShadowModeHours))
		}
	}

	if metrics.TotalTrades < criteria.MinTrades {
		eval.FailedCriteria = append(eval.FailedCriteria,
			fmt.Sprintf("trade count %d below required %d", metrics.TotalTrades, criteria.MinTrades))
		eval.Passed = len(eval.FailedCriteria) == 0
		return eval
	}

	if metrics.SharpeRatio < criteria.MinSharpeRatio {
		eval.FailedCriteria = append(eval.FailedCriteria,
			fmt.Sprintf("sharpe %.2f below required %.2f", metrics.SharpeRatio, criteria.MinSharpeRatio))
	}
	if metrics.MaxDrawdownPct < criteria.MaxDrawdownPct {
		eval.FailedCriteria = append(eval.FailedCriteria,
			fmt.Sprintf("drawdown %.1f%% exceeds limit %.1f%%", metrics.MaxDrawdownPct, criteria.MaxDrawdownPct))
	}
	if metrics.WinRatePct < criteria.MinWinRatePct {
		eval.FailedCriteria = append(eval.FailedCriteria,
			fmt.Sprintf("win rate %.1f%% below required %.1f%%", metrics.WinRatePct, criteria.MinWinRatePct))
	}
	if metrics.ProfitFactor < criteria.MinProfitFactor {
		eval.FailedCriteria = append(eval.FailedCriteria,
			fmt.Sprintf("profit factor %.2f below required %.2f", metrics.ProfitFactor, criteria.MinProfitFactor))
	}
	if metrics.ConsecutiveLosses > criteria.MaxConsecutiveLosses {
		eval.FailedCriteria = append(eval.FailedCriteria,
			fmt.Sprintf("consecutive losses %d above limit %d", metrics.ConsecutiveLosses, criteria.MaxConsecutiveLosses))
	}

	eval.Passed = len(eval.FailedCriteria) == 0
	return eval
}
