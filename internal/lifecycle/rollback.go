package lifecycle

import (
	"fmt"

	"strategy-supervisor/internal/domain"
)

const (
	// Rollback fires on degradation well past the promotion bar, not on
	// the first dip below it.
	rollbackDrawdownFactor = 1.5
	rollbackLossFactor     = 1.5
	rollbackWinRateFactor  = 0.7

	// Minimum sample sizes before live metrics are trusted at all.
	rollbackMinTrades        = 10
	rollbackWinRateMinTrades = 20
)

// ShouldRollback decides whether a live mainnet version has degraded far
// enough to warrant automatic rollback. Thresholds are derived from the
// promotion criteria so the two bars move together. Pure function.
func ShouldRollback(metrics *domain.PerformanceMetrics, criteria domain.PromotionCriteria) (bool, []string) {
	if metrics == nil || metrics.TotalTrades < rollbackMinTrades {
		return false, nil
	}

	var reasons []string

	drawdownLimit := criteria.MaxDrawdownPct * rollbackDrawdownFactor
	if metrics.MaxDrawdownPct < drawdownLimit {
		reasons = append(reasons,
			fmt.Sprintf("drawdown %.1f%% breached rollback limit %.1f%%", metrics.MaxDrawdownPct, drawdownLimit))
	}

	lossLimit := rollbackLossFactor * float64(criteria.MaxConsecutiveLosses)
	if float64(metrics.ConsecutiveLosses) > lossLimit {
		reasons = append(reasons,
			fmt.Sprintf("consecutive losses %d breached rollback limit %.1f", metrics.ConsecutiveLosses, lossLimit))
	}

	if metrics.TotalTrades >= rollbackWinRateMinTrades {
		winRateFloor := criteria.MinWinRatePct * rollbackWinRateFactor
		if metrics.WinRatePct < winRateFloor {
			reasons = append(reasons,
				fmt.Sprintf("win rate %.1f%% fell under rollback floor %.1f%%", metrics.WinRatePct, winRateFloor))
		}
	}

	return len(reasons) > 0, reasons
}
