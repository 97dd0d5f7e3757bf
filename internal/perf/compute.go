// Package perf computes the aggregate performance metrics that promotion
// and rollback decisions are evaluated against.
package perf

import (
	"math"
	"sort"
	"time"

	"strategy-supervisor/internal/domain"
)

// maxProfitFactor bounds the profit factor when there are no losing
// trades, keeping the value storable as a plain float column.
const maxProfitFactor = 999.0

// Compute calculates all metrics from a slice of closed trades. Trades
// are sorted by ClosedAt ASC, TradeID ASC before computing the
// order-dependent metrics (MaxDrawdownPct, ConsecutiveLosses).
func Compute(trades []domain.TradeResult, now time.Time) *domain.PerformanceMetrics {
	n := len(trades)
	if n == 0 {
		return &domain.PerformanceMetrics{ComputedAt: now}
	}

	sorted := make([]domain.TradeResult, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ClosedAt.Equal(sorted[j].ClosedAt) {
			return sorted[i].ClosedAt.Before(sorted[j].ClosedAt)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	wins := 0
	grossProfit := 0.0
	grossLoss := 0.0
	totalPnl := 0.0
	returns := make([]float64, n)
	for i, t := range sorted {
		returns[i] = t.PnlPct
		totalPnl += t.PnlUSD
		if t.PnlPct > 0 {
			wins++
			grossProfit += t.PnlPct
		} else {
			grossLoss += -t.PnlPct
		}
	}

	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)

	return &domain.PerformanceMetrics{
		TotalTrades:       n,
		Wins:              wins,
		Losses:            n - wins,
		WinRatePct:        100 * float64(wins) / float64(n),
		SharpeRatio:       computeSharpe(mean, stddev),
		MaxDrawdownPct:    computeMaxDrawdown(returns),
		ProfitFactor:      computeProfitFactor(grossProfit, grossLoss),
		ConsecutiveLosses: computeMaxConsecutiveLosses(sorted),
		TotalPnlUSD:       totalPnl,
		ComputedAt:        now,
	}
}

// computeMean calculates the arithmetic mean of returns.
func computeMean(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	return sum / float64(len(returns))
}

// computeStddev calculates the population standard deviation.
func computeStddev(returns []float64, mean float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(returns)))
}

// computeSharpe is the per-trade Sharpe ratio: mean return over its
// standard deviation. Zero when the deviation is zero.
func computeSharpe(mean, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return mean / stddev
}

// computeProfitFactor is gross profit over gross loss, bounded when there
// are no losses.
func computeProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit == 0 {
			return 0
		}
		return maxProfitFactor
	}
	return math.Min(grossProfit/grossLoss, maxProfitFactor)
}

// computeMaxDrawdown walks the compounded equity curve of the ordered
// returns and reports the worst peak-to-trough decline in percent
// (negative, 0 when equity never declines).
func computeMaxDrawdown(returns []float64) float64 {
	equity := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		equity *= 1 + r/100
		if equity > peak {
			peak = equity
		}
		dd := (equity - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// computeMaxConsecutiveLosses finds the longest losing streak in trade
// order.
func computeMaxConsecutiveLosses(sorted []domain.TradeResult) int {
	longest := 0
	current := 0
	for _, t := range sorted {
		if t.PnlPct <= 0 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}
