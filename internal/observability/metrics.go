// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the supervisor.
type Metrics struct {
	// Cycle metrics
	CyclesTotal      *prometheus.CounterVec
	CycleDuration    prometheus.Histogram
	OracleFallbacks  *prometheus.CounterVec
	OracleLatency    *prometheus.HistogramVec
	ConstraintClamps prometheus.Counter
	PausesTotal      prometheus.Counter

	// Lifecycle metrics
	PromotionsTotal  *prometheus.CounterVec
	RollbacksTotal   *prometheus.CounterVec
	ActiveDeployment *prometheus.GaugeVec

	// Allocation state
	AllocationPct  *prometheus.GaugeVec
	LeverageCap    prometheus.Gauge
	RiskScore      prometheus.Gauge
	TradingEnabled prometheus.Gauge

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
	AccountFeedUp       prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "strategy_supervisor"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Total number of decision cycles by status",
		}, []string{"status"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Decision cycle duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		OracleFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "fallbacks_total",
			Help:      "Total number of oracle fallbacks by oracle kind",
		}, []string{"kind"}),
		OracleLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "latency_seconds",
			Help:      "Oracle call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		ConstraintClamps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "safety",
			Name:      "constraint_clamps_total",
			Help:      "Total number of safety constraint clamps applied",
		}),
		PausesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "pauses_total",
			Help:      "Total number of cycles that paused trading",
		}),

		PromotionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "promotions_total",
			Help:      "Total number of promotion evaluations by result",
		}, []string{"result"}),
		RollbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "rollbacks_total",
			Help:      "Total number of rollbacks by trigger",
		}, []string{"trigger"}),
		ActiveDeployment: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "active_deployment_info",
			Help:      "1 for the currently active mainnet version of each strategy",
		}, []string{"strategy", "version"}),

		AllocationPct: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "percent",
			Help:      "Current allocation percent by strategy",
		}, []string{"strategy"}),
		LeverageCap: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "leverage_cap",
			Help:      "Currently effective leverage cap",
		}),
		RiskScore: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "score",
			Help:      "Latest risk oracle score (0-100)",
		}),
		TradingEnabled: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "trading_enabled",
			Help:      "1 when trading is enabled, 0 when paused",
		}),

		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful decision cycle",
		}),
		AccountFeedUp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "account_feed_up",
			Help:      "1 when the account feed served a fresh snapshot on the last cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records one finished decision cycle.
func RecordCycle(status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordOracleFallback increments the fallback counter for an oracle kind.
func RecordOracleFallback(kind string) {
	DefaultMetrics.OracleFallbacks.WithLabelValues(kind).Inc()
}

// RecordOracleLatency records one oracle call's latency.
func RecordOracleLatency(kind string, seconds float64) {
	DefaultMetrics.OracleLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordConstraintClamps adds the number of clamps applied this cycle.
func RecordConstraintClamps(n int) {
	DefaultMetrics.ConstraintClamps.Add(float64(n))
}

// RecordPause increments the pause counter and flips the trading gauge.
func RecordPause() {
	DefaultMetrics.PausesTotal.Inc()
	DefaultMetrics.TradingEnabled.Set(0)
}

// RecordPromotion records one promotion evaluation result.
func RecordPromotion(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	DefaultMetrics.PromotionsTotal.WithLabelValues(result).Inc()
}

// RecordRollback records one rollback by trigger type.
func RecordRollback(automatic bool) {
	trigger := "manual"
	if automatic {
		trigger = "automatic"
	}
	DefaultMetrics.RollbacksTotal.WithLabelValues(trigger).Inc()
}

// UpdateDecisionGauges publishes the applied decision state.
func UpdateDecisionGauges(allocations map[string]float64, leverageCap, riskScore float64, tradingEnabled bool) {
	for strategy, pct := range allocations {
		DefaultMetrics.AllocationPct.WithLabelValues(strategy).Set(pct)
	}
	DefaultMetrics.LeverageCap.Set(leverageCap)
	DefaultMetrics.RiskScore.Set(riskScore)
	enabled := 0.0
	if tradingEnabled {
		enabled = 1.0
	}
	DefaultMetrics.TradingEnabled.Set(enabled)
}
