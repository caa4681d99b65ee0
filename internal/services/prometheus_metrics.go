package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	distributionsTotal   *prometheus.CounterVec
	distributionDuration prometheus.Histogram
	repairsTotal         prometheus.Counter
	transactionsTotal    *prometheus.CounterVec
	budgetUpdatesTotal   *prometheus.CounterVec
	circuitBreakerState  *prometheus.GaugeVec
	storeFailuresTotal   prometheus.Counter
}

func NewPrometheusMetrics() MetricsRecorderInterface {
	return &PrometheusMetrics{
		distributionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "income_distributions_total",
				Help: "Total number of income distribution group operations",
			},
			[]string{"operation", "status"},
		),
		distributionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "income_distribution_duration_milliseconds",
				Help:    "Distribution group write duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		repairsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "distribution_repairs_total",
				Help: "Total number of distribution groups repaired on read",
			},
		),
		transactionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_total",
				Help: "Total number of transaction mutations",
			},
			[]string{"type", "operation"},
		),
		budgetUpdatesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_preference_updates_total",
				Help: "Total number of budget preference updates",
			},
			[]string{"status"},
		),
		circuitBreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		storeFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "store_failures_total",
				Help: "Total number of unexpected store errors",
			},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	operation := tags["operation"]
	status := tags["status"]

	switch name {
	case "distribution.group":
		m.distributionsTotal.WithLabelValues(operation, status).Inc()
	case "distribution.repaired":
		m.repairsTotal.Inc()
	case "transaction.mutation":
		m.transactionsTotal.WithLabelValues(tags["type"], operation).Inc()
	case "budget.updated":
		m.budgetUpdatesTotal.WithLabelValues(status).Inc()
	case "circuit_breaker.open":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(1)
	case "circuit_breaker.closed":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(0)
	case "store.failure":
		m.storeFailuresTotal.Inc()
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case "distribution.write":
		m.distributionDuration.Observe(float64(duration.Milliseconds()))
	}
}
