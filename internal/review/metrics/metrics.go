package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the review module.
type Metrics struct {
	// Full cycle latency
	CycleDuration prometheus.Histogram

	// Per-lead review outcomes: processed, skipped, errored
	LeadsReviewed *prometheus.CounterVec

	// Policy decisions by action
	DecisionOutcome *prometheus.CounterVec

	// Decisions degraded by unexpected or missing data
	PolicyAnomalies prometheus.Counter
}

// New creates a new Metrics instance with all review module metrics registered.
func New() *Metrics {
	return &Metrics{
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "holly_review_cycle_duration_seconds",
			Help:    "Duration of a full review cycle across all due leads",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		LeadsReviewed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "holly_review_leads_total",
			Help: "Total leads reviewed by per-lead outcome",
		}, []string{"outcome"}), // outcome: "processed", "skipped", "errored"

		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "holly_review_decisions_total",
			Help: "Total policy decisions by action",
		}, []string{"action"}),

		PolicyAnomalies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "holly_review_policy_anomalies_total",
			Help: "Total policy evaluations degraded to no-action by anomalous input",
		}),
	}
}

// ObserveCycleDuration records the duration of one review cycle.
func (m *Metrics) ObserveCycleDuration(d time.Duration) {
	if m != nil {
		m.CycleDuration.Observe(d.Seconds())
	}
}

// IncrementLeadOutcome records one per-lead review outcome.
func (m *Metrics) IncrementLeadOutcome(outcome string) {
	if m != nil {
		m.LeadsReviewed.WithLabelValues(outcome).Inc()
	}
}

// IncrementDecision records a policy decision action.
func (m *Metrics) IncrementDecision(action string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(action).Inc()
	}
}

// IncrementAnomaly records a degraded policy evaluation.
func (m *Metrics) IncrementAnomaly() {
	if m != nil {
		m.PolicyAnomalies.Inc()
	}
}
