// Package metrics provides observability for the governance module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks review outcomes and audit verdicts.
type Metrics struct {
	// Review decisions by stage ("a", "b") and resulting status
	ReviewDecision *prometheus.CounterVec

	// Audit verdicts: "check" or "fail"
	AuditVerdict *prometheus.CounterVec

	AuditLatency prometheus.Histogram
}

// New creates a new Metrics instance with all governance module metrics registered.
func New() *Metrics {
	return &Metrics{
		ReviewDecision: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brandgov_governance_review_decisions_total",
			Help: "Total review decisions by stage and resulting status",
		}, []string{"stage", "status"}),

		AuditVerdict: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brandgov_governance_audit_verdicts_total",
			Help: "Total multimodal audit verdicts",
		}, []string{"verdict"}),

		AuditLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "brandgov_governance_audit_duration_seconds",
			Help:    "Duration of multimodal audits including retrieval and model calls",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// IncrementReviewDecision records a review outcome.
func (m *Metrics) IncrementReviewDecision(stage, status string) {
	if m != nil {
		m.ReviewDecision.WithLabelValues(stage, status).Inc()
	}
}

// IncrementAuditVerdict records an audit verdict.
func (m *Metrics) IncrementAuditVerdict(verdict string) {
	if m != nil {
		m.AuditVerdict.WithLabelValues(verdict).Inc()
	}
}

// ObserveAudit records the duration of a full audit.
func (m *Metrics) ObserveAudit(d time.Duration) {
	if m != nil {
		m.AuditLatency.Observe(d.Seconds())
	}
}
