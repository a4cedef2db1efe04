// Package metrics exposes Prometheus instruments for the intake pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lead_intake"

// Enrichment outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// LeadMetrics counts submissions and enrichment results. A nil *LeadMetrics
// is valid and records nothing.
type LeadMetrics struct {
	created         prometheus.Counter
	rejected        *prometheus.CounterVec
	enrichment      *prometheus.CounterVec
	enrichmentRetry *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	submitDuration  *prometheus.HistogramVec
}

// NewLeadMetrics registers the instruments on reg, or on the default
// registerer when reg is nil.
func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "created_total",
			Help:      "Leads accepted and persisted",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "rejected_total",
			Help:      "Submissions rejected by validation, per failing rule",
		}, []string{"code"}),
		enrichment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "fetch_total",
			Help:      "Enrichment fetches by source and outcome",
		}, []string{"source", "outcome"}),
		enrichmentRetry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "retries_total",
			Help:      "Enrichment attempts repeated after a transient failure",
		}, []string{"source"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Storage failures by operation",
		}, []string{"op"}),
		submitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "submit_duration_seconds",
			Help:      "Time to process one submission end to end",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.created, m.rejected, m.enrichment, m.enrichmentRetry, m.storeErrors, m.submitDuration)
	return m
}

func (m *LeadMetrics) LeadCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

func (m *LeadMetrics) LeadRejected(code string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(code).Inc()
}

func (m *LeadMetrics) EnrichmentResult(source string, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	m.enrichment.WithLabelValues(source, outcome).Inc()
}

func (m *LeadMetrics) EnrichmentRetry(source string) {
	if m == nil {
		return
	}
	m.enrichmentRetry.WithLabelValues(source).Inc()
}

func (m *LeadMetrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// ObserveSubmit records the duration of a submission; result is "accepted",
// "rejected" or "error".
func (m *LeadMetrics) ObserveSubmit(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.submitDuration.WithLabelValues(result).Observe(d.Seconds())
}
