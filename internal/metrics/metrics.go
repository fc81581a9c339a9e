// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters and histograms recorded by the orchestrator.
type Metrics struct {
	PaymentsTotal        *prometheus.CounterVec
	RefundsTotal         *prometheus.CounterVec
	DuplicatesSuppressed prometheus.Counter
	ProcessDuration      *prometheus.HistogramVec
}

// New registers the metric set with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PaymentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Processed payments by method and outcome.",
		}, []string{"method", "outcome"}),
		RefundsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "refunds_total",
			Help: "Processed refunds by method and outcome.",
		}, []string{"method", "outcome"}),
		DuplicatesSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "payments_duplicates_suppressed_total",
			Help: "Payment submissions answered from the idempotency ledger or joined to an in-flight call.",
		}),
		ProcessDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_process_duration_seconds",
			Help:    "End-to-end processing latency by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// ObservePayment records one payment outcome.
func (m *Metrics) ObservePayment(method string, success bool, duplicate bool, elapsed time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.PaymentsTotal.WithLabelValues(method, outcome).Inc()
	if duplicate {
		m.DuplicatesSuppressed.Inc()
	}
	m.ProcessDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveRefund records one refund outcome.
func (m *Metrics) ObserveRefund(method string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.RefundsTotal.WithLabelValues(method, outcome).Inc()
}
