package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Reconciliations     *prometheus.CounterVec
	StatusWritebacks    prometheus.Counter
	LookupDurationMs    prometheus.Histogram
	DegradedValidations prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Reconciliations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritag_chain_reconciliations_total",
			Help: "Registry reconciliations by outcome (validated, degraded, unstamped)",
		}, []string{"outcome"}),
		StatusWritebacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritag_chain_status_writebacks_total",
			Help: "Off-chain chain_status refreshes triggered by an on-chain mismatch",
		}),
		LookupDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritag_chain_lookup_duration_ms",
			Help:    "Latency of registry validation calls in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 3000},
		}),
		DegradedValidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritag_chain_degraded_validations_total",
			Help: "Verifications served with unvalidated chain state due to registry failure",
		}),
	}
}

func (m *Metrics) ObserveReconciliation(outcome string, durationMs float64) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(outcome).Inc()
	m.LookupDurationMs.Observe(durationMs)
}

func (m *Metrics) IncrementWritebacks() {
	if m == nil {
		return
	}
	m.StatusWritebacks.Inc()
}

func (m *Metrics) IncrementDegraded() {
	if m == nil {
		return
	}
	m.DegradedValidations.Inc()
}
