package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CacheLookups     *prometheus.CounterVec
	Fallbacks        prometheus.Counter
	AssessDurationMs prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritag_airisk_cache_lookups_total",
			Help: "AI risk cache lookups by outcome (hit, miss, skipped)",
		}, []string{"outcome"}),
		Fallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritag_airisk_fallbacks_total",
			Help: "Quick-check fallbacks served while the risk service was unreachable",
		}),
		AssessDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritag_airisk_assess_duration_ms",
			Help:    "Latency of remote risk assessments in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
	}
}

func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAssessment(durationMs float64) {
	if m == nil {
		return
	}
	m.AssessDurationMs.Observe(durationMs)
}

func (m *Metrics) IncrementFallbacks() {
	if m == nil {
		return
	}
	m.Fallbacks.Inc()
}
