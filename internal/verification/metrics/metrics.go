package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	InvalidVerdicts prometheus.Counter
	DurationMs      *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritag_verifications_total",
			Help: "Verification requests by operation (verify, scan) and composite risk level",
		}, []string{"operation", "risk"}),
		InvalidVerdicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritag_invalid_verdicts_total",
			Help: "Verifications that concluded the tag is not valid",
		}),
		DurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veritag_verification_duration_ms",
			Help:    "End to end verification latency in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveRequest(operation, risk string, valid bool, durationMs float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, risk).Inc()
	m.DurationMs.WithLabelValues(operation).Observe(durationMs)
	if !valid {
		m.InvalidVerdicts.Inc()
	}
}
