package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ScansRecorded    *prometheus.CounterVec
	AnswersRecorded  prometheus.Counter
	ScansPerTag      prometheus.Histogram
	AppendDurationMs prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		ScansRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritag_scans_recorded_total",
			Help: "Total number of scan events appended to the ledger",
		}, []string{"question"}),
		AnswersRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritag_scan_answers_recorded_total",
			Help: "Total number of interview answers recorded",
		}),
		ScansPerTag: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritag_scan_number_assigned",
			Help:    "Distribution of assigned per-tag scan numbers",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100},
		}),
		AppendDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritag_scan_append_duration_ms",
			Help:    "Latency of the serialized scan append in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100},
		}),
	}
}

func (m *Metrics) ObserveScanRecorded(questionType string, scanNumber int, durationMs float64) {
	if m == nil {
		return
	}
	m.ScansRecorded.WithLabelValues(questionType).Inc()
	m.ScansPerTag.Observe(float64(scanNumber))
	m.AppendDurationMs.Observe(durationMs)
}

func (m *Metrics) IncrementAnswers() {
	if m == nil {
		return
	}
	m.AnswersRecorded.Inc()
}
