package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions *prometheus.CounterVec
	FailOpens prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritag_ratelimit_decisions_total",
			Help: "Rate limit admission decisions (allowed, rejected, disabled)",
		}, []string{"decision"}),
		FailOpens: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritag_ratelimit_fail_opens_total",
			Help: "Requests admitted because the bucket store errored",
		}),
	}
}

func (m *Metrics) ObserveDecision(decision string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementFailOpens() {
	if m == nil {
		return
	}
	m.FailOpens.Inc()
}
