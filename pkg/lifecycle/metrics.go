package lifecycle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultPersisted = "persisted"
	resultSkipped   = "skipped"
	resultFailed    = "failed"
)

// Metrics records flush outcomes. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	sessions *prometheus.CounterVec
	duration prometheus.Histogram
	runs     prometheus.Counter
}

// NewMetrics creates the flush collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "continuum_flush_sessions_total",
				Help: "Sessions processed by shutdown flushes, by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "continuum_flush_duration_seconds",
				Help:    "Wall time of a full session flush",
				Buckets: prometheus.DefBuckets,
			},
		),
		runs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "continuum_flush_runs_total",
				Help: "Number of flush passes executed",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.sessions, m.duration, m.runs)
	}
	return m
}

func (m *Metrics) observeSession(result string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(result).Inc()
}

func (m *Metrics) observeFlush(d time.Duration) {
	if m == nil {
		return
	}
	m.runs.Inc()
	m.duration.Observe(d.Seconds())
}
