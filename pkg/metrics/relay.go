package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics records notification relay batch outcomes.
type RelayMetrics struct {
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

// NewRelayMetrics registers the relay metrics on the provided registerer.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landhub_relay_batch_duration_seconds",
		Help:    "Duration of notification relay batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landhub_relay_events_total",
		Help: "Outbox rows handled by the relay, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, events)
	return &RelayMetrics{duration: duration, events: events}
}

// ObserveBatch records how long a batch took and whether it errored.
func (m *RelayMetrics) ObserveBatch(d time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.duration.WithLabelValues(result).Observe(d.Seconds())
}

// IncOutcome counts one row as published, failed or terminal.
func (m *RelayMetrics) IncOutcome(outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(outcome)).Inc()
}
