package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FanoutMetrics tracks notification dispatch outcomes.
type FanoutMetrics struct {
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	dropped   prometheus.Counter
	depth     prometheus.Gauge
}

// NewFanoutMetrics registers the fan-out metrics on the provided registerer.
func NewFanoutMetrics(reg prometheus.Registerer) *FanoutMetrics {
	if reg == nil {
		return &FanoutMetrics{}
	}
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landhub_fanout_delivered_total",
		Help: "Notification events handed to sinks successfully.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landhub_fanout_failed_total",
		Help: "Notification events a sink failed to accept.",
	}, []string{"event_type"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landhub_fanout_dropped_total",
		Help: "Notification events dropped because the dispatch queue was full.",
	})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "landhub_fanout_queue_depth",
		Help: "Events waiting in the dispatch queue.",
	})
	reg.MustRegister(delivered, failed, dropped, depth)
	return &FanoutMetrics{
		delivered: delivered,
		failed:    failed,
		dropped:   dropped,
		depth:     depth,
	}
}

func (m *FanoutMetrics) IncDelivered(eventType string) {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *FanoutMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *FanoutMetrics) IncDropped() {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Inc()
}

func (m *FanoutMetrics) SetQueueDepth(depth int) {
	if m == nil || m.depth == nil {
		return
	}
	m.depth.Set(float64(depth))
}
