package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceMetrics records the outcome of scheduled housekeeping jobs.
type MaintenanceMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	removed  *prometheus.CounterVec
}

func NewMaintenanceMetrics(reg prometheus.Registerer) *MaintenanceMetrics {
	if reg == nil {
		return &MaintenanceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landhub_maintenance_job_duration_seconds",
		Help:    "Duration of maintenance jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landhub_maintenance_job_runs_total",
		Help: "Maintenance job executions, by result.",
	}, []string{"job", "result"})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landhub_maintenance_rows_deleted_total",
		Help: "Rows purged by maintenance jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, removed)
	return &MaintenanceMetrics{duration: duration, runs: runs, removed: removed}
}

// ObserveRun records one job execution.
func (m *MaintenanceMetrics) ObserveRun(job string, d time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(d.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.runs.WithLabelValues(job, result).Inc()
}

func (m *MaintenanceMetrics) AddDeleted(job string, rows int64) {
	if m == nil || m.removed == nil || rows <= 0 {
		return
	}
	m.removed.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
