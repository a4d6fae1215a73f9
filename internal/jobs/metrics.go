package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// Metrics counts background task runs. A nil *Metrics records nothing.
type Metrics struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastOK    *prometheus.GaugeVec
	installed prometheus.Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers job collectors on registerer, or once on the default
// registerer when nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = build(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return build(registerer)
}

func build(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Task executions by task type and status.",
		}, []string{"task", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Task execution time.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"task"}),
		lastOK: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per task type.",
		}, []string{"task"}),
		installed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "capabilities_installed_total",
			Help:      "Capabilities inserted by catalog reconciliation.",
		}),
	}
}

// Run measures one task execution.
type Run struct {
	metrics *Metrics
	task    string
	start   time.Time
}

// Track starts measuring a run of task.
func (m *Metrics) Track(task string) *Run {
	return &Run{metrics: m, task: task, start: time.Now()}
}

// End records the outcome and hands err back so callers can write
// `return run.End(err)`.
func (r *Run) End(err error) error {
	if r == nil || r.metrics == nil || r.task == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	r.metrics.runs.WithLabelValues(r.task, status).Inc()
	r.metrics.duration.WithLabelValues(r.task).Observe(time.Since(r.start).Seconds())
	if err == nil {
		r.metrics.lastOK.WithLabelValues(r.task).SetToCurrentTime()
	}
	return err
}

// AddInstalled counts capabilities installed by a reconcile run.
func (m *Metrics) AddInstalled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.installed.Add(float64(n))
}
