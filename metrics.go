package async

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// schedulerMetrics is an optional prometheus.Collector exposing the
// counters and histogram spec.md's observability (non-excluded ambient
// concern) calls for: ticks run, microtasks drained, timers fired, fiber
// lifecycle counts, and tick-duration. Grounded on
// github.com/prometheus/client_golang as used by GlyphLang's
// pkg/metrics and samber-ro's ee/plugins/prometheus.
type schedulerMetrics struct {
	ticks           prometheus.Counter
	microtasksRun   prometheus.Counter
	timersFired     prometheus.Counter
	fibersStarted   prometheus.Counter
	fibersCompleted prometheus.Counter
	fibersCanceled  prometheus.Counter
	tickDuration    prometheus.Histogram
}

func newSchedulerMetrics() *schedulerMetrics {
	return &schedulerMetrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Number of scheduler ticks executed.",
		}),
		microtasksRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "scheduler",
			Name:      "microtasks_run_total",
			Help:      "Number of microtasks drained.",
		}),
		timersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "scheduler",
			Name:      "timers_fired_total",
			Help:      "Number of timer callbacks fired.",
		}),
		fibersStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "scheduler",
			Name:      "fibers_started_total",
			Help:      "Number of fibers started via Async.",
		}),
		fibersCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "scheduler",
			Name:      "fibers_completed_total",
			Help:      "Number of fibers that ran to completion.",
		}),
		fibersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "async",
			Subsystem: "scheduler",
			Name:      "fibers_canceled_total",
			Help:      "Number of fibers canceled before completion.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "async",
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of a single scheduler tick.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *schedulerMetrics) observeTick(start time.Time) {
	m.ticks.Inc()
	m.tickDuration.Observe(time.Since(start).Seconds())
}

// Describe implements prometheus.Collector.
func (m *schedulerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ticks.Describe(ch)
	m.microtasksRun.Describe(ch)
	m.timersFired.Describe(ch)
	m.fibersStarted.Describe(ch)
	m.fibersCompleted.Describe(ch)
	m.fibersCanceled.Describe(ch)
	m.tickDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *schedulerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ticks.Collect(ch)
	m.microtasksRun.Collect(ch)
	m.timersFired.Collect(ch)
	m.fibersStarted.Collect(ch)
	m.fibersCompleted.Collect(ch)
	m.fibersCanceled.Collect(ch)
	m.tickDuration.Collect(ch)
}

// Metrics returns the scheduler's prometheus.Collector, or nil if
// WithMetrics was not enabled.
func (s *Scheduler) Metrics() prometheus.Collector {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}
