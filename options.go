package async

// schedulerOptions holds resolved configuration for a Scheduler. There is
// no file- or environment-backed config layer: spec.md §6 requires zero
// required configuration, so every field here has a sensible zero value.
type schedulerOptions struct {
	microtaskCap int
	metrics      bool
	logger       Logger
}

// SchedulerOption configures a Scheduler at construction time, in the
// style of the teacher's LoopOption/WithStrictMicrotaskOrdering/WithMetrics.
type SchedulerOption interface {
	applyScheduler(*schedulerOptions)
}

type schedulerOptionFunc func(*schedulerOptions)

func (f schedulerOptionFunc) applyScheduler(opts *schedulerOptions) { f(opts) }

// WithMicrotaskDrainCap overrides the default per-tick microtask drain
// cap (100). A runaway microtask that keeps re-enqueueing itself can
// never starve timers or fibers beyond this many re-entries per tick.
func WithMicrotaskDrainCap(n int) SchedulerOption {
	return schedulerOptionFunc(func(opts *schedulerOptions) {
		opts.microtaskCap = n
	})
}

// WithMetrics enables the scheduler's Prometheus collector (tick count,
// microtasks drained, timers fired, fiber lifecycle, tick-duration
// histogram). Disabled by default, mirroring the teacher's WithMetrics.
func WithMetrics(enabled bool) SchedulerOption {
	return schedulerOptionFunc(func(opts *schedulerOptions) {
		opts.metrics = enabled
	})
}

// WithLogger overrides the scheduler's structured background-error
// logger. Defaults to the package-level logger set via SetLogger.
func WithLogger(l Logger) SchedulerOption {
	return schedulerOptionFunc(func(opts *schedulerOptions) {
		opts.logger = l
	})
}

func resolveSchedulerOptions(opts []SchedulerOption) schedulerOptions {
	var cfg schedulerOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyScheduler(&cfg)
	}
	return cfg
}
