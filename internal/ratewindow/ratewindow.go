// Package ratewindow tracks a single virtual "last execution" timestamp
// for throttling, the same quantization idea as
// github.com/joeycumines/go-utilpkg's catrate sliding-window rate
// limiter, reduced from catrate's multi-window concurrent ring-buffer
// counter down to the single-window, single-goroutine case a cooperative
// scheduler's Throttle combinator needs.
package ratewindow

// Window remembers the virtual timestamp (in the caller's own time unit,
// typically scheduler milliseconds) of the last permitted execution.
type Window struct {
	lastExec    int64
	hasExecuted bool
	interval    int64
}

// New creates a Window that enforces at most one execution per interval
// units of virtual time.
func New(interval int64) *Window {
	return &Window{interval: interval}
}

// MarkExecuted force-records now as the last-execution timestamp,
// for callers that defer a throttled call and need to update the window
// once that deferred call actually runs rather than when it was admitted.
func (w *Window) MarkExecuted(now int64) {
	w.lastExec = now
	w.hasExecuted = true
}

// Advance reports whether an execution is permitted at virtual time now,
// and if so, records now as the new last-execution timestamp. If not
// permitted, it returns the virtual time at which the next execution
// would become permitted.
func (w *Window) Advance(now int64) (allowed bool, nextAt int64) {
	if !w.hasExecuted || now-w.lastExec >= w.interval {
		w.lastExec = now
		w.hasExecuted = true
		return true, now
	}
	return false, w.lastExec + w.interval
}
