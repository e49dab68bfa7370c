package async

import "github.com/cordwain/goasync/internal/ratewindow"

// Throttle returns a function that calls fn at most once per intervalMs
// of virtual scheduler time. The first call (or any call arriving at
// least intervalMs after the last execution) runs fn immediately; calls
// arriving inside the window are queued and serialized, each one getting
// its own reserved slot intervalMs after the previous queued slot, per
// spec.md §4.G's "successive queued calls are serialized and ordered by
// call arrival" rule — unlike Debounce, no queued call is ever abandoned.
// Grounded on go-catrate's windowed-counter quantization
// (internal/ratewindow) for the admit-or-reserve decision.
func Throttle(sched *Scheduler, fn func() (any, error), intervalMs int) func() *Promise {
	window := ratewindow.New(int64(intervalMs))
	var queue []*Deferred
	var reserved int64
	var timerArmed bool
	var runOne func()

	armNext := func() {
		if timerArmed || len(queue) == 0 {
			return
		}
		timerArmed = true
		delay := reserved - sched.now()
		if delay < 0 {
			delay = 0
		}
		sched.setTimeout(runOne, int(delay))
	}

	runOne = func() {
		timerArmed = false
		d := queue[0]
		queue = queue[1:]
		window.MarkExecuted(reserved)
		v, err := fn()
		if err != nil {
			d.Reject(err)
		} else {
			d.Resolve(v)
		}
		armNext()
	}

	return func() *Promise {
		now := sched.now()

		if len(queue) == 0 {
			if allowed, nextAt := window.Advance(now); allowed {
				d := NewDeferred(sched, nil)
				v, err := fn()
				if err != nil {
					d.Reject(err)
				} else {
					d.Resolve(v)
				}
				return d.Promise()
			} else {
				reserved = nextAt
			}
		} else {
			reserved += int64(intervalMs)
		}

		d := NewDeferred(sched, nil)
		queue = append(queue, d)
		armNext()
		return d.Promise()
	}
}
