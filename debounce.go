package async

// Debounce returns a function that, each time it is called, cancels any
// pending scheduled call from a previous invocation and reschedules fn to
// run delayMs after the latest call. Each call gets its own Deferred; per
// spec.md §4.G, only the Deferred from the call that actually ends up
// running ever settles — earlier calls' deferreds are permanently
// abandoned in Pending, matching the "forward its settlement to the
// deferred that was returned by THAT call" rule. Grounded on the
// teacher's ScheduleTimer cancel-and-reschedule idiom.
func Debounce(sched *Scheduler, fn func() (any, error), delayMs int) func() *Promise {
	var timerID uint64
	var timerSet bool

	return func() *Promise {
		d := NewDeferred(sched, nil)

		if timerSet {
			sched.clearTimer(timerID)
		}
		timerSet = true
		timerID = sched.setTimeout(func() {
			timerSet = false
			v, err := fn()
			if err != nil {
				d.Reject(err)
				return
			}
			d.Resolve(v)
		}, delayMs)

		return d.Promise()
	}
}
