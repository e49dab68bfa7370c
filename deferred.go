package async

// Deferred is an external resolve/reject/cancel controller wrapping
// exactly one Promise, per spec.md §4.B. Unlike Then-chained promises, a
// Deferred's settlement is driven by its owner rather than by a handler's
// return value — the standard shape for bridging callback-based or
// external work into the promise graph.
type Deferred struct {
	promise *Promise
}

// NewDeferred creates a pending Promise together with its controller. The
// optional canceller runs exactly once if Cancel is called before the
// deferred settles.
func NewDeferred(sched *Scheduler, canceller Canceller) *Deferred {
	return &Deferred{promise: newPromise(sched, canceller)}
}

// Promise returns the Deferred's underlying Promise for chaining.
func (d *Deferred) Promise() *Promise { return d.promise }

// Resolve fulfills the underlying promise with value. Calling Resolve or
// Reject a second time on an already-settled Deferred returns
// AlreadySettledError and has no further effect, matching spec.md §4.B's
// "resolve/reject beyond the first call are no-ops, and return an error
// indicating the promise was already settled."
func (d *Deferred) Resolve(value any) error {
	if d.promise.state != Pending {
		return &AlreadySettledError{Operation: "Resolve"}
	}
	d.promise.resolve(value)
	return nil
}

// Reject settles the underlying promise with reason. See Resolve for the
// already-settled behavior.
func (d *Deferred) Reject(reason error) error {
	if d.promise.state != Pending {
		return &AlreadySettledError{Operation: "Reject"}
	}
	d.promise.reject(reason)
	return nil
}

// Cancel cancels the underlying promise. It is a no-op, not an error, if
// the deferred has already settled — cancellation races against normal
// settlement are expected and harmless per spec.md §4.C.
func (d *Deferred) Cancel(reason string) {
	d.promise.Cancel(reason)
}
