package async

import (
	"errors"
	"fmt"
)

// Settlement is a snapshot of a settled Promise, delivered by ToChannel to
// code that needs to observe a promise from outside the loop goroutine.
type Settlement struct {
	State  PromiseState
	Value  any
	Reason error
}

// onFulfilled/onRejected handler pair attached to a Promise via Then. A
// nil field means "pass through": the settlement propagates to target
// unchanged, matching Promise/A+'s handler-omission rule.
type promiseHandler struct {
	onFulfilled func(any) (any, error)
	onRejected  func(error) (any, error)
	target      *Promise
}

// Canceller is invoked when a Promise is canceled before settling. It may
// perform cleanup and return an error to reject with instead of the
// default CancellationError.
type Canceller func() error

// Promise is a single-assignment, chainable deferred value, following
// Promise/A+ semantics with Go-shaped error handling (onRejected receives
// an error, not an any). A Promise created via NewDeferred or via
// Run settles at most once; Then/Catch/Finally always return a
// new child Promise.
type Promise struct {
	id    uint64
	sched *Scheduler

	state  PromiseState
	value  any
	reason error

	handlers []promiseHandler

	canceller Canceller
	canceled  bool
}

func newPromise(sched *Scheduler, canceller Canceller) *Promise {
	return &Promise{
		id:        sched.nextID(),
		sched:     sched,
		state:     Pending,
		canceller: canceller,
	}
}

// ID returns the promise's scheduler-scoped monotonic identifier. Timers
// draw their ids from a separate counter, so this id plays no part in
// timer ordering.
func (p *Promise) ID() uint64 { return p.id }

// State returns the promise's current lifecycle state.
func (p *Promise) State() PromiseState { return p.state }

// Value returns the fulfillment value and true if the promise is
// Fulfilled, otherwise nil and false.
func (p *Promise) Value() (any, bool) {
	if p.state != Fulfilled {
		return nil, false
	}
	return p.value, true
}

// Reason returns the rejection reason and true if the promise is
// Rejected, otherwise nil and false.
func (p *Promise) Reason() (error, bool) {
	if p.state != Rejected {
		return nil, false
	}
	return p.reason, true
}

// Unwrap returns the fulfillment value of a Fulfilled promise. Called
// against a promise in any other state, it fails loudly with a
// *WrongStateError instead of returning a zero value, per spec.md §4.A's
// "unwrap operations fail loudly (kind: wrong-state)."
func (p *Promise) Unwrap() (any, error) {
	if p.state != Fulfilled {
		return nil, &WrongStateError{Wanted: Fulfilled, Actual: p.state}
	}
	return p.value, nil
}

// UnwrapReason returns the rejection reason of a Rejected promise. Called
// against a promise in any other state, it fails loudly with a
// *WrongStateError, mirroring Unwrap.
func (p *Promise) UnwrapReason() (error, error) {
	if p.state != Rejected {
		return nil, &WrongStateError{Wanted: Rejected, Actual: p.state}
	}
	return p.reason, nil
}

// thenable is satisfied by any value with a Then method shaped like
// Promise's own — used to absorb foreign promise-like values returned
// from a handler, per spec.md §4.B's "if it returns a thenable, chain to
// it instead of wrapping it."
type thenable interface {
	Then(onFulfilled func(any) (any, error), onRejected func(error) (any, error)) *Promise
}

func (p *Promise) resolve(value any) {
	if p.state != Pending {
		return
	}
	if value == p {
		p.reject(fmt.Errorf("async: promise #%d resolved with itself", p.id))
		return
	}
	if t, ok := value.(thenable); ok {
		t.Then(
			func(v any) (any, error) { p.resolve(v); return nil, nil },
			func(e error) (any, error) { p.reject(e); return nil, nil },
		)
		return
	}

	p.state = Fulfilled
	p.value = value
	p.flush()
}

func (p *Promise) reject(reason error) {
	if p.state != Pending {
		return
	}
	p.state = Rejected
	p.reason = reason
	p.flush()
}

// flush schedules every attached handler as a microtask, in attach order,
// and clears the handler list. Called exactly once, right after the state
// transition out of Pending.
func (p *Promise) flush() {
	handlers := p.handlers
	p.handlers = nil
	for _, h := range handlers {
		p.scheduleHandler(h)
	}
}

func (p *Promise) addHandler(h promiseHandler) {
	if p.state == Pending {
		p.handlers = append(p.handlers, h)
		return
	}
	p.scheduleHandler(h)
}

func (p *Promise) scheduleHandler(h promiseHandler) {
	state, value, reason := p.state, p.value, p.reason
	p.sched.queueMicrotask(func() {
		p.executeHandler(h, state, value, reason)
	})
}

func (p *Promise) executeHandler(h promiseHandler, state PromiseState, value any, reason error) {
	if state == Fulfilled {
		if h.onFulfilled == nil {
			if h.target != nil {
				h.target.resolve(value)
			}
			return
		}
		p.runHandler(h.target, func() (any, error) { return h.onFulfilled(value) })
		return
	}

	if h.onRejected == nil {
		if h.target != nil {
			h.target.reject(reason)
		}
		return
	}
	p.runHandler(h.target, func() (any, error) { return h.onRejected(reason) })
}

func (p *Promise) runHandler(target *Promise, fn func() (any, error)) {
	defer func() {
		if r := recover(); r != nil {
			if target != nil {
				target.reject(fmt.Errorf("async: handler panicked: %v", r))
			}
		}
	}()
	v, err := fn()
	if target == nil {
		return
	}
	if err != nil {
		target.reject(err)
		return
	}
	target.resolve(v)
}

// Then attaches fulfillment and rejection handlers and returns a new
// child Promise settling with their result. Either handler may be nil to
// pass the corresponding settlement through unchanged.
func (p *Promise) Then(onFulfilled func(any) (any, error), onRejected func(error) (any, error)) *Promise {
	child := newPromise(p.sched, nil)
	p.addHandler(promiseHandler{onFulfilled: onFulfilled, onRejected: onRejected, target: child})
	return child
}

// Catch attaches a rejection handler only; equivalent to Then(nil, onRejected).
func (p *Promise) Catch(onRejected func(error) (any, error)) *Promise {
	return p.Then(nil, onRejected)
}

// CatchAs attaches a rejection handler that only fires when the rejection
// reason satisfies errors.As against T; any other reason passes through
// unhandled. This is the Go realization of "parameter-typed catch" named
// in spec.md §4.B/§9, since Go cannot inspect a closure's declared
// parameter type at runtime.
func CatchAs[T error](p *Promise, handler func(T) (any, error)) *Promise {
	return p.Catch(func(reason error) (any, error) {
		var target T
		if errors.As(reason, &target) {
			return handler(target)
		}
		return nil, reason
	})
}

// Finally attaches a handler run on settlement regardless of outcome. The
// original settlement passes through unchanged unless onFinally panics or
// returns an error itself.
func (p *Promise) Finally(onFinally func() error) *Promise {
	return p.Then(
		func(v any) (any, error) {
			if err := onFinally(); err != nil {
				return nil, err
			}
			return v, nil
		},
		func(e error) (any, error) {
			if err := onFinally(); err != nil {
				return nil, err
			}
			return nil, e
		},
	)
}

// Cancel invokes the promise's canceller, if it has one and the promise
// has not yet settled, and rejects it with a CancellationError (or a
// CancellerError if the canceller itself fails). Cancel on an
// already-settled or already-canceled promise is a no-op, matching the
// idempotent-cancel rule in spec.md §4.C.
func (p *Promise) Cancel(reason string) {
	if p.state != Pending || p.canceled {
		return
	}
	p.canceled = true
	if p.canceller != nil {
		if err := p.canceller(); err != nil {
			p.reject(&CancellerError{Cause: err})
			return
		}
	}
	p.reject(NewCancellationError(reason))
}

// ToChannel returns a channel that receives exactly one Settlement when
// the promise settles, then is closed. Intended for goroutines outside
// the loop goroutine that need to block-wait on a promise produced by
// Run, mirroring the teacher's Promise.ToChannel.
func (p *Promise) ToChannel() <-chan Settlement {
	ch := make(chan Settlement, 1)
	p.Then(
		func(v any) (any, error) {
			ch <- Settlement{State: Fulfilled, Value: v}
			close(ch)
			return v, nil
		},
		func(e error) (any, error) {
			ch <- Settlement{State: Rejected, Reason: e}
			close(ch)
			return nil, e
		},
	)
	return ch
}

// Resolved returns an already-fulfilled Promise, per spec.md §4.B. If
// value is already a *Promise, it is returned unchanged rather than
// wrapped, per spec.md §8's "resolve(P) === P when P is already a promise"
// identity-preservation law.
func Resolved(sched *Scheduler, value any) *Promise {
	if p, ok := value.(*Promise); ok {
		return p
	}
	p := newPromise(sched, nil)
	p.resolve(value)
	return p
}

// RejectedPromise returns an already-rejected Promise, per spec.md §4.B.
func RejectedPromise(sched *Scheduler, reason error) *Promise {
	p := newPromise(sched, nil)
	p.reject(reason)
	return p
}
