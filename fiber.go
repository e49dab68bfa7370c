package async

import (
	"errors"

	"github.com/google/uuid"
)

// Fiber is a cooperatively scheduled task body that can suspend itself
// mid-execution via Yield/Await and be resumed later by the scheduler.
// Go has no public stackful-coroutine primitive, so a Fiber pairs a
// goroutine with two unbuffered handoff channels: stepping a fiber sends
// on resumeCh and blocks on yieldedCh, so at most one of {loop goroutine,
// fiber goroutine} is ever running unblocked. This realizes spec.md
// §4.F/§9's fiber-based executor the idiomatic-Go way.
type Fiber struct {
	id        uint64
	debugID   string
	sched     *Scheduler
	token     *Token
	promise   *Promise
	resumeCh  chan struct{}
	yieldedCh chan struct{}
	done      bool

	awaitValue any
	awaitErr   error
}

// FiberBody is the function a fiber runs. It receives the Fiber itself so
// the body can call Await to suspend on a Promise.
type FiberBody func(f *Fiber) (any, error)

// Async starts fn as a new fiber and returns a Promise that settles with
// its eventual result, per spec.md §4.F. A canceled token prevents fn
// from ever starting and rejects the returned promise immediately; once
// started, the fiber only observes cancellation at its next Await.
func (s *Scheduler) Async(fn FiberBody, token *Token) *Promise {
	p := newPromise(s, nil)

	if token != nil {
		if err := token.ThrowIfCancelled(); err != nil {
			p.reject(err)
			return p
		}
	}

	f := &Fiber{
		id:        s.nextID(),
		debugID:   uuid.NewString(),
		sched:     s,
		token:     token,
		promise:   p,
		resumeCh:  make(chan struct{}),
		yieldedCh: make(chan struct{}),
	}

	s.fibersAlive++
	if s.metrics != nil {
		s.metrics.fibersStarted.Inc()
	}

	go f.run(fn)
	s.scheduleFiberResume(f)
	return p
}

func (f *Fiber) run(fn FiberBody) {
	<-f.resumeCh
	v, err := fn(f)
	f.done = true
	if f.sched.metrics != nil {
		if errors.Is(err, &CancellationError{}) {
			f.sched.metrics.fibersCanceled.Inc()
		} else {
			f.sched.metrics.fibersCompleted.Inc()
		}
	}
	if err != nil {
		f.promise.reject(err)
	} else {
		f.promise.resolve(v)
	}
	f.yieldedCh <- struct{}{}
}

// step hands the baton to the fiber goroutine and blocks until it yields
// (or completes) the baton back. Called only from the loop goroutine,
// during the fiber-stepping phase of tick.
func (f *Fiber) step() {
	if f.done {
		return
	}
	f.resumeCh <- struct{}{}
	<-f.yieldedCh
	if f.done {
		f.sched.fibersAlive--
	}
}

// Yield suspends the calling fiber, handing the baton back to the loop
// goroutine, until the scheduler steps it again. It is the sole
// suspension point fiber bodies have, matching spec.md §4.F.
func (f *Fiber) Yield() {
	f.yieldedCh <- struct{}{}
	<-f.resumeCh
}

// Await suspends the fiber until p settles, returning its value or
// error. If the fiber's token cancels while suspended, Await returns
// immediately with the cancellation error instead of waiting for p.
func (f *Fiber) Await(p *Promise) (any, error) {
	settled := false

	p.Then(
		func(v any) (any, error) {
			if settled {
				return nil, nil
			}
			settled = true
			f.awaitValue, f.awaitErr = v, nil
			f.sched.scheduleFiberResume(f)
			return nil, nil
		},
		func(e error) (any, error) {
			if settled {
				return nil, nil
			}
			settled = true
			f.awaitValue, f.awaitErr = nil, e
			f.sched.scheduleFiberResume(f)
			return nil, nil
		},
	)

	if f.token != nil {
		f.token.OnCancel(func(reason error) {
			if settled {
				return
			}
			settled = true
			f.awaitValue, f.awaitErr = nil, reason
			f.sched.scheduleFiberResume(f)
		})
	}

	f.Yield()
	return f.awaitValue, f.awaitErr
}

// Token returns the cancellation token the fiber was started with, or
// nil.
func (f *Fiber) Token() *Token { return f.token }
