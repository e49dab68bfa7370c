package async

import "sync"

var (
	defaultSchedMu sync.Mutex
	defaultSched   *Scheduler
)

// defaultScheduler lazily creates and starts the package-level default
// Scheduler backing the Async facade, the static API surface named in
// spec.md §6, styled on the teacher's package-level JS/Loop split where a
// single *Loop backs convenience wrappers.
func defaultScheduler() *Scheduler {
	defaultSchedMu.Lock()
	defer defaultSchedMu.Unlock()
	if defaultSched == nil {
		defaultSched = NewScheduler()
		defaultSched.Start()
	}
	return defaultSched
}

// facade exposes spec.md §6's static surface bound to a single Scheduler.
// Async is the package-level instance bound to the lazily-created default
// Scheduler; call New to wrap an independently managed Scheduler instead.
type facade struct {
	sched func() *Scheduler
}

// Async is the package-level facade bound to the default Scheduler.
var Async = facade{sched: defaultScheduler}

// New wraps an explicit Scheduler in a facade with the same method set as
// Async, for callers running more than one scheduler side by side.
func New(sched *Scheduler) facade {
	return facade{sched: func() *Scheduler { return sched }}
}

func (f facade) Resolve(value any) *Promise { return Resolved(f.sched(), value) }
func (f facade) Reject(reason error) *Promise        { return RejectedPromise(f.sched(), reason) }
func (f facade) Run(fn func() (any, error)) *Promise { return f.sched().runTask(fn, nil) }
func (f facade) RunWithToken(fn func() (any, error), token *Token) *Promise {
	return f.sched().runTask(fn, token)
}
func (f facade) Async(fn FiberBody) *Promise { return f.sched().Async(fn, nil) }
func (f facade) AsyncWithToken(fn FiberBody, token *Token) *Promise {
	return f.sched().Async(fn, token)
}

func (f facade) Delay(ms int) *Promise {
	d := NewDeferred(f.sched(), nil)
	f.sched().setTimeout(func() { d.Resolve(nil) }, ms)
	return d.Promise()
}

func (f facade) All(promises []*Promise) *Promise          { return AllSlice(f.sched(), promises) }
func (f facade) Race(promises []*Promise) *Promise         { return Race(f.sched(), promises) }
func (f facade) Any(promises []*Promise) *Promise          { return AnySlice(f.sched(), promises) }
func (f facade) AllSettled(promises []*Promise) *Promise   { return AllSettledSlice(f.sched(), promises) }
func (f facade) Pool(tasks []Task, concurrency int) *Promise { return Pool(f.sched(), tasks, concurrency) }
func (f facade) Sequence(tasks []Task) *Promise             { return Sequence(f.sched(), tasks) }
func (f facade) Retry(op Operation, maxAttempts, baseDelayMs, maxDelayMs int) *Promise {
	return Retry(f.sched(), op, maxAttempts, baseDelayMs, maxDelayMs)
}
func (f facade) Timeout(op func(token *Token) *Promise, delayMs int) *Promise {
	return Timeout(f.sched(), op, delayMs)
}
func (f facade) Debounce(fn func() (any, error), delayMs int) func() *Promise {
	return Debounce(f.sched(), fn, delayMs)
}
func (f facade) Throttle(fn func() (any, error), intervalMs int) func() *Promise {
	return Throttle(f.sched(), fn, intervalMs)
}

func (f facade) SetTimeout(fn func(), delayMs int) uint64   { return f.sched().setTimeout(fn, delayMs) }
func (f facade) SetInterval(fn func(), delayMs int) uint64  { return f.sched().setInterval(fn, delayMs) }
func (f facade) ClearTimer(id uint64)                       { f.sched().clearTimer(id) }

func (f facade) StartEventLoop() { f.sched().Start() }
func (f facade) StopEventLoop()  { f.sched().Stop() }
func (f facade) Scheduler() *Scheduler { return f.sched() }

func (f facade) CreateCancellationTokenSource() *TokenSource { return NewTokenSource(f.sched()) }
func (f facade) NeverCancel() *TokenSource                   { return NeverCancel() }
func (f facade) WithTimeout(delayMs int) (*TokenSource, error) { return WithTimeout(f.sched(), delayMs) }
func (f facade) CombineTokens(tokens ...*Token) *CombinedToken { return CombineTokens(tokens...) }

// SupportsFibers reports whether the runtime can execute fiber bodies —
// always true here, since Fiber is implemented with plain goroutines
// rather than a platform-specific coroutine facility.
func (f facade) SupportsFibers() bool { return true }

// SupportsSignals reports whether WithSignal can install a real OS
// signal handler in this process.
func (f facade) SupportsSignals() bool { return SupportsSignals() }

// GetCurrentTime returns the facade's scheduler's virtual clock reading,
// in milliseconds since it was started.
func (f facade) GetCurrentTime() int64 { return f.sched().now() }

// Run executes fn as an immediate scheduled task on sched and returns a
// Promise settling with its result, per spec.md §4.F. This is the
// package-level entry point used by callers holding their own Scheduler
// rather than going through the Async facade.
func Run(sched *Scheduler, fn func() (any, error), token *Token) *Promise {
	return sched.runTask(fn, token)
}
