package async

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// defaultMicrotaskDrainCap bounds how many microtasks a single tick will
// drain before yielding to timers/fibers again, preventing a
// microtask that keeps re-enqueueing itself from starving the rest of the
// loop, per spec.md §4.F.
const defaultMicrotaskDrainCap = 100

// Scheduler is the cooperative single-threaded engine described in
// spec.md §4.F: one FIFO microtask queue, one timer heap, and the set of
// live fibers, all owned by a single logical loop goroutine. No field on
// Scheduler is protected by a lock; the only concurrency-safe surfaces are
// the external ingress path (runOnLoop), used by the OS signal hook in
// signal.go, and the Stop request flag. Fiber goroutines touch Scheduler
// state directly, which is safe only because a fiber runs while the loop
// goroutine is blocked in Fiber.step.
type Scheduler struct {
	opts schedulerOptions

	state loopState

	microtasks     []func()
	nextMicrotask  int
	microtaskCap   int
	timers         timerHeap
	nextTimerID    uint64
	nextPromiseID  uint64
	fiberReadyList []*Fiber
	fibersAlive    int

	startTime time.Time

	// ingress bridges goroutines outside the loop (the OS signal hook)
	// back onto the loop goroutine. Along with stopRequested and wake, it is the only state
	// in the scheduler safe to touch from outside the loop goroutine,
	// mirroring the teacher's Submit/processExternal split between the
	// lock-free fast path and cross-thread ingress.
	ingressMu sync.Mutex
	ingress   []func()
	wake      chan struct{}

	metrics *schedulerMetrics
	logger  Logger

	// stopRequested is the one piece of state Stop may touch from a
	// goroutine other than the loop goroutine; everything else on
	// Scheduler is owned exclusively by the loop goroutine.
	stopRequested atomic.Bool
	stopped       chan struct{}
}

// NewScheduler creates a Scheduler in its idle state; call Start before
// Run, Async, SetTimeout, etc. will make progress.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	sched := &Scheduler{
		opts:         resolveSchedulerOptions(opts),
		state:        stateIdle,
		microtaskCap: defaultMicrotaskDrainCap,
		wake:         make(chan struct{}, 1),
		logger:       defaultLogger(),
	}
	if sched.opts.microtaskCap > 0 {
		sched.microtaskCap = sched.opts.microtaskCap
	}
	if sched.opts.logger != nil {
		sched.logger = sched.opts.logger
	}
	if sched.opts.metrics {
		sched.metrics = newSchedulerMetrics()
	}
	heap.Init(&sched.timers)
	return sched
}

// Start transitions the scheduler out of its idle state, records the
// epoch used for virtual timer deadlines, and launches the loop goroutine
// that drives ticks until Stop is called. Start is a no-op if the
// scheduler is not idle.
func (s *Scheduler) Start() {
	if s.state != stateIdle {
		return
	}
	s.startTime = time.Now()
	s.state = stateAwake
	s.stopped = make(chan struct{})
	go s.loopMain()
}

// Stop requests the loop wind down at the next safe point. A loop
// blocked sleeping wakes immediately. Stop does not block for the loop
// goroutine to exit; use Wait for that.
func (s *Scheduler) Stop() {
	s.stopRequested.Store(true)
	s.wakeLoop()
}

// Wait blocks until the loop goroutine launched by Start has fully
// terminated. It is a no-op if Start was never called.
func (s *Scheduler) Wait() {
	if s.stopped == nil {
		return
	}
	<-s.stopped
}

func (s *Scheduler) nextID() uint64 {
	s.nextPromiseID++
	return s.nextPromiseID
}

func (s *Scheduler) nextTimer() uint64 {
	s.nextTimerID++
	return s.nextTimerID
}

func (s *Scheduler) now() int64 {
	return time.Since(s.startTime).Milliseconds()
}

// queueMicrotask appends fn to the FIFO microtask queue. Safe to call
// only from the loop goroutine.
func (s *Scheduler) queueMicrotask(fn func()) {
	s.microtasks = append(s.microtasks, fn)
}

// runOnLoop posts fn to run on the loop goroutine, safe to call from any
// goroutine. Used by the OS signal hook, whose delivery goroutine runs
// off the loop goroutine.
func (s *Scheduler) runOnLoop(fn func()) {
	s.ingressMu.Lock()
	s.ingress = append(s.ingress, fn)
	s.ingressMu.Unlock()
	s.wakeLoop()
}

func (s *Scheduler) wakeLoop() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) drainIngress() {
	s.ingressMu.Lock()
	tasks := s.ingress
	s.ingress = nil
	s.ingressMu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

// setTimeout schedules fn to run once after delayMs virtual milliseconds
// and returns its timer id for ClearTimer.
func (s *Scheduler) setTimeout(fn func(), delayMs int) uint64 {
	return s.scheduleTimer(fn, delayMs, 0)
}

// setInterval schedules fn to run every delayMs virtual milliseconds,
// starting after the first delayMs, until cleared.
func (s *Scheduler) setInterval(fn func(), delayMs int) uint64 {
	if delayMs <= 0 {
		delayMs = 1
	}
	return s.scheduleTimer(fn, delayMs, delayMs)
}

func (s *Scheduler) scheduleTimer(fn func(), delayMs int, interval int) uint64 {
	if delayMs < 0 {
		delayMs = 0
	}
	id := s.nextTimer()
	entry := &timerEntry{
		id:       id,
		deadline: s.now() + int64(delayMs),
		interval: int64(interval),
		fn:       fn,
	}
	heap.Push(&s.timers, entry)
	return id
}

// clearTimer cancels a pending timer (one-shot or interval) by id. It is
// a no-op if the id is unknown or already fired/cleared.
func (s *Scheduler) clearTimer(id uint64) {
	for _, entry := range s.timers {
		if entry.id == id {
			entry.canceled = true
			return
		}
	}
}

func (s *Scheduler) hasPendingWork() bool {
	return len(s.timers) > 0 || s.nextMicrotask < len(s.microtasks) || len(s.fiberReadyList) > 0 ||
		s.fibersAlive > 0 || s.hasIngress()
}

func (s *Scheduler) hasIngress() bool {
	s.ingressMu.Lock()
	defer s.ingressMu.Unlock()
	return len(s.ingress) > 0
}

// tick runs exactly one iteration of the loop: fire due timers, drain up
// to microtaskCap microtasks, then step every fiber that became ready
// during this tick. This ordering matches spec.md §4.F exactly.
func (s *Scheduler) tick() {
	s.state = stateRunning
	if s.metrics != nil {
		defer s.metrics.observeTick(time.Now())
	}

	s.drainIngress()
	s.runDueTimers()
	s.drainMicrotasks()
	s.stepReadyFibers()

	s.state = stateAwake
}

func (s *Scheduler) runDueTimers() {
	now := s.now()
	for len(s.timers) > 0 && s.timers[0].deadline <= now {
		entry := heap.Pop(&s.timers).(*timerEntry)
		if entry.canceled {
			continue
		}
		if entry.interval > 0 {
			entry.deadline = now + entry.interval
			heap.Push(&s.timers, entry)
		}
		s.runSafely(entry.fn)
		if s.metrics != nil {
			s.metrics.timersFired.Inc()
		}
	}
}

func (s *Scheduler) drainMicrotasks() {
	drained := 0
	for s.nextMicrotask < len(s.microtasks) && drained < s.microtaskCap {
		fn := s.microtasks[s.nextMicrotask]
		s.nextMicrotask++
		s.runSafely(fn)
		drained++
		if s.metrics != nil {
			s.metrics.microtasksRun.Inc()
		}
	}
	if s.nextMicrotask > 0 && s.nextMicrotask == len(s.microtasks) {
		s.microtasks = s.microtasks[:0]
		s.nextMicrotask = 0
	}
}

func (s *Scheduler) stepReadyFibers() {
	ready := s.fiberReadyList
	s.fiberReadyList = nil
	for _, f := range ready {
		f.step()
	}
}

func (s *Scheduler) scheduleFiberResume(f *Fiber) {
	s.fiberReadyList = append(s.fiberReadyList, f)
}

func (s *Scheduler) runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("async: task panicked: %v", r)
		}
	}()
	fn()
}

// runTask executes fn as an immediate microtask-scheduled task and
// returns a Promise settling with its result, per spec.md §4.F. token, if
// non-nil and already canceled at call time, rejects the returned promise
// without running fn. Exposed to callers via the package-level Run
// function.
func (s *Scheduler) runTask(fn func() (any, error), token *Token) *Promise {
	p := newPromise(s, nil)
	if token != nil {
		if err := token.ThrowIfCancelled(); err != nil {
			p.reject(err)
			return p
		}
	}
	s.queueMicrotask(func() {
		if token != nil {
			if err := token.ThrowIfCancelled(); err != nil {
				p.reject(err)
				return
			}
		}
		v, err := fn()
		if err != nil {
			p.reject(err)
			return
		}
		p.resolve(v)
	})
	return p
}

// loopMain runs the loop until Stop is called; work still pending at that
// point is not run. While hasPendingWork reports work it keeps ticking,
// sleeping 1ms after any tick that started with nothing immediately
// runnable (only timers not yet due, or fibers waiting on promises).
// With no pending work at all it sleeps until woken by ingress or Stop.
// It runs on its own goroutine, launched by Start.
func (s *Scheduler) loopMain() {
	defer close(s.stopped)
	for !s.stopRequested.Load() {
		if s.hasPendingWork() {
			runnable := s.nextMicrotask < len(s.microtasks) || len(s.fiberReadyList) > 0 || s.hasIngress() ||
				(len(s.timers) > 0 && s.timers[0].deadline <= s.now())
			s.tick()
			if !runnable {
				time.Sleep(time.Millisecond)
			}
			continue
		}
		if !s.sleepUntilWork() {
			break
		}
	}
	s.state = stateTerminated
}

// sleepUntilWork blocks until external ingress arrives, the next timer
// becomes due, or Stop is called. Returns false if the scheduler should
// stop without further ticking.
func (s *Scheduler) sleepUntilWork() bool {
	s.state = stateSleeping
	var timerC <-chan time.Time
	if len(s.timers) > 0 {
		delay := time.Duration(s.timers[0].deadline-s.now()) * time.Millisecond
		if delay < 0 {
			delay = 0
		}
		t := time.NewTimer(delay)
		defer t.Stop()
		timerC = t.C
	}

	select {
	case <-s.wake:
		return !s.stopRequested.Load()
	case <-timerC:
		return true
	}
}

// ResetDefaultScheduler drops the package-level default Scheduler used by
// the Async facade; the next facade call creates and starts a new one.
// The dropped Scheduler is not stopped. Exported for test isolation,
// mirroring the teacher's reset() testability hook.
func ResetDefaultScheduler() {
	defaultSchedMu.Lock()
	defer defaultSchedMu.Unlock()
	defaultSched = nil
}
