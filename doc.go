// Package async provides a cooperative, single-threaded asynchronous
// runtime: Promise/A+-style deferred values, a fiber-based task executor,
// a timer heap, and a propagating cancellation system.
//
// # Architecture
//
// A [Scheduler] is the engine: it owns a FIFO microtask queue, a timer
// heap, and the set of live [Fiber] instances. All of those run on a
// single logical goroutine (the "loop goroutine") — no core type in this
// package takes a lock, because nothing else is ever allowed to touch
// them concurrently. The one exception is the Scheduler's mutex-guarded
// ingress queue, through which the OS signal hook posts work to the loop.
//
// [Promise] and [Deferred] implement chainable, thenable-absorbing
// deferred values. [Token], [TokenSource] and [CombinedToken] implement
// cooperative cancellation, modeled on the DOM AbortController/AbortSignal
// pair. The combinators in combinators.go, pool.go, retry.go, timeout.go,
// debounce.go and throttle.go are layered on top of those primitives.
//
// # Fibers
//
// Go exposes no public stackful-coroutine primitive, so a [Fiber] is
// realized as a goroutine rendezvoused with the loop goroutine over a pair
// of unbuffered channels: stepping a fiber hands it the baton and blocks
// until it yields the baton back, so at most one of {loop, any fiber} is
// ever running unblocked. [Fiber.Yield] is the only suspension point
// available to fiber bodies; [Fiber.Await] suspends through it.
//
// # Usage
//
//	sched := async.NewScheduler()
//	sched.Start()
//	defer sched.Stop()
//
//	p := async.Run(sched, func() (any, error) {
//	    return 21 * 2, nil
//	}, nil)
//	p.Then(func(v any) (any, error) {
//	    fmt.Println(v)
//	    return nil, nil
//	}, nil)
//
// The package-level [Async] facade wraps a lazily-initialized default
// Scheduler for callers that don't need more than one event loop.
package async
