// Package batchpool implements concurrency-bounded admission control for
// launching a fixed set of tasks: at most MaxConcurrency run at once, and
// as each finishes the next queued task is admitted. It is the same
// "launch up to N, start next as one completes" idiom as
// github.com/joeycumines/go-utilpkg's microbatch.BatcherConfig.MaxConcurrency,
// adapted here from a time/size-windowed batch processor to a plain
// fixed-size task pool.
package batchpool

// Pool runs up to concurrency tasks at once, in submission order,
// starting the next queued task the instant a running one completes.
// concurrency <= 0 means unbounded (every task admitted immediately).
type Pool struct {
	concurrency int
	running     int
	queue       []func()
}

// New creates a Pool with the given concurrency limit.
func New(concurrency int) *Pool {
	return &Pool{concurrency: concurrency}
}

// Submit enqueues task. If there is spare concurrency it runs
// immediately; otherwise it waits for an in-flight task to call Done.
func (p *Pool) Submit(task func()) {
	if p.concurrency <= 0 || p.running < p.concurrency {
		p.running++
		task()
		return
	}
	p.queue = append(p.queue, task)
}

// Done must be called by task bodies exactly once, after the task's
// asynchronous work has fully completed, to admit the next queued task.
// Pool itself does not know when an async task "finishes" — callers that
// wrap asynchronous work call Done from the completion callback, not
// inline after Submit returns.
func (p *Pool) Done() {
	p.running--
	if len(p.queue) == 0 {
		return
	}
	next := p.queue[0]
	p.queue = p.queue[1:]
	p.running++
	next()
}

// Pending reports the number of tasks still queued awaiting admission.
func (p *Pool) Pending() int { return len(p.queue) }
