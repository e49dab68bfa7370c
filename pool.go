package async

import "github.com/cordwain/goasync/internal/batchpool"

// Task is a unit of async work fed to Pool/Sequence: a function that
// starts some operation and returns the Promise tracking it.
type Task func() *Promise

// Pool runs tasks with at most concurrency in flight at once, admitting
// the next queued task the instant one finishes, and resolves with every
// result in task order once all have completed (or rejects as soon as
// any one does). concurrency must be > 0, per spec.md §4.G; Pool rejects
// immediately with InvalidArgumentError otherwise. Grounded on the
// "launch up to N, start next as one completes" admission idiom from
// go-microbatch's BatcherConfig.MaxConcurrency, adapted to a fixed,
// upfront task list rather than a streaming batch.
func Pool(sched *Scheduler, tasks []Task, concurrency int) *Promise {
	result := newPromise(sched, nil)
	if concurrency <= 0 {
		result.reject(NewInvalidArgumentError("async: Pool requires concurrency > 0"))
		return result
	}
	if len(tasks) == 0 {
		result.resolve([]any{})
		return result
	}

	values := make([]any, len(tasks))
	remaining := len(tasks)
	done := false
	pool := batchpool.New(concurrency)

	for i, task := range tasks {
		idx, t := i, task
		pool.Submit(func() {
			if done {
				pool.Done()
				return
			}
			t().Then(
				func(v any) (any, error) {
					wasDone := done
					values[idx] = v
					remaining--
					if remaining == 0 {
						done = true
					}
					pool.Done()
					if !wasDone && remaining == 0 {
						result.resolve(values)
					}
					return nil, nil
				},
				func(e error) (any, error) {
					first := !done
					done = true
					pool.Done()
					if first {
						result.reject(e)
					}
					return nil, nil
				},
			)
		})
	}
	return result
}

// Sequence runs tasks strictly one at a time, in order; it is Pool with
// concurrency fixed to 1, matching spec.md §4.G exactly: the next task
// is never admitted once the in-flight one has rejected, since done is
// set before Pool.Done() admits the next queued submission.
func Sequence(sched *Scheduler, tasks []Task) *Promise {
	return Pool(sched, tasks, 1)
}
