package async

// Timeout races op's fiber body against a timer: if op does not settle
// within delayMs milliseconds, the returned promise rejects with a
// timeout CancellationError and op's own token is canceled so it can wind
// down. delayMs must be > 0, per spec.md §4.G; otherwise the returned
// promise rejects immediately with InvalidArgumentError. Grounded on the
// teacher's AbortTimeout (eventloop/abort.go), generalized from a
// standalone AbortController to a TokenSource-plus-fiber composition.
func Timeout(sched *Scheduler, op func(token *Token) *Promise, delayMs int) *Promise {
	src, err := WithTimeout(sched, delayMs)
	if err != nil {
		return RejectedPromise(sched, err)
	}
	result := newPromise(sched, nil)
	settled := false

	op(src.Token()).Then(
		func(v any) (any, error) {
			if !settled {
				settled = true
				src.Dispose()
				result.resolve(v)
			}
			return nil, nil
		},
		func(e error) (any, error) {
			if !settled {
				settled = true
				src.Dispose()
				result.reject(e)
			}
			return nil, nil
		},
	)

	src.Token().OnCancel(func(reason error) {
		if !settled {
			settled = true
			result.reject(reason)
		}
	})

	return result
}
