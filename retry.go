package async

// Operation is a retryable unit of work: each call starts a fresh
// attempt and returns the Promise tracking it.
type Operation func() *Promise

// Retry calls op up to maxAttempts times, retrying on rejection with
// exponential backoff: delay(attempt) = min(baseDelayMs*2^(attempt-2),
// maxDelayMs) for attempt >= 2, no delay before the first attempt. It
// resolves with the first fulfillment, or rejects with the last attempt's
// reason once maxAttempts is exhausted. maxAttempts <= 0 is an
// InvalidArgumentError, per spec.md §4.G.
func Retry(sched *Scheduler, op Operation, maxAttempts int, baseDelayMs, maxDelayMs int) *Promise {
	result := newPromise(sched, nil)
	if maxAttempts <= 0 {
		result.reject(NewInvalidArgumentError("async: Retry requires maxAttempts > 0"))
		return result
	}

	var attempt func(n int)
	attempt = func(n int) {
		op().Then(
			func(v any) (any, error) {
				result.resolve(v)
				return nil, nil
			},
			func(e error) (any, error) {
				if n >= maxAttempts {
					result.reject(e)
					return nil, nil
				}
				delay := backoffDelay(n+1, baseDelayMs, maxDelayMs)
				sched.setTimeout(func() { attempt(n + 1) }, delay)
				return nil, nil
			},
		)
	}
	attempt(1)
	return result
}

// backoffDelay computes the exponential backoff delay before the given
// retry attempt (attempt is the 1-based count of the attempt about to be
// made, so attempt==2 is the first retry), per spec.md §4.G's
// min(baseDelay*2^(attempt-2), maxDelay) formula.
func backoffDelay(attempt, baseDelayMs, maxDelayMs int) int {
	if attempt < 2 {
		return 0
	}
	delay := baseDelayMs
	for i := 0; i < attempt-2; i++ {
		delay *= 2
		if delay >= maxDelayMs {
			delay = maxDelayMs
			break
		}
	}
	if delay > maxDelayMs {
		delay = maxDelayMs
	}
	return delay
}
