package async

// SettledResult is one entry of an AllSettled result, analogous to the
// teacher's AllSettled output shape in eventloop/promise.go.
type SettledResult struct {
	State  PromiseState
	Value  any
	Reason error
}

// All resolves once every promise in promises has fulfilled, with a map
// of the same keys to their values, or rejects as soon as any one
// rejects. Key order is irrelevant; keys are preserved in the result, per
// spec.md §4.G's key-preserving requirement for keyed combinator input.
func All[K comparable](sched *Scheduler, promises map[K]*Promise) *Promise {
	result := newPromise(sched, nil)
	if len(promises) == 0 {
		result.resolve(map[K]any{})
		return result
	}

	values := make(map[K]any, len(promises))
	remaining := len(promises)
	done := false

	for key, p := range promises {
		k := key
		p.Then(
			func(v any) (any, error) {
				if done {
					return nil, nil
				}
				values[k] = v
				remaining--
				if remaining == 0 {
					done = true
					result.resolve(values)
				}
				return nil, nil
			},
			func(e error) (any, error) {
				if done {
					return nil, nil
				}
				done = true
				result.reject(e)
				return nil, nil
			},
		)
	}
	return result
}

// AllSlice is All specialized to index-keyed slices, the common case for
// unnamed fan-out.
func AllSlice(sched *Scheduler, promises []*Promise) *Promise {
	m := make(map[int]*Promise, len(promises))
	for i, p := range promises {
		m[i] = p
	}
	return All(sched, m).Then(func(v any) (any, error) {
		byIndex := v.(map[int]any)
		out := make([]any, len(promises))
		for i := range promises {
			out[i] = byIndex[i]
		}
		return out, nil
	}, nil)
}

// Race settles with the value or reason of whichever promise settles
// first, matching the first settlement's outcome exactly. Calling Race
// with no promises rejects immediately with InvalidArgumentError, per
// spec.md §4.G/§8's documented empty-input edge case.
func Race(sched *Scheduler, promises []*Promise) *Promise {
	result := newPromise(sched, nil)
	if len(promises) == 0 {
		result.reject(NewInvalidArgumentError("async: Race requires at least one promise"))
		return result
	}
	done := false
	for _, p := range promises {
		p.Then(
			func(v any) (any, error) {
				if !done {
					done = true
					result.resolve(v)
				}
				return nil, nil
			},
			func(e error) (any, error) {
				if !done {
					done = true
					result.reject(e)
				}
				return nil, nil
			},
		)
	}
	return result
}

// Any resolves with the value of the first promise to fulfill, or rejects
// with an *AggregateError collecting every rejection reason if all of them
// reject. The aggregate's inner errors are in no particular order and do
// not carry the input keys. Calling Any with no
// promises returns an *InvalidArgumentError immediately via the returned
// promise's rejection, matching spec.md §4.G's documented edge case.
func Any[K comparable](sched *Scheduler, promises map[K]*Promise) *Promise {
	result := newPromise(sched, nil)
	if len(promises) == 0 {
		result.reject(NewInvalidArgumentError("async: Any requires at least one promise"))
		return result
	}

	reasons := make(map[K]error, len(promises))
	remaining := len(promises)
	done := false

	for key, p := range promises {
		k := key
		p.Then(
			func(v any) (any, error) {
				if !done {
					done = true
					result.resolve(v)
				}
				return nil, nil
			},
			func(e error) (any, error) {
				if done {
					return nil, nil
				}
				reasons[k] = e
				remaining--
				if remaining == 0 {
					done = true
					msgs := make([]error, 0, len(reasons))
					for _, r := range reasons {
						msgs = append(msgs, r)
					}
					result.reject(NewAggregateError("All promises rejected", msgs...))
				}
				return nil, nil
			},
		)
	}
	return result
}

// AnySlice is Any specialized to index-keyed slices.
func AnySlice(sched *Scheduler, promises []*Promise) *Promise {
	m := make(map[int]*Promise, len(promises))
	for i, p := range promises {
		m[i] = p
	}
	return Any(sched, m)
}

// AllSettled resolves once every promise has settled, one way or the
// other, with a map of SettledResult describing each outcome. AllSettled
// itself never rejects.
func AllSettled[K comparable](sched *Scheduler, promises map[K]*Promise) *Promise {
	result := newPromise(sched, nil)
	if len(promises) == 0 {
		result.resolve(map[K]SettledResult{})
		return result
	}

	out := make(map[K]SettledResult, len(promises))
	remaining := len(promises)

	for key, p := range promises {
		k := key
		p.Then(
			func(v any) (any, error) {
				out[k] = SettledResult{State: Fulfilled, Value: v}
				remaining--
				if remaining == 0 {
					result.resolve(out)
				}
				return nil, nil
			},
			func(e error) (any, error) {
				out[k] = SettledResult{State: Rejected, Reason: e}
				remaining--
				if remaining == 0 {
					result.resolve(out)
				}
				return nil, nil
			},
		)
	}
	return result
}

// AllSettledSlice is AllSettled specialized to index-keyed slices.
func AllSettledSlice(sched *Scheduler, promises []*Promise) *Promise {
	m := make(map[int]*Promise, len(promises))
	for i, p := range promises {
		m[i] = p
	}
	return AllSettled(sched, m).Then(func(v any) (any, error) {
		byIndex := v.(map[int]SettledResult)
		out := make([]SettledResult, len(promises))
		for i := range promises {
			out[i] = byIndex[i]
		}
		return out, nil
	}, nil)
}
