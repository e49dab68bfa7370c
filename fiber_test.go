package async

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncFiberAwaitsPromise(t *testing.T) {
	sched := newTestScheduler(t)

	inner := NewDeferred(sched, nil)
	result := sched.Async(func(f *Fiber) (any, error) {
		v, err := f.Await(inner.Promise())
		if err != nil {
			return nil, err
		}
		return v.(int) + 1, nil
	}, nil)

	drain(t, sched)
	require.NoError(t, inner.Resolve(41))
	drain(t, sched)

	require.Equal(t, Fulfilled, result.State())
	v, ok := result.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestAsyncFiberCancellationDuringAwait(t *testing.T) {
	sched := newTestScheduler(t)

	src := NewTokenSource(sched)
	neverSettles := NewDeferred(sched, nil)

	result := sched.Async(func(f *Fiber) (any, error) {
		_, err := f.Await(neverSettles.Promise())
		return nil, err
	}, src.Token())

	drain(t, sched)
	require.NoError(t, src.Cancel(NewCancellationError("abandon ship")))
	drain(t, sched)

	require.Equal(t, Rejected, result.State())
	reason, ok := result.Reason()
	require.True(t, ok)
	assert.Equal(t, "abandon ship", reason.Error())
}

func TestAsyncFiberObservesCancellationByPollingBetweenAwaits(t *testing.T) {
	sched := newTestScheduler(t)

	src := NewTokenSource(sched)
	iterations := 0

	result := sched.Async(func(f *Fiber) (any, error) {
		for {
			if err := f.Token().ThrowIfCancelled(); err != nil {
				return nil, err
			}
			iterations++
			if _, err := f.Await(Resolved(sched, nil)); err != nil {
				return nil, err
			}
		}
	}, src.Token())

	// Awaiting an already-resolved promise makes the fiber ready again on
	// every pass, so drain would never go idle here; step exactly two
	// polling iterations by hand before canceling.
	for i := 0; i < 2; i++ {
		sched.drainMicrotasks()
		sched.stepReadyFibers()
	}
	require.NoError(t, src.Cancel(NewCancellationError("stop polling")))
	drain(t, sched)

	require.Equal(t, Rejected, result.State())
	reason, ok := result.Reason()
	require.True(t, ok)
	assert.Equal(t, "stop polling", reason.Error())
	assert.Greater(t, iterations, 1)
}

func TestAsyncRejectsImmediatelyOnPreCancelledToken(t *testing.T) {
	sched := newTestScheduler(t)

	src := NewTokenSource(sched)
	require.NoError(t, src.Cancel(NewCancellationError("never starts")))

	result := sched.Async(func(f *Fiber) (any, error) {
		t.Fatal("fiber body must never run")
		return nil, nil
	}, src.Token())

	assert.Equal(t, Rejected, result.State())
}
