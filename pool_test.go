package async

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolEmptyTasksResolvesImmediately(t *testing.T) {
	sched := newTestScheduler(t)

	result := Pool(sched, nil, 4)
	drain(t, sched)

	v, ok := result.Value()
	require.True(t, ok)
	assert.Equal(t, []any{}, v)
}

func TestPoolRejectsNonPositiveConcurrency(t *testing.T) {
	sched := newTestScheduler(t)

	result := Pool(sched, []Task{func() *Promise { return Resolved(sched, 1) }}, 0)
	reason, ok := result.Reason()
	require.True(t, ok)
	var invalid *InvalidArgumentError
	assert.ErrorAs(t, reason, &invalid)
}

func TestPoolLimitsConcurrentInFlightTasks(t *testing.T) {
	sched := newTestScheduler(t)

	inFlight := 0
	maxInFlight := 0
	deferreds := make([]*Deferred, 5)

	tasks := make([]Task, 5)
	for i := range tasks {
		idx := i
		tasks[idx] = func() *Promise {
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			d := NewDeferred(sched, nil)
			deferreds[idx] = d
			return d.Promise()
		}
	}

	result := Pool(sched, tasks, 2)
	drain(t, sched)

	assert.Equal(t, 2, maxInFlight)

	for i := 0; i < 5; i++ {
		require.NoError(t, deferreds[i].Resolve(i))
		inFlight--
		drain(t, sched)
	}

	assert.Equal(t, 2, maxInFlight)
	v, ok := result.Value()
	require.True(t, ok)
	assert.Equal(t, []any{0, 1, 2, 3, 4}, v)
}

func TestPoolRejectsOnFirstFailureAndKeepsOthersDiscarded(t *testing.T) {
	sched := newTestScheduler(t)

	boom := errors.New("task failed")
	result := Pool(sched, []Task{
		func() *Promise { return RejectedPromise(sched, boom) },
		func() *Promise { return Resolved(sched, "unused") },
	}, 1)
	drain(t, sched)

	reason, ok := result.Reason()
	require.True(t, ok)
	assert.Same(t, boom, reason)
}

func TestSequenceRunsOneAtATimeInOrder(t *testing.T) {
	sched := newTestScheduler(t)

	var order []int
	tasks := make([]Task, 3)
	for i := range tasks {
		idx := i
		tasks[idx] = func() *Promise {
			order = append(order, idx)
			return Resolved(sched, idx)
		}
	}

	result := Sequence(sched, tasks)
	drain(t, sched)

	require.Equal(t, Fulfilled, result.State())
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestSequenceShortCircuitsOnFirstRejection(t *testing.T) {
	sched := newTestScheduler(t)

	boom := errors.New("stop here")
	ran := 0
	tasks := []Task{
		func() *Promise { ran++; return RejectedPromise(sched, boom) },
		func() *Promise { ran++; return Resolved(sched, "never") },
	}

	result := Sequence(sched, tasks)
	drain(t, sched)

	reason, ok := result.Reason()
	require.True(t, ok)
	assert.Same(t, boom, reason)
	assert.Equal(t, 1, ran)
}
