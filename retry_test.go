package async

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelayFormula(t *testing.T) {
	assert.Equal(t, 0, backoffDelay(1, 100, 10000))
	assert.Equal(t, 100, backoffDelay(2, 100, 10000))
	assert.Equal(t, 200, backoffDelay(3, 100, 10000))
	assert.Equal(t, 400, backoffDelay(4, 100, 10000))
	assert.Equal(t, 10000, backoffDelay(20, 100, 10000))
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	sched := newTestScheduler(t)

	attempts := 0
	result := Retry(sched, func() *Promise {
		attempts++
		if attempts < 3 {
			return RejectedPromise(sched, errors.New("transient"))
		}
		return Resolved(sched, "ok")
	}, 5, 0, 0)

	for i := 0; i < 10 && result.State() == Pending; i++ {
		drain(t, sched)
		sched.runDueTimers()
	}

	require.Equal(t, Fulfilled, result.State())
	v, _ := result.Value()
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	sched := newTestScheduler(t)

	boom := errors.New("always fails")
	result := Retry(sched, func() *Promise {
		return RejectedPromise(sched, boom)
	}, 3, 1, 10)

	// The retries wait 1ms and then 2ms of scheduler time, so let the
	// clock advance before each timer pass.
	for i := 0; i < 10 && result.State() == Pending; i++ {
		drain(t, sched)
		time.Sleep(2 * time.Millisecond)
		sched.runDueTimers()
	}

	require.Equal(t, Rejected, result.State())
	reason, _ := result.Reason()
	assert.Same(t, boom, reason)
}

func TestRetryRejectsInvalidMaxAttempts(t *testing.T) {
	sched := newTestScheduler(t)

	result := Retry(sched, func() *Promise { return Resolved(sched, 1) }, 0, 1, 1)
	reason, ok := result.Reason()
	require.True(t, ok)
	var invalid *InvalidArgumentError
	assert.ErrorAs(t, reason, &invalid)
}
