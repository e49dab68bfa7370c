package async

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutRejectsNonPositiveDelay(t *testing.T) {
	sched := newTestScheduler(t)

	result := Timeout(sched, func(token *Token) *Promise {
		t.Fatal("op must never run")
		return nil
	}, 0)

	reason, ok := result.Reason()
	require.True(t, ok)
	var invalid *InvalidArgumentError
	assert.ErrorAs(t, reason, &invalid)
}

func TestTimeoutSettlesWithOpResultWhenFastEnough(t *testing.T) {
	sched := NewScheduler()
	sched.Start()
	defer sched.Stop()

	result := Timeout(sched, func(token *Token) *Promise {
		return Resolved(sched, "fast")
	}, 1000)

	settlement := <-result.ToChannel()
	require.Equal(t, Fulfilled, settlement.State)
	assert.Equal(t, "fast", settlement.Value)
}

func TestTimeoutRejectsWithCancellationWhenOpIsSlow(t *testing.T) {
	sched := NewScheduler()
	sched.Start()
	defer sched.Stop()

	result := Timeout(sched, func(token *Token) *Promise {
		return NewDeferred(sched, nil).Promise() // never settles on its own
	}, 5)

	settlement := <-result.ToChannel()
	require.Equal(t, Rejected, settlement.State)
	var cancelErr *CancellationError
	require.ErrorAs(t, settlement.Reason, &cancelErr)
}
