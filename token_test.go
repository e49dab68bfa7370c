package async

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSourceCancelPropagates(t *testing.T) {
	sched := newTestScheduler(t)
	src := NewTokenSource(sched)
	tok := src.Token()

	var gotReason error
	tok.OnCancel(func(reason error) { gotReason = reason })

	require.NoError(t, src.Cancel(NewCancellationError("manual stop")))
	assert.True(t, tok.Cancelled())
	require.Error(t, gotReason)
	assert.Equal(t, "manual stop", gotReason.Error())
}

func TestTokenOnCancelFiresImmediatelyIfAlreadyCancelled(t *testing.T) {
	sched := newTestScheduler(t)
	src := NewTokenSource(sched)
	require.NoError(t, src.Cancel(NewCancellationError("already gone")))

	fired := false
	src.Token().OnCancel(func(error) { fired = true })
	assert.True(t, fired)
}

func TestTokenSourceCancelAfterDispose(t *testing.T) {
	sched := newTestScheduler(t)
	src := NewTokenSource(sched)
	src.Dispose()

	err := src.Cancel(NewCancellationError("too late"))
	require.Error(t, err)
	var disposed *DisposedError
	assert.ErrorAs(t, err, &disposed)
	assert.False(t, src.Token().Cancelled())
}

func TestNeverCancelIgnoresCancel(t *testing.T) {
	src := NeverCancel()
	assert.False(t, src.Token().Cancelled())
	_ = src.Cancel(NewCancellationError("ignored"))
	assert.False(t, src.Token().Cancelled())
}

func TestCombinedTokenCancelsWhenAnySourceCancels(t *testing.T) {
	sched := newTestScheduler(t)
	a := NewTokenSource(sched)
	b := NewTokenSource(sched)

	combined := CombineTokens(a.Token(), b.Token())
	assert.False(t, combined.Cancelled())

	require.NoError(t, b.Cancel(NewCancellationError("b first")))
	assert.True(t, combined.Cancelled())
	assert.Equal(t, "b first", combined.Reason().Error())
}

func TestCombineTokensAlreadyCancelledSource(t *testing.T) {
	sched := newTestScheduler(t)
	a := NewTokenSource(sched)
	require.NoError(t, a.Cancel(NewCancellationError("pre-cancelled")))

	combined := CombineTokens(a.Token())
	assert.True(t, combined.Cancelled())
	assert.Equal(t, "pre-cancelled", combined.Reason().Error())
}

func TestCombineTokensEmptyNeverCancels(t *testing.T) {
	combined := CombineTokens()
	assert.False(t, combined.Cancelled())
}

func TestWithTimeoutCancelsAfterDelay(t *testing.T) {
	sched := NewScheduler()
	sched.Start()
	defer sched.Stop()

	src, err := WithTimeout(sched, 5)
	require.NoError(t, err)
	done := make(chan struct{})
	src.Token().OnCancel(func(error) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired")
	}

	reason := src.Token().Reason()
	require.Error(t, reason)
	var cancelErr *CancellationError
	require.ErrorAs(t, reason, &cancelErr)
}

func TestWithTimeoutRejectsNonPositiveDelay(t *testing.T) {
	sched := newTestScheduler(t)

	_, err := WithTimeout(sched, 0)
	require.Error(t, err)
	var invalidArg *InvalidArgumentError
	assert.ErrorAs(t, err, &invalidArg)
}

func TestOnCancelUnregisterRemovesHandler(t *testing.T) {
	sched := newTestScheduler(t)
	src := NewTokenSource(sched)

	fired := false
	unregister := src.Token().OnCancel(func(error) { fired = true })
	unregister()

	require.NoError(t, src.Cancel(NewCancellationError("stop")))
	assert.False(t, fired)
}

func TestCombinedTokenUnregistersFromOtherUpstreamsOnCancel(t *testing.T) {
	sched := newTestScheduler(t)
	a := NewTokenSource(sched)
	b := NewTokenSource(sched)

	combined := CombineTokens(a.Token(), b.Token())
	require.NoError(t, b.Cancel(NewCancellationError("b first")))
	assert.True(t, combined.Cancelled())

	// b's cancel should have torn down the subscription on a; a handler
	// list should now be empty, since CombineTokens's handler on a was
	// removed via unregister during teardown.
	assert.Empty(t, a.Token().handlers)
}

func TestCombineTokensFiltersOutNeverCancelUpstreams(t *testing.T) {
	sched := newTestScheduler(t)
	a := NewTokenSource(sched)
	never := NeverCancel()

	combined := CombineTokens(a.Token(), never.Token())
	assert.False(t, combined.Cancelled())

	require.NoError(t, a.Cancel(NewCancellationError("a cancels")))
	assert.True(t, combined.Cancelled())
	assert.Equal(t, "a cancels", combined.Reason().Error())
}

func TestCanBeCanceledDistinguishesNeverCancelTokens(t *testing.T) {
	sched := newTestScheduler(t)
	src := NewTokenSource(sched)
	assert.True(t, src.Token().CanBeCanceled())

	never := NeverCancel()
	assert.False(t, never.Token().CanBeCanceled())
	_ = never.Cancel(NewCancellationError("ignored"))
	assert.False(t, never.Token().Cancelled())
}

func TestCombineWithZeroArgsReturnsSameInstance(t *testing.T) {
	sched := newTestScheduler(t)
	src := NewTokenSource(sched)

	assert.Same(t, src.Token(), src.Token().CombineWith())
}

func TestCombineWithCombinesUpstreams(t *testing.T) {
	sched := newTestScheduler(t)
	a := NewTokenSource(sched)
	b := NewTokenSource(sched)

	combined := a.Token().CombineWith(b.Token())
	assert.NotSame(t, a.Token(), combined)

	require.NoError(t, b.Cancel(NewCancellationError("b wins")))
	assert.True(t, combined.Cancelled())
	assert.Equal(t, "b wins", combined.Reason().Error())
}

func TestWaitForCancellationAlreadyCancelled(t *testing.T) {
	sched := newTestScheduler(t)
	src := NewTokenSource(sched)
	require.NoError(t, src.Cancel(NewCancellationError("already gone")))

	p := src.Token().WaitForCancellation(sched)
	v, err := p.Unwrap()
	require.NoError(t, err)
	reasonErr, ok := v.(error)
	require.True(t, ok)
	assert.Equal(t, "already gone", reasonErr.Error())
}

func TestWaitForCancellationNeverSettlesOnNeverCancelToken(t *testing.T) {
	sched := newTestScheduler(t)
	p := NeverCancel().Token().WaitForCancellation(sched)
	assert.Equal(t, Pending, p.State())
}

func TestWaitForCancellationResolvesWhenLaterCancelled(t *testing.T) {
	sched := newTestScheduler(t)
	src := NewTokenSource(sched)

	p := src.Token().WaitForCancellation(sched)
	assert.Equal(t, Pending, p.State())

	require.NoError(t, src.Cancel(NewCancellationError("now")))
	drain(t, sched)

	require.Equal(t, Fulfilled, p.State())
	v, _ := p.Value()
	reasonErr, ok := v.(error)
	require.True(t, ok)
	assert.Equal(t, "now", reasonErr.Error())
}
