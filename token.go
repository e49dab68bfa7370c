package async

// Token is a read-only view of cancellation state, handed to operations
// that should observe and react to cancellation without being able to
// trigger it themselves. It mirrors the DOM AbortSignal half of the
// AbortController/AbortSignal pair, simplified to the single-goroutine
// model: no internal locking, since only the loop goroutine ever touches
// a Token.
type Token struct {
	cancellable bool
	cancelled   bool
	reason      error
	handlers    []cancelHandler
	nextHandler uint64
}

// cancelHandler is one registered callback, keyed by an id so OnCancel can
// hand back an unregister closure that removes this exact entry even
// though Go funcs are not comparable, per spec.md §4.C's "register(cb)
// ... returns an unregister that removes by key."
type cancelHandler struct {
	id uint64
	fn func(error)
}

func newToken() *Token {
	return &Token{cancellable: true}
}

// Cancelled reports whether the token has been canceled.
func (t *Token) Cancelled() bool { return t.cancelled }

// CanBeCanceled reports whether this token is capable of ever
// transitioning to canceled. It is false only for never-cancel tokens
// (NeverCancel), per spec.md §8: "Never-cancel tokens satisfy
// canBeCanceled()==false."
func (t *Token) CanBeCanceled() bool { return t.cancellable }

// Reason returns the cancellation error, or nil if not yet canceled.
func (t *Token) Reason() error { return t.reason }

// ThrowIfCancelled returns Reason() if the token is canceled, else nil —
// the idiomatic "check and bail" call site for loop bodies and fiber
// steps per spec.md §4.C.
func (t *Token) ThrowIfCancelled() error {
	if t.cancelled {
		return t.reason
	}
	return nil
}

// OnCancel registers a callback invoked once, synchronously, when the
// token is canceled, and returns an unregister function that removes it
// again. If the token is already canceled, handler runs immediately with
// the existing reason and OnCancel returns a no-op unregister, matching
// AbortSignal.onabort's "fire immediately if already aborted" rule and
// spec.md §4.C's "post-cancellation register(cb) ... returns a no-op
// unregister."
func (t *Token) OnCancel(handler func(reason error)) (unregister func()) {
	if handler == nil {
		return func() {}
	}
	if t.cancelled {
		handler(t.reason)
		return func() {}
	}
	id := t.nextHandler
	t.nextHandler++
	t.handlers = append(t.handlers, cancelHandler{id: id, fn: handler})
	return func() {
		for i, h := range t.handlers {
			if h.id == id {
				t.handlers = append(t.handlers[:i], t.handlers[i+1:]...)
				return
			}
		}
	}
}

func (t *Token) cancel(reason error) {
	if t.cancelled || !t.cancellable {
		return
	}
	t.cancelled = true
	t.reason = reason
	handlers := t.handlers
	t.handlers = nil
	for _, h := range handlers {
		h.fn(reason)
	}
}

// WaitForCancellation returns a Promise that settles once this token is
// canceled, per spec.md §4.C: already-resolved if the token is already
// canceled, never-settling if the token can never be canceled, otherwise
// a Deferred resolved from the registered OnCancel callback. sched is the
// Scheduler the returned Promise belongs to, following this package's
// convention of taking the owning Scheduler explicitly rather than
// stashing one on Token.
func (t *Token) WaitForCancellation(sched *Scheduler) *Promise {
	if t.cancelled {
		return Resolved(sched, t.reason)
	}
	if !t.cancellable {
		return NewDeferred(sched, nil).Promise()
	}
	d := NewDeferred(sched, nil)
	t.OnCancel(func(reason error) { d.Resolve(reason) })
	return d.Promise()
}

// CombineWith returns a CombinedToken that cancels when this token or any
// of tokens does. With zero arguments it returns a token equal to this one
// (no combination needed), per spec.md §4.C/§8: "combineWith() with zero
// arguments returns the same instance (identity)."
func (t *Token) CombineWith(tokens ...*Token) *Token {
	if len(tokens) == 0 {
		return t
	}
	return CombineTokens(append([]*Token{t}, tokens...)...).Token
}

// neverToken is the Token held by the NeverCancel source: a token that can
// never be canceled, for call sites that require a Token but have no
// cancellation source, per spec.md §4.E.
func neverToken() *Token {
	return &Token{cancellable: false}
}

// CombinedToken is a Token that becomes canceled the instant any one of
// its source tokens does, adopting that source's reason. It is the Go
// realization of DOM's AbortSignal.any(), generalized from a one-shot
// composite signal to a reusable type with Dispose semantics so listeners
// registered on the upstream tokens can be torn down deterministically.
type CombinedToken struct {
	*Token
	unregister []func()
}

// CombineTokens builds a CombinedToken that cancels as soon as any of
// tokens does. Never-cancel upstreams are filtered out during
// construction, per spec.md §4.D. If tokens is empty, or every input is
// filtered out, the result never cancels on its own. If any remaining
// input is already canceled, the combined token is canceled immediately
// with that token's reason. Otherwise the combined token subscribes to
// each remaining upstream and records its unregister handle, so
// teardown/Dispose can release every still-live subscription.
func CombineTokens(tokens ...*Token) *CombinedToken {
	c := &CombinedToken{Token: newToken()}

	live := make([]*Token, 0, len(tokens))
	for _, src := range tokens {
		if src == nil || !src.CanBeCanceled() {
			continue
		}
		live = append(live, src)
	}

	for _, src := range live {
		if src.Cancelled() {
			c.Token.cancel(src.Reason())
			break
		}
	}

	if c.Cancelled() {
		return c
	}

	for _, src := range live {
		unreg := src.OnCancel(func(reason error) {
			c.Token.cancel(reason)
			c.teardown()
		})
		c.unregister = append(c.unregister, unreg)
	}
	return c
}

// teardown unregisters this combined token from every source it is still
// listening to, so settled branches of a CombinedToken tree don't pin
// handler slices on long-lived upstream tokens.
func (c *CombinedToken) teardown() {
	fns := c.unregister
	c.unregister = nil
	for _, fn := range fns {
		fn()
	}
}

// Dispose tears down this combined token's listeners on its sources
// without canceling it, for callers that no longer need the combination
// to track its upstreams (e.g. a timeout race that already settled).
func (c *CombinedToken) Dispose() {
	c.teardown()
}
