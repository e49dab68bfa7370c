package async

import (
	"os"
	"os/signal"
)

var signalSupportDisabled bool

// SupportsSignals reports whether WithSignal can register a real OS
// signal handler on this platform. It is true everywhere Go's os/signal
// package works, and false only after DisableSignalSupport has been
// called, per spec.md §4.E/§6's capability-probe requirement.
func SupportsSignals() bool {
	return !signalSupportDisabled
}

// DisableSignalSupport turns off OS signal handling for the remainder of
// the process, for environments (e.g. WASM, restricted sandboxes) where
// registering a signal handler would panic or is meaningless.
// WithSignal becomes a no-op TokenSource whose token never cancels on its
// own, rather than panicking, once this is called.
func DisableSignalSupport() {
	signalSupportDisabled = true
}

// WithSignal returns a TokenSource whose token cancels the first time the
// process receives any of sigs. If signal support has been disabled via
// DisableSignalSupport, it silently returns a functional TokenSource that
// never cancels on its own, matching spec.md §4.E/§9's "if signal support
// is unavailable, silently omit handler registration but still return a
// functional source."
func WithSignal(sched *Scheduler, sigs ...os.Signal) *TokenSource {
	s := NewTokenSource(sched)
	if !SupportsSignals() || len(sigs) == 0 {
		return s
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		sig, ok := <-ch
		signal.Stop(ch)
		if !ok {
			return
		}
		sched.runOnLoop(func() {
			if !s.disposed {
				s.token.cancel(NewSignalCancellationError(sig.String()))
			}
		})
	}()

	s.token.OnCancel(func(error) {
		signal.Stop(ch)
	})

	return s
}
