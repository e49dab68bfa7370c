package async

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// CancellationError is produced by token cancellation, promise Cancel,
// fiber cancellation and timeout expiry. It carries an optional reason,
// mirroring the DOM AbortError this package's cancellation model is
// derived from.
type CancellationError struct {
	// Reason is the human-readable cancellation reason. Empty means the
	// default message applies.
	Reason string
	// Cause, if set, is the underlying error that triggered cancellation
	// (e.g. a canceller closure's own error).
	Cause error
}

// NewCancellationError builds a manual cancellation error with the given
// reason.
func NewCancellationError(reason string) *CancellationError {
	return &CancellationError{Reason: reason}
}

// NewTimeoutCancellationError builds the cancellation error a timeout
// token source raises.
func NewTimeoutCancellationError(ms int) *CancellationError {
	return &CancellationError{Reason: fmt.Sprintf("Timeout of %d milliseconds exceeded", ms)}
}

// NewSignalCancellationError builds the cancellation error an OS signal
// hook raises. The signal is named in the Reason text only; Cause is left
// nil and no numeric signal code is recorded.
func NewSignalCancellationError(sig string) *CancellationError {
	return &CancellationError{Reason: fmt.Sprintf("Received signal %s", sig)}
}

func (e *CancellationError) Error() string {
	if e.Reason == "" {
		return "Promise was cancelled"
	}
	return e.Reason
}

// Is reports true for any other *CancellationError, matching the
// teacher's AbortError.Is pattern so errors.Is(err, new(CancellationError))
// works as a kind test.
func (e *CancellationError) Is(target error) bool {
	_, ok := target.(*CancellationError)
	return ok
}

func (e *CancellationError) Unwrap() error { return e.Cause }

// AggregateError bundles multiple rejection reasons, e.g. from Any when
// every input rejects. It supports Go's multi-error Unwrap() []error and
// the introspection operations spec.md requires: Count, At, Messages,
// String, OfKind, ContainsKind and Flatten.
type AggregateError struct {
	Message string
	Errors  []error
}

// NewAggregateError builds an AggregateError with the given message.
func NewAggregateError(message string, errs ...error) *AggregateError {
	return &AggregateError{Message: message, Errors: errs}
}

func (e *AggregateError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d errors occurred", len(e.Errors))
	}
	return e.Message
}

// Unwrap exposes the inner errors for errors.Is/errors.As traversal.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// Is reports true for any other *AggregateError, or for any inner error
// that matches target.
func (e *AggregateError) Is(target error) bool {
	var agg *AggregateError
	return errors.As(target, &agg)
}

// Count returns the number of inner errors.
func (e *AggregateError) Count() int { return len(e.Errors) }

// At returns the inner error at index i, or nil if out of range.
func (e *AggregateError) At(i int) error {
	if i < 0 || i >= len(e.Errors) {
		return nil
	}
	return e.Errors[i]
}

// Messages returns the Error() text of every inner error, in order.
func (e *AggregateError) Messages() []string {
	out := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err.Error()
	}
	return out
}

// String renders a multi-line representation: the aggregate message
// followed by each inner error's message, indented.
func (e *AggregateError) String() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// OfKind returns the inner errors for which errors.As(err, target)
// succeeds. target must be a non-nil pointer, per errors.As's contract.
func (e *AggregateError) OfKind(target any) []error {
	var out []error
	for _, err := range e.Errors {
		if errorsAsCopy(err, target) {
			out = append(out, err)
		}
	}
	return out
}

// ContainsKind reports whether any inner error matches target via
// errors.As.
func (e *AggregateError) ContainsKind(target any) bool {
	for _, err := range e.Errors {
		if errorsAsCopy(err, target) {
			return true
		}
	}
	return false
}

// errorsAsCopy checks errors.As against a scratch copy of target's
// pointee so repeated probing in OfKind/ContainsKind never mutates the
// caller's target between calls.
func errorsAsCopy(err error, target any) bool {
	scratch := reflect.New(reflect.TypeOf(target).Elem()).Interface()
	return errors.As(err, scratch)
}

// Flatten returns a new AggregateError with the same message, where any
// nested *AggregateError among e.Errors has been recursively inlined.
// Flatten is idempotent: flattening an already-flat aggregate returns an
// equivalent copy with no nested aggregates.
func (e *AggregateError) Flatten() *AggregateError {
	var flat []error
	var walk func([]error)
	walk = func(errs []error) {
		for _, err := range errs {
			var inner *AggregateError
			if errors.As(err, &inner) {
				walk(inner.Errors)
			} else {
				flat = append(flat, err)
			}
		}
	}
	walk(e.Errors)
	return &AggregateError{Message: e.Message, Errors: flat}
}

// InvalidArgumentError reports a programming error: a combinator or
// factory called with an argument outside its documented domain (e.g.
// Race with no promises, Retry with maxAttempts <= 0).
type InvalidArgumentError struct {
	Message string
}

func NewInvalidArgumentError(message string) *InvalidArgumentError {
	return &InvalidArgumentError{Message: message}
}

func (e *InvalidArgumentError) Error() string { return e.Message }

func (e *InvalidArgumentError) Is(target error) bool {
	_, ok := target.(*InvalidArgumentError)
	return ok
}

// DisposedError reports use of a TokenSource after Dispose.
type DisposedError struct {
	Operation string
}

func (e *DisposedError) Error() string {
	return fmt.Sprintf("async: token source disposed: %s", e.Operation)
}

func (e *DisposedError) Is(target error) bool {
	_, ok := target.(*DisposedError)
	return ok
}

// WrongStateError reports an unwrap-style operation performed against a
// promise that is not in the state the operation requires (e.g. reading
// the rejection reason of a fulfilled promise).
type WrongStateError struct {
	Wanted PromiseState
	Actual PromiseState
}

func (e *WrongStateError) Error() string {
	return fmt.Sprintf("async: expected promise in state %s, got %s", e.Wanted, e.Actual)
}

func (e *WrongStateError) Is(target error) bool {
	_, ok := target.(*WrongStateError)
	return ok
}

// AlreadySettledError reports a second resolve/reject call against a
// Deferred that has already settled.
type AlreadySettledError struct {
	Operation string
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("async: deferred already settled, rejected call to %s", e.Operation)
}

func (e *AlreadySettledError) Is(target error) bool {
	_, ok := target.(*AlreadySettledError)
	return ok
}

// CancellerError wraps a panic-free error thrown by a Promise's canceller
// closure; the promise rejects with this value instead of the default
// CancellationError.
type CancellerError struct {
	Cause error
}

func (e *CancellerError) Error() string {
	return fmt.Sprintf("async: canceller failed: %v", e.Cause)
}

func (e *CancellerError) Unwrap() error { return e.Cause }
