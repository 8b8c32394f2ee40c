// Package failure defines the error kinds a build phase can report. Every
// error that crosses a component boundary (chain, resolver, hook registry,
// orchestrator) is wrapped in an *Error so callers can tell what failed and
// where without string matching.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a build failure.
type Kind int

const (
	// ProtocolViolation: a stage returned a value and detached, or did neither.
	ProtocolViolation Kind = iota + 1
	// StageFailure: a stage reported an error, synchronously or through its completion handle.
	StageFailure
	// NoMatchingRule: no configured rule matched the resource path.
	NoMatchingRule
	// HookFailure: at least one callback of a fired event failed.
	HookFailure
	// Timeout: an externally imposed bounded wait expired.
	Timeout
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case ProtocolViolation:
		return "protocol violation"
	case StageFailure:
		return "stage failure"
	case NoMatchingRule:
		return "no matching rule"
	case HookFailure:
		return "hook failure"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error carries the kind of failure, the resource path or hook event it
// concerns, and the underlying cause.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

// New builds an *Error.
func New(kind Kind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// Errorf builds an *Error with a formatted cause.
func Errorf(kind Kind, subject, format string, args ...any) *Error {
	return New(kind, subject, fmt.Errorf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Subject)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Subject, e.Err)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target with an
// empty Subject matches any subject.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Subject == "" || t.Subject == e.Subject)
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// Sentinels usable with errors.Is, matching any subject.
var (
	ErrProtocolViolation = &Error{Kind: ProtocolViolation}
	ErrStageFailure      = &Error{Kind: StageFailure}
	ErrNoMatchingRule    = &Error{Kind: NoMatchingRule}
	ErrHookFailure       = &Error{Kind: HookFailure}
	ErrTimeout           = &Error{Kind: Timeout}
)
