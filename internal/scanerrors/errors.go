// Package scanerrors classifies the errors raised while orchestrating a scan.
package scanerrors

import (
	"errors"
	"fmt"
)

// Kind is the class of a scan error. It decides whether the error may be
// retried and how it is reported.
type Kind int

const (
	// Unknown is the kind of errors that were never classified.
	Unknown Kind = iota
	// Configuration is an invalid or missing build-step input.
	Configuration
	// RemoteTransient is a network failure, 5xx or throttled response.
	RemoteTransient
	// RemoteFailure is a 4xx, unknown handle or malformed response.
	RemoteFailure
	// PollTimeout means no terminal result arrived within the max wait.
	PollTimeout
	// Persistence means the status record could not be written or read.
	Persistence
	// Aborted means the hosting build was cancelled.
	Aborted
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration error"
	case RemoteTransient:
		return "remote transient error"
	case RemoteFailure:
		return "remote failure"
	case PollTimeout:
		return "poll timeout"
	case Persistence:
		return "persistence error"
	case Aborted:
		return "aborted"
	default:
		return "unknown error"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k})
// answers "is this a k error".
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

var _ interface { //nolint:errcheck // Compile-time interface assertion, no error return
	error
	Unwrap() error
	Is(error) bool
} = (*Error)(nil)

// New returns an error of the given kind.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf returns an error of the given kind with a formatted cause.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether the poller may try again after err.
func IsRetryable(err error) bool {
	return KindOf(err) == RemoteTransient
}
