// Package fault defines the error taxonomy shared by the gateway, the
// session multiplexer and the workflow orchestrators. Every user-visible
// error carries a stable kind tag plus a human-readable message; callers
// switch on the kind, operators read the message.
package fault

import (
	"errors"
	"fmt"
)

// Kind tags an error with its handling class.
type Kind string

const (
	// KindValidation marks bad input. Never retried.
	KindValidation Kind = "validation"
	// KindNotFound marks a missing upstream resource or session.
	KindNotFound Kind = "not-found"
	// KindConflict marks a duplicate session open.
	KindConflict Kind = "conflict"
	// KindUpstream marks a hosting-API or completion-service failure that
	// survived bounded retries.
	KindUpstream Kind = "upstream-unavailable"
	// KindParse marks structured model output that could not be parsed.
	// Recovered locally, surfaced only in logs.
	KindParse Kind = "degraded-parse"
	// KindConfiguration marks an unknown specialist or tool name.
	KindConfiguration Kind = "configuration"
)

// Error is a tagged error. Err is optional underlying detail for operators.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, unwrapping as needed. Untagged errors
// report KindUpstream: anything that escapes without a tag came from a
// collaborator.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUpstream
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
