// Package apperr defines the error kinds surfaced by the nutrition core.
//
// Callers test for a kind with errors.Is, for example
// errors.Is(err, apperr.ErrValidation).
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrParse               = errors.New("parse error")
	ErrPersistence         = errors.New("persistence error")
)

// Error carries a kind, the operation that failed, a user-facing message and
// an optional underlying cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns an ErrValidation with a message suitable for clients.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound naming the missing entity.
func NotFound(entity string) error {
	return &Error{Kind: ErrNotFound, Msg: entity + " not found"}
}

// Upstream wraps a failure of the inference collaborator.
func Upstream(op string, err error) error {
	return &Error{Kind: ErrUpstreamUnavailable, Op: op, Err: err}
}

// Parse wraps a response that is not in the expected shape.
func Parse(op string, err error) error {
	return &Error{Kind: ErrParse, Op: op, Err: err}
}

// Persistence wraps a datastore failure.
func Persistence(op string, err error) error {
	return &Error{Kind: ErrPersistence, Op: op, Err: err}
}

// Message returns the client-facing message for err. Errors that carry an
// explicit message return it; others return a generic description of their
// kind so internal causes are not leaked.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" && e.Err == nil {
			return e.Msg
		}
		switch e.Kind {
		case ErrUpstreamUnavailable:
			return "food parsing service unavailable"
		case ErrParse:
			return "failed to parse food information"
		case ErrNotFound:
			return "not found"
		case ErrValidation:
			return "invalid request"
		}
	}
	return "internal error"
}
