// Package errs defines Nockit's error taxonomy and the exit
// codes CommandSurface maps them to. Components return a
// *Error wrapping the underlying cause; CommandSurface unwraps it with
// errors.As to pick an exit code without needing to know which
// component produced the failure.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the seven failure categories Nockit classifies errors into.
type Kind string

const (
	Configuration Kind = "configuration"
	Cryptographic Kind = "cryptographic"
	IO            Kind = "io"
	Process       Kind = "process"
	Network       Kind = "network"
	Parsing       Kind = "parsing"
	User          Kind = "user"
	Other         Kind = "other"
)

// ExitCode returns the process exit code for a Kind.
func (k Kind) ExitCode() int {
	switch k {
	case User:
		return 2
	case Configuration:
		return 3
	case Process:
		return 4
	case Cryptographic:
		return 5
	case IO:
		return 6
	default:
		return 1
	}
}

// Error is a typed, wrapped error carrying a Kind and a short summary.
type Error struct {
	Kind    Kind
	Summary string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Summary, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Summary)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a typed error with no wrapped cause.
func New(kind Kind, summary string) *Error {
	return &Error{Kind: kind, Summary: summary}
}

// Wrap builds a typed error wrapping cause, or returns nil if cause is nil.
func Wrap(kind Kind, summary string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Summary: summary, Err: cause}
}

// ExitCode inspects err (and anything it wraps) for a *Error and
// returns its mapped exit code, or 1 if err is non-nil but untyped, or
// 0 if err is nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind.ExitCode()
	}
	return 1
}
