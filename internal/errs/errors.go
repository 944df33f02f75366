// Package errs defines the user-facing error taxonomy for ghrel.
//
// Every error that reaches the user answers three questions: what failed,
// in which context, and what to try next. An *Error carries a machine-readable
// Kind (used by the sync driver to decide whether a failure aborts the run or
// is recorded against a single package) plus a short Message and an optional
// actionable Hint.
//
// # Usage
//
//	err := errs.New(errs.NotFound, "Version 'v9' not found for owner/repo").
//	    WithHint("Available tags: v1, v2")
//	if errs.Is(err, errs.NotFound) {
//	    // ...
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	NotFound           Kind = "not_found"
	AuthFailure        Kind = "auth_failure"
	RateLimited        Kind = "rate_limited"
	Connectivity       Kind = "connectivity"
	APIError           Kind = "api_error"
	AmbiguousSelection Kind = "ambiguous_selection"
	NoMatch            Kind = "no_match"
	ArchiveUnsafe      Kind = "archive_unsafe"
	ChecksumMismatch   Kind = "checksum_mismatch"
	StateCorrupt       Kind = "state_corrupt"
	LockHeld           Kind = "lock_held"
	ConfigInvalid      Kind = "config_invalid"
	Hook               Kind = "hook"
	Internal           Kind = "internal"
)

// Error is a structured, user-facing error.
type Error struct {
	Kind    Kind
	Message string // what went wrong
	Hint    string // what the user can do about it
	Path    string // related file, if any
	Package string // related package, if any
	Cause   error
}

// Error renders the message followed by the hint on its own line.
func (e *Error) Error() string {
	if e.Hint == "" {
		return e.Message
	}
	return e.Message + "\nHint: " + e.Hint
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithHint returns e with its hint set.
func (e *Error) WithHint(format string, args ...any) *Error {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// WithPath returns e with its related path set.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithPackage returns e with its related package set.
func (e *Error) WithPackage(name string) *Error {
	e.Package = name
	return e
}

// New creates an Error with the given kind and formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// Internal when err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Unexpected wraps an unclassified error with the generic label used when
// reporting per-package failures. Classified errors are returned unchanged.
func Unexpected(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(Internal, err, "unexpected error: %v", err)
}
