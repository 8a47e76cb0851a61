// Package errors provides error handling for idlbind.
//
// This package re-exports github.com/cockroachdb/errors so every package wraps
// errors the same way (stack traces, hints, details):
//
//	if err := sink.Write(unit); err != nil {
//	    return errors.Wrapf(err, "writing %s", unit.Path)
//	}
//
//	return errors.WithHint(err, "check the ir_version field")
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors shared across packages. Wrap them to add context while
// keeping errors.Is checks working.
var (
	// ErrNotFound indicates a referenced type, file, or record does not exist.
	ErrNotFound = New("not found")

	// ErrInvalidInput indicates a malformed tree document, value, or flag.
	ErrInvalidInput = New("invalid input")

	// ErrUnsupportedVersion indicates a tree document with an incompatible ir_version.
	ErrUnsupportedVersion = New("unsupported ir_version")

	// ErrShortBuffer indicates a wire payload ended before a value was complete.
	ErrShortBuffer = New("short buffer")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return err != nil && Is(err, ErrInvalidInput)
}

// NewNotFoundf creates a not-found error with a formatted message.
func NewNotFoundf(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidInputf creates an invalid-input error with a formatted message.
func NewInvalidInputf(format string, args ...interface{}) error {
	return Wrap(ErrInvalidInput, Newf(format, args...).Error())
}
