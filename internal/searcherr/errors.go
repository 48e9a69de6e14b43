// Package searcherr defines the error kinds and wrapping conventions shared
// across the search-job runtime.
package searcherr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation/retry decisions. These are the
// ten kinds the pipeline and orchestrator reason about; callers should
// switch on Kind, never on error strings.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindAuthMismatch  Kind = "AUTH_MISMATCH"
	KindNotFound      Kind = "NOT_FOUND"
	KindTimeout       Kind = "TIMEOUT"
	KindAborted       Kind = "ABORTED"
	KindSchema        Kind = "SCHEMA"
	KindTransient     Kind = "TRANSIENT"
	KindPermanent     Kind = "PERMANENT"
	KindDependencyDown Kind = "DEPENDENCY_DOWN"
	KindInternal      Kind = "INTERNAL"
)

// Sentinel errors for common component-level conditions. Components wrap
// these with Wrap/New below so callers can still errors.Is against them.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrOwnershipMismatch = errors.New("ownership mismatch")
	ErrClaimHeld      = errors.New("claim already held")
)

// Error wraps an underlying error with a Kind, a machine-readable Code, and
// a human Message, mirroring the teacher's ValidationError/LoadError
// dual-wrapper idiom (component-scoped struct + Unwrap).
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an *Error with no wrapped cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates an *Error carrying an underlying cause.
func Wrap(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise returns KindInternal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsRetryable reports whether an error's kind is eligible for a single
// transient retry, per the §4.7 retry policy.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindTimeout:
		return true
	default:
		return false
	}
}
