package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Taxonomy
// --------------------------------------------------------------------------

// Kind classifies every error the bridge can surface. The set is closed:
// components never invent ad-hoc kinds, they pick the closest one here.
type Kind string

const (
	// Connection creation errors (registry, surfaced immediately)

	KindInvalidTarget  Kind = "invalid_target"
	KindInvalidOptions Kind = "invalid_options"
	KindUnreachable    Kind = "unreachable"

	// Lookup errors

	KindNotFound Kind = "not_found"

	// Dispatch errors. Timeout and TransportError are retryable, the
	// rest fail a task terminally.

	KindConnectionUnavailable Kind = "connection_unavailable"
	KindTimeout               Kind = "timeout"
	KindTransportError        Kind = "transport_error"
	KindRequestRejected       Kind = "request_rejected"
	KindCancelled             Kind = "cancelled"

	// KindUnknown is returned by KindOf for errors that carry no kind.
	KindUnknown Kind = "unknown"
)

// Retryable reports whether a failed attempt with this kind may be
// repeated by the dispatcher. Only transport-level failures qualify;
// application-level rejections are always terminal.
func (k Kind) Retryable() bool {
	return k == KindTimeout || k == KindTransportError
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the error type used across the bridge. It pairs a message
// with a Kind and optionally wraps a cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new classified error with a formatted message
func NewError(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError wraps a cause with a classification and a formatted message
func WrapError(kind Kind, err error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// KindOf extracts the classification from an error. Errors without a
// kind (plain fmt.Errorf, driver errors, ...) report KindUnknown so the
// caller can decide on a conservative default.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether the error carries the given classification
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
