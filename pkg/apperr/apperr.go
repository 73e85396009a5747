// Package apperr defines the error taxonomy shared by every GiftBid service.
//
// Services return *Error values wrapped with fmt.Errorf("...: %w", ...);
// controllers map the kind to an HTTP status with response.FromError.
// Checking is done through errors.Is against the exported kind sentinels:
//
//	if errors.Is(err, apperr.Conflict) {
//	    // the conditional write lost the race — re-read and retry
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the domain failure modes.
type Kind uint8

const (
	// KindNotFound — the addressed record does not exist.
	KindNotFound Kind = iota + 1
	// KindUnauthorized — subject/ownership mismatch.
	KindUnauthorized
	// KindConflict — a state-machine precondition no longer held at write
	// time (bid too low, auction ended, order exists, already reviewed).
	KindConflict
	// KindInvalidInput — missing or malformed required fields.
	KindInvalidInput
	// KindInternal — unexpected store or dependency failure.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks. Each is an *Error with no message, so a
// classified error matches its own kind's sentinel and nothing else.
var (
	NotFound     = &Error{kind: KindNotFound}
	Unauthorized = &Error{kind: KindUnauthorized}
	Conflict     = &Error{kind: KindConflict}
	InvalidInput = &Error{kind: KindInvalidInput}
	Internal     = &Error{kind: KindInternal}
)

// Error carries a kind plus a human-readable reason. The reason is safe to
// show to callers; internal detail belongs in the wrapped cause.
type Error struct {
	kind   Kind
	reason string
	cause  error
}

// New creates a classified error with a caller-visible reason.
func New(kind Kind, reason string) *Error {
	return &Error{kind: kind, reason: reason}
}

// Newf creates a classified error with a formatted reason.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, reason: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error, keeping it reachable via Unwrap.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{kind: kind, reason: reason, cause: cause}
}

func (e *Error) Error() string {
	if e.reason == "" {
		return e.kind.String()
	}
	if e.cause != nil {
		return e.reason + ": " + e.cause.Error()
	}
	return e.reason
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Reason returns the caller-visible message.
func (e *Error) Reason() string { return e.reason }

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.kind == t.kind
}

// KindOf extracts the kind from err, or KindInternal if err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// ReasonOf extracts the caller-visible reason, falling back to a generic
// message so internal errors never leak detail.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.reason != "" {
		return e.reason
	}
	return "internal error"
}
