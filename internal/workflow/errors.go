package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the engine reports to callers.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindForbidden              Kind = "forbidden"
	KindInvalidState           Kind = "invalid_state"
	KindValidationFailed       Kind = "validation_failed"
	KindStaleSubmission        Kind = "stale_submission"
	KindDuplicatePending       Kind = "duplicate_pending"
	KindConcurrentModification Kind = "concurrent_modification"
)

// Error is returned by every engine operation that rejects a request.
// Current holds the authoritative state of the target so the caller can
// resynchronize; it is nil for NotFound.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Current any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WithCurrent attaches the authoritative state and returns e.
func (e *Error) WithCurrent(current any) *Error {
	e.Current = current
	return e
}

// Retryable reports whether a caller may retry with refreshed state or
// corrected input. NotFound is terminal for the request.
func (e *Error) Retryable() bool {
	return e.Kind != KindNotFound
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return newError(KindInvalidState, format, args...)
}

func ValidationFailed(format string, args ...any) *Error {
	return newError(KindValidationFailed, format, args...)
}

func StaleSubmission(format string, args ...any) *Error {
	return newError(KindStaleSubmission, format, args...)
}

func DuplicatePending(format string, args ...any) *Error {
	return newError(KindDuplicatePending, format, args...)
}

func ConcurrentModification(format string, args ...any) *Error {
	return newError(KindConcurrentModification, format, args...)
}

// KindOf returns the kind of err, or "" if err is not an engine error.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
