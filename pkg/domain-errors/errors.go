// Package domainerrors provides coded domain errors shared across services,
// handlers, and stores. Services translate infrastructure sentinels into
// these codes; the HTTP layer translates codes into status responses.
// Conventionally imported as dErrors.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error for callers and for HTTP translation.
type Code string

const (
	// CodeUnauthorized: the acting role is not permitted for this
	// transition. Non-retriable without a role change.
	CodeUnauthorized Code = "unauthorized"
	// CodeIllegalTransition: the requested status is not reachable from the
	// current status. Indicates a stale client view.
	CodeIllegalTransition Code = "illegal_transition"
	// CodeInvalidPayload: status-specific field requirements not met.
	CodeInvalidPayload Code = "invalid_payload"
	// CodeInvalidInput: malformed request input (bad IDs, unknown enums).
	CodeInvalidInput Code = "invalid_input"
	// CodeConflict: optimistic version race that survived bounded retries.
	// Retriable by reloading and resubmitting.
	CodeConflict Code = "conflict"
	// CodeNotFound: unknown entity id.
	CodeNotFound Code = "not_found"
	// CodeSideEffectIncomplete: the transition committed but a follow-up
	// side effect failed. The committed state is durable; the side effect
	// is idempotent and safe to re-drive.
	CodeSideEffectIncomplete Code = "side_effect_incomplete"
	// CodeInternal: unexpected failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Construct via New or Wrap.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for readability at call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP response status. Validation rejections
// (unauthorized role, illegal transition, bad payload) are all 400s with the
// code carried in the body, so stale clients re-fetch rather than retry.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized, CodeIllegalTransition, CodeInvalidPayload, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
