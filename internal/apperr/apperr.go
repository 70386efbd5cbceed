// Package apperr provides the closed set of typed failures the service
// layer returns and the HTTP boundary maps to status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInternal Code = "INTERNAL"

	// Request errors
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"

	// Reservation errors
	CodeInvalidGuestCount           Code = "INVALID_GUEST_COUNT"
	CodeDuplicateReservation        Code = "DUPLICATE_RESERVATION"
	CodeEventFull                   Code = "EVENT_FULL"
	CodeEventNotBookable            Code = "EVENT_NOT_BOOKABLE"
	CodeReservationClosed           Code = "RESERVATION_CLOSED"
	CodeReservationAlreadyCancelled Code = "RESERVATION_ALREADY_CANCELLED"
	CodeTooLateToCancel             Code = "TOO_LATE_TO_CANCEL"

	// Poll errors
	CodePollAlreadyEnabled   Code = "POLL_ALREADY_ENABLED"
	CodeEventHasReservations Code = "EVENT_HAS_RESERVATIONS"
	CodePollNotActive        Code = "POLL_NOT_ACTIVE"
	CodeDeadlinePassed       Code = "DEADLINE_PASSED"
	CodeInvalidProposedDate  Code = "INVALID_PROPOSED_DATE"
)

// HTTPStatus maps a code to the status the boundary writes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput, CodeInvalidGuestCount, CodeInvalidProposedDate,
		CodeDeadlinePassed, CodeTooLateToCancel, CodeReservationClosed:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateReservation, CodeEventFull, CodeEventNotBookable,
		CodeReservationAlreadyCancelled, CodePollAlreadyEnabled,
		CodeEventHasReservations, CodePollNotActive:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // User-facing message
	Cause   error  // Wrapped underlying error, never shown to callers
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Internal wraps an unexpected failure. The message is generic so storage
// details never reach the caller.
func Internal(cause error) *Error {
	return Wrap(CodeInternal, "something went wrong, please try again", cause)
}

// CodeOf extracts the code from err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Message returns the caller-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal {
		return e.Message
	}
	return Internal(nil).Message
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated      = New(CodeUnauthenticated, "sign in or provide guest details to continue")
	ErrDuplicateReservation = New(CodeDuplicateReservation, "you already have a reservation for this event")
	ErrEventFull            = New(CodeEventFull, "Event is full and does not allow waitlist")
	ErrTooLateToCancel      = New(CodeTooLateToCancel, "reservations cannot be cancelled within 24 hours of the event")
	ErrPollNotActive        = New(CodePollNotActive, "poll is not accepting responses")
	ErrDeadlinePassed       = New(CodeDeadlinePassed, "the poll deadline has passed")
	ErrInvalidProposedDate  = New(CodeInvalidProposedDate, "proposed date does not belong to this event")
)
