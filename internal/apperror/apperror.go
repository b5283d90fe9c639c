// Package apperror defines the failure taxonomy shared by every service and
// maps it onto HTTP statuses without leaking internal detail to clients.
package apperror

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput marks malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateEmail marks a registration against an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrRegistrationFailed marks any registration the credential store refused.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound is used internally; login maps it to ErrInvalidCredentials.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a missing, expired or revoked session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks an authenticated caller acting on someone else's data.
	ErrForbidden = errors.New("forbidden")
	// ErrTooManyRequests marks a rate-limited caller.
	ErrTooManyRequests = errors.New("too many requests")
)

const internalMessage = "internal server error"

// Error carries a failure kind, the message a client is allowed to see, and
// the underlying cause for operational logs.
type Error struct {
	Kind   error
	Public string
	Cause  error
}

// New builds an Error without an underlying cause.
func New(kind error, public string) *Error {
	return &Error{Kind: kind, Public: public}
}

// Wrap builds an Error that remembers its cause.
func Wrap(kind error, public string, cause error) *Error {
	return &Error{Kind: kind, Public: public, Cause: cause}
}

// Invalid is shorthand for an ErrInvalidInput with a client-facing message.
func Invalid(public string) *Error {
	return New(ErrInvalidInput, public)
}

func (e *Error) Error() string {
	msg := e.Public
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrRegistrationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Describe returns the status and the client-safe message for err. Anything
// that is not a classified failure collapses to a generic 500 message.
func Describe(err error) (int, string) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		return status, internalMessage
	}

	var appErr *Error
	if errors.As(err, &appErr) && appErr.Public != "" {
		return status, appErr.Public
	}

	for _, kind := range []error{
		ErrInvalidInput, ErrDuplicateEmail, ErrRegistrationFailed, ErrInvalidCredentials,
		ErrUnauthorized, ErrForbidden, ErrNotFound, ErrTooManyRequests,
	} {
		if errors.Is(err, kind) {
			return status, kind.Error()
		}
	}
	return status, http.StatusText(status)
}
