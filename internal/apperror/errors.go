// Package apperror defines the failure taxonomy shared by the stores, the
// services and the HTTP boundary.
package apperror

import (
	"errors"
	"net/http"

	"trackjoi/pkg/util"
)

var (
	// ErrNotFound is returned when a resource does not exist or is not owned
	// by the requester. Callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated means no session token was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means a token was presented but could not be verified.
	ErrForbidden = errors.New("forbidden")
	// ErrTooManyAttempts is returned while an email is throttled.
	ErrTooManyAttempts = errors.New("too many attempts")
)

// ValidationError describes malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid is shorthand for a *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Status maps err to an HTTP status code and the message safe to show the caller.
// Anything unrecognised becomes a 500 with fallback as its message.
func Status(err error, fallback string) (int, string) {
	var v *ValidationError
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest, v.Message
	case errors.Is(err, ErrConflict):
		return http.StatusBadRequest, "user with this email already exists"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "activity not found"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrInvalidCredentials.Error()
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "access token is missing"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "invalid token"
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many failed login attempts, try again later"
	}
	// pool exhaustion, timeouts and dropped connections are worth a retry
	if retryable, _ := util.IsRetryableError(err); retryable {
		return http.StatusServiceUnavailable, "service temporarily unavailable, please retry"
	}
	return http.StatusInternalServerError, fallback
}
