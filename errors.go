package goNotes

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrDuplicateUser is returned by Register when the email is already taken.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken is returned by Refresh and Logout for any token that is
	// malformed, expired, of the wrong type, or no longer registered.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUnauthorized is returned by Authorize for any unusable access token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInfrastructure marks failures of the backing stores. The cause is joined
	// into the returned error.
	ErrInfrastructure = errors.New("infrastructure unavailable")

	// ErrUserNotFound is returned by UserStore lookups for a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoteNotFound is returned when a note does not exist for the user.
	ErrNoteNotFound = errors.New("note not found")
	// ErrInvalidEmail is returned by Register for an address that does not parse.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrPasswordPolicy is returned by Register for a password outside the length limits.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrInvalidNote is returned for empty note text or a malformed note date.
	ErrInvalidNote = errors.New("invalid note")
	// ErrLoginRateLimited is returned by Login while the failed-attempt budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady is returned when an Engine method is called on a zero Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

func infraError(cause error) error {
	if cause == nil {
		return ErrInfrastructure
	}
	return errors.Join(ErrInfrastructure, cause)
}

// StatusCode maps an Engine error to the HTTP status the API responds with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNoteNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrInvalidNote):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrLoginRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInfrastructure):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
