package utils

import (
	"errors"
	"strings"
)

// Core error kinds. Handlers branch on these to pick a status code and a
// wire message; OTP mismatch, absence, and expiry all collapse into
// ErrInvalidOtp so the response never reveals which one happened.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("user with that email already exists")
	ErrInvalidOtp         = errors.New("invalid OTP")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUnauthorized       = errors.New("You are not authorized to access this")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError carries every violation found in a request, not just the
// first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, " & ")
}
