// Package identity defines the signed-in user record, the provider errors
// surfaced to callers, and the event hub providers publish state changes on.
package identity

import (
	"net/mail"
	"strings"

	dErrors "worldfolio/pkg/domain-errors"
)

// MinPasswordLength is the shortest password a provider accepts.
const MinPasswordLength = 6

// Session is the signed-in user as reported by the identity provider.
type Session struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IDToken string `json:"id_token,omitempty"`
}

// Event is a provider state change for one browser client. A nil Session
// means signed out.
type Event struct {
	Session *Session
}

var (
	ErrInvalidEmail       = dErrors.New(dErrors.CodeValidation, "email address is invalid")
	ErrWeakPassword       = dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	ErrEmailInUse         = dErrors.New(dErrors.CodeConflict, "email address is already in use")
	ErrInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	ErrUserDisabled       = dErrors.New(dErrors.CodeForbidden, "account has been disabled")
	ErrTooManyAttempts    = dErrors.New(dErrors.CodeTooManyRequests, "too many attempts, try again later")
)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials checks the shape of sign-up and sign-in input before
// it reaches a provider.
func ValidateCredentials(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
