package handler

import (
	"strings"

	"worldfolio/internal/identity"
	dErrors "worldfolio/pkg/domain-errors"
)

// CredentialsRequest is the body of POST /auth/signup and /auth/login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements httputil.Validatable. Shape checks beyond presence are
// left to the provider so its errors reach the caller unchanged.
func (r *CredentialsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	Session identity.Session `json:"session"`
}
