// Package firebase signs users in through the Firebase Identity Toolkit REST
// API. Session state changes are published on the shared hub so gates see
// them exactly as they would from the local provider.
package firebase

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"worldfolio/internal/identity"
	"worldfolio/internal/upstream"
	dErrors "worldfolio/pkg/domain-errors"
)

// Provider implements the session provider port against Identity Toolkit.
type Provider struct {
	baseURL string
	apiKey  string
	client  *upstream.Client
	hub     *identity.Hub
	logger  *slog.Logger
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

func New(baseURL, apiKey string, client *upstream.Client, hub *identity.Hub, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		hub:     hub,
		logger:  logger,
	}
}

// SignUp creates an account and signs the client in.
func (p *Provider) SignUp(ctx context.Context, clientID, email, password string) (identity.Session, error) {
	return p.authenticate(ctx, "accounts:signUp", clientID, email, password)
}

// SignIn signs the client in with email and password.
func (p *Provider) SignIn(ctx context.Context, clientID, email, password string) (identity.Session, error) {
	return p.authenticate(ctx, "accounts:signInWithPassword", clientID, email, password)
}

func (p *Provider) authenticate(ctx context.Context, method, clientID, email, password string) (identity.Session, error) {
	email = identity.NormalizeEmail(email)
	if err := identity.ValidateCredentials(email, password); err != nil {
		return identity.Session{}, err
	}

	endpoint := p.baseURL + "/" + method + "?key=" + url.QueryEscape(p.apiKey)
	var resp accountResponse
	err := p.client.PostJSON(ctx, method, endpoint, nil, credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		mapped := mapError(err)
		p.logger.WarnContext(ctx, "identity toolkit request failed",
			"method", method,
			"category", upstream.CategoryOf(err),
			"error", err,
		)
		return identity.Session{}, mapped
	}

	session := identity.Session{UID: resp.LocalID, Email: resp.Email, IDToken: resp.IDToken}
	if session.Email == "" {
		session.Email = email
	}
	p.hub.Publish(clientID, &session)
	return session, nil
}

// SignOut drops the client's session. Identity Toolkit has no server-side
// sign-out for password sessions.
func (p *Provider) SignOut(_ context.Context, clientID string) error {
	p.hub.Publish(clientID, nil)
	return nil
}

// Subscribe streams the client's session changes.
func (p *Provider) Subscribe(clientID string) (<-chan identity.Event, func()) {
	return p.hub.Subscribe(clientID)
}

// mapError turns Identity Toolkit error codes into domain errors. Codes
// arrive as "CODE" or "CODE : detail" in error.message.
func mapError(err error) error {
	var ue *upstream.Error
	if !errors.As(err, &ue) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity provider request failed")
	}
	if len(ue.Body) > 0 {
		message := gjson.GetBytes(ue.Body, "error.message").String()
		code, _, _ := strings.Cut(message, " ")
		switch code {
		case "EMAIL_EXISTS":
			return identity.ErrEmailInUse
		case "INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "EMAIL_NOT_FOUND":
			return identity.ErrInvalidCredentials
		case "WEAK_PASSWORD":
			return identity.ErrWeakPassword
		case "INVALID_EMAIL":
			return identity.ErrInvalidEmail
		case "USER_DISABLED":
			return identity.ErrUserDisabled
		case "TOO_MANY_ATTEMPTS_TRY_LATER":
			return identity.ErrTooManyAttempts
		}
	}
	switch ue.Category {
	case upstream.CategoryTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "identity provider timed out")
	case upstream.CategoryRateLimited:
		return identity.ErrTooManyAttempts
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "identity provider unavailable")
	}
}
