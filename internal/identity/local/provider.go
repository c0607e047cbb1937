// Package local is an in-process identity provider for development and
// tests: accounts live in memory, passwords are bcrypt hashed and sign-in
// issues HS256 ID tokens.
package local

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"worldfolio/internal/identity"
	dErrors "worldfolio/pkg/domain-errors"
)

type account struct {
	uid   string
	email string
	hash  []byte
}

// Provider implements the session provider port.
type Provider struct {
	hub    *identity.Hub
	tokens *TokenService
	logger *slog.Logger
	cost   int

	mu       sync.RWMutex
	accounts map[string]account
}

type Option func(*Provider)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) {
		p.cost = cost
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func New(hub *identity.Hub, tokens *TokenService, opts ...Option) *Provider {
	p := &Provider{
		hub:      hub,
		tokens:   tokens,
		logger:   slog.Default(),
		cost:     bcrypt.DefaultCost,
		accounts: make(map[string]account),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SignUp creates an account and signs the client in.
func (p *Provider) SignUp(ctx context.Context, clientID, email, password string) (identity.Session, error) {
	email = identity.NormalizeEmail(email)
	if err := identity.ValidateCredentials(email, password); err != nil {
		return identity.Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return identity.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return identity.Session{}, identity.ErrEmailInUse
	}
	acct := account{uid: uuid.NewString(), email: email, hash: hash}
	p.accounts[email] = acct
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "account created", "uid", acct.uid)
	return p.signIn(clientID, acct)
}

// SignIn checks the password and signs the client in.
func (p *Provider) SignIn(ctx context.Context, clientID, email, password string) (identity.Session, error) {
	email = identity.NormalizeEmail(email)
	if err := identity.ValidateCredentials(email, password); err != nil {
		return identity.Session{}, err
	}

	p.mu.RLock()
	acct, ok := p.accounts[email]
	p.mu.RUnlock()
	if !ok {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		p.logger.InfoContext(ctx, "sign-in rejected", "uid", acct.uid)
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	return p.signIn(clientID, acct)
}

func (p *Provider) signIn(clientID string, acct account) (identity.Session, error) {
	token, err := p.tokens.Issue(acct.uid, acct.email, clientID)
	if err != nil {
		return identity.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	session := identity.Session{UID: acct.uid, Email: acct.email, IDToken: token}
	p.hub.Publish(clientID, &session)
	return session, nil
}

// SignOut signs the client out. Signing out twice is not an error.
func (p *Provider) SignOut(_ context.Context, clientID string) error {
	p.hub.Publish(clientID, nil)
	return nil
}

// Subscribe streams the client's session changes.
func (p *Provider) Subscribe(clientID string) (<-chan identity.Event, func()) {
	return p.hub.Subscribe(clientID)
}

// Verify resolves an ID token previously issued to clientID.
func (p *Provider) Verify(clientID, token string) (identity.Session, error) {
	claims, err := p.tokens.Verify(token)
	if err != nil {
		return identity.Session{}, err
	}
	if claims.ClientID != clientID {
		return identity.Session{}, dErrors.New(dErrors.CodeUnauthorized, "token was issued to another client")
	}
	return identity.Session{UID: claims.UID, Email: claims.Email, IDToken: token}, nil
}
