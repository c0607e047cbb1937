package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"worldfolio/internal/identity"
	dErrors "worldfolio/pkg/domain-errors"
)

// =============================================================================
// Local Provider Test Suite
// =============================================================================

type ProviderSuite struct {
	suite.Suite
	hub      *identity.Hub
	tokens   *TokenService
	provider *Provider
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderSuite))
}

func (s *ProviderSuite) SetupTest() {
	s.hub = identity.NewHub()
	s.tokens = NewTokenService("test-signing-key", "worldfolio-test", time.Hour)
	s.provider = New(s.hub, s.tokens, WithBcryptCost(bcrypt.MinCost))
}

func (s *ProviderSuite) TestSignUp() {
	s.Run("signs the new account in", func() {
		session, err := s.provider.SignUp(context.Background(), "c1", " A@B.com ", "secret")
		s.Require().NoError(err)
		s.Equal("a@b.com", session.Email)
		s.NotEmpty(session.UID)
		s.NotEmpty(session.IDToken)
		s.Equal(session.UID, s.hub.Current("c1").UID)
	})

	s.Run("rejects a duplicate email", func() {
		_, err := s.provider.SignUp(context.Background(), "c2", "a@b.com", "another")
		s.ErrorIs(err, identity.ErrEmailInUse)
	})

	s.Run("rejects a weak password", func() {
		_, err := s.provider.SignUp(context.Background(), "c2", "new@b.com", "123")
		s.ErrorIs(err, identity.ErrWeakPassword)
	})
}

func (s *ProviderSuite) TestSignInAndOut() {
	_, err := s.provider.SignUp(context.Background(), "c1", "a@b.com", "secret")
	s.Require().NoError(err)

	s.Run("wrong password", func() {
		_, err := s.provider.SignIn(context.Background(), "c2", "a@b.com", "wrong!")
		s.ErrorIs(err, identity.ErrInvalidCredentials)
		s.Nil(s.hub.Current("c2"))
	})

	s.Run("unknown account", func() {
		_, err := s.provider.SignIn(context.Background(), "c2", "nobody@b.com", "secret")
		s.ErrorIs(err, identity.ErrInvalidCredentials)
	})

	s.Run("correct password on another client", func() {
		session, err := s.provider.SignIn(context.Background(), "c2", "a@b.com", "secret")
		s.Require().NoError(err)
		s.Equal("a@b.com", s.hub.Current("c2").Email)

		verified, err := s.provider.Verify("c2", session.IDToken)
		s.Require().NoError(err)
		s.Equal(session.UID, verified.UID)

		_, err = s.provider.Verify("c1", session.IDToken)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("sign out publishes no session", func() {
		s.Require().NoError(s.provider.SignOut(context.Background(), "c2"))
		s.Nil(s.hub.Current("c2"))
		s.NotNil(s.hub.Current("c1"))
	})
}

func (s *ProviderSuite) TestTokens() {
	s.Run("expired", func() {
		s.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := s.tokens.Issue("u", "a@b.com", "c")
		s.Require().NoError(err)
		s.tokens.now = time.Now

		_, err = s.tokens.Verify(token)
		s.Equal("token has expired", dErrors.MessageOf(err))
	})

	s.Run("garbage", func() {
		_, err := s.tokens.Verify("not-a-token")
		s.Equal("invalid token", dErrors.MessageOf(err))
	})

	s.Run("other signing key", func() {
		other := NewTokenService("other-key", "worldfolio-test", time.Hour)
		token, err := other.Issue("u", "a@b.com", "c")
		s.Require().NoError(err)
		_, err = s.tokens.Verify(token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
