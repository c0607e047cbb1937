package session

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers sign-up, sign-in and session step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &sessionSteps{tc: tc}

	// Credential steps
	ctx.Step(`^I sign up as a new user with password "([^"]*)"$`, steps.signUpNewUser)
	ctx.Step(`^I sign up with email "([^"]*)" and password "([^"]*)"$`, steps.signUpWith)
	ctx.Step(`^I sign up again with the same email$`, steps.signUpAgain)
	ctx.Step(`^I log in with my credentials$`, steps.logInWithCredentials)
	ctx.Step(`^I log in with password "([^"]*)"$`, steps.logInWithPassword)
	ctx.Step(`^I log out$`, steps.logOut)

	// Session state steps
	ctx.Step(`^I check my session$`, steps.checkSession)
	ctx.Step(`^my session should belong to me$`, steps.sessionShouldBelongToMe)
	ctx.Step(`^I should be signed out$`, steps.shouldBeSignedOut)
}

type sessionSteps struct {
	tc       TestContext
	email    string
	password string
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *sessionSteps) signUpNewUser(ctx context.Context, password string) error {
	return s.signUpWith(ctx, fmt.Sprintf("e2e+%s@example.com", uuid.NewString()[:8]), password)
}

func (s *sessionSteps) signUpWith(ctx context.Context, email, password string) error {
	s.email = email
	s.password = password
	return s.tc.POST("/auth/signup", credentials{Email: email, Password: password})
}

func (s *sessionSteps) signUpAgain(ctx context.Context) error {
	return s.tc.POST("/auth/signup", credentials{Email: s.email, Password: s.password})
}

func (s *sessionSteps) logInWithCredentials(ctx context.Context) error {
	return s.tc.POST("/auth/login", credentials{Email: s.email, Password: s.password})
}

func (s *sessionSteps) logInWithPassword(ctx context.Context, password string) error {
	return s.tc.POST("/auth/login", credentials{Email: s.email, Password: password})
}

func (s *sessionSteps) logOut(ctx context.Context) error {
	return s.tc.POST("/auth/logout", nil)
}

func (s *sessionSteps) checkSession(ctx context.Context) error {
	return s.tc.GET("/auth/session?wait=true")
}

func (s *sessionSteps) sessionShouldBelongToMe(ctx context.Context) error {
	email, err := s.tc.GetResponseField("session.email")
	if err != nil {
		return err
	}
	if email != s.email {
		return fmt.Errorf("expected session for %q, got %v", s.email, email)
	}
	return nil
}

func (s *sessionSteps) shouldBeSignedOut(ctx context.Context) error {
	session, err := s.tc.GetResponseField("session")
	if err != nil {
		return err
	}
	if session != nil {
		return fmt.Errorf("expected no session, got %v", session)
	}
	return nil
}
