package session

//go:generate mockgen -destination=mocks/mocks.go -package=mocks worldfolio/internal/session Provider,SnapshotStore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"worldfolio/internal/identity"
	"worldfolio/internal/platform/metrics"
	"worldfolio/internal/session/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// Session Gate Test Suite
// =============================================================================
// Justification for unit tests: the provider's events must always win over
// the persisted snapshot, including when they sign the user out.

type GateSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockProvider
	store    *mocks.MockSnapshotStore
	metrics  *metrics.Metrics
	events   chan identity.Event
	gate     *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockProvider(s.ctrl)
	s.store = mocks.NewMockSnapshotStore(s.ctrl)
	s.metrics = metrics.NewWith(prometheus.NewRegistry())
	s.events = make(chan identity.Event, 4)
	s.gate = NewGate("c1", s.provider, s.store, slog.New(slog.NewTextHandler(io.Discard, nil)), s.metrics)
}

func (s *GateSuite) TearDownTest() {
	s.Require().NoError(s.gate.Close())
}

func (s *GateSuite) expectSubscribe() {
	s.provider.EXPECT().Subscribe("c1").Return((<-chan identity.Event)(s.events), func() { close(s.events) })
}

func (s *GateSuite) waitConfirmed() State {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	state, err := s.gate.WaitConfirmed(ctx)
	s.Require().NoError(err)
	return state
}

func (s *GateSuite) TestSnapshotIsShownUntilTheProviderReports() {
	snapshot := &identity.Session{UID: "1", Email: "a@b.com"}
	s.store.EXPECT().Load(gomock.Any(), "c1").Return(snapshot, nil)
	s.expectSubscribe()

	s.gate.Start(context.Background())

	state := s.gate.State()
	s.False(state.Confirmed)
	s.Equal(snapshot, state.Session)
}

// verifyingProvider adds ID token checks to the mocked provider.
type verifyingProvider struct {
	*mocks.MockProvider
	valid string
}

func (p verifyingProvider) Verify(clientID, token string) (identity.Session, error) {
	if clientID != "c1" || token != p.valid {
		return identity.Session{}, errors.New("invalid token")
	}
	return identity.Session{UID: "1", Email: "a@b.com", IDToken: token}, nil
}

func (s *GateSuite) TestRestoredSnapshotTokenIsVerified() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := verifyingProvider{MockProvider: s.provider, valid: "good-token"}

	s.Run("a rejected token drops the snapshot", func() {
		s.store.EXPECT().Load(gomock.Any(), "c1").Return(&identity.Session{UID: "1", Email: "a@b.com", IDToken: "forged"}, nil)
		s.store.EXPECT().Delete(gomock.Any(), "c1").Return(nil)
		events := make(chan identity.Event)
		s.provider.EXPECT().Subscribe("c1").Return((<-chan identity.Event)(events), func() { close(events) })

		gate := NewGate("c1", provider, s.store, logger, s.metrics)
		gate.Start(context.Background())
		defer func() { s.Require().NoError(gate.Close()) }()

		state := gate.State()
		s.False(state.Confirmed)
		s.Nil(state.Session)
	})

	s.Run("a valid token keeps the snapshot", func() {
		snapshot := &identity.Session{UID: "1", Email: "a@b.com", IDToken: "good-token"}
		s.store.EXPECT().Load(gomock.Any(), "c1").Return(snapshot, nil)
		events := make(chan identity.Event)
		s.provider.EXPECT().Subscribe("c1").Return((<-chan identity.Event)(events), func() { close(events) })

		gate := NewGate("c1", provider, s.store, logger, s.metrics)
		gate.Start(context.Background())
		defer func() { s.Require().NoError(gate.Close()) }()

		s.Equal(snapshot, gate.State().Session)
	})
}

func (s *GateSuite) TestNoSessionEventReplacesSnapshot() {
	s.store.EXPECT().Load(gomock.Any(), "c1").Return(&identity.Session{UID: "1", Email: "a@b.com"}, nil)
	s.expectSubscribe()
	deleted := make(chan struct{})
	s.store.EXPECT().Delete(gomock.Any(), "c1").DoAndReturn(func(context.Context, string) error {
		close(deleted)
		return nil
	})

	s.gate.Start(context.Background())
	s.events <- identity.Event{Session: nil}

	state := s.waitConfirmed()
	s.True(state.Confirmed)
	s.Nil(state.Session)
	<-deleted
	s.Equal(1.0, testutil.ToFloat64(s.metrics.SessionEvents.WithLabelValues("signed_out")))
}

func (s *GateSuite) TestSignedInEventIsPersisted() {
	s.store.EXPECT().Load(gomock.Any(), "c1").Return(nil, nil)
	s.expectSubscribe()
	saved := make(chan identity.Session, 1)
	s.store.EXPECT().Save(gomock.Any(), "c1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, session identity.Session) error {
			saved <- session
			return nil
		})

	s.gate.Start(context.Background())
	s.events <- identity.Event{Session: &identity.Session{UID: "2", Email: "x@y.com"}}

	state := s.waitConfirmed()
	s.Equal("x@y.com", state.Session.Email)
	s.Equal("2", (<-saved).UID)
}

func (s *GateSuite) TestStoreFailuresDoNotBlockEvents() {
	s.store.EXPECT().Load(gomock.Any(), "c1").Return(nil, errors.New("redis down"))
	s.expectSubscribe()
	deleted := make(chan struct{})
	s.store.EXPECT().Delete(gomock.Any(), "c1").DoAndReturn(func(context.Context, string) error {
		close(deleted)
		return errors.New("redis down")
	})

	s.gate.Start(context.Background())
	s.Nil(s.gate.State().Session)

	s.events <- identity.Event{}
	s.True(s.waitConfirmed().Confirmed)
	<-deleted
}

func (s *GateSuite) TestOperationsSurfaceProviderErrors() {
	s.Run("signup", func() {
		s.provider.EXPECT().SignUp(gomock.Any(), "c1", "a@b.com", "secret").Return(identity.Session{}, identity.ErrEmailInUse)
		_, err := s.gate.Signup(context.Background(), "a@b.com", "secret")
		s.ErrorIs(err, identity.ErrEmailInUse)
	})

	s.Run("login", func() {
		s.provider.EXPECT().SignIn(gomock.Any(), "c1", "a@b.com", "wrong!").Return(identity.Session{}, identity.ErrInvalidCredentials)
		_, err := s.gate.Login(context.Background(), "a@b.com", "wrong!")
		s.ErrorIs(err, identity.ErrInvalidCredentials)
	})

	s.Run("logout", func() {
		boom := errors.New("network")
		s.provider.EXPECT().SignOut(gomock.Any(), "c1").Return(boom)
		s.ErrorIs(s.gate.Logout(context.Background()), boom)
	})
}

func (s *GateSuite) TestWaitConfirmedHonorsContext() {
	s.store.EXPECT().Load(gomock.Any(), "c1").Return(nil, nil)
	s.expectSubscribe()
	s.gate.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	state, err := s.gate.WaitConfirmed(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)
	s.False(state.Confirmed)
}
