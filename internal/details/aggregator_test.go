package details

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"worldfolio/internal/catalog/mocks"
	"worldfolio/internal/country"
	"worldfolio/internal/enrichment/images"
	"worldfolio/internal/enrichment/news"
	"worldfolio/internal/platform/metrics"
	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/fetch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// Detail Aggregator Test Suite
// =============================================================================
// Justification for unit tests: the aggregator sequences a required lookup
// before best-effort enrichment and must never show results for a subject
// the user has already navigated away from.

type AggregatorSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	catalog *mocks.MockCatalog
	ai      *fakeAI
	metrics *metrics.Metrics
	view    *Aggregator
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

type fakeAI struct {
	mu        sync.Mutex
	overviews map[string]string
	held      map[string]chan struct{}
	answer    string
}

// hold makes the overview for code block until the returned channel closes,
// whether or not the caller gives up.
func (f *fakeAI) hold(code string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	release := make(chan struct{})
	if f.held == nil {
		f.held = make(map[string]chan struct{})
	}
	f.held[code] = release
	return release
}

func (f *fakeAI) Overview(_ context.Context, subject country.Country) string {
	f.mu.Lock()
	release := f.held[subject.Code]
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overviews[subject.Code]
}

func (f *fakeAI) Ask(context.Context, country.Country, string) string {
	return f.answer
}

type fakeImages struct{}

func (fakeImages) Search(_ context.Context, name string) []images.Image {
	return []images.Image{{ID: "1", URL: "https://img/" + name}}
}

type fakeNews struct{}

func (fakeNews) Search(context.Context, string) []news.Article {
	return nil
}

func france() country.Country {
	return country.Country{
		Code:       "FRA",
		Name:       country.Name{Common: "France", Official: "French Republic"},
		Population: 67391582,
		Capitals:   []string{"Paris"},
		Borders:    []string{"DEU", "ESP"},
	}
}

func (s *AggregatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.catalog = mocks.NewMockCatalog(s.ctrl)
	s.ai = &fakeAI{overviews: map[string]string{
		"FRA": "Economy: Large and diversified\nCulture: Wine, art",
	}, answer: "Paris."}
	s.metrics = metrics.NewWith(prometheus.NewRegistry())

	view, err := New(s.catalog, s.ai, fakeImages{}, fakeNews{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.view = view
}

func (s *AggregatorSuite) TearDownTest() {
	s.Require().NoError(s.view.Close())
}

func (s *AggregatorSuite) wait() State {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	state, err := s.view.Wait(ctx, true)
	s.Require().NoError(err)
	return state
}

func (s *AggregatorSuite) TestNew() {
	_, err := New(nil, s.ai, fakeImages{}, fakeNews{})
	s.Error(err)
	_, err = New(s.catalog, nil, fakeImages{}, fakeNews{})
	s.Error(err)
}

func (s *AggregatorSuite) TestNavigate() {
	s.Run("loads country, borders, summary and widgets", func() {
		s.catalog.EXPECT().GetByCode(gomock.Any(), "FRA").Return(france(), nil)
		s.catalog.EXPECT().GetManyByCodes(gomock.Any(), []string{"DEU", "ESP"}).Return([]country.Country{
			{Code: "DEU", Name: country.Name{Common: "Germany"}},
			{Code: "ESP", Name: country.Name{Common: "Spain"}},
		}, nil)

		s.Require().NoError(s.view.Navigate(context.Background(), "fra"))
		state := s.wait()

		s.Equal(fetch.StatusReady, state.Status)
		s.Equal("FRA", state.Code)
		s.Require().NotNil(state.Country)
		s.Equal("67,391,582", state.Facts.Population)
		s.Equal([]Border{{Code: "DEU", Name: "Germany"}, {Code: "ESP", Name: "Spain"}}, state.Borders)
		s.Equal([]Section{
			{Title: "Economy", Body: "Large and diversified"},
			{Title: "Culture", Body: "Wine, art"},
		}, state.Sections)
		s.Equal(fetch.StatusReady, state.Gallery.Status)
		s.Equal("France", state.Gallery.Subject)
		s.Equal(fetch.StatusEmpty, state.News.Status)
		s.Require().Len(state.Chat.Messages, 1)
	})

	s.Run("border failure leaves an empty list", func() {
		s.catalog.EXPECT().GetByCode(gomock.Any(), "FRA").Return(france(), nil)
		s.catalog.EXPECT().GetManyByCodes(gomock.Any(), gomock.Any()).Return(nil, errors.New("down"))

		s.Require().NoError(s.view.Navigate(context.Background(), "FRA"))
		state := s.wait()

		s.Equal(fetch.StatusReady, state.Status)
		s.NotNil(state.Borders)
		s.Empty(state.Borders)
		s.Len(state.Sections, 2)
	})

	s.Run("no borders skips the lookup", func() {
		island := country.Country{Code: "ISL", Name: country.Name{Common: "Iceland"}}
		s.catalog.EXPECT().GetByCode(gomock.Any(), "ISL").Return(island, nil)

		s.Require().NoError(s.view.Navigate(context.Background(), "ISL"))
		state := s.wait()

		s.Equal(fetch.StatusReady, state.Status)
		s.Empty(state.Borders)
		s.Empty(state.Sections)
	})

	s.Run("country failure is an error state", func() {
		s.catalog.EXPECT().GetByCode(gomock.Any(), "XXX").Return(country.Country{}, errors.New("boom"))

		s.Require().NoError(s.view.Navigate(context.Background(), "XXX"))
		state := s.wait()

		s.Equal(fetch.StatusError, state.Status)
		s.Equal("Could not load country info.", state.Error)
		s.Nil(state.Country)
		s.Equal(fetch.StatusIdle, state.Gallery.Status)
	})

	s.Run("invalid code is rejected without a lookup", func() {
		err := s.view.Navigate(context.Background(), "france")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AggregatorSuite) TestStaleSubjectIsNeverShown() {
	release := make(chan struct{})
	s.catalog.EXPECT().GetByCode(gomock.Any(), "FRA").DoAndReturn(
		func(ctx context.Context, _ string) (country.Country, error) {
			<-release
			return france(), nil
		})
	s.catalog.EXPECT().GetByCode(gomock.Any(), "ISL").Return(
		country.Country{Code: "ISL", Name: country.Name{Common: "Iceland"}}, nil)

	s.Require().NoError(s.view.Navigate(context.Background(), "FRA"))
	s.Require().NoError(s.view.Navigate(context.Background(), "ISL"))
	state := s.wait()
	s.Equal("Iceland", state.Country.DisplayName())

	close(release)
	s.Eventually(func() bool {
		return testutil.ToFloat64(s.metrics.StaleResults.WithLabelValues("details")) == 1
	}, time.Second, 5*time.Millisecond)

	state = s.view.State()
	s.Equal("ISL", state.Code)
	s.Equal("Iceland", state.Country.DisplayName())
	s.Equal("Iceland", state.Gallery.Subject)
}

func (s *AggregatorSuite) TestLateEnrichmentForPreviousSubjectIsDiscarded() {
	release := s.ai.hold("FRA")
	s.catalog.EXPECT().GetByCode(gomock.Any(), "FRA").Return(france(), nil)
	s.catalog.EXPECT().GetManyByCodes(gomock.Any(), gomock.Any()).Return([]country.Country{
		{Code: "DEU", Name: country.Name{Common: "Germany"}},
	}, nil)

	s.Require().NoError(s.view.Navigate(context.Background(), "FRA"))
	s.Require().Eventually(func() bool {
		state := s.view.State()
		return state.Country != nil && state.Country.Code == "FRA"
	}, time.Second, 5*time.Millisecond)
	s.Equal(fetch.StatusLoading, s.view.State().Status)

	s.ai.mu.Lock()
	s.ai.overviews["ISL"] = "History: Settled by Norse explorers"
	s.ai.mu.Unlock()
	s.catalog.EXPECT().GetByCode(gomock.Any(), "ISL").Return(
		country.Country{Code: "ISL", Name: country.Name{Common: "Iceland"}}, nil)
	s.Require().NoError(s.view.Navigate(context.Background(), "ISL"))
	s.wait()

	close(release)
	s.Eventually(func() bool {
		return testutil.ToFloat64(s.metrics.StaleResults.WithLabelValues("details")) == 1
	}, time.Second, 5*time.Millisecond)

	state := s.view.State()
	s.Equal("ISL", state.Code)
	s.Equal(fetch.StatusReady, state.Status)
	s.Equal("Iceland", state.Country.DisplayName())
	s.Empty(state.Borders)
	s.Equal([]Section{{Title: "History", Body: "Settled by Norse explorers"}}, state.Sections)
	s.Require().NotEmpty(state.Chat.Messages)
	s.Contains(state.Chat.Messages[0].Text, "Iceland")
	s.NotContains(state.Chat.Messages[0].Text, "France")
	s.Equal("Iceland", state.Gallery.Subject)
}

func (s *AggregatorSuite) TestNavigationHidesPreviousSubject() {
	s.catalog.EXPECT().GetByCode(gomock.Any(), "ISL").Return(
		country.Country{Code: "ISL", Name: country.Name{Common: "Iceland"}}, nil)
	s.Require().NoError(s.view.Navigate(context.Background(), "ISL"))
	s.wait()

	release := make(chan struct{})
	defer close(release)
	s.catalog.EXPECT().GetByCode(gomock.Any(), "FRA").DoAndReturn(
		func(ctx context.Context, _ string) (country.Country, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return country.Country{}, ctx.Err()
		})
	s.Require().NoError(s.view.Navigate(context.Background(), "FRA"))

	state := s.view.State()
	s.Equal(fetch.StatusLoading, state.Status)
	s.Nil(state.Country)
	s.Empty(state.Chat.Messages)
	s.Equal(fetch.StatusIdle, state.Gallery.Status)
}

func (s *AggregatorSuite) TestAsk() {
	s.Run("before a country loads", func() {
		_, err := s.view.Ask(context.Background(), "Capital?")
		s.ErrorIs(err, ErrNoSubject)
	})

	s.Run("after a country loads", func() {
		island := country.Country{Code: "ISL", Name: country.Name{Common: "Iceland"}}
		s.catalog.EXPECT().GetByCode(gomock.Any(), "ISL").Return(island, nil)
		s.Require().NoError(s.view.Navigate(context.Background(), "ISL"))
		s.wait()

		chat, err := s.view.Ask(context.Background(), "Capital?")
		s.Require().NoError(err)
		s.Len(chat.Messages, 3)
		s.Equal("Paris.", chat.Messages[2].Text)
	})
}

func (s *AggregatorSuite) TestClosed() {
	s.Require().NoError(s.view.Close())
	s.ErrorIs(s.view.Navigate(context.Background(), "FRA"), ErrClosed)
}
