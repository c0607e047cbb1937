package discovery

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"worldfolio/internal/catalog/mocks"
	"worldfolio/internal/country"
	"worldfolio/pkg/testutil"
)

type recordingSource struct {
	mu      sync.Mutex
	queries []string
	answer  []string
}

func (r *recordingSource) Suggest(_ context.Context, query string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	return r.answer
}

func (r *recordingSource) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

const testDelay = 30 * time.Millisecond

func newSuggestView(t *testing.T, source SuggestionSource) (*Controller, *mocks.MockCatalog) {
	t.Helper()
	ctrl := gomock.NewController(t)
	catalog := mocks.NewMockCatalog(ctrl)
	view, err := New(catalog, source,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSuggestDelay(testDelay),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = view.Close() })
	return view, catalog
}

func TestSuggestions(t *testing.T) {
	testutil.Given(t, "a burst of keystrokes", func(t *testing.T) {
		source := &recordingSource{answer: []string{"Germany", "Georgia"}}
		view, _ := newSuggestView(t, source)
		ctx := context.Background()

		for _, text := range []string{"G", "Ge", "Ger", "Germ", "Germa"} {
			view.Input(ctx, text)
		}

		testutil.Then(t, "only the last query is looked up", func(t *testing.T) {
			require.Eventually(t, func() bool {
				return len(view.State().Suggestions.Items) == 2
			}, time.Second, 5*time.Millisecond)
			time.Sleep(2 * testDelay)
			assert.Equal(t, []string{"Germa"}, source.calls())

			st := view.State().Suggestions
			assert.True(t, st.Open)
			assert.Equal(t, "Germa", st.Query)
		})
	})

	testutil.Given(t, "a query shorter than two characters", func(t *testing.T) {
		source := &recordingSource{answer: []string{"Germany"}}
		view, _ := newSuggestView(t, source)
		ctx := context.Background()

		view.Input(ctx, "Ge")
		require.Eventually(t, func() bool {
			return len(view.State().Suggestions.Items) == 1
		}, time.Second, 5*time.Millisecond)

		view.Input(ctx, "G")

		testutil.Then(t, "the list clears at once and no lookup is made", func(t *testing.T) {
			st := view.State().Suggestions
			assert.Empty(t, st.Items)
			assert.False(t, st.Open)
			time.Sleep(2 * testDelay)
			assert.Equal(t, []string{"Ge"}, source.calls())
		})
	})

	testutil.Given(t, "a pending lookup when the text is shortened", func(t *testing.T) {
		source := &recordingSource{answer: []string{"Peru"}}
		view, _ := newSuggestView(t, source)

		view.Input(context.Background(), "Pe")
		view.Input(context.Background(), "")

		testutil.Then(t, "the pending timer never fires a lookup", func(t *testing.T) {
			time.Sleep(3 * testDelay)
			assert.Empty(t, source.calls())
		})
	})
}

func TestSelectAndSubmit(t *testing.T) {
	testutil.When(t, "a suggestion is selected", func(t *testing.T) {
		view, catalog := newSuggestView(t, &recordingSource{})
		catalog.EXPECT().SearchByName(gomock.Any(), "Germany").Return([]country.Country{{Code: "DEU"}}, nil)

		view.Input(context.Background(), "Germ")
		require.NoError(t, view.Select(context.Background(), "Germany"))

		testutil.Then(t, "it searches and closes the list", func(t *testing.T) {
			st, err := view.Wait(context.Background())
			require.NoError(t, err)
			assert.Equal(t, ModeSearch, st.Mode)
			assert.Equal(t, "Germany", st.Query)
			assert.Equal(t, "Germany", st.Suggestions.Query)
			assert.False(t, st.Suggestions.Open)
		})
	})

	testutil.When(t, "raw text is submitted", func(t *testing.T) {
		view, catalog := newSuggestView(t, &recordingSource{})
		catalog.EXPECT().SearchByName(gomock.Any(), "Fra").Return([]country.Country{{Code: "FRA"}}, nil)

		view.Input(context.Background(), " Fra ")
		require.NoError(t, view.Submit(context.Background(), " Fra "))

		testutil.Then(t, "the trimmed text is searched", func(t *testing.T) {
			st, err := view.Wait(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "Fra", st.Query)
			assert.False(t, st.Suggestions.Open)
		})
	})

	testutil.When(t, "blank text is submitted", func(t *testing.T) {
		view, _ := newSuggestView(t, &recordingSource{})
		require.NoError(t, view.Submit(context.Background(), "  "))

		testutil.Then(t, "nothing is searched", func(t *testing.T) {
			assert.Equal(t, ModeAll, view.State().Mode)
		})
	})
}
