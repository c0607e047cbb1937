package discovery

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bep/debounce"

	"worldfolio/internal/platform/metrics"
	"worldfolio/pkg/fetch"
)

const (
	// DefaultSuggestDelay is the quiet period after the last keystroke.
	DefaultSuggestDelay = 300 * time.Millisecond

	// MinSuggestLength is the shortest query that is looked up.
	MinSuggestLength = 2
)

// SuggestionSource proposes country names for a partial query. It never
// fails; an unavailable source answers with an empty list.
type SuggestionSource interface {
	Suggest(ctx context.Context, query string) []string
}

// Suggester is the search box: the typed text, the debounced suggestion
// lookup and the open/closed state of the list.
type Suggester struct {
	source   SuggestionSource
	debounce func(func())
	onSearch func(ctx context.Context, text string) error
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	guard fetch.Guard
	query string
	items []string
	open  bool
	// parent carries the request values of the last keystroke into the
	// timer-fired lookup.
	parent context.Context
	closed bool

	wg sync.WaitGroup
}

func newSuggester(source SuggestionSource, delay time.Duration, onSearch func(context.Context, string) error, logger *slog.Logger, m *metrics.Metrics) *Suggester {
	return &Suggester{
		source:   source,
		debounce: debounce.New(delay),
		onSearch: onSearch,
		logger:   logger,
		metrics:  m,
		items:    []string{},
		parent:   context.Background(),
	}
}

// Input records a keystroke. Short queries clear the list at once and cancel
// any pending lookup; longer ones re-arm the debounce timer.
func (s *Suggester) Input(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.query = text
	s.open = true
	s.parent = context.WithoutCancel(ctx)

	if utf8.RuneCountInString(text) < MinSuggestLength {
		s.items = []string{}
		s.guard.Invalidate()
		s.debounce(func() {})
		return
	}
	s.debounce(s.lookup)
}

// lookup runs on the debounce timer goroutine.
func (s *Suggester) lookup() {
	s.mu.Lock()
	if s.closed || utf8.RuneCountInString(s.query) < MinSuggestLength {
		s.mu.Unlock()
		return
	}
	query := s.query
	ctx, token := s.guard.Next(s.parent)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	items := s.source.Suggest(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guard.IsCurrent(token) || s.query != query {
		s.metrics.StaleResult("suggestions")
		return
	}
	if items == nil {
		items = []string{}
	}
	s.items = items
	s.guard.Settle(token)
}

// Select searches for a picked suggestion and closes the list.
func (s *Suggester) Select(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	s.mu.Lock()
	s.query = value
	s.open = false
	s.mu.Unlock()
	return s.onSearch(ctx, value)
}

// Submit searches for the raw text and closes the list. Blank text is ignored.
func (s *Suggester) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return s.onSearch(ctx, text)
}

// State returns the search box snapshot. The list is shown only while open
// and the query is long enough.
func (s *Suggester) State() SuggestionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]string, len(s.items))
	copy(items, s.items)
	return SuggestionState{
		Query: s.query,
		Items: items,
		Open:  s.open && utf8.RuneCountInString(s.query) >= MinSuggestLength,
	}
}

// Close cancels a pending timer and in-flight lookups.
func (s *Suggester) Close() {
	s.mu.Lock()
	s.closed = true
	s.guard.Invalidate()
	s.debounce(func() {})
	s.mu.Unlock()
	s.wg.Wait()
}
