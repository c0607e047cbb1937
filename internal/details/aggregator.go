// Package details assembles the country detail view: the required country
// record, best-effort border names and AI overview, and the independent
// gallery, news and chat widgets.
package details

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"worldfolio/internal/country"
	"worldfolio/internal/enrichment/images"
	"worldfolio/internal/enrichment/news"
	"worldfolio/internal/platform/metrics"
	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/fetch"
)

const (
	viewName = "details"

	loadFailedMessage = "Could not load country info."

	galleryLimit = 5
	newsLimit    = 5
)

// ErrClosed is returned by operations on a closed view.
var ErrClosed = dErrors.New(dErrors.CodeNotFound, "view is closed")

// Catalog is the subset of the country catalog the detail view reads.
type Catalog interface {
	GetByCode(ctx context.Context, code string) (country.Country, error)
	GetManyByCodes(ctx context.Context, codes []string) ([]country.Country, error)
}

// AI writes the overview and answers chat questions. It never fails.
type AI interface {
	Asker
	Overview(ctx context.Context, subject country.Country) string
}

type ImageSource interface {
	Search(ctx context.Context, name string) []images.Image
}

type NewsSource interface {
	Search(ctx context.Context, name string) []news.Article
}

// Border is a neighbouring country reduced to what a link needs.
type Border struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// State is the rendered snapshot of a detail view.
type State struct {
	Code     string                  `json:"code"`
	Status   fetch.Status            `json:"status"`
	Error    string                  `json:"error,omitempty"`
	Country  *country.Country        `json:"country,omitempty"`
	Facts    *country.Facts          `json:"facts,omitempty"`
	Borders  []Border                `json:"borders"`
	Summary  string                  `json:"summary,omitempty"`
	Sections []Section               `json:"sections"`
	Gallery  FeedState[images.Image] `json:"gallery"`
	News     FeedState[news.Article] `json:"news"`
	Chat     ChatState               `json:"chat"`
}

// Aggregator is one browser client's detail view.
type Aggregator struct {
	catalog Catalog
	ai      AI
	logger  *slog.Logger
	metrics *metrics.Metrics

	gallery *Feed[images.Image]
	news    *Feed[news.Article]
	chat    *Chat

	mu       sync.Mutex
	guard    fetch.Guard
	code     string
	status   fetch.Status
	errMsg   string
	subject  *country.Country
	borders  []Border
	summary  string
	sections []Section
	closed   bool

	wg sync.WaitGroup
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// New creates an idle detail view.
func New(catalog Catalog, ai AI, imageSource ImageSource, newsSource NewsSource, opts ...Option) (*Aggregator, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if ai == nil {
		return nil, errors.New("ai client is required")
	}
	if imageSource == nil {
		return nil, errors.New("image source is required")
	}
	if newsSource == nil {
		return nil, errors.New("news source is required")
	}

	a := &Aggregator{
		catalog:  catalog,
		ai:       ai,
		logger:   slog.Default(),
		status:   fetch.StatusIdle,
		borders:  []Border{},
		sections: []Section{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.gallery = NewFeed("gallery", imageSource.Search, galleryLimit, a.metrics)
	a.news = NewFeed("news", newsSource.Search, newsLimit, a.metrics)
	a.chat = NewChat(ai, a.metrics)
	return a, nil
}

// Navigate switches the view to the country with the given code. Any
// in-flight work for the previous subject is cancelled and its results
// discarded.
func (a *Aggregator) Navigate(ctx context.Context, code string) error {
	code = country.NormalizeCode(code)
	if !country.ValidCode(code) {
		return dErrors.New(dErrors.CodeValidation, "code must be a 2 or 3 letter country code")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}

	a.code = code
	a.status = fetch.StatusLoading
	a.errMsg = ""
	a.subject = nil
	a.borders = []Border{}
	a.summary = ""
	a.sections = []Section{}
	a.gallery.Reset()
	a.news.Reset()
	a.chat.Reset(nil)

	fctx, token := a.guard.Next(context.WithoutCancel(ctx))
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.load(fctx, token, code)
	}()
	return nil
}

func (a *Aggregator) load(ctx context.Context, token fetch.Token, code string) {
	subject, err := a.catalog.GetByCode(ctx, code)

	a.mu.Lock()
	if !a.guard.IsCurrent(token) {
		a.mu.Unlock()
		a.metrics.StaleResult(viewName)
		return
	}
	if err != nil {
		a.logger.WarnContext(ctx, "country lookup failed", "code", code, "error", err)
		a.status = fetch.StatusError
		a.errMsg = loadFailedMessage
		a.guard.Settle(token)
		a.mu.Unlock()
		return
	}
	a.subject = &subject
	// Side widgets start now and run on their own; the view does not wait.
	widgetCtx := context.WithoutCancel(ctx)
	a.gallery.Load(widgetCtx, subject.DisplayName())
	a.news.Load(widgetCtx, subject.DisplayName())
	a.chat.Reset(&subject)
	a.mu.Unlock()

	var (
		borders []Border
		summary string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		borders = a.loadBorders(gctx, subject)
		return nil
	})
	g.Go(func() error {
		summary = a.ai.Overview(gctx, subject)
		return nil
	})
	_ = g.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.guard.IsCurrent(token) {
		a.metrics.StaleResult(viewName)
		return
	}
	a.borders = borders
	a.summary = summary
	a.sections = ParseSummary(summary)
	a.status = fetch.StatusReady
	a.guard.Settle(token)
}

// loadBorders resolves border codes to names. Failures leave the list empty.
func (a *Aggregator) loadBorders(ctx context.Context, subject country.Country) []Border {
	if len(subject.Borders) == 0 {
		return []Border{}
	}
	neighbours, err := a.catalog.GetManyByCodes(ctx, subject.Borders)
	if err != nil {
		a.logger.WarnContext(ctx, "border lookup failed", "code", subject.Code, "error", err)
		return []Border{}
	}
	out := make([]Border, 0, len(neighbours))
	for _, n := range neighbours {
		out = append(out, Border{Code: n.Code, Name: n.DisplayName()})
	}
	return out
}

// Ask submits a chat question about the current subject.
func (a *Aggregator) Ask(ctx context.Context, question string) (ChatState, error) {
	return a.chat.Submit(ctx, question)
}

// State returns a snapshot for rendering.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

func (a *Aggregator) stateLocked() State {
	s := State{
		Code:     a.code,
		Status:   a.status,
		Error:    a.errMsg,
		Borders:  append([]Border{}, a.borders...),
		Summary:  a.summary,
		Sections: append([]Section{}, a.sections...),
		Gallery:  a.gallery.State(),
		News:     a.news.State(),
		Chat:     a.chat.State(),
	}
	if a.subject != nil {
		c := *a.subject
		facts := country.FactsOf(c)
		s.Country = &c
		s.Facts = &facts
	}
	return s
}

// Wait blocks until the current subject settles or ctx is done. With
// widgets set it also waits for the gallery and news feeds.
func (a *Aggregator) Wait(ctx context.Context, widgets bool) (State, error) {
	for {
		a.mu.Lock()
		if a.status.Settled() || a.closed {
			a.mu.Unlock()
			break
		}
		changed := a.guard.Changed()
		a.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return a.State(), ctx.Err()
		}
	}
	if widgets {
		if err := a.gallery.Wait(ctx); err != nil {
			return a.State(), err
		}
		if err := a.news.Wait(ctx); err != nil {
			return a.State(), err
		}
	}
	return a.State(), nil
}

// Close cancels all in-flight work and waits for it to drain.
func (a *Aggregator) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.guard.Invalidate()
	a.mu.Unlock()

	a.wg.Wait()
	a.gallery.Close()
	a.news.Close()
	a.chat.Close()
	return nil
}
