// Package discovery owns the country grid: which catalog call produced the
// current result set, how much of it is visible, and the search box's
// debounced suggestions.
package discovery

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"worldfolio/internal/country"
	"worldfolio/internal/platform/metrics"
	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/fetch"
)

const viewName = "discovery"

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = dErrors.New(dErrors.CodeNotFound, "view is closed")

// Catalog is the subset of the country catalog the grid reads.
type Catalog interface {
	ListAll(ctx context.Context) ([]country.Country, error)
	SearchByName(ctx context.Context, name string) ([]country.Country, error)
	FilterByRegion(ctx context.Context, region country.Region) ([]country.Country, error)
	FilterByLanguage(ctx context.Context, language string) ([]country.Country, error)
}

// Controller is one browser client's discovery view. All state is guarded by
// mu; catalog calls run on their own goroutines and apply their result only
// if no newer request was issued in the meantime.
type Controller struct {
	catalog   Catalog
	suggester *Suggester
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	guard    fetch.Guard
	mode     Mode
	query    string
	region   string
	language string
	status   fetch.Status
	errMsg   string
	results  []country.Country
	visible  int
	closed   bool

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	metrics      *metrics.Metrics
	suggestDelay time.Duration
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSuggestDelay sets the debounce quiet period for suggestions.
func WithSuggestDelay(d time.Duration) Option {
	return func(o *options) {
		o.suggestDelay = d
	}
}

// New creates an idle controller. Call SetMode(ModeAll) to load the grid.
func New(catalog Catalog, suggestions SuggestionSource, opts ...Option) (*Controller, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if suggestions == nil {
		return nil, errors.New("suggestion source is required")
	}
	o := options{
		logger:       slog.Default(),
		suggestDelay: DefaultSuggestDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller{
		catalog: catalog,
		logger:  o.logger,
		metrics: o.metrics,
		mode:    ModeAll,
		status:  fetch.StatusIdle,
		visible: PageSize,
	}
	c.suggester = newSuggester(suggestions, o.suggestDelay, c.search, o.logger, o.metrics)
	return c, nil
}

func (c *Controller) search(ctx context.Context, text string) error {
	return c.SetMode(ctx, ModeSearch, text)
}

// SetMode replaces the result set with the given mode's catalog call.
// A blank search is ignored; a blank region or language falls back to all.
func (c *Controller) SetMode(ctx context.Context, mode Mode, value string) error {
	value = strings.TrimSpace(value)
	var region country.Region
	switch mode {
	case ModeAll:
		value = ""
	case ModeSearch:
		if value == "" {
			return nil
		}
	case ModeRegion:
		if value == "" {
			mode = ModeAll
			break
		}
		r, err := country.ParseRegion(value)
		if err != nil {
			return err
		}
		region, value = r, string(r)
	case ModeLanguage:
		if value == "" {
			mode = ModeAll
			break
		}
		value = strings.ToLower(value)
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown mode: "+string(mode))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.mode = mode
	c.query, c.region, c.language = "", "", ""
	switch mode {
	case ModeSearch:
		c.query = value
	case ModeRegion:
		c.region = value
	case ModeLanguage:
		c.language = value
	}
	c.visible = PageSize
	c.errMsg = ""
	c.results = nil
	c.status = fetch.StatusLoading

	fctx, token := c.guard.Next(context.WithoutCancel(ctx))
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		results, err := c.load(fctx, mode, value, region)
		c.apply(fctx, token, mode, results, err)
	}()
	return nil
}

func (c *Controller) load(ctx context.Context, mode Mode, value string, region country.Region) ([]country.Country, error) {
	switch mode {
	case ModeSearch:
		return c.catalog.SearchByName(ctx, value)
	case ModeRegion:
		return c.catalog.FilterByRegion(ctx, region)
	case ModeLanguage:
		return c.catalog.FilterByLanguage(ctx, value)
	default:
		return c.catalog.ListAll(ctx)
	}
}

func (c *Controller) apply(ctx context.Context, token fetch.Token, mode Mode, results []country.Country, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.guard.IsCurrent(token) {
		c.metrics.StaleResult(viewName)
		c.logger.DebugContext(ctx, "discarding superseded catalog result", "mode", mode)
		return
	}

	if err != nil {
		c.logger.WarnContext(ctx, "catalog fetch failed", "mode", mode, "error", err)
		c.results = []country.Country{}
		c.status = fetch.StatusError
		c.errMsg = failureMessages[mode]
	} else {
		if results == nil {
			results = []country.Country{}
		}
		c.results = results
		c.visible = PageSize
		c.status = fetch.ListStatus(len(results))
	}
	c.guard.Settle(token)
}

// LoadMore grows the visible window by one page.
func (c *Controller) LoadMore() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible += PageSize
	return c.stateLocked()
}

// Input feeds the search box.
func (c *Controller) Input(ctx context.Context, text string) {
	c.suggester.Input(ctx, text)
}

// Select runs a search for a picked suggestion.
func (c *Controller) Select(ctx context.Context, value string) error {
	return c.suggester.Select(ctx, value)
}

// Submit runs a search for the raw search box text.
func (c *Controller) Submit(ctx context.Context, text string) error {
	return c.suggester.Submit(ctx, text)
}

// State returns a snapshot for rendering.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	visible := []country.Country{}
	if c.status != fetch.StatusLoading {
		visible = c.results[:min(c.visible, len(c.results))]
	}
	return State{
		Mode:         c.mode,
		Query:        c.query,
		Region:       c.region,
		Language:     c.language,
		Status:       c.status,
		Error:        c.errMsg,
		Countries:    visible,
		Total:        len(c.results),
		VisibleCount: c.visible,
		HasMore:      len(c.results) > c.visible,
		Suggestions:  c.suggester.State(),
	}
}

// Wait blocks until the current request settles or ctx is done.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		if c.status.Settled() || c.closed {
			s := c.stateLocked()
			c.mu.Unlock()
			return s, nil
		}
		changed := c.guard.Changed()
		c.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return c.State(), ctx.Err()
		}
	}
}

// Close cancels in-flight work and waits for it to drain.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.guard.Invalidate()
	c.mu.Unlock()

	c.suggester.Close()
	c.wg.Wait()
	return nil
}
