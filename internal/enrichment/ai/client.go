// Package ai asks Gemini for country overviews, chat answers and search
// suggestions. Every operation degrades to a fixed fallback instead of
// returning an error, so callers never branch on AI failures.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"worldfolio/internal/country"
	"worldfolio/internal/upstream"
	wstrings "worldfolio/pkg/platform/strings"
)

const provider = "gemini"

// Fallback texts shown in place of an answer.
const (
	OverviewEmpty  = "No information available for this country."
	OverviewFailed = "Failed to fetch country information from AI."
	AnswerEmpty    = "Sorry, I could not generate an answer to your question."
	AnswerFailed   = "Failed to get an answer from the AI assistant."
)

// generator is the slice of the genai SDK we use; *genai.Models implements it.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps a Gemini model.
type Client struct {
	gen     generator
	model   string
	timeout time.Duration
	logger  *slog.Logger
	metrics *upstream.Metrics
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *upstream.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a Gemini-backed client. An empty API key yields a client whose
// every call takes the failure fallback.
func New(ctx context.Context, apiKey, model string, opts ...Option) (*Client, error) {
	var gen generator
	if apiKey != "" {
		gc, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create GenAI client: %w", err)
		}
		gen = gc.Models
	}
	return newClient(gen, model, opts...), nil
}

func newClient(gen generator, model string, opts ...Option) *Client {
	c := &Client{
		gen:     gen,
		model:   model,
		timeout: 20 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Overview asks for the five-section country summary.
func (c *Client) Overview(ctx context.Context, subject country.Country) string {
	prompt := fmt.Sprintf(`Tell me more about this country: %s.
Format your response in sections:

1. Brief Overview
2. Geography and Climate
3. Culture and People
4. Economy
5. Interesting Facts

Keep each section concise with 2-3 sentences max.
Do not include any HTML tags or markdown formatting in your response.
Start each section with the section name followed by a colon.`, subjectJSON(subject))

	text, err := c.generate(ctx, "overview", prompt)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "ai overview failed", "country", subject.Code, "error", err)
		return OverviewFailed
	case text == "":
		return OverviewEmpty
	default:
		return text
	}
}

// Ask answers a free-form question scoped to subject.
func (c *Client) Ask(ctx context.Context, subject country.Country, question string) string {
	prompt := fmt.Sprintf(`Given this country data: %s.
Answer this question: %s
Keep your answer brief and informative.
Do not include any HTML tags or markdown formatting in your response.`, subjectJSON(subject), question)

	text, err := c.generate(ctx, "ask", prompt)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "ai answer failed", "country", subject.Code, "error", err)
		return AnswerFailed
	case text == "":
		return AnswerEmpty
	default:
		return text
	}
}

// Suggest returns country names similar to query. Failures yield an empty list.
func (c *Client) Suggest(ctx context.Context, query string) []string {
	prompt := fmt.Sprintf(`Given the search query %q, suggest 5 similar country names that might be relevant.
Return only the country names separated by commas.`, query)

	text, err := c.generate(ctx, "suggest", prompt)
	if err != nil {
		c.logger.DebugContext(ctx, "ai suggestions failed", "error", err)
		return []string{}
	}
	return wstrings.SplitList(text, ",")
}

// generate returns the first candidate's first text part, trimmed.
func (c *Client) generate(ctx context.Context, operation, prompt string) (text string, err error) {
	if c.gen == nil {
		return "", upstream.NewError(upstream.CategoryAuthentication, provider, "no API key configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		c.metrics.Observe(provider, operation, time.Since(start), err)
	}()

	resp, err := c.gen.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", upstream.NewError(upstream.CategoryTimeout, provider, operation, err)
		}
		return "", upstream.NewError(upstream.CategoryOutage, provider, operation, err)
	}
	return firstText(resp), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return ""
	}
	return strings.TrimSpace(content.Parts[0].Text)
}

func subjectJSON(c country.Country) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return c.DisplayName()
	}
	return string(raw)
}
