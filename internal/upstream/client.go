// Package upstream is the shared HTTP plumbing for the external providers:
// JSON requests, failure categorization, latency metrics and tracing spans.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBody = 4 << 10

// Client issues JSON requests to one provider.
type Client struct {
	provider string
	http     *http.Client
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMetrics records call latency.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for provider with the given request timeout.
func NewClient(provider string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		http:     &http.Client{Timeout: timeout},
		tracer:   otel.Tracer("worldfolio/upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in errors and metrics.
func (c *Client) Provider() string {
	return c.provider
}

// GetJSON issues a GET and decodes the JSON response into dst.
func (c *Client) GetJSON(ctx context.Context, operation, url string, header http.Header, dst any) error {
	return c.do(ctx, operation, http.MethodGet, url, header, nil, dst)
}

// PostJSON encodes body, POSTs it and decodes the JSON response into dst.
func (c *Client) PostJSON(ctx context.Context, operation, url string, header http.Header, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewError(CategoryInternal, c.provider, "encode request", err)
	}
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/json")
	return c.do(ctx, operation, http.MethodPost, url, header, payload, dst)
}

// Get issues a GET and returns the open response body on success. The caller
// closes it. Used for non-JSON payloads such as RSS.
func (c *Client) Get(ctx context.Context, operation, url string, header http.Header) (io.ReadCloser, error) {
	ctx, span := c.tracer.Start(ctx, c.provider+"."+operation, trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()

	resp, err := c.send(ctx, http.MethodGet, url, header, nil)
	c.metrics.Observe(c.provider, operation, time.Since(start), err)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, operation, method, url string, header http.Header, payload []byte, dst any) (err error) {
	ctx, span := c.tracer.Start(ctx, c.provider+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.provider", c.provider),
			attribute.String("http.request.method", method),
		),
	)
	start := time.Now()
	defer func() {
		c.metrics.Observe(c.provider, operation, time.Since(start), err)
		endSpan(span, err)
	}()

	resp, err := c.send(ctx, method, url, header, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return NewError(CategoryBadData, c.provider, "decode response", err)
	}
	return nil
}

// send performs the request and categorizes transport and status failures.
// On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, url string, header http.Header, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, NewError(CategoryInternal, c.provider, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, NewError(CategoryTimeout, c.provider, "request timed out", err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, NewError(CategoryInternal, c.provider, "request canceled", err)
		}
		return nil, NewError(CategoryOutage, c.provider, "request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Category: categoryForStatus(resp.StatusCode),
			Provider: c.provider,
			Message:  fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Status:   resp.StatusCode,
			Body:     raw,
		}
	}
	return resp, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CategoryOf(err)))
	}
	span.End()
}
