package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldfolio/pkg/platform/sentinel"
)

type payload struct {
	Name string `json:"name"`
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "secret", r.Header.Get("X-Key"))
			_, _ = io.WriteString(w, `{"name":"Germany"}`)
		case "/garbage":
			_, _ = io.WriteString(w, `{"name":`)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"status":404,"message":"Not Found"}`)
		case "/quota":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/denied":
			w.WriteHeader(http.StatusForbidden)
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewClient("restcountries", time.Second, WithMetrics(m))

	t.Run("decodes success", func(t *testing.T) {
		var got payload
		err := c.GetJSON(context.Background(), "get", srv.URL+"/ok", http.Header{"X-Key": {"secret"}}, &got)
		require.NoError(t, err)
		assert.Equal(t, "Germany", got.Name)
	})

	tests := []struct {
		path     string
		category Category
		sentinel error
	}{
		{"/garbage", CategoryBadData, nil},
		{"/missing", CategoryNotFound, sentinel.ErrNotFound},
		{"/quota", CategoryRateLimited, sentinel.ErrUnavailable},
		{"/denied", CategoryAuthentication, nil},
		{"/bad", CategoryRejected, nil},
		{"/down", CategoryOutage, sentinel.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var got payload
			err := c.GetJSON(context.Background(), "get", srv.URL+tt.path, nil, &got)
			require.Error(t, err)
			assert.Equal(t, tt.category, CategoryOf(err))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}

	t.Run("keeps the error body", func(t *testing.T) {
		err := c.GetJSON(context.Background(), "get", srv.URL+"/missing", nil, nil)
		var ue *Error
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, http.StatusNotFound, ue.Status)
		assert.Contains(t, string(ue.Body), "Not Found")
	})

	t.Run("records failures", func(t *testing.T) {
		assert.GreaterOrEqual(t, testutil.ToFloat64(m.failures.WithLabelValues("restcountries", "not_found")), 1.0)
	})
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient("slow", 50*time.Millisecond)
	err := c.GetJSON(context.Background(), "get", srv.URL, nil, nil)
	assert.Equal(t, CategoryTimeout, CategoryOf(err))
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"France"}`, string(body))
		_, _ = io.WriteString(w, `{"name":"ok"}`)
	}))
	defer srv.Close()

	var got payload
	err := NewClient("p", time.Second).PostJSON(context.Background(), "post", srv.URL, nil, payload{Name: "France"}, &got)
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Name)
}
