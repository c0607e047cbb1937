package news

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldfolio/internal/upstream"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const gnewsBody = `{"totalArticles":2,"articles":[
	{"title":"Berlin marathon","description":"Runners","url":"https://n/1","image":"https://i/1","publishedAt":"2025-03-01T10:00:00Z","source":{"name":"Daily"}},
	{"title":"Bundestag vote","url":"https://n/2","publishedAt":"2025-03-02T10:00:00Z","source":{"name":"Wire"}}
]}`

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Google News</title>
<item><title>Germany wins the cup - Sports Daily</title><link>https://n/a</link><pubDate>Sat, 01 Mar 2025 10:00:00 GMT</pubDate></item>
<item><title>Untagged headline</title><link>https://n/b</link></item>
</channel></rss>`

func TestSearchGNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Germany", q.Get("q"))
		assert.Equal(t, "en", q.Get("lang"))
		assert.Equal(t, "us", q.Get("country"))
		assert.Equal(t, "10", q.Get("max"))
		assert.Equal(t, "k", q.Get("apikey"))
		_, _ = io.WriteString(w, gnewsBody)
	}))
	defer srv.Close()

	c := New(Config{GNewsBaseURL: srv.URL, GNewsAPIKey: "k"}, upstream.NewClient("gnews", time.Second), discard())
	got := c.Search(context.Background(), "Germany")

	require.Len(t, got, 2)
	assert.Equal(t, "Berlin marathon", got[0].Title)
	assert.Equal(t, "Daily", got[0].Source)
	assert.Equal(t, "https://i/1", got[0].ImageURL)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), got[0].PublishedAt)
}

func TestSearchRSSFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Germany", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, rssBody)
	}))
	defer srv.Close()

	c := New(Config{RSSURL: srv.URL}, upstream.NewClient("news-rss", time.Second), discard())
	got := c.Search(context.Background(), "Germany")

	require.Len(t, got, 2)
	assert.Equal(t, "Germany wins the cup", got[0].Title)
	assert.Equal(t, "Sports Daily", got[0].Source)
	assert.False(t, got[0].PublishedAt.IsZero())
	assert.Equal(t, "Google News", got[1].Source)
}

func TestSearchFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Config{GNewsBaseURL: srv.URL, GNewsAPIKey: "k"}, upstream.NewClient("gnews", time.Second), discard())
	got := c.Search(context.Background(), "Germany")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSplitSource(t *testing.T) {
	title, source := splitSource("A - B - Reuters")
	assert.Equal(t, "A - B", title)
	assert.Equal(t, "Reuters", source)

	title, source = splitSource("No source")
	assert.Equal(t, "No source", title)
	assert.Empty(t, source)
}
