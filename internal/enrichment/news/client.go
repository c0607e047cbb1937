// Package news fetches recent headlines about a country from GNews, or from
// the Google News RSS search feed when no GNews key is configured.
package news

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"worldfolio/internal/upstream"
)

const maxArticles = 10

// Article is one headline.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	ImageURL    string    `json:"image_url,omitempty"`
	Description string    `json:"description,omitempty"`
}

type gnewsResponse struct {
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		Image       string    `json:"image"`
		PublishedAt time.Time `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Config locates the two news sources.
type Config struct {
	GNewsBaseURL string
	GNewsAPIKey  string
	RSSURL       string
}

// Client searches news for a country name.
type Client struct {
	cfg    Config
	http   *upstream.Client
	logger *slog.Logger
}

func New(cfg Config, hc *upstream.Client, logger *slog.Logger) *Client {
	cfg.GNewsBaseURL = strings.TrimRight(cfg.GNewsBaseURL, "/")
	return &Client{cfg: cfg, http: hc, logger: logger}
}

// Search returns up to ten articles about name. Failures are logged and yield
// an empty list.
func (c *Client) Search(ctx context.Context, name string) []Article {
	var (
		out []Article
		err error
	)
	if c.cfg.GNewsAPIKey != "" {
		out, err = c.searchGNews(ctx, name)
	} else if c.cfg.RSSURL != "" {
		out, err = c.searchRSS(ctx, name)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "news search failed", "query", name, "error", err)
		return []Article{}
	}
	if out == nil {
		return []Article{}
	}
	return out
}

func (c *Client) searchGNews(ctx context.Context, name string) ([]Article, error) {
	q := url.Values{
		"q":       {name},
		"lang":    {"en"},
		"country": {"us"},
		"max":     {"10"},
		"apikey":  {c.cfg.GNewsAPIKey},
	}
	var resp gnewsResponse
	if err := c.http.GetJSON(ctx, "gnews_search", c.cfg.GNewsBaseURL+"/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	out := make([]Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if len(out) == maxArticles {
			break
		}
		out = append(out, Article{
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.Image,
			Description: a.Description,
		})
	}
	return out, nil
}

func (c *Client) searchRSS(ctx context.Context, name string) ([]Article, error) {
	q := url.Values{
		"q":    {name},
		"hl":   {"en-US"},
		"gl":   {"US"},
		"ceid": {"US:en"},
	}
	body, err := c.http.Get(ctx, "rss_search", c.cfg.RSSURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, upstream.NewError(upstream.CategoryBadData, "news-rss", "parse feed", err)
	}

	out := make([]Article, 0, min(len(feed.Items), maxArticles))
	for _, it := range feed.Items {
		if len(out) == maxArticles {
			break
		}
		title, source := splitSource(strings.TrimSpace(it.Title))
		if source == "" {
			source = strings.TrimSpace(feed.Title)
		}
		a := Article{
			Title:  title,
			URL:    strings.TrimSpace(it.Link),
			Source: source,
		}
		if it.PublishedParsed != nil {
			a.PublishedAt = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			a.PublishedAt = *it.UpdatedParsed
		}
		if it.Image != nil {
			a.ImageURL = it.Image.URL
		}
		out = append(out, a)
	}
	return out, nil
}

// splitSource separates the " - Publisher" suffix Google News appends to titles.
func splitSource(title string) (string, string) {
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
}
