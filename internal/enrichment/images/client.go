// Package images searches Unsplash for landscape photos of a country.
package images

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"worldfolio/internal/upstream"
)

const perPage = 5

// Image is one gallery photo with the attribution Unsplash requires.
type Image struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Thumb          string `json:"thumb"`
	Description    string `json:"description"`
	Attribution    string `json:"attribution"`
	AttributionURL string `json:"attribution_url"`
}

type searchResponse struct {
	Results []struct {
		ID             string `json:"id"`
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
	} `json:"results"`
}

// Client talks to the Unsplash search API.
type Client struct {
	baseURL   string
	accessKey string
	http      *upstream.Client
	logger    *slog.Logger
}

func New(baseURL, accessKey string, hc *upstream.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		http:      hc,
		logger:    logger,
	}
}

// Search returns up to five landscape photos for name. Failures are logged
// and yield an empty list.
func (c *Client) Search(ctx context.Context, name string) []Image {
	if c.accessKey == "" {
		return []Image{}
	}
	q := url.Values{
		"query":       {name},
		"per_page":    {"5"},
		"orientation": {"landscape"},
	}
	header := http.Header{"Authorization": {"Client-ID " + c.accessKey}}

	var resp searchResponse
	if err := c.http.GetJSON(ctx, "search_photos", c.baseURL+"/search/photos?"+q.Encode(), header, &resp); err != nil {
		c.logger.WarnContext(ctx, "image search failed", "query", name, "error", err)
		return []Image{}
	}

	out := make([]Image, 0, min(len(resp.Results), perPage))
	for _, r := range resp.Results {
		if len(out) == perPage {
			break
		}
		desc := r.Description
		if desc == "" {
			desc = r.AltDescription
		}
		out = append(out, Image{
			ID:             r.ID,
			URL:            r.URLs.Regular,
			Thumb:          r.URLs.Small,
			Description:    desc,
			Attribution:    r.User.Name,
			AttributionURL: r.User.Links.HTML,
		})
	}
	return out
}
