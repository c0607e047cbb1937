// Package catalog reads country records from the restcountries v3.1 API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"worldfolio/internal/country"
	"worldfolio/internal/upstream"
	"worldfolio/pkg/platform/sentinel"
)

const (
	listFields   = "name,population,region,languages,flags,capital,cca3"
	detailFields = "name,population,region,languages,flags,capital,currencies,borders,timezones,subregion,tld,cca3"
	borderFields = "name,cca3"
)

// Catalog is the read surface the views depend on.
type Catalog interface {
	ListAll(ctx context.Context) ([]country.Country, error)
	SearchByName(ctx context.Context, name string) ([]country.Country, error)
	FilterByRegion(ctx context.Context, region country.Region) ([]country.Country, error)
	FilterByLanguage(ctx context.Context, language string) ([]country.Country, error)
	GetByCode(ctx context.Context, code string) (country.Country, error)
	GetManyByCodes(ctx context.Context, codes []string) ([]country.Country, error)
}

// Client is the HTTP implementation of Catalog.
type Client struct {
	baseURL string
	http    *upstream.Client
}

// New creates a catalog client rooted at baseURL (e.g. https://restcountries.com/v3.1).
func New(baseURL string, hc *upstream.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	return c.baseURL + path + "?" + query.Encode()
}

func fields(f string) url.Values {
	return url.Values{"fields": {f}}
}

func (c *Client) list(ctx context.Context, operation, path string) ([]country.Country, error) {
	var out []country.Country
	if err := c.http.GetJSON(ctx, operation, c.endpoint(path, fields(listFields)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAll(ctx context.Context) ([]country.Country, error) {
	return c.list(ctx, "list_all", "/all")
}

// SearchByName matches common and official names. A 404 from the catalog
// means no match and yields an empty list.
func (c *Client) SearchByName(ctx context.Context, name string) ([]country.Country, error) {
	out, err := c.list(ctx, "search_by_name", "/name/"+url.PathEscape(strings.TrimSpace(name)))
	if errors.Is(err, sentinel.ErrNotFound) {
		return []country.Country{}, nil
	}
	return out, err
}

func (c *Client) FilterByRegion(ctx context.Context, region country.Region) ([]country.Country, error) {
	return c.list(ctx, "filter_by_region", "/region/"+url.PathEscape(string(region)))
}

// FilterByLanguage matches on a language name or code, case-insensitively.
func (c *Client) FilterByLanguage(ctx context.Context, language string) ([]country.Country, error) {
	lang := strings.ToLower(strings.TrimSpace(language))
	return c.list(ctx, "filter_by_language", "/lang/"+url.PathEscape(lang))
}

// GetByCode returns the detail record. The catalog answers a single object
// when fields are requested, but older deployments wrap it in an array.
func (c *Client) GetByCode(ctx context.Context, code string) (country.Country, error) {
	code = country.NormalizeCode(code)
	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, "get_by_code", c.endpoint("/alpha/"+url.PathEscape(code), fields(detailFields)), nil, &raw); err != nil {
		return country.Country{}, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []country.Country
		if err := json.Unmarshal(raw, &list); err != nil {
			return country.Country{}, upstream.NewError(upstream.CategoryBadData, c.http.Provider(), "decode country", err)
		}
		if len(list) == 0 {
			return country.Country{}, upstream.NewError(upstream.CategoryNotFound, c.http.Provider(), "no country for code "+code, nil)
		}
		return list[0], nil
	}

	var out country.Country
	if err := json.Unmarshal(raw, &out); err != nil {
		return country.Country{}, upstream.NewError(upstream.CategoryBadData, c.http.Provider(), "decode country", err)
	}
	return out, nil
}

// GetManyByCodes resolves codes to names. Empty input issues no request.
func (c *Client) GetManyByCodes(ctx context.Context, codes []string) ([]country.Country, error) {
	if len(codes) == 0 {
		return []country.Country{}, nil
	}
	q := fields(borderFields)
	q.Set("codes", strings.Join(codes, ","))

	var out []country.Country
	if err := c.http.GetJSON(ctx, "get_many_by_codes", c.endpoint("/alpha", q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
