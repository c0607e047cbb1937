// Package country holds the country record as returned by the catalog and the
// display helpers the views render it with.
package country

import (
	"slices"
	"strings"

	dErrors "worldfolio/pkg/domain-errors"
)

// Country is an immutable catalog record identified by its ISO 3166-1
// alpha-3 Code. JSON tags follow the restcountries v3.1 wire shape.
type Country struct {
	Name       Name                `json:"name"`
	Code       string              `json:"cca3"`
	Population int64               `json:"population"`
	Region     string              `json:"region"`
	Subregion  string              `json:"subregion,omitempty"`
	Capitals   []string            `json:"capital,omitempty"`
	Languages  map[string]string   `json:"languages,omitempty"`
	Currencies map[string]Currency `json:"currencies,omitempty"`
	Flags      Flags               `json:"flags"`
	Borders    []string            `json:"borders,omitempty"`
	TLDs       []string            `json:"tld,omitempty"`
	Timezones  []string            `json:"timezones,omitempty"`
}

type Name struct {
	Common   string `json:"common"`
	Official string `json:"official"`
}

type Currency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

type Flags struct {
	PNG string `json:"png,omitempty"`
	SVG string `json:"svg,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// DisplayName is the common name, used for image, news and chat lookups.
func (c Country) DisplayName() string {
	return c.Name.Common
}

// FlagURL prefers the SVG rendition.
func (c Country) FlagURL() string {
	if c.Flags.SVG != "" {
		return c.Flags.SVG
	}
	return c.Flags.PNG
}

// Region is one of the five continental groupings the catalog filters by.
type Region string

const (
	RegionAfrica   Region = "Africa"
	RegionAmericas Region = "Americas"
	RegionAsia     Region = "Asia"
	RegionEurope   Region = "Europe"
	RegionOceania  Region = "Oceania"
)

// Regions lists every region in menu order.
var Regions = []Region{RegionAfrica, RegionAmericas, RegionAsia, RegionEurope, RegionOceania}

// ParseRegion matches a region name case-insensitively.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	for _, r := range Regions {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown region: "+s)
}

// NormalizeCode trims and upper-cases a country code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code looks like an alpha-2 or alpha-3 code.
func ValidCode(code string) bool {
	if len(code) != 2 && len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// sortedValues returns map values ordered by key so output is stable.
func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
