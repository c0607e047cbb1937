package discovery

import (
	"strings"

	"worldfolio/internal/country"
	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/fetch"
)

// PageSize is the pagination step of the result grid.
const PageSize = 12

// Mode selects which catalog call produces the result set.
type Mode string

const (
	ModeAll      Mode = "all"
	ModeSearch   Mode = "search"
	ModeRegion   Mode = "region"
	ModeLanguage Mode = "language"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAll, ModeSearch, ModeRegion, ModeLanguage:
		return m, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "mode must be one of all, search, region, language")
}

// Error messages shown when a fetch fails, per mode.
var failureMessages = map[Mode]string{
	ModeAll:      "Failed to load countries. Please try again later.",
	ModeSearch:   "Failed to search countries. Please try again later.",
	ModeRegion:   "Failed to load countries for this region.",
	ModeLanguage: "Failed to load countries for this language.",
}

// State is the rendered snapshot of a discovery view.
type State struct {
	Mode         Mode              `json:"mode"`
	Query        string            `json:"query"`
	Region       string            `json:"region"`
	Language     string            `json:"language"`
	Status       fetch.Status      `json:"status"`
	Error        string            `json:"error,omitempty"`
	Countries    []country.Country `json:"countries"`
	Total        int               `json:"total"`
	VisibleCount int               `json:"visible_count"`
	HasMore      bool              `json:"has_more"`
	Suggestions  SuggestionState   `json:"suggestions"`
}

// SuggestionState is the rendered snapshot of the search box.
type SuggestionState struct {
	Query string   `json:"query"`
	Items []string `json:"items"`
	Open  bool     `json:"open"`
}
