package details

import "strings"

// Section is one titled block of the AI overview.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ParseSummary splits overview text into sections, one per line. A line is
// split on its first colon; lines without a colon or with an empty title are
// dropped. Later colons stay in the body.
//
//	ParseSummary("Economy: GDP: large") // [{Economy, "GDP: large"}]
func ParseSummary(text string) []Section {
	sections := []Section{}
	for line := range strings.SplitSeq(text, "\n") {
		title, body, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		sections = append(sections, Section{
			Title: title,
			Body:  strings.TrimSpace(body),
		})
	}
	return sections
}
