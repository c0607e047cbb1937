package country

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const notAvailable = "N/A"

var printer = message.NewPrinter(language.English)

// FormatPopulation renders a population with thousands separators.
func FormatPopulation(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatLanguages joins language names, or "N/A" when there are none.
func FormatLanguages(languages map[string]string) string {
	if len(languages) == 0 {
		return notAvailable
	}
	return strings.Join(sortedValues(languages), ", ")
}

// FormatCurrencies renders "Name (symbol)" pairs, or "N/A".
func FormatCurrencies(currencies map[string]Currency) string {
	if len(currencies) == 0 {
		return notAvailable
	}
	parts := make([]string, 0, len(currencies))
	for _, cur := range sortedValues(currencies) {
		parts = append(parts, fmt.Sprintf("%s (%s)", cur.Name, cur.Symbol))
	}
	return strings.Join(parts, ", ")
}

// FormatList joins values, or "N/A" when empty.
func FormatList(values []string) string {
	if len(values) == 0 {
		return notAvailable
	}
	return strings.Join(values, ", ")
}

// Facts is the pre-formatted fact sheet shown beside the flag.
type Facts struct {
	Population string `json:"population"`
	Capital    string `json:"capital"`
	Region     string `json:"region"`
	Subregion  string `json:"subregion"`
	Currencies string `json:"currencies"`
	Languages  string `json:"languages"`
	TLD        string `json:"tld"`
}

// FactsOf formats the detail fields of c.
func FactsOf(c Country) Facts {
	return Facts{
		Population: FormatPopulation(c.Population),
		Capital:    FormatList(c.Capitals),
		Region:     c.Region,
		Subregion:  c.Subregion,
		Currencies: FormatCurrencies(c.Currencies),
		Languages:  FormatLanguages(c.Languages),
		TLD:        FormatList(c.TLDs),
	}
}
