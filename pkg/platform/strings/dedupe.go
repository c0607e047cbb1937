// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// SplitList splits s on sep and cleans the parts with DedupeFold.
//
// Example:
//
//	SplitList("Germany, germany ,Austria,", ",")
//	// Returns: []string{"Germany", "Austria"}
func SplitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return DedupeFold(strings.Split(s, sep))
}

// DedupeFold trims each element, drops empties and removes case-insensitive
// duplicates. The first spelling wins and order is preserved.
func DedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
