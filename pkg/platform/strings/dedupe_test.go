package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeFold(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  France  ", "Spain  ", "  Italy"},
			expected: []string{"France", "Spain", "Italy"},
		},
		{
			name:     "first spelling wins",
			input:    []string{"Germany", "GERMANY", "germany"},
			expected: []string{"Germany"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"Chad", "", "  ", "Niger"},
			expected: []string{"Chad", "Niger"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeFold(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Germany", "Austria", "Georgia"}, SplitList("Germany, Austria,Georgia , germany,", ","))
	assert.Equal(t, []string{}, SplitList("   ", ","))
	assert.Equal(t, []string{"Peru"}, SplitList("Peru", ","))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" \t\n"))
	assert.False(t, IsBlank(" a "))
}
