package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "single element",
			input:    []string{"secret1contract"},
			expected: []string{"secret1contract"},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  secret1a  ", "secret1b  ", "  secret1c"},
			expected: []string{"secret1a", "secret1b", "secret1c"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"secret1a", "secret1b", "secret1a", "secret1c", "secret1b"},
			expected: []string{"secret1a", "secret1b", "secret1c"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"secret1a", "", "  ", "secret1b"},
			expected: []string{"secret1a", "secret1b"},
		},
		{
			name:     "preserves case",
			input:    []string{"Foo", "foo", "FOO"},
			expected: []string{"Foo", "foo", "FOO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
