package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "DisplayName", "DisplayName"},
		{"suffix", "DisplayNameAttribute", "DisplayName"},
		{"qualified", "System.ComponentModel.DisplayName", "DisplayName"},
		{"qualified with suffix", "System.ComponentModel.DisplayNameAttribute", "DisplayName"},
		{"global alias", "global::System.ComponentModel.DisplayNameAttribute", "DisplayName"},
		{"alias only", "SD::Column", "Column"},
		{"bare suffix kept", "Attribute", "Attribute"},
		{"verbatim identifier", "@Column", "Column"},
		{"surrounding space", "  Column ", "Column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestSame(t *testing.T) {
	assert.True(t, Same("DisplayName", "System.ComponentModel.DisplayNameAttribute"))
	assert.False(t, Same("DisplayName", "displayname"), "comparison is case-sensitive")
	assert.False(t, Same("Display", "DisplayName"))
}
