package internal

import (
	"regexp"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id := GenerateRunID("+380501234567")

	if !regexp.MustCompile(`^\d+_[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("GenerateRunID() = %q, want epochMillis_hash format", id)
	}

	other := GenerateRunID("+380501234568")
	if id[len(id)-8:] == other[len(other)-8:] {
		t.Errorf("Different phones should produce different hash suffixes")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+380501234567", "+380501234567"},
		{"CA1234abcd", "CA1234abcd"},
		{"a/b c", "a_b_c"},
		{"../etc", "___etc"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
