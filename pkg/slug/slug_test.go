package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"Acme Supply Co.", "acme-supply-co"},
		{"ALL UPPER CASE", "all-upper-case"},
		{"  padded  name  ", "padded-name"},
		{"already-a-slug", "already-a-slug"},
		{"Café  Brand!", "caf-brand"},
		{"100% Organic", "100-organic"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"acme-outfitters", true},
		{"abc", true},
		{"a1-b2-c3", true},
		{"ab", false},
		{"", false},
		{"UPPER", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"has space", false},
		{strings.Repeat("a", 63), true},
		{strings.Repeat("a", 64), false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.valid, Valid(tt.slug))
		})
	}
}

func TestGenerate_OutputIsValidWhenLongEnough(t *testing.T) {
	for _, name := range []string{"Acme Outfitters", "The 2nd Store", "big-box"} {
		s := Generate(name)
		assert.True(t, Valid(s), "Generate(%q) = %q should be valid", name, s)
	}
}
