package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name. Runes outside
// [a-z0-9] become separators, so diacritics are dropped rather than
// transliterated.
//
// Examples:
//   - "Acme Supply Co." → "acme-supply-co"
//   - "Café  Brand!" → "caf-brand"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Valid reports whether s is a well-formed slug: lowercase alphanumeric
// segments separated by single hyphens, 3-63 characters.
func Valid(s string) bool {
	if len(s) < 3 || len(s) > 63 {
		return false
	}
	return slugPattern.MatchString(s)
}
