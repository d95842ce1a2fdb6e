package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// IdentifierKind classifies a sign-in identifier.
type IdentifierKind string

const (
	IdentifierEmail    IdentifierKind = "email"
	IdentifierPhone    IdentifierKind = "phone"
	IdentifierUsername IdentifierKind = "username"
	IdentifierUnknown  IdentifierKind = "unknown"
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{8,20}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+([._-][a-zA-Z0-9]+)*$`)
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// ClassifyIdentifier classifies a sign-in identifier with precedence
// email > phone > username.
func ClassifyIdentifier(s string) IdentifierKind {
	s = strings.TrimSpace(s)
	switch {
	case ValidEmail(s):
		return IdentifierEmail
	case ValidPhone(s):
		return IdentifierPhone
	case ValidUsername(s):
		return IdentifierUsername
	default:
		return IdentifierUnknown
	}
}

// ValidEmail reports whether s looks like local@domain.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s is an optionally plus-prefixed digit string of
// 8-20 digits after stripping common separators.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(NormalizePhone(s))
}

// NormalizePhone strips spaces, dots, hyphens, and parentheses.
func NormalizePhone(s string) string {
	return phoneSeparators.Replace(strings.TrimSpace(s))
}

// ValidUsername reports whether s is 5-30 characters of alphanumerics with
// single '.', '_', or '-' separators, no leading/trailing separator.
func ValidUsername(s string) bool {
	if len(s) < 5 || len(s) > 30 {
		return false
	}
	return usernamePattern.MatchString(s)
}

// UsernameBaseFromEmail derives a username candidate from the email
// local-part, dropping characters the username policy forbids. The result may
// still be too short or collide; the caller appends a numeric suffix then.
func UsernameBaseFromEmail(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	local = strings.ToLower(local)

	var b strings.Builder
	lastSep := true // trims leading separators
	for _, r := range local {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastSep = false
		case r == '.' || r == '_' || r == '-':
			if !lastSep {
				b.WriteRune(r)
				lastSep = true
			}
		}
	}
	return strings.TrimRight(b.String(), "._-")
}

// passwordSymbols is the fixed allowed symbol set for passwords.
const passwordSymbols = "!@#$%^&*()-_=+[]{};:,.<>?/|~"

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// ValidatePassword enforces the password policy: 8-128 characters containing
// upper, lower, digit, and a symbol from the fixed set, with no character
// repeated three or more times consecutively.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	var prev rune
	repeat := 1
	for _, ch := range password {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, ch):
			hasSymbol = true
		}

		if ch == prev {
			repeat++
			if repeat >= 3 {
				return fmt.Errorf("password must not repeat the same character three times in a row")
			}
		} else {
			repeat = 1
			prev = ch
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return fmt.Errorf("password must contain an uppercase letter, a lowercase letter, a digit, and a symbol")
	}

	return nil
}
