package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  IdentifierKind
	}{
		{"email", "alice@example.com", IdentifierEmail},
		{"email with plus", "alice+shop@example.com", IdentifierEmail},
		{"phone with plus", "+14155552671", IdentifierPhone},
		{"phone with separators", "+1 (415) 555-2671", IdentifierPhone},
		{"phone bare digits", "14155552671", IdentifierPhone},
		{"username", "alice.smith", IdentifierUsername},
		{"username with underscore", "alice_99", IdentifierUsername},
		{"too short for username", "ab", IdentifierUnknown},
		{"double separator", "alice..smith", IdentifierUnknown},
		{"trailing separator", "alice.", IdentifierUnknown},
		{"empty", "", IdentifierUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIdentifier(tt.input))
		})
	}
}

func TestClassifyIdentifier_EmailWinsOverUsername(t *testing.T) {
	// "a@b.co" would never be a username, but numeric strings could be read
	// as phone or username; phone takes precedence.
	assert.Equal(t, IdentifierPhone, ClassifyIdentifier("12345678"))
}

func TestUsernameBaseFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"bud@x.com", "bud"},
		{"Bud.Smith@x.com", "bud.smith"},
		{"a+tag@x.com", "atag"},
		{"..weird..@x.com", "weird"},
		{"trailing.@x.com", "trailing"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, UsernameBaseFromEmail(tt.email), "email %q", tt.email)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ng!pass", false},
		{"too short", "S1!a", true},
		{"no upper", "str0ng!pass", true},
		{"no lower", "STR0NG!PASS", true},
		{"no digit", "Strong!pass", true},
		{"no symbol", "Str0ngpass1", true},
		{"triple repeat", "Straaa0ng!", true},
		{"double repeat ok", "Straa0ng!x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword_MaxLength(t *testing.T) {
	long := make([]byte, 0, 130)
	for i := 0; len(long) < 130; i++ {
		long = append(long, "Ab1!"[i%4])
	}
	assert.Error(t, ValidatePassword(string(long)))
}
