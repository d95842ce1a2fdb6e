package domain

import (
	"time"
)

// VerificationPurpose scopes a one-time token to a single flow so a token
// issued for one flow can never be replayed against another.
type VerificationPurpose string

const (
	PurposeEmailVerification VerificationPurpose = "email_verification"
	PurposePasswordReset     VerificationPurpose = "password_reset"
	PurposeEmailChange       VerificationPurpose = "email_change"
)

// Verification is a single-use, time-bounded opaque token owned by an
// identifier (email or phone). The value itself is the secret; it is stored
// server-side only and never logged.
type Verification struct {
	ID         string              `json:"id"`
	Identifier string              `json:"identifier"`
	Purpose    VerificationPurpose `json:"purpose"`
	Value      string              `json:"-"`
	ExpiresAt  time.Time           `json:"expires_at"`
	Consumed   bool                `json:"consumed"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Expired reports whether the token has passed its expiry at the given instant.
func (v *Verification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
