package domain

import (
	"time"
)

// Session is a live authentication session bound to one user. The token is an
// opaque bearer credential; expiry slides forward on renewal.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Token          string    `json:"-"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastRenewedAt  time.Time `json:"last_renewed_at"`
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	ImpersonatedBy string    `json:"impersonated_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Expired reports whether the session has passed its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsImpersonated reports whether an admin minted this session on behalf of the user.
func (s *Session) IsImpersonated() bool {
	return s.ImpersonatedBy != ""
}
