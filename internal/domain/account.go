package domain

import (
	"time"
)

// ProviderCredential is the provider ID for password-based accounts.
const ProviderCredential = "credential"

// Account links a credential or federated identity to a User. A user may hold
// several accounts (account linking), but a (provider_id, provider_account_id)
// pair belongs to exactly one user system-wide.
type Account struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	ProviderID        string    `json:"provider_id"`
	ProviderAccountID string    `json:"provider_account_id"`
	PasswordHash      string    `json:"-"`
	Scopes            []string  `json:"scopes,omitempty"`
	AccessToken       string    `json:"-"`
	RefreshToken      string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsCredential reports whether this account carries a password hash.
func (a *Account) IsCredential() bool {
	return a.ProviderID == ProviderCredential
}
