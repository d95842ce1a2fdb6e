package domain

import (
	"time"
)

// OrganizationStatus tracks the tenant lifecycle.
type OrganizationStatus string

const (
	OrgPending  OrganizationStatus = "pending"
	OrgActive   OrganizationStatus = "active"
	OrgInactive OrganizationStatus = "inactive"
	OrgBanned   OrganizationStatus = "banned"
	OrgDeleted  OrganizationStatus = "deleted"
)

// Organization is a tenant under which catalog, orders, and members exist.
// The slug is globally unique and immutable once a live member references it.
type Organization struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	Status    OrganizationStatus `json:"status"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	DeletedAt *time.Time         `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the organization has been soft-deleted.
func (o *Organization) IsDeleted() bool {
	return o.DeletedAt != nil || o.Status == OrgDeleted
}

// Member joins a User to an Organization under an organization role.
// Exactly one member exists per (user, organization) pair.
type Member struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	RoleID         string    `json:"role_id"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// InvitationStatus tracks the invitation lifecycle; accept, reject, cancel,
// and expiry are all terminal.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
	InvitationCanceled InvitationStatus = "canceled"
)

// Invitation is a pending offer of membership in an organization.
type Invitation struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	InviterID      string           `json:"inviter_id"`
	Identifier     string           `json:"identifier"`
	RoleID         string           `json:"role_id"`
	Status         InvitationStatus `json:"status"`
	ExpiresAt      time.Time        `json:"expires_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Expired reports whether the invitation has passed its expiry.
func (i *Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
