package domain

import (
	"time"
)

// Built-in organization role names seeded for every organization.
const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

// OrganizationRole is a role definition scoped to one organization. System
// roles (owner, admin, member) are seeded at organization creation and
// protected from deletion; custom roles may be added alongside them.
type OrganizationRole struct {
	ID             string             `json:"id"`
	OrganizationID string             `json:"organization_id"`
	Name           string             `json:"name"`
	Permissions    PermissionDocument `json:"permissions"`
	IsSystem       bool               `json:"is_system"`
	Position       int                `json:"position"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// DefaultOwnerPermissions is the all-capability wildcard granted to owners.
func DefaultOwnerPermissions() PermissionDocument {
	return AllCapabilities()
}

// DefaultAdminPermissions grants broad access but withholds role management
// and organization settings deletion.
func DefaultAdminPermissions() PermissionDocument {
	return PermissionDocument{
		Capabilities: map[string]CapabilityGrant{
			CapabilityOrders:      {All: true},
			CapabilityProducts:    {All: true},
			CapabilityMembers:     {Actions: []string{ActionRead, ActionInvite, ActionRemove}},
			CapabilityInvitations: {All: true},
			CapabilitySettings:    {Actions: []string{ActionRead, ActionUpdate}},
		},
	}
}

// DefaultMemberPermissions grants narrow read/create access.
func DefaultMemberPermissions() PermissionDocument {
	return PermissionDocument{
		Capabilities: map[string]CapabilityGrant{
			CapabilityOrders:   {Actions: []string{ActionRead, ActionCreate}},
			CapabilityProducts: {Actions: []string{ActionRead}},
			CapabilityMembers:  {Actions: []string{ActionRead}},
		},
	}
}
