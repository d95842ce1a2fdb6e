package domain

import (
	"time"
)

// SystemRole is a global role independent of any organization. Roles form a
// total order: user < member < admin < owner < super_admin.
type SystemRole string

const (
	RoleUser       SystemRole = "user"
	RoleMember     SystemRole = "member"
	RoleAdmin      SystemRole = "admin"
	RoleOwner      SystemRole = "owner"
	RoleSuperAdmin SystemRole = "super_admin"
)

var systemRoleLevels = map[SystemRole]int{
	RoleUser:       0,
	RoleMember:     1,
	RoleAdmin:      2,
	RoleOwner:      3,
	RoleSuperAdmin: 4,
}

// Valid reports whether the role is a known system role.
func (r SystemRole) Valid() bool {
	_, ok := systemRoleLevels[r]
	return ok
}

// AtLeast reports whether the role ranks at or above min in the total order.
func (r SystemRole) AtLeast(min SystemRole) bool {
	return systemRoleLevels[r] >= systemRoleLevels[min]
}

// UserStatus tracks the lifecycle of a user record. Users are never
// hard-deleted while sessions may reference them.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserDeleted UserStatus = "deleted"
)

// User represents one natural person's identity.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	Phone         string     `json:"phone,omitempty"`
	Name          string     `json:"name"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	Role          SystemRole `json:"role"`
	Status        UserStatus `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	Banned        bool       `json:"banned"`
	BanReason     string     `json:"ban_reason,omitempty"`
	BanExpiresAt  *time.Time `json:"ban_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsBanned reports whether the ban is in effect at the given instant.
// A ban without an expiry is permanent.
func (u *User) IsBanned(now time.Time) bool {
	if !u.Banned {
		return false
	}
	if u.BanExpiresAt == nil {
		return true
	}
	return now.Before(*u.BanExpiresAt)
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.Status == UserDeleted
}
