package repository

import (
	"context"

	"github.com/sellora/identity/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByPhone retrieves a user by their phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// UsernameExists reports whether any user holds the given username.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// List returns a page of users plus the total count, newest first.
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)
}

// AccountRepository defines the interface for linked-account persistence.
type AccountRepository interface {
	// Create inserts a new account into the store.
	Create(ctx context.Context, account *domain.Account) error

	// GetByProvider retrieves an account by its provider-scoped identity.
	GetByProvider(ctx context.Context, providerID, providerAccountID string) (*domain.Account, error)

	// GetCredentialByUserID retrieves the password-bearing account for a user.
	GetCredentialByUserID(ctx context.Context, userID string) (*domain.Account, error)

	// ListByUserID returns all accounts linked to the given user.
	ListByUserID(ctx context.Context, userID string) ([]domain.Account, error)

	// Update modifies an existing account in the store.
	Update(ctx context.Context, account *domain.Account) error
}

// SessionRepository defines the interface for session persistence.
type SessionRepository interface {
	// Create inserts a new session into the store.
	Create(ctx context.Context, session *domain.Session) error

	// GetByToken retrieves a session by its opaque token.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Update modifies an existing session in the store.
	Update(ctx context.Context, session *domain.Session) error

	// DeleteByToken removes a session. Deleting an absent session is not an error.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByUserID removes all sessions for a user and returns the tokens
	// of the sessions that were removed, so caches can be purged.
	DeleteByUserID(ctx context.Context, userID string) ([]string, error)

	// ListByUserID returns all unexpired sessions for the given user.
	ListByUserID(ctx context.Context, userID string) ([]domain.Session, error)
}

// VerificationRepository defines the interface for one-time token persistence.
type VerificationRepository interface {
	// Create inserts a new verification row into the store.
	Create(ctx context.Context, verification *domain.Verification) error

	// Get retrieves a verification row by identifier, purpose, and value.
	Get(ctx context.Context, identifier string, purpose domain.VerificationPurpose, value string) (*domain.Verification, error)

	// Consume marks the row consumed. It returns false when the row was
	// already consumed; the check-and-set is atomic at the store level.
	Consume(ctx context.Context, id string) (bool, error)
}

// OrganizationRepository defines the interface for tenant persistence.
type OrganizationRepository interface {
	// CreateWithOwner inserts the organization, its seed roles, and the
	// creator's owner membership in one transaction.
	CreateWithOwner(ctx context.Context, org *domain.Organization, roles []domain.OrganizationRole, owner *domain.Member) error

	// GetByID retrieves an organization by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Organization, error)

	// GetBySlug retrieves an organization by its slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)

	// Update modifies an existing organization in the store.
	Update(ctx context.Context, org *domain.Organization) error
}

// MemberRepository defines the interface for membership persistence.
type MemberRepository interface {
	// Create inserts a new member into the store.
	Create(ctx context.Context, member *domain.Member) error

	// GetByID retrieves a member by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Member, error)

	// GetByOrgAndUser retrieves the member row for a (organization, user) pair.
	GetByOrgAndUser(ctx context.Context, orgID, userID string) (*domain.Member, error)

	// ListByOrg returns a page of members plus the total count.
	ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]domain.Member, int, error)

	// Update modifies an existing member in the store.
	Update(ctx context.Context, member *domain.Member) error

	// Delete removes a member from the store.
	Delete(ctx context.Context, id string) error

	// CountByRole returns the number of enabled members holding the given role.
	CountByRole(ctx context.Context, orgID, roleID string) (int, error)
}

// RoleRepository defines the interface for organization role persistence.
type RoleRepository interface {
	// Create inserts a new role into the store.
	Create(ctx context.Context, role *domain.OrganizationRole) error

	// GetByID retrieves a role by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.OrganizationRole, error)

	// GetByName retrieves a role by name within an organization.
	GetByName(ctx context.Context, orgID, name string) (*domain.OrganizationRole, error)

	// ListByOrg returns all roles of an organization ordered by position.
	ListByOrg(ctx context.Context, orgID string) ([]domain.OrganizationRole, error)

	// Update modifies an existing role in the store.
	Update(ctx context.Context, role *domain.OrganizationRole) error

	// Delete removes a role from the store.
	Delete(ctx context.Context, id string) error
}

// InvitationRepository defines the interface for invitation persistence.
type InvitationRepository interface {
	// Create inserts a new invitation into the store.
	Create(ctx context.Context, invitation *domain.Invitation) error

	// GetByID retrieves an invitation by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Invitation, error)

	// GetPending retrieves the unexpired pending invitation for an
	// (organization, identifier) pair, if one exists.
	GetPending(ctx context.Context, orgID, identifier string) (*domain.Invitation, error)

	// ListByOrg returns all invitations of an organization, newest first.
	ListByOrg(ctx context.Context, orgID string) ([]domain.Invitation, error)

	// Update modifies an existing invitation in the store.
	Update(ctx context.Context, invitation *domain.Invitation) error

	// Accept marks the invitation accepted and inserts the member row in one
	// transaction.
	Accept(ctx context.Context, invitation *domain.Invitation, member *domain.Member) error
}

// CachedSession pairs a session with its resolved user for the cache fast path.
type CachedSession struct {
	Session domain.Session `json:"session"`
	User    domain.User    `json:"user"`
}

// SessionCache is the short-lived cache in front of the session store.
// A miss returns (nil, nil); the persistent store stays the source of truth.
type SessionCache interface {
	Get(ctx context.Context, token string) (*CachedSession, error)
	Set(ctx context.Context, cached *CachedSession) error
	Delete(ctx context.Context, token string) error
}
