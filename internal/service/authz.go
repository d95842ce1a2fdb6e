package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/repository"
	apperrors "github.com/sellora/identity/pkg/errors"
)

// AuthzService answers authorization queries by combining the system-role
// plane with the organization-role plane.
type AuthzService struct {
	memberRepo repository.MemberRepository
	roleRepo   repository.RoleRepository
	logger     *slog.Logger
}

// NewAuthzService creates a new authorization service.
func NewAuthzService(
	memberRepo repository.MemberRepository,
	roleRepo repository.RoleRepository,
	logger *slog.Logger,
) *AuthzService {
	return &AuthzService{
		memberRepo: memberRepo,
		roleRepo:   roleRepo,
		logger:     logger,
	}
}

// Authorize decides whether the actor may perform action on capability within
// the organization. The checks run in a fixed order: super_admin bypass, then
// membership existence, then the enabled flag, then the role's permission
// document. The order is load-bearing; a disabled member must be rejected
// before their document is ever consulted.
func (s *AuthzService) Authorize(ctx context.Context, actor *domain.User, orgID, capability, action string) (bool, error) {
	if actor.Role == domain.RoleSuperAdmin {
		return true, nil
	}

	member, err := s.memberRepo.GetByOrgAndUser(ctx, orgID, actor.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve membership: %w", err)
	}

	if !member.Enabled {
		return false, nil
	}

	role, err := s.roleRepo.GetByID(ctx, member.RoleID)
	if err != nil {
		return false, fmt.Errorf("resolve member role: %w", err)
	}

	return role.Permissions.Allows(capability, action), nil
}

// Require is Authorize with a forbidden error instead of a boolean, for use
// at operation boundaries.
func (s *AuthzService) Require(ctx context.Context, actor *domain.User, orgID, capability, action string) error {
	allowed, err := s.Authorize(ctx, actor, orgID, capability, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.InfoContext(ctx, "authorization denied",
			slog.String("actor_id", actor.ID),
			slog.String("organization_id", orgID),
			slog.String("capability", capability),
			slog.String("action", action),
		)
		return apperrors.Forbidden("you do not have permission to perform this action")
	}
	return nil
}

// RequireSystemRole rejects actors below the given system role.
func (s *AuthzService) RequireSystemRole(actor *domain.User, min domain.SystemRole) error {
	if !actor.Role.AtLeast(min) {
		return apperrors.Forbidden("this action requires elevated privileges")
	}
	return nil
}
