package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/repository"
	apperrors "github.com/sellora/identity/pkg/errors"
	"github.com/sellora/identity/pkg/slug"
)

// OrganizationConfig holds the organization policy knobs.
type OrganizationConfig struct {
	// InvitationTTL bounds how long an invitation stays acceptable.
	InvitationTTL time.Duration
}

// OrganizationService implements tenant, membership, invitation, and role
// management.
type OrganizationService struct {
	orgRepo        repository.OrganizationRepository
	memberRepo     repository.MemberRepository
	roleRepo       repository.RoleRepository
	invitationRepo repository.InvitationRepository
	userRepo       repository.UserRepository
	authz          *AuthzService
	mailer         Mailer
	events         EventPublisher
	cfg            OrganizationConfig
	logger         *slog.Logger
}

// NewOrganizationService creates a new organization service.
func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	memberRepo repository.MemberRepository,
	roleRepo repository.RoleRepository,
	invitationRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	authz *AuthzService,
	mailer Mailer,
	events EventPublisher,
	cfg OrganizationConfig,
	logger *slog.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:        orgRepo,
		memberRepo:     memberRepo,
		roleRepo:       roleRepo,
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		authz:          authz,
		mailer:         mailer,
		events:         events,
		cfg:            cfg,
		logger:         logger,
	}
}

// --- Input types ---

// CreateOrganizationInput holds the parameters for creating an organization.
type CreateOrganizationInput struct {
	Name string
	Slug string
}

// UpdateOrganizationInput holds the parameters for updating an organization.
// Nil fields are left untouched. The slug is absent on purpose: it is fixed
// at creation because live members and external references key off it.
type UpdateOrganizationInput struct {
	Name     *string
	Metadata map[string]string
}

// InviteInput holds the parameters for inviting a member.
type InviteInput struct {
	Identifier string
	RoleID     string
}

// CreateRoleInput holds the parameters for creating a custom role.
type CreateRoleInput struct {
	Name        string
	Permissions domain.PermissionDocument
	Position    int
}

// UpdateRoleInput holds the parameters for updating a custom role.
type UpdateRoleInput struct {
	Name        *string
	Permissions *domain.PermissionDocument
	Position    *int
}

// --- Organization lifecycle ---

// CreateOrganization creates the tenant, seeds the built-in roles, and makes
// the creator its owner — all in one transaction.
func (s *OrganizationService) CreateOrganization(ctx context.Context, creator *domain.User, input CreateOrganizationInput) (*domain.Organization, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("organization name is required")
	}
	if input.Slug == "" {
		input.Slug = slug.Generate(input.Name)
	}
	if !slug.Valid(input.Slug) {
		return nil, apperrors.InvalidInput("slug must be 3-63 lowercase alphanumerics with single hyphens")
	}

	now := time.Now().UTC()
	org := &domain.Organization{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Slug:      input.Slug,
		Status:    domain.OrgActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	roles := []domain.OrganizationRole{
		{ID: uuid.New().String(), OrganizationID: org.ID, Name: domain.OrgRoleOwner, Permissions: domain.DefaultOwnerPermissions(), IsSystem: true, Position: 0, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), OrganizationID: org.ID, Name: domain.OrgRoleAdmin, Permissions: domain.DefaultAdminPermissions(), IsSystem: true, Position: 1, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), OrganizationID: org.ID, Name: domain.OrgRoleMember, Permissions: domain.DefaultMemberPermissions(), IsSystem: true, Position: 2, CreatedAt: now, UpdatedAt: now},
	}

	owner := &domain.Member{
		ID:             uuid.New().String(),
		OrganizationID: org.ID,
		UserID:         creator.ID,
		RoleID:         roles[0].ID,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.orgRepo.CreateWithOwner(ctx, org, roles, owner); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	if err := s.events.PublishMemberJoined(ctx, owner); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish member.joined event",
			slog.String("organization_id", org.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "organization created",
		slog.String("organization_id", org.ID),
		slog.String("slug", org.Slug),
		slog.String("owner_user_id", creator.ID),
	)

	return org, nil
}

// GetOrganization returns the organization when the actor belongs to it.
func (s *OrganizationService) GetOrganization(ctx context.Context, actor *domain.User, orgID string) (*domain.Organization, error) {
	org, err := s.loadLiveOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleSuperAdmin {
		if _, err := s.memberRepo.GetByOrgAndUser(ctx, orgID, actor.ID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.Forbidden("you are not a member of this organization")
			}
			return nil, fmt.Errorf("resolve membership: %w", err)
		}
	}

	return org, nil
}

// UpdateOrganization applies a partial update to the tenant settings.
func (s *OrganizationService) UpdateOrganization(ctx context.Context, actor *domain.User, orgID string, input UpdateOrganizationInput) (*domain.Organization, error) {
	org, err := s.loadLiveOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilitySettings, domain.ActionUpdate); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("organization name cannot be empty")
		}
		org.Name = *input.Name
	}
	if input.Metadata != nil {
		org.Metadata = input.Metadata
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization soft-deletes the tenant. Only an owner (or a super
// admin) may do this.
func (s *OrganizationService) DeleteOrganization(ctx context.Context, actor *domain.User, orgID string) error {
	org, err := s.loadLiveOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	if err := s.requireOwner(ctx, actor, orgID); err != nil {
		return err
	}

	now := time.Now().UTC()
	org.Status = domain.OrgDeleted
	org.DeletedAt = &now

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}

	s.logger.InfoContext(ctx, "organization deleted",
		slog.String("organization_id", orgID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

// --- Invitations ---

// Invite creates a pending invitation and mails it. The identifier must not
// already be a member, and at most one unexpired pending invitation may exist
// per (organization, identifier) pair.
func (s *OrganizationService) Invite(ctx context.Context, inviter *domain.User, orgID string, input InviteInput) (*domain.Invitation, error) {
	if !domain.ValidEmail(input.Identifier) {
		return nil, apperrors.InvalidInput("invitation identifier must be a valid email")
	}

	org, err := s.loadLiveOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.Require(ctx, inviter, orgID, domain.CapabilityMembers, domain.ActionInvite); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByID(ctx, input.RoleID)
	if err != nil || role.OrganizationID != orgID {
		return nil, apperrors.InvalidInput("role does not exist in this organization")
	}

	if invitee, err := s.userRepo.GetByEmail(ctx, input.Identifier); err == nil {
		if _, err := s.memberRepo.GetByOrgAndUser(ctx, orgID, invitee.ID); err == nil {
			return nil, apperrors.AlreadyExists("member", "email", input.Identifier)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("check existing membership: %w", err)
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check invitee: %w", err)
	}

	if _, err := s.invitationRepo.GetPending(ctx, orgID, input.Identifier); err == nil {
		return nil, apperrors.AlreadyExists("invitation", "email", input.Identifier)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check pending invitation: %w", err)
	}

	now := time.Now().UTC()
	invitation := &domain.Invitation{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		InviterID:      inviter.ID,
		Identifier:     input.Identifier,
		RoleID:         input.RoleID,
		Status:         domain.InvitationPending,
		ExpiresAt:      now.Add(s.cfg.InvitationTTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	if err := s.mailer.SendInvitationEmail(ctx, input.Identifier, org.Name, invitation.ID); err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("send invitation email: %w", err))
	}

	s.logger.InfoContext(ctx, "invitation created",
		slog.String("organization_id", orgID),
		slog.String("invitation_id", invitation.ID),
		slog.String("inviter_id", inviter.ID),
	)

	return invitation, nil
}

// AcceptInvitation turns a pending invitation into a membership. The
// invitation and the member row land in one transaction.
func (s *OrganizationService) AcceptInvitation(ctx context.Context, user *domain.User, invitationID string) (*domain.Member, error) {
	invitation, err := s.loadOwnInvitation(ctx, user, invitationID)
	if err != nil {
		return nil, err
	}

	if invitation.Status != domain.InvitationPending {
		return nil, apperrors.InvalidInput("invitation is no longer pending")
	}
	if invitation.Expired(time.Now().UTC()) {
		return nil, apperrors.InvalidInput("invitation has expired")
	}

	now := time.Now().UTC()
	member := &domain.Member{
		ID:             uuid.New().String(),
		OrganizationID: invitation.OrganizationID,
		UserID:         user.ID,
		RoleID:         invitation.RoleID,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.invitationRepo.Accept(ctx, invitation, member); err != nil {
		return nil, fmt.Errorf("accept invitation: %w", err)
	}

	if err := s.events.PublishMemberJoined(ctx, member); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish member.joined event",
			slog.String("organization_id", member.OrganizationID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "invitation accepted",
		slog.String("organization_id", member.OrganizationID),
		slog.String("user_id", user.ID),
	)

	return member, nil
}

// RejectInvitation marks a pending invitation rejected.
func (s *OrganizationService) RejectInvitation(ctx context.Context, user *domain.User, invitationID string) error {
	invitation, err := s.loadOwnInvitation(ctx, user, invitationID)
	if err != nil {
		return err
	}

	if invitation.Status != domain.InvitationPending {
		return apperrors.InvalidInput("invitation is no longer pending")
	}

	invitation.Status = domain.InvitationRejected
	if err := s.invitationRepo.Update(ctx, invitation); err != nil {
		return fmt.Errorf("reject invitation: %w", err)
	}

	return nil
}

// CancelInvitation withdraws a pending invitation from the organization side.
func (s *OrganizationService) CancelInvitation(ctx context.Context, actor *domain.User, invitationID string) error {
	invitation, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return fmt.Errorf("load invitation: %w", err)
	}

	if err := s.authz.Require(ctx, actor, invitation.OrganizationID, domain.CapabilityInvitations, domain.ActionDelete); err != nil {
		return err
	}

	if invitation.Status != domain.InvitationPending {
		return apperrors.InvalidInput("invitation is no longer pending")
	}

	invitation.Status = domain.InvitationCanceled
	if err := s.invitationRepo.Update(ctx, invitation); err != nil {
		return fmt.Errorf("cancel invitation: %w", err)
	}

	return nil
}

// ListInvitations returns all invitations of the organization.
func (s *OrganizationService) ListInvitations(ctx context.Context, actor *domain.User, orgID string) ([]domain.Invitation, error) {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityInvitations, domain.ActionRead); err != nil {
		return nil, err
	}
	return s.invitationRepo.ListByOrg(ctx, orgID)
}

// --- Members ---

// ListMembers returns a page of the organization's members.
func (s *OrganizationService) ListMembers(ctx context.Context, actor *domain.User, orgID string, limit, offset int) ([]domain.Member, int, error) {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityMembers, domain.ActionRead); err != nil {
		return nil, 0, err
	}
	return s.memberRepo.ListByOrg(ctx, orgID, limit, offset)
}

// RemoveMember removes a member from the organization. An owner can only be
// removed by another owner, and the last owner can never be removed — an
// organization must not be lockable-out of its own administration.
func (s *OrganizationService) RemoveMember(ctx context.Context, actor *domain.User, orgID, memberID string) error {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityMembers, domain.ActionRemove); err != nil {
		return err
	}

	member, err := s.loadOrgMember(ctx, orgID, memberID)
	if err != nil {
		return err
	}

	role, err := s.roleRepo.GetByID(ctx, member.RoleID)
	if err != nil {
		return fmt.Errorf("load member role: %w", err)
	}

	if role.Name == domain.OrgRoleOwner {
		if err := s.requireOwner(ctx, actor, orgID); err != nil {
			return err
		}
		if err := s.guardLastOwner(ctx, orgID, role.ID); err != nil {
			return err
		}
	}

	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	s.logger.InfoContext(ctx, "member removed",
		slog.String("organization_id", orgID),
		slog.String("member_id", memberID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

// UpdateMemberRole reassigns a member to a different role. Demoting the last
// owner is rejected for the same reason removing them is.
func (s *OrganizationService) UpdateMemberRole(ctx context.Context, actor *domain.User, orgID, memberID, newRoleID string) (*domain.Member, error) {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityMembers, domain.ActionUpdate); err != nil {
		return nil, err
	}

	member, err := s.loadOrgMember(ctx, orgID, memberID)
	if err != nil {
		return nil, err
	}

	newRole, err := s.roleRepo.GetByID(ctx, newRoleID)
	if err != nil || newRole.OrganizationID != orgID {
		return nil, apperrors.InvalidInput("role does not exist in this organization")
	}

	currentRole, err := s.roleRepo.GetByID(ctx, member.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load member role: %w", err)
	}

	if currentRole.Name == domain.OrgRoleOwner && newRole.ID != currentRole.ID {
		if err := s.requireOwner(ctx, actor, orgID); err != nil {
			return nil, err
		}
		if err := s.guardLastOwner(ctx, orgID, currentRole.ID); err != nil {
			return nil, err
		}
	}

	member.RoleID = newRole.ID
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update member role: %w", err)
	}

	return member, nil
}

// SetMemberEnabled toggles a member's enabled flag. A disabled member fails
// every authorization check regardless of their role document. Disabling the
// last enabled owner is rejected.
func (s *OrganizationService) SetMemberEnabled(ctx context.Context, actor *domain.User, orgID, memberID string, enabled bool) (*domain.Member, error) {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityMembers, domain.ActionUpdate); err != nil {
		return nil, err
	}

	member, err := s.loadOrgMember(ctx, orgID, memberID)
	if err != nil {
		return nil, err
	}

	if !enabled && member.Enabled {
		role, err := s.roleRepo.GetByID(ctx, member.RoleID)
		if err != nil {
			return nil, fmt.Errorf("load member role: %w", err)
		}
		if role.Name == domain.OrgRoleOwner {
			if err := s.guardLastOwner(ctx, orgID, role.ID); err != nil {
				return nil, err
			}
		}
	}

	member.Enabled = enabled
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}

	return member, nil
}

// LeaveOrganization removes the actor's own membership. The last owner cannot
// leave; they must transfer ownership or delete the organization.
func (s *OrganizationService) LeaveOrganization(ctx context.Context, user *domain.User, orgID string) error {
	member, err := s.memberRepo.GetByOrgAndUser(ctx, orgID, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInput("you are not a member of this organization")
		}
		return fmt.Errorf("resolve membership: %w", err)
	}

	role, err := s.roleRepo.GetByID(ctx, member.RoleID)
	if err != nil {
		return fmt.Errorf("load member role: %w", err)
	}
	if role.Name == domain.OrgRoleOwner {
		if err := s.guardLastOwner(ctx, orgID, role.ID); err != nil {
			return err
		}
	}

	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		return fmt.Errorf("leave organization: %w", err)
	}

	s.logger.InfoContext(ctx, "member left organization",
		slog.String("organization_id", orgID),
		slog.String("user_id", user.ID),
	)

	return nil
}

// --- Roles ---

// ListRoles returns the organization's roles ordered by position.
func (s *OrganizationService) ListRoles(ctx context.Context, actor *domain.User, orgID string) ([]domain.OrganizationRole, error) {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityMembers, domain.ActionRead); err != nil {
		return nil, err
	}
	return s.roleRepo.ListByOrg(ctx, orgID)
}

// CreateRole adds a custom role. The permission document is validated at
// write time; malformed documents never reach the store.
func (s *OrganizationService) CreateRole(ctx context.Context, actor *domain.User, orgID string, input CreateRoleInput) (*domain.OrganizationRole, error) {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityRoles, domain.ActionCreate); err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, apperrors.InvalidInput("role name is required")
	}
	if err := input.Permissions.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	now := time.Now().UTC()
	role := &domain.OrganizationRole{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           input.Name,
		Permissions:    input.Permissions,
		Position:       input.Position,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	return role, nil
}

// UpdateRole modifies a custom role. Built-in roles are immutable.
func (s *OrganizationService) UpdateRole(ctx context.Context, actor *domain.User, orgID, roleID string, input UpdateRoleInput) (*domain.OrganizationRole, error) {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityRoles, domain.ActionUpdate); err != nil {
		return nil, err
	}

	role, err := s.loadOrgRole(ctx, orgID, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, apperrors.InvalidInput("built-in roles cannot be modified")
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("role name cannot be empty")
		}
		role.Name = *input.Name
	}
	if input.Permissions != nil {
		if err := input.Permissions.Validate(); err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		role.Permissions = *input.Permissions
	}
	if input.Position != nil {
		role.Position = *input.Position
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	return role, nil
}

// DeleteRole removes a custom role. Built-in roles and roles still held by
// members cannot be deleted.
func (s *OrganizationService) DeleteRole(ctx context.Context, actor *domain.User, orgID, roleID string) error {
	if err := s.authz.Require(ctx, actor, orgID, domain.CapabilityRoles, domain.ActionDelete); err != nil {
		return err
	}

	role, err := s.loadOrgRole(ctx, orgID, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperrors.InvalidInput("built-in roles cannot be deleted")
	}

	holders, err := s.memberRepo.CountByRole(ctx, orgID, roleID)
	if err != nil {
		return fmt.Errorf("count role holders: %w", err)
	}
	if holders > 0 {
		return apperrors.InvalidInput("role is still assigned to members")
	}

	if err := s.roleRepo.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	return nil
}

// --- Helpers ---

func (s *OrganizationService) loadLiveOrganization(ctx context.Context, orgID string) (*domain.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if org.IsDeleted() {
		return nil, apperrors.NotFound("organization", orgID)
	}
	return org, nil
}

func (s *OrganizationService) loadOrgMember(ctx context.Context, orgID, memberID string) (*domain.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if member.OrganizationID != orgID {
		return nil, apperrors.NotFound("member", memberID)
	}
	return member, nil
}

func (s *OrganizationService) loadOrgRole(ctx context.Context, orgID, roleID string) (*domain.OrganizationRole, error) {
	role, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	if role.OrganizationID != orgID {
		return nil, apperrors.NotFound("role", roleID)
	}
	return role, nil
}

// loadOwnInvitation loads an invitation addressed to the user.
func (s *OrganizationService) loadOwnInvitation(ctx context.Context, user *domain.User, invitationID string) (*domain.Invitation, error) {
	invitation, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("load invitation: %w", err)
	}
	if invitation.Identifier != user.Email {
		return nil, apperrors.Forbidden("this invitation is addressed to someone else")
	}
	return invitation, nil
}

// requireOwner rejects actors who do not hold the owner role in the
// organization. Super admins pass.
func (s *OrganizationService) requireOwner(ctx context.Context, actor *domain.User, orgID string) error {
	if actor.Role == domain.RoleSuperAdmin {
		return nil
	}

	member, err := s.memberRepo.GetByOrgAndUser(ctx, orgID, actor.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Forbidden("this action requires the owner role")
		}
		return fmt.Errorf("resolve membership: %w", err)
	}

	role, err := s.roleRepo.GetByID(ctx, member.RoleID)
	if err != nil {
		return fmt.Errorf("load actor role: %w", err)
	}
	if !member.Enabled || role.Name != domain.OrgRoleOwner {
		return apperrors.Forbidden("this action requires the owner role")
	}

	return nil
}

// guardLastOwner rejects operations that would leave the organization without
// an enabled owner.
func (s *OrganizationService) guardLastOwner(ctx context.Context, orgID, ownerRoleID string) error {
	owners, err := s.memberRepo.CountByRole(ctx, orgID, ownerRoleID)
	if err != nil {
		return fmt.Errorf("count owners: %w", err)
	}
	if owners <= 1 {
		return apperrors.InvalidInput("an organization must keep at least one owner")
	}
	return nil
}
