package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/password"
	"github.com/sellora/identity/internal/repository"
	"github.com/sellora/identity/internal/token"
	apperrors "github.com/sellora/identity/pkg/errors"
)

// Rate limiter scopes for credential-sensitive operations.
const (
	scopeSignIn        = "signin"
	scopeSignInIP      = "signin_ip"
	scopePasswordReset = "password_reset"
	scopeVerify        = "verify"
	scopeEmailChange   = "email_change"
)

// usernameSuffixAttempts bounds the collision retry loop when deriving a
// username from an email local-part.
const usernameSuffixAttempts = 5

// Mailer sends transactional mail. The production implementation hands the
// request to the notification service over Kafka; the token value travels in
// the payload, never through logs.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, recipient, tokenValue string) error
	SendPasswordResetEmail(ctx context.Context, recipient, tokenValue string) error
	SendEmailChangeEmail(ctx context.Context, recipient, tokenValue string) error
	SendInvitationEmail(ctx context.Context, recipient, orgName, invitationID string) error
}

// EventPublisher publishes identity domain events. Publish failures never fail
// the triggering operation; they are logged and dropped.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserBanned(ctx context.Context, user *domain.User) error
	PublishMemberJoined(ctx context.Context, member *domain.Member) error
}

// RateLimiter throttles repeated attempts per scoped key.
type RateLimiter interface {
	Check(ctx context.Context, scope, key string) error
	Hit(ctx context.Context, scope, key string) error
	Reset(ctx context.Context, scope, key string) error
}

// AccountConfig holds the account policy knobs.
type AccountConfig struct {
	// VerificationTTL bounds email-verification and password-reset tokens.
	VerificationTTL time.Duration
	// TrustedProviders is the allow-list for account linking.
	TrustedProviders []string
}

// AccountService implements sign-up, sign-in, credential management, account
// linking, and administrative user management.
type AccountService struct {
	userRepo    repository.UserRepository
	accountRepo repository.AccountRepository
	sessions    *SessionService
	issuer      *token.Issuer
	limiter     RateLimiter
	mailer      Mailer
	events      EventPublisher
	cfg         AccountConfig
	logger      *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	sessions *SessionService,
	issuer *token.Issuer,
	limiter RateLimiter,
	mailer Mailer,
	events EventPublisher,
	cfg AccountConfig,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		sessions:    sessions,
		issuer:      issuer,
		limiter:     limiter,
		mailer:      mailer,
		events:      events,
		cfg:         cfg,
		logger:      logger,
	}
}

// --- Input types ---

// SignUpInput holds the parameters for registering a new user.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Request  RequestContext
}

// SignInInput holds the parameters for signing in. The identifier may be an
// email, a phone number, or a username.
type SignInInput struct {
	Identifier string
	Password   string
	Request    RequestContext
}

// LinkAccountInput holds the parameters for linking a federated identity.
type LinkAccountInput struct {
	ProviderID        string
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	Scopes            []string
}

// UpdateProfileInput holds the parameters for updating a user's profile.
// Nil fields are left untouched.
type UpdateProfileInput struct {
	Name      *string
	AvatarURL *string
	Phone     *string
	Username  *string
}

// BanInput holds the parameters for banning a user.
type BanInput struct {
	Reason    string
	ExpiresAt *time.Time
}

// --- Operations ---

// SignUp registers a new user with a credential account and signs them in.
// The username is derived from the email local-part, with a numeric suffix on
// collision. A verification token is mailed; until it is redeemed the account
// stays unverified.
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (*domain.User, *domain.Session, error) {
	if input.Name == "" {
		return nil, nil, apperrors.InvalidInput("name is required")
	}
	if !domain.ValidEmail(input.Email) {
		return nil, nil, apperrors.InvalidInput("a valid email is required")
	}
	if input.Phone != "" {
		if !domain.ValidPhone(input.Phone) {
			return nil, nil, apperrors.InvalidInput("phone number format is invalid")
		}
		input.Phone = domain.NormalizePhone(input.Phone)
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, nil, apperrors.InvalidInput(err.Error())
	}

	username, err := s.deriveUsername(ctx, input.Email)
	if err != nil {
		return nil, nil, err
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     input.Email,
		Username:  username,
		Phone:     input.Phone,
		Name:      input.Name,
		Role:      domain.RoleUser,
		Status:    domain.UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	account := &domain.Account{
		ID:                uuid.New().String(),
		UserID:            user.ID,
		ProviderID:        domain.ProviderCredential,
		ProviderAccountID: user.ID,
		PasswordHash:      hash,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, nil, fmt.Errorf("create credential account: %w", err)
	}

	s.sendVerification(ctx, user.Email)

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	session, err := s.sessions.Create(ctx, user, input.Request)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, session, nil
}

// SignIn authenticates by identifier and password. Every failure path that
// involves the credentials uses the same generic message so the response never
// reveals whether the identifier exists. The attempt budget is spent before
// any credential work happens.
func (s *AccountService) SignIn(ctx context.Context, input SignInInput) (*domain.User, *domain.Session, error) {
	if input.Identifier == "" || input.Password == "" {
		return nil, nil, apperrors.InvalidInput("identifier and password are required")
	}

	kind := domain.ClassifyIdentifier(input.Identifier)
	if kind == domain.IdentifierUnknown {
		return nil, nil, apperrors.Unauthenticated("invalid credentials")
	}

	if err := s.limiter.Hit(ctx, scopeSignIn, input.Identifier); err != nil {
		return nil, nil, err
	}
	if input.Request.IPAddress != "" {
		if err := s.limiter.Hit(ctx, scopeSignInIP, input.Request.IPAddress); err != nil {
			return nil, nil, err
		}
	}

	user, err := s.lookupByIdentifier(ctx, kind, input.Identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthenticated("invalid credentials")
		}
		return nil, nil, err
	}

	if user.IsDeleted() {
		return nil, nil, apperrors.Unauthenticated("invalid credentials")
	}

	account, err := s.accountRepo.GetCredentialByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Federated-only account; indistinguishable from a bad password.
			return nil, nil, apperrors.Unauthenticated("invalid credentials")
		}
		return nil, nil, fmt.Errorf("load credential account: %w", err)
	}

	if !password.Verify(input.Password, account.PasswordHash) {
		return nil, nil, apperrors.Unauthenticated("invalid credentials")
	}

	// Ban status is disclosed only to a caller who proved the password;
	// otherwise the error would confirm the account exists.
	if user.IsBanned(time.Now().UTC()) {
		return nil, nil, apperrors.Forbidden("this account is banned")
	}

	if err := s.limiter.Reset(ctx, scopeSignIn, input.Identifier); err != nil {
		s.logger.WarnContext(ctx, "failed to reset sign-in rate limit",
			slog.String("error", err.Error()),
		)
	}

	session, err := s.sessions.Create(ctx, user, input.Request)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", user.ID),
	)

	return user, session, nil
}

// VerifyEmail redeems an email-verification token and marks the user verified.
func (s *AccountService) VerifyEmail(ctx context.Context, email, tokenValue string) error {
	if _, err := s.issuer.Redeem(ctx, email, domain.PurposeEmailVerification, tokenValue); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("load user for verification: %w", err)
	}

	user.EmailVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ResendVerification issues a fresh verification token for an unverified user.
func (s *AccountService) ResendVerification(ctx context.Context, user *domain.User) error {
	if user.EmailVerified {
		return apperrors.InvalidInput("email is already verified")
	}

	if err := s.limiter.Hit(ctx, scopeVerify, user.Email); err != nil {
		return err
	}

	v, err := s.issuer.Issue(ctx, user.Email, domain.PurposeEmailVerification, s.cfg.VerificationTTL)
	if err != nil {
		return err
	}

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, v.Value); err != nil {
		return apperrors.Unavailable(fmt.Errorf("send verification email: %w", err))
	}

	return nil
}

// RequestPasswordReset issues a reset token and mails it. An unknown email
// reports success to the caller so the endpoint cannot be used to enumerate
// accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	if !domain.ValidEmail(email) {
		return apperrors.InvalidInput("a valid email is required")
	}

	if err := s.limiter.Hit(ctx, scopePasswordReset, email); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("load user for password reset: %w", err)
	}

	v, err := s.issuer.Issue(ctx, user.Email, domain.PurposePasswordReset, s.cfg.VerificationTTL)
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, v.Value); err != nil {
		return apperrors.Unavailable(fmt.Errorf("send password reset email: %w", err))
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ResetPassword redeems a reset token and replaces the credential. All
// sessions are revoked so a stolen session does not survive the reset.
func (s *AccountService) ResetPassword(ctx context.Context, email, tokenValue, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	if _, err := s.issuer.Redeem(ctx, email, domain.PurposePasswordReset, tokenValue); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("load user for password reset: %w", err)
	}

	account, err := s.accountRepo.GetCredentialByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load credential account: %w", err)
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	account.PasswordHash = hash
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("update credential account: %w", err)
	}

	if err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after password reset",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ChangePassword rotates the credential after re-verifying the current
// password. Reusing the current password is rejected so a "change" cannot
// silently keep the old secret alive.
func (s *AccountService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	account, err := s.accountRepo.GetCredentialByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInput("this account has no password credential")
		}
		return fmt.Errorf("load credential account: %w", err)
	}

	if !password.Verify(currentPassword, account.PasswordHash) {
		return apperrors.Unauthenticated("current password is incorrect")
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must differ from the current password")
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	account.PasswordHash = hash
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("update credential account: %w", err)
	}

	if err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after password change",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// RequestEmailChange issues a confirmation token to the new address. The
// change only lands once the token is redeemed, proving control of the new
// mailbox.
func (s *AccountService) RequestEmailChange(ctx context.Context, user *domain.User, newEmail string) error {
	if !domain.ValidEmail(newEmail) {
		return apperrors.InvalidInput("a valid email is required")
	}
	if newEmail == user.Email {
		return apperrors.InvalidInput("new email must differ from the current email")
	}

	// Keyed by the requesting user, not the target address, so one account
	// cannot spray tokens across many mailboxes.
	if err := s.limiter.Hit(ctx, scopeEmailChange, user.ID); err != nil {
		return err
	}

	if _, err := s.userRepo.GetByEmail(ctx, newEmail); err == nil {
		return apperrors.AlreadyExists("user", "email", newEmail)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check new email: %w", err)
	}

	v, err := s.issuer.Issue(ctx, newEmail, domain.PurposeEmailChange, s.cfg.VerificationTTL)
	if err != nil {
		return err
	}

	if err := s.mailer.SendEmailChangeEmail(ctx, newEmail, v.Value); err != nil {
		return apperrors.Unavailable(fmt.Errorf("send email change email: %w", err))
	}

	return nil
}

// ConfirmEmailChange redeems the token sent to the new address and applies the
// change. The actor's session proves the user; the token proves the mailbox.
func (s *AccountService) ConfirmEmailChange(ctx context.Context, user *domain.User, newEmail, tokenValue string) error {
	if _, err := s.issuer.Redeem(ctx, newEmail, domain.PurposeEmailChange, tokenValue); err != nil {
		return err
	}

	user.Email = newEmail
	user.EmailVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user email: %w", err)
	}

	s.logger.InfoContext(ctx, "email changed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// LinkAccount attaches a federated identity to the user. Only providers on
// the trusted allow-list may be linked, and a provider identity that already
// belongs to another user is a conflict, not a takeover.
func (s *AccountService) LinkAccount(ctx context.Context, user *domain.User, input LinkAccountInput) (*domain.Account, error) {
	if input.ProviderID == "" || input.ProviderAccountID == "" {
		return nil, apperrors.InvalidInput("provider and provider account id are required")
	}
	if !slices.Contains(s.cfg.TrustedProviders, input.ProviderID) {
		return nil, apperrors.Forbidden(fmt.Sprintf("provider %q is not trusted for account linking", input.ProviderID))
	}

	existing, err := s.accountRepo.GetByProvider(ctx, input.ProviderID, input.ProviderAccountID)
	if err == nil {
		if existing.UserID == user.ID {
			return existing, nil
		}
		return nil, apperrors.AlreadyExists("account", "provider identity", input.ProviderAccountID)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check provider identity: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:                uuid.New().String(),
		UserID:            user.ID,
		ProviderID:        input.ProviderID,
		ProviderAccountID: input.ProviderAccountID,
		AccessToken:       input.AccessToken,
		RefreshToken:      input.RefreshToken,
		Scopes:            input.Scopes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("link account: %w", err)
	}

	s.logger.InfoContext(ctx, "account linked",
		slog.String("user_id", user.ID),
		slog.String("provider_id", input.ProviderID),
	)

	return account, nil
}

// ListAccounts returns all accounts linked to the user.
func (s *AccountService) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	return s.accountRepo.ListByUserID(ctx, userID)
}

// UpdateProfile applies a partial profile update.
func (s *AccountService) UpdateProfile(ctx context.Context, user *domain.User, input UpdateProfileInput) (*domain.User, error) {
	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name cannot be empty")
		}
		user.Name = *input.Name
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}
	if input.Phone != nil {
		if *input.Phone != "" && !domain.ValidPhone(*input.Phone) {
			return nil, apperrors.InvalidInput("phone number format is invalid")
		}
		user.Phone = domain.NormalizePhone(*input.Phone)
	}
	if input.Username != nil {
		if !domain.ValidUsername(*input.Username) {
			return nil, apperrors.InvalidInput("username format is invalid")
		}
		user.Username = *input.Username
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return user, nil
}

// Ban marks the user banned and revokes every session immediately so the ban
// takes effect without waiting for cache expiry.
func (s *AccountService) Ban(ctx context.Context, actor *domain.User, targetUserID string, input BanInput) error {
	if !actor.Role.AtLeast(domain.RoleAdmin) {
		return apperrors.Forbidden("banning users requires an admin role")
	}
	if actor.ID == targetUserID {
		return apperrors.InvalidInput("cannot ban yourself")
	}

	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("load ban target: %w", err)
	}
	if target.Role == domain.RoleSuperAdmin {
		return apperrors.Forbidden("cannot ban a super admin")
	}

	target.Banned = true
	target.BanReason = input.Reason
	target.BanExpiresAt = input.ExpiresAt
	if err := s.userRepo.Update(ctx, target); err != nil {
		return fmt.Errorf("update ban status: %w", err)
	}

	if err := s.sessions.RevokeAll(ctx, target.ID); err != nil {
		return fmt.Errorf("revoke sessions of banned user: %w", err)
	}

	if err := s.events.PublishUserBanned(ctx, target); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.banned event",
			slog.String("user_id", target.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user banned",
		slog.String("actor_id", actor.ID),
		slog.String("user_id", target.ID),
	)

	return nil
}

// Unban clears the ban fields.
func (s *AccountService) Unban(ctx context.Context, actor *domain.User, targetUserID string) error {
	if !actor.Role.AtLeast(domain.RoleAdmin) {
		return apperrors.Forbidden("unbanning users requires an admin role")
	}

	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("load unban target: %w", err)
	}

	target.Banned = false
	target.BanReason = ""
	target.BanExpiresAt = nil
	if err := s.userRepo.Update(ctx, target); err != nil {
		return fmt.Errorf("update ban status: %w", err)
	}

	if err := s.events.PublishUserBanned(ctx, target); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.banned event",
			slog.String("user_id", target.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user unbanned",
		slog.String("actor_id", actor.ID),
		slog.String("user_id", target.ID),
	)

	return nil
}

// SetSystemRole changes the target's system role. Admins manage the ranks
// strictly below their own; only a super admin reaches the whole order.
func (s *AccountService) SetSystemRole(ctx context.Context, actor *domain.User, targetUserID string, role domain.SystemRole) error {
	if !actor.Role.AtLeast(domain.RoleAdmin) {
		return apperrors.Forbidden("changing system roles requires an admin role")
	}
	if !role.Valid() {
		return apperrors.InvalidInput("unknown system role")
	}
	if actor.ID == targetUserID {
		return apperrors.InvalidInput("cannot change your own system role")
	}
	if actor.Role != domain.RoleSuperAdmin && role.AtLeast(actor.Role) {
		return apperrors.Forbidden("cannot grant a role at or above your own")
	}

	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("load role change target: %w", err)
	}
	if actor.Role != domain.RoleSuperAdmin && target.Role.AtLeast(actor.Role) {
		return apperrors.Forbidden("cannot change the role of a peer or superior")
	}
	if target.Role == role {
		return nil
	}

	target.Role = role
	if err := s.userRepo.Update(ctx, target); err != nil {
		return fmt.Errorf("update system role: %w", err)
	}

	// Cached session snapshots carry the old role for up to the cache TTL;
	// revoking forces a fresh sign-in under the new privileges.
	if err := s.sessions.RevokeAll(ctx, target.ID); err != nil {
		return fmt.Errorf("revoke sessions after role change: %w", err)
	}

	s.logger.InfoContext(ctx, "system role changed",
		slog.String("actor_id", actor.ID),
		slog.String("user_id", target.ID),
		slog.String("role", string(role)),
	)

	return nil
}

// GetUser retrieves a user by ID.
func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns a page of users plus the total count.
func (s *AccountService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// --- Helpers ---

// deriveUsername builds a username from the email local-part. The bare base
// is preferred; on collision a random numeric suffix is appended.
func (s *AccountService) deriveUsername(ctx context.Context, email string) (string, error) {
	base := domain.UsernameBaseFromEmail(email)
	if base == "" {
		base = "user"
	}

	taken, err := s.userRepo.UsernameExists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if !taken {
		return base, nil
	}

	for i := 0; i < usernameSuffixAttempts; i++ {
		candidate := base + strconv.Itoa(1000+rand.IntN(9000))
		taken, err := s.userRepo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	// Practically unreachable; fall back to an unambiguous unique value.
	return base + uuid.New().String()[:8], nil
}

func (s *AccountService) lookupByIdentifier(ctx context.Context, kind domain.IdentifierKind, identifier string) (*domain.User, error) {
	switch kind {
	case domain.IdentifierEmail:
		return s.userRepo.GetByEmail(ctx, identifier)
	case domain.IdentifierPhone:
		return s.userRepo.GetByPhone(ctx, domain.NormalizePhone(identifier))
	default:
		return s.userRepo.GetByUsername(ctx, identifier)
	}
}

// sendVerification issues and mails a verification token. Sign-up succeeds
// even when mail is down; the user can re-request verification later.
func (s *AccountService) sendVerification(ctx context.Context, email string) {
	v, err := s.issuer.Issue(ctx, email, domain.PurposeEmailVerification, s.cfg.VerificationTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue verification token",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.mailer.SendVerificationEmail(ctx, email, v.Value); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email",
			slog.String("error", err.Error()),
		)
	}
}
