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
	"github.com/sellora/identity/internal/token"
	apperrors "github.com/sellora/identity/pkg/errors"
)

// SessionConfig holds the session lifetime policy.
type SessionConfig struct {
	// TTL is the full lifetime granted at creation and on each renewal.
	TTL time.Duration
	// MinRenew is the minimum age since the last renewal before the expiry
	// window slides forward again.
	MinRenew time.Duration
}

// SessionService implements the session lifecycle: create, resolve with a
// cached fast path, sliding renewal, and revocation.
type SessionService struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	cache       repository.SessionCache
	cfg         SessionConfig
	logger      *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	cache repository.SessionCache,
	cfg SessionConfig,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
	}
}

// RequestContext is the client snapshot captured when a session is minted.
type RequestContext struct {
	IPAddress string
	UserAgent string
}

// Create mints a session for the user with a fresh opaque token.
func (s *SessionService) Create(ctx context.Context, user *domain.User, reqCtx RequestContext) (*domain.Session, error) {
	return s.create(ctx, user, reqCtx, "")
}

// Impersonate mints a session for the target user on behalf of an admin. The
// admin's identity is recorded on the session so it can be told apart from the
// user's own devices.
func (s *SessionService) Impersonate(ctx context.Context, admin *domain.User, targetUserID string, reqCtx RequestContext) (*domain.Session, error) {
	if !admin.Role.AtLeast(domain.RoleAdmin) {
		return nil, apperrors.Forbidden("impersonation requires an admin role")
	}
	if admin.ID == targetUserID {
		return nil, apperrors.InvalidInput("cannot impersonate yourself")
	}

	target, err := s.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("load impersonation target: %w", err)
	}
	if target.Role == domain.RoleSuperAdmin {
		return nil, apperrors.Forbidden("cannot impersonate a super admin")
	}

	session, err := s.create(ctx, target, reqCtx, admin.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "impersonation session created",
		slog.String("admin_id", admin.ID),
		slog.String("user_id", target.ID),
		slog.String("session_id", session.ID),
	)

	return session, nil
}

// StopImpersonating revokes an impersonation session minted by the calling
// admin. Ordinary sessions are out of reach here; another admin's session can
// only be revoked by a super admin.
func (s *SessionService) StopImpersonating(ctx context.Context, admin *domain.User, tokenValue string) error {
	if !admin.Role.AtLeast(domain.RoleAdmin) {
		return apperrors.Forbidden("impersonation requires an admin role")
	}

	session, err := s.sessionRepo.GetByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load impersonation session: %w", err)
	}
	if session.ImpersonatedBy == "" {
		return apperrors.InvalidInput("session is not an impersonation session")
	}
	if session.ImpersonatedBy != admin.ID && admin.Role != domain.RoleSuperAdmin {
		return apperrors.Forbidden("impersonation session belongs to another admin")
	}

	if err := s.Revoke(ctx, tokenValue); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "impersonation session revoked",
		slog.String("admin_id", admin.ID),
		slog.String("session_id", session.ID),
	)

	return nil
}

func (s *SessionService) create(ctx context.Context, user *domain.User, reqCtx RequestContext, impersonatedBy string) (*domain.Session, error) {
	value, err := token.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Token:          value,
		ExpiresAt:      now.Add(s.cfg.TTL),
		LastRenewedAt:  now,
		IPAddress:      reqCtx.IPAddress,
		UserAgent:      reqCtx.UserAgent,
		ImpersonatedBy: impersonatedBy,
		CreatedAt:      now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheSession(ctx, session, user)

	s.logger.InfoContext(ctx, "session created",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID),
	)

	return session, nil
}

// Resolve returns the session and its user for the given token, or (nil, nil)
// when no valid session exists. Expiry is lazy: an expired row is treated as
// absent without requiring a background sweep. A short-lived cache fronts the
// store; a stale hit is bounded by the cache TTL because revocation deletes
// the cache entry write-through.
func (s *SessionService) Resolve(ctx context.Context, tokenValue string) (*repository.CachedSession, error) {
	if tokenValue == "" {
		return nil, nil
	}

	now := time.Now().UTC()

	cached, err := s.cache.Get(ctx, tokenValue)
	if err != nil {
		// A broken cache degrades to the store, it does not break sign-in.
		s.logger.WarnContext(ctx, "session cache read failed",
			slog.String("error", err.Error()),
		)
	}
	if cached != nil && !cached.Session.Expired(now) && !cached.User.IsBanned(now) && !cached.User.IsDeleted() {
		return cached, nil
	}

	session, err := s.sessionRepo.GetByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(now) {
		// Hygiene only; absence is the contract either way.
		if err := s.sessionRepo.DeleteByToken(ctx, tokenValue); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired session",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if user.IsBanned(now) || user.IsDeleted() {
		return nil, nil
	}

	session, err = s.renew(ctx, session)
	if err != nil {
		return nil, err
	}

	result := &repository.CachedSession{Session: *session, User: *user}
	s.cacheSession(ctx, session, user)

	return result, nil
}

// renew slides the expiry window forward when the session is older than the
// renewal threshold. Renewal keeps the same token; only the expiry moves.
func (s *SessionService) renew(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	now := time.Now().UTC()
	if now.Sub(session.LastRenewedAt) <= s.cfg.MinRenew {
		return session, nil
	}

	session.ExpiresAt = now.Add(s.cfg.TTL)
	session.LastRenewedAt = now

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("renew session: %w", err)
	}

	return session, nil
}

// Revoke destroys the session for the given token. Revoking an absent session
// is not an error. The cache entry is removed synchronously so a revoked
// session cannot outlive its row by more than a failed cache delete.
func (s *SessionService) Revoke(ctx context.Context, tokenValue string) error {
	if err := s.sessionRepo.DeleteByToken(ctx, tokenValue); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if err := s.cache.Delete(ctx, tokenValue); err != nil {
		s.logger.WarnContext(ctx, "failed to purge revoked session from cache",
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// RevokeAll destroys every session of the user, including impersonation
// sessions minted on their behalf.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) error {
	tokens, err := s.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	for _, t := range tokens {
		if err := s.cache.Delete(ctx, t); err != nil {
			s.logger.WarnContext(ctx, "failed to purge revoked session from cache",
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "all sessions revoked",
		slog.String("user_id", userID),
		slog.Int("count", len(tokens)),
	)

	return nil
}

// ListDevices returns the user's own active sessions. Impersonation sessions
// are excluded; they belong to the admin who minted them, not to the user.
func (s *SessionService) ListDevices(ctx context.Context, userID string) ([]domain.Session, error) {
	sessions, err := s.sessionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	devices := make([]domain.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.IsImpersonated() {
			continue
		}
		devices = append(devices, session)
	}

	return devices, nil
}

func (s *SessionService) cacheSession(ctx context.Context, session *domain.Session, user *domain.User) {
	if err := s.cache.Set(ctx, &repository.CachedSession{Session: *session, User: *user}); err != nil {
		s.logger.WarnContext(ctx, "failed to cache session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
}
