package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/repository"
	apperrors "github.com/sellora/identity/pkg/errors"
)

type sessionTestFixture struct {
	sessionRepo *mockSessionRepository
	userRepo    *mockUserRepository
	cache       *mockSessionCache
	service     *SessionService
}

func newSessionTestFixture(t *testing.T) *sessionTestFixture {
	t.Helper()
	sessionRepo := new(mockSessionRepository)
	userRepo := new(mockUserRepository)
	cache := new(mockSessionCache)
	return &sessionTestFixture{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		cache:       cache,
		service:     newTestSessionService(t, sessionRepo, userRepo, cache),
	}
}

func sampleSession(userID string) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:            "session-1",
		UserID:        userID,
		Token:         "opaque-token-value",
		ExpiresAt:     now.Add(167 * time.Hour),
		LastRenewedAt: now.Add(-time.Hour),
		IPAddress:     "203.0.113.7",
		UserAgent:     "storefront/1.0",
		CreatedAt:     now.Add(-time.Hour),
	}
}

// --------------------------------------------------------------------------
// Create
// --------------------------------------------------------------------------

func TestSessionService_Create(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	f.sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	f.cache.On("Set", mock.Anything, mock.AnythingOfType("*repository.CachedSession")).Return(nil)

	session, err := f.service.Create(context.Background(), user, RequestContext{
		IPAddress: "203.0.113.7",
		UserAgent: "storefront/1.0",
	})

	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "203.0.113.7", session.IPAddress)
	assert.Empty(t, session.ImpersonatedBy)
	assert.True(t, session.ExpiresAt.After(time.Now().UTC()))
	f.sessionRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestSessionService_Create_TokensAreUnique(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	f.sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	f.cache.On("Set", mock.Anything, mock.Anything).Return(nil)

	first, err := f.service.Create(context.Background(), user, RequestContext{})
	require.NoError(t, err)
	second, err := f.service.Create(context.Background(), user, RequestContext{})
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}

// --------------------------------------------------------------------------
// Impersonate
// --------------------------------------------------------------------------

func TestSessionService_Impersonate(t *testing.T) {
	f := newSessionTestFixture(t)

	admin := sampleActor()
	admin.ID = "admin-1"
	admin.Role = domain.RoleAdmin

	target := sampleActor()
	target.ID = "user-2"

	f.userRepo.On("GetByID", mock.Anything, "user-2").Return(target, nil)
	f.sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	f.cache.On("Set", mock.Anything, mock.Anything).Return(nil)

	session, err := f.service.Impersonate(context.Background(), admin, "user-2", RequestContext{})

	require.NoError(t, err)
	assert.Equal(t, "user-2", session.UserID)
	assert.Equal(t, "admin-1", session.ImpersonatedBy)
	assert.True(t, session.IsImpersonated())
}

func TestSessionService_Impersonate_RequiresAdmin(t *testing.T) {
	f := newSessionTestFixture(t)

	actor := sampleActor()
	actor.Role = domain.RoleMember

	_, err := f.service.Impersonate(context.Background(), actor, "user-2", RequestContext{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	f.userRepo.AssertNotCalled(t, "GetByID")
}

func TestSessionService_Impersonate_SelfRejected(t *testing.T) {
	f := newSessionTestFixture(t)

	admin := sampleActor()
	admin.Role = domain.RoleAdmin

	_, err := f.service.Impersonate(context.Background(), admin, admin.ID, RequestContext{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSessionService_Impersonate_SuperAdminTargetRejected(t *testing.T) {
	f := newSessionTestFixture(t)

	admin := sampleActor()
	admin.ID = "admin-1"
	admin.Role = domain.RoleAdmin

	target := sampleActor()
	target.ID = "user-2"
	target.Role = domain.RoleSuperAdmin
	f.userRepo.On("GetByID", mock.Anything, "user-2").Return(target, nil)

	_, err := f.service.Impersonate(context.Background(), admin, "user-2", RequestContext{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	f.sessionRepo.AssertNotCalled(t, "Create")
}

func TestSessionService_StopImpersonating(t *testing.T) {
	f := newSessionTestFixture(t)

	admin := sampleActor()
	admin.ID = "admin-1"
	admin.Role = domain.RoleAdmin

	session := sampleSession("user-2")
	session.ImpersonatedBy = "admin-1"
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)
	f.sessionRepo.On("DeleteByToken", mock.Anything, session.Token).Return(nil)
	f.cache.On("Delete", mock.Anything, session.Token).Return(nil)

	err := f.service.StopImpersonating(context.Background(), admin, session.Token)

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestSessionService_StopImpersonating_OrdinarySessionRejected(t *testing.T) {
	f := newSessionTestFixture(t)

	admin := sampleActor()
	admin.ID = "admin-1"
	admin.Role = domain.RoleAdmin

	session := sampleSession("user-2")
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)

	err := f.service.StopImpersonating(context.Background(), admin, session.Token)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.sessionRepo.AssertNotCalled(t, "DeleteByToken")
}

func TestSessionService_StopImpersonating_AnotherAdminsSession(t *testing.T) {
	f := newSessionTestFixture(t)

	admin := sampleActor()
	admin.ID = "admin-1"
	admin.Role = domain.RoleAdmin

	session := sampleSession("user-2")
	session.ImpersonatedBy = "admin-2"
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)

	err := f.service.StopImpersonating(context.Background(), admin, session.Token)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	f.sessionRepo.AssertNotCalled(t, "DeleteByToken")
}

func TestSessionService_StopImpersonating_SuperAdminOverride(t *testing.T) {
	f := newSessionTestFixture(t)

	admin := sampleActor()
	admin.ID = "root-1"
	admin.Role = domain.RoleSuperAdmin

	session := sampleSession("user-2")
	session.ImpersonatedBy = "admin-2"
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)
	f.sessionRepo.On("DeleteByToken", mock.Anything, session.Token).Return(nil)
	f.cache.On("Delete", mock.Anything, session.Token).Return(nil)

	err := f.service.StopImpersonating(context.Background(), admin, session.Token)

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
}

func TestSessionService_StopImpersonating_UnknownTokenIsIdempotent(t *testing.T) {
	f := newSessionTestFixture(t)

	admin := sampleActor()
	admin.Role = domain.RoleAdmin

	f.sessionRepo.On("GetByToken", mock.Anything, "gone").
		Return(nil, apperrors.NotFound("session", "gone"))

	err := f.service.StopImpersonating(context.Background(), admin, "gone")

	require.NoError(t, err)
	f.sessionRepo.AssertNotCalled(t, "DeleteByToken")
}

// --------------------------------------------------------------------------
// Resolve
// --------------------------------------------------------------------------

func TestSessionService_Resolve_EmptyToken(t *testing.T) {
	f := newSessionTestFixture(t)

	cached, err := f.service.Resolve(context.Background(), "")

	require.NoError(t, err)
	assert.Nil(t, cached)
	f.cache.AssertNotCalled(t, "Get")
	f.sessionRepo.AssertNotCalled(t, "GetByToken")
}

func TestSessionService_Resolve_CacheHitSkipsStore(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	session := sampleSession(user.ID)
	f.cache.On("Get", mock.Anything, session.Token).
		Return(&repository.CachedSession{Session: *session, User: *user}, nil)

	cached, err := f.service.Resolve(context.Background(), session.Token)

	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, user.ID, cached.User.ID)
	f.sessionRepo.AssertNotCalled(t, "GetByToken")
}

func TestSessionService_Resolve_CacheFailureFallsBackToStore(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	session := sampleSession(user.ID)

	f.cache.On("Get", mock.Anything, session.Token).Return(nil, errors.New("redis down"))
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)
	f.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.cache.On("Set", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	cached, err := f.service.Resolve(context.Background(), session.Token)

	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, user.ID, cached.User.ID)
}

func TestSessionService_Resolve_UnknownToken(t *testing.T) {
	f := newSessionTestFixture(t)

	f.cache.On("Get", mock.Anything, "nope").Return(nil, nil)
	f.sessionRepo.On("GetByToken", mock.Anything, "nope").
		Return(nil, apperrors.NotFound("session", "nope"))

	cached, err := f.service.Resolve(context.Background(), "nope")

	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestSessionService_Resolve_ExpiredSessionIsAbsent(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	session := sampleSession(user.ID)
	session.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	f.cache.On("Get", mock.Anything, session.Token).Return(nil, nil)
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)
	f.sessionRepo.On("DeleteByToken", mock.Anything, session.Token).Return(nil)

	cached, err := f.service.Resolve(context.Background(), session.Token)

	require.NoError(t, err)
	assert.Nil(t, cached)
	f.sessionRepo.AssertExpectations(t)
	f.userRepo.AssertNotCalled(t, "GetByID")
}

func TestSessionService_Resolve_BannedUserIsAbsent(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	user.Banned = true
	session := sampleSession(user.ID)

	f.cache.On("Get", mock.Anything, session.Token).Return(nil, nil)
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)
	f.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	cached, err := f.service.Resolve(context.Background(), session.Token)

	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestSessionService_Resolve_StaleCachedBanFallsThrough(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	session := sampleSession(user.ID)

	bannedCopy := *user
	bannedCopy.Banned = true
	f.cache.On("Get", mock.Anything, session.Token).
		Return(&repository.CachedSession{Session: *session, User: bannedCopy}, nil)
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)
	f.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.cache.On("Set", mock.Anything, mock.Anything).Return(nil)

	cached, err := f.service.Resolve(context.Background(), session.Token)

	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.False(t, cached.User.Banned)
}

func TestSessionService_Resolve_RenewsAfterThreshold(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	session := sampleSession(user.ID)
	session.LastRenewedAt = time.Now().UTC().Add(-48 * time.Hour)
	oldExpiry := session.ExpiresAt

	f.cache.On("Get", mock.Anything, session.Token).Return(nil, nil)
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)
	f.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.sessionRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	f.cache.On("Set", mock.Anything, mock.Anything).Return(nil)

	cached, err := f.service.Resolve(context.Background(), session.Token)

	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.True(t, cached.Session.ExpiresAt.After(oldExpiry))
	assert.Equal(t, session.Token, cached.Session.Token)
	f.sessionRepo.AssertExpectations(t)
}

func TestSessionService_Resolve_NoRenewalWithinThreshold(t *testing.T) {
	f := newSessionTestFixture(t)

	user := sampleActor()
	session := sampleSession(user.ID)

	f.cache.On("Get", mock.Anything, session.Token).Return(nil, nil)
	f.sessionRepo.On("GetByToken", mock.Anything, session.Token).Return(session, nil)
	f.userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.cache.On("Set", mock.Anything, mock.Anything).Return(nil)

	cached, err := f.service.Resolve(context.Background(), session.Token)

	require.NoError(t, err)
	require.NotNil(t, cached)
	f.sessionRepo.AssertNotCalled(t, "Update")
}

// --------------------------------------------------------------------------
// Revoke
// --------------------------------------------------------------------------

func TestSessionService_Revoke(t *testing.T) {
	f := newSessionTestFixture(t)

	f.sessionRepo.On("DeleteByToken", mock.Anything, "tok").Return(nil)
	f.cache.On("Delete", mock.Anything, "tok").Return(nil)

	err := f.service.Revoke(context.Background(), "tok")

	require.NoError(t, err)
	f.sessionRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestSessionService_Revoke_CacheFailureDoesNotFail(t *testing.T) {
	f := newSessionTestFixture(t)

	f.sessionRepo.On("DeleteByToken", mock.Anything, "tok").Return(nil)
	f.cache.On("Delete", mock.Anything, "tok").Return(errors.New("redis down"))

	err := f.service.Revoke(context.Background(), "tok")

	require.NoError(t, err)
}

func TestSessionService_RevokeAll_PurgesEveryCacheEntry(t *testing.T) {
	f := newSessionTestFixture(t)

	f.sessionRepo.On("DeleteByUserID", mock.Anything, "user-1").
		Return([]string{"tok-a", "tok-b"}, nil)
	f.cache.On("Delete", mock.Anything, "tok-a").Return(nil)
	f.cache.On("Delete", mock.Anything, "tok-b").Return(nil)

	err := f.service.RevokeAll(context.Background(), "user-1")

	require.NoError(t, err)
	f.cache.AssertExpectations(t)
}

// --------------------------------------------------------------------------
// ListDevices
// --------------------------------------------------------------------------

func TestSessionService_ListDevices_ExcludesImpersonation(t *testing.T) {
	f := newSessionTestFixture(t)

	own := *sampleSession("user-1")
	impersonated := *sampleSession("user-1")
	impersonated.ID = "session-2"
	impersonated.Token = "other-token"
	impersonated.ImpersonatedBy = "admin-1"

	f.sessionRepo.On("ListByUserID", mock.Anything, "user-1").
		Return([]domain.Session{own, impersonated}, nil)

	devices, err := f.service.ListDevices(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, own.ID, devices[0].ID)
}
