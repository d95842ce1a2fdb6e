package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/repository"
)

func newCacheTestFixture(t *testing.T) (*SessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionCache(client, 5*time.Minute), mr
}

func sampleCachedSession() *repository.CachedSession {
	now := time.Now().UTC().Truncate(time.Second)
	return &repository.CachedSession{
		Session: domain.Session{
			ID:            "s-1",
			UserID:        "u-1",
			Token:         "tok-abc",
			ExpiresAt:     now.Add(168 * time.Hour),
			LastRenewedAt: now,
			CreatedAt:     now,
		},
		User: domain.User{
			ID:       "u-1",
			Email:    "alice@example.com",
			Username: "alice",
			Role:     domain.RoleUser,
			Status:   domain.UserActive,
		},
	}
}

func TestSessionCache_SetGetRoundTrip(t *testing.T) {
	cache, _ := newCacheTestFixture(t)
	ctx := context.Background()

	cached := sampleCachedSession()
	require.NoError(t, cache.Set(ctx, cached))

	got, err := cache.Get(ctx, "tok-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cached.Session.ID, got.Session.ID)
	assert.Equal(t, "tok-abc", got.Session.Token)
	assert.Equal(t, cached.User.Email, got.User.Email)
}

func TestSessionCache_MissReturnsNilNil(t *testing.T) {
	cache, _ := newCacheTestFixture(t)

	got, err := cache.Get(context.Background(), "unknown-token")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionCache_DeleteRemovesEntry(t *testing.T) {
	cache, _ := newCacheTestFixture(t)
	ctx := context.Background()

	cached := sampleCachedSession()
	require.NoError(t, cache.Set(ctx, cached))
	require.NoError(t, cache.Delete(ctx, "tok-abc"))

	got, err := cache.Get(ctx, "tok-abc")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionCache_EntryExpires(t *testing.T) {
	cache, mr := newCacheTestFixture(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, sampleCachedSession()))

	mr.FastForward(6 * time.Minute)

	got, err := cache.Get(ctx, "tok-abc")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
