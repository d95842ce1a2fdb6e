package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellora/identity/internal/repository"
)

const keyPrefix = "session:"

// SessionCache implements repository.SessionCache using Redis. Entries carry a
// short TTL; the PostgreSQL store stays the source of truth and revocation
// deletes the entry write-through.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new Redis-backed session cache.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached session by token. A miss returns (nil, nil).
func (c *SessionCache) Get(ctx context.Context, token string) (*repository.CachedSession, error) {
	data, err := c.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var cached repository.CachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("unmarshal cached session: %w", err)
	}

	// Token is excluded from the JSON form; restore it from the key.
	cached.Session.Token = token

	return &cached, nil
}

// Set stores a session with the configured TTL.
func (c *SessionCache) Set(ctx context.Context, cached *repository.CachedSession) error {
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal cached session: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+cached.Session.Token, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// Delete removes a session from the cache by token.
func (c *SessionCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}

	return nil
}
