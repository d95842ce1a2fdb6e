package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/sellora/identity/pkg/errors"
)

// Config holds the fixed-window budget for credential-sensitive operations.
type Config struct {
	Window      time.Duration
	MaxAttempts int
}

// Limiter throttles repeated attempts against a single key (an identifier or
// an IP) using Redis fixed-window counters. When Redis is unreachable the
// limiter fails closed: the caller sees unavailability, never a free pass.
type Limiter struct {
	client *redis.Client
	cfg    Config
}

// New creates a Limiter backed by the given Redis client.
func New(client *redis.Client, cfg Config) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
	}
}

// Check reports whether the scoped key is still within its attempt budget
// without consuming an attempt. A budget that is already exhausted yields a
// rate-limited error carrying the seconds until the window resets.
func (l *Limiter) Check(ctx context.Context, scope, key string) error {
	k := l.key(scope, key)

	count, err := l.client.Get(ctx, k).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return apperrors.Unavailable(fmt.Errorf("rate limiter get: %w", err))
	}

	if count >= int64(l.cfg.MaxAttempts) {
		return apperrors.RateLimited(l.retryAfter(ctx, k))
	}

	return nil
}

// Hit consumes one attempt for the scoped key. The TTL is set only when the
// counter is created, which gives fixed-window semantics.
func (l *Limiter) Hit(ctx context.Context, scope, key string) error {
	k := l.key(scope, key)

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return apperrors.Unavailable(fmt.Errorf("rate limiter incr: %w", err))
	}

	if count == 1 {
		if err := l.client.Expire(ctx, k, l.cfg.Window).Err(); err != nil {
			return apperrors.Unavailable(fmt.Errorf("rate limiter expire: %w", err))
		}
	}

	if count > int64(l.cfg.MaxAttempts) {
		return apperrors.RateLimited(l.retryAfter(ctx, k))
	}

	return nil
}

// Reset clears the counter for the scoped key, typically after a successful
// attempt so earlier failures stop counting against the caller.
func (l *Limiter) Reset(ctx context.Context, scope, key string) error {
	if err := l.client.Del(ctx, l.key(scope, key)).Err(); err != nil {
		return apperrors.Unavailable(fmt.Errorf("rate limiter del: %w", err))
	}

	return nil
}

// retryAfter derives the advisory retry delay from the counter's remaining
// TTL. A counter without a TTL falls back to the full window.
func (l *Limiter) retryAfter(ctx context.Context, key string) int {
	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return int(l.cfg.Window.Seconds())
	}
	return int(ttl.Seconds())
}

func (l *Limiter) key(scope, key string) string {
	return "ratelimit:" + scope + ":" + key
}
