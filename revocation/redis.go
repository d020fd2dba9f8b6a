package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "agrv"

// Redis is a [Registry] backed by a shared Redis instance. Each revoked jti
// becomes a key whose TTL matches the token's remaining lifetime, so Redis
// itself performs the pruning.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedis returns a Redis-backed registry. prefix may be empty; now may be
// nil for the wall clock.
func NewRedis(client redis.UniversalClient, prefix string, now func() time.Time) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &Redis{client: client, prefix: prefix, now: now}
}

func (r *Redis) key(jti string) string {
	return r.prefix + ":" + jti
}

// Revoke writes the jti with a TTL running to expiresAt and reports
// whether this call was the first writer. SETNX decides atomically on the
// server, so concurrent revocations of the same jti see exactly one true.
func (r *Redis) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	if jti == "" {
		return false, nil
	}

	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		ttl = expiredHold
	}

	first, err := r.client.SetNX(ctx, r.key(jti), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return first, nil
}

// IsRevoked checks for a live key.
func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, r.key(jti)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, nil
}
