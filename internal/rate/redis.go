package rate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Limiter] sharing its counters across processes through Redis.
// The window is fixed: the TTL is set on the first hit and the counter
// resets when the key expires.
type Redis struct {
	client redis.UniversalClient
	config Config
}

// NewRedis returns a Redis-backed limiter.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{client: client, config: cfg}
}

// Admit increments the (client, route) counter and decides. On rejection
// the retry hint is the key's remaining TTL.
func (r *Redis) Admit(ctx context.Context, client, route string) (Decision, error) {
	if r.config.MaxAttempts <= 0 || r.config.Window <= 0 {
		return Decision{Allowed: true}, nil
	}

	key := bucketKey(client, route)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.config.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count <= int64(r.config.MaxAttempts) {
		return Decision{Allowed: true}, nil
	}

	retryAfter, err := r.client.PTTL(ctx, key).Result()
	if err != nil || retryAfter < 0 {
		retryAfter = r.config.Window
	}

	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}
