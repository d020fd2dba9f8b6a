package rate

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable indicates the limiter backend is unreachable.
	ErrUnavailable = errors.New("rate limit backend unavailable")
)

// Config holds the window parameters for one route class.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Decision is the outcome of an admission check. RetryAfter is set only
// when Allowed is false and is the time until the current window expires.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter admits or rejects a request for a (client, route) pair. Every
// call counts against the window, admitted or not.
type Limiter interface {
	Admit(ctx context.Context, client, route string) (Decision, error)
}

func bucketKey(client, route string) string {
	return "rl:" + route + ":" + client
}
