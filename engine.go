package authgate

import (
	"context"
	"fmt"
	"time"

	"github.com/kaelworth/authgate/internal/rate"
	"github.com/kaelworth/authgate/lockout"
	"github.com/kaelworth/authgate/password"
	"github.com/kaelworth/authgate/revocation"
	"github.com/kaelworth/authgate/token"
)

// Engine orchestrates credential verification, token lifecycle, account
// lockout, and rate limiting. Methods are safe to call from multiple
// goroutines after construction through [Builder.Build]; the engine itself
// holds no per-request state, concurrency control lives in the credential
// store, the revocation registry, and the limiter backends.
//
// The engine performs no automatic retries: every failure is surfaced to
// the caller. Retrying a failed login internally would defeat the lockout
// policy.
type Engine struct {
	config          Config
	userProvider    UserProvider
	hasher          Hasher
	strength        password.StrengthPolicy
	tokens          *token.Manager
	revocations     revocation.Registry
	loginLimiter    rate.Limiter
	registerLimiter rate.Limiter
	lockout         lockout.Policy
	audit           *auditDispatcher
	metrics         *Metrics
	clock           func() time.Time
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

// findByIdentity resolves the configured login identity through the closed
// lookup set.
func (e *Engine) findByIdentity(ctx context.Context, identity string) (UserRecord, error) {
	switch e.config.Login.Identity {
	case IdentityUsername:
		return e.userProvider.FindByUsername(ctx, identity)
	case IdentityPhone:
		return e.userProvider.FindByPhone(ctx, identity)
	default:
		return e.userProvider.FindByEmail(ctx, identity)
	}
}

// storeErr wraps infrastructure failures so transports can map them to a
// 5xx-equivalent, distinct from every domain error.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
