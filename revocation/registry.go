package revocation

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the revocation backend is unreachable.
var ErrUnavailable = errors.New("revocation backend unavailable")

// expiredHold is the retention applied when a revocation arrives with a
// deadline already in the past (possible within clock leeway). Holding the
// entry briefly keeps first-writer semantics intact for concurrent
// revocations of the same jti.
const expiredHold = time.Minute

// Registry answers "is this jti revoked". Entries expire together with the
// token they target.
type Registry interface {
	// Revoke marks a jti as no longer honored until expiresAt and reports
	// whether this call was the first to revoke it. Concurrent revocations
	// of the same jti agree on exactly one first writer; that report is
	// what makes refresh tokens single-use.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)

	// IsRevoked reports whether the jti has been revoked and not yet
	// expired out of the registry.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
