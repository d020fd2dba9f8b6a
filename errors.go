package authgate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidCredentials merges "no such account" and "wrong password"
	// into one deliberately uninformative failure. Do not split it: the
	// indistinguishability prevents account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned when the account's status blocks login.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrMissingToken is returned when no token was presented at all.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken covers bad signature, malformed structure, wrong
	// kind, and expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrRevokedToken is returned for a structurally valid access token
	// whose jti has been revoked. Distinct from ErrInvalidToken so clients
	// can tell "log in again" from "malformed request".
	ErrRevokedToken = errors.New("token revoked")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// partially constructed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrStoreUnavailable wraps transient infrastructure failures from the
	// credential store, revocation registry, or limiter backend. The
	// transport layer maps it to a 5xx-equivalent.
	ErrStoreUnavailable = errors.New("backend unavailable")
)

// FieldViolation names one validation rule failure on one input field.
type FieldViolation struct {
	Field  string
	Reason string
}

// ValidationError reports every violated input rule at once, so a caller
// can correct the whole input in one round trip.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports a uniqueness violation on one identity field
// (email, username, or phone).
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

// AccountLockedError carries the unlock time so clients can show a
// countdown.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

// RateLimitedError carries the retry-after hint for the rejected window.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
