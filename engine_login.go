package authgate

import (
	"context"
	"errors"

	"github.com/kaelworth/authgate/lockout"
)

// Login verifies credentials for the configured identity field and returns
// the account projection plus a fresh token pair.
//
// An unknown identity and a wrong password produce the identical
// [ErrInvalidCredentials] — account existence is never leaked. A locked
// account fails with [AccountLockedError] before any password check, and
// failed attempts are not counted while locked, so an attacker cannot
// extend a lock window. The rate limiter gates the whole flow: a rejected
// call touches neither the credential store nor the lockout counters.
func (e *Engine) Login(ctx context.Context, identity, plaintext string) (*AuthResult, error) {
	if e == nil || e.userProvider == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	client := clientIPFromContext(ctx)
	if e.loginLimiter != nil && client != "" {
		decision, err := e.loginLimiter.Admit(ctx, client, "login")
		if err != nil {
			return nil, storeErr(err)
		}
		if !decision.Allowed {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", &RateLimitedError{RetryAfter: decision.RetryAfter}, func() map[string]string {
				return map[string]string{"identity": identity}
			})
			e.emitRateLimit(ctx, "login", decision.RetryAfter)
			return nil, &RateLimitedError{RetryAfter: decision.RetryAfter}
		}
	}

	user, err := e.findByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr(err)
	}

	if user.Status == StatusDisabled {
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	now := e.now()
	state := lockout.State{
		FailedAttempts: user.FailedAttempts,
		LockedUntil:    user.LockedUntil,
	}

	if locked, until := e.lockout.Locked(state, now); locked {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginLocked, false, user.ID, &AccountLockedError{Until: until}, nil)
		return nil, &AccountLockedError{Until: until}
	}

	match, err := e.hasher.Verify(plaintext, user.PasswordDigest)
	if err != nil {
		return nil, storeErr(err)
	}

	if !match {
		next := e.lockout.RecordFailure(state, now)
		if err := e.userProvider.UpdateLoginState(ctx, user.ID, LoginStateUpdate{
			FailedAttempts: next.FailedAttempts,
			LockedUntil:    next.LockedUntil,
		}); err != nil {
			return nil, storeErr(err)
		}

		if locked, until := e.lockout.Locked(next, now); locked {
			e.metricInc(MetricLoginLocked)
			e.emitAudit(ctx, auditEventLoginLocked, false, user.ID, &AccountLockedError{Until: until}, func() map[string]string {
				return map[string]string{"trigger": "threshold"}
			})
			return nil, &AccountLockedError{Until: until}
		}

		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if err := e.userProvider.UpdateLoginState(ctx, user.ID, LoginStateUpdate{
		FailedAttempts: 0,
		LockedUntil:    nil,
		LastLoginAt:    &now,
		LastLoginIP:    client,
	}); err != nil {
		return nil, storeErr(err)
	}

	pair, err := e.issuePair(user.ID)
	if err != nil {
		return nil, storeErr(err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, nil)

	return &AuthResult{User: user.Profile(), Tokens: pair}, nil
}
