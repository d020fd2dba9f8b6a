package authgate

import (
	"context"
	"errors"

	"github.com/kaelworth/authgate/token"
)

// Authenticate validates an access token for a protected resource and
// returns the subject (user id) on success. The three failure kinds stay
// distinct so clients can tell "present a token" from "get a new one" from
// "this one was withdrawn".
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (string, error) {
	if e == nil || e.tokens == nil || e.revocations == nil {
		return "", ErrEngineNotReady
	}

	if accessToken == "" {
		e.metricInc(MetricAuthenticateRejected)
		return "", ErrMissingToken
	}

	claims, err := e.tokens.Parse(accessToken)
	if err != nil || claims.TokenKind != token.KindAccess {
		e.metricInc(MetricAuthenticateRejected)
		return "", ErrInvalidToken
	}

	revoked, err := e.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", storeErr(err)
	}
	if revoked {
		e.metricInc(MetricAuthenticateRejected)
		return "", ErrRevokedToken
	}

	e.metricInc(MetricAuthenticateSuccess)
	return claims.Subject, nil
}

// Profile resolves the access token and returns the public projection of
// the authenticated account.
func (e *Engine) Profile(ctx context.Context, accessToken string) (UserProfile, error) {
	subject, err := e.Authenticate(ctx, accessToken)
	if err != nil {
		return UserProfile{}, err
	}

	user, err := e.userProvider.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserProfile{}, ErrUserNotFound
		}
		return UserProfile{}, storeErr(err)
	}

	return user.Profile(), nil
}

// Refresh exchanges a valid refresh token for a brand-new access+refresh
// pair. The presented token's jti is revoked first, making refresh tokens
// single-use: replaying one deterministically fails with
// [ErrInvalidToken], and the reuse is counted and audited.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.tokens == nil || e.revocations == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(refreshToken)
	if err != nil || claims.TokenKind != token.KindRefresh {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrInvalidToken, nil)
		return nil, ErrInvalidToken
	}

	// Consuming the jti and detecting reuse is one atomic registry write:
	// whoever revokes first wins, every concurrent replay sees false.
	first, err := e.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, storeErr(err)
	}
	if !first {
		e.metricInc(MetricRefreshReuseDetected)
		e.emitAudit(ctx, auditEventRefreshReuse, false, claims.Subject, ErrInvalidToken, func() map[string]string {
			return map[string]string{"jti": claims.ID}
		})
		return nil, ErrInvalidToken
	}
	e.metricInc(MetricTokenRevoked)

	pair, err := e.issuePair(claims.Subject)
	if err != nil {
		return nil, storeErr(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, claims.Subject, nil, nil)

	return &pair, nil
}

// Logout revokes the presented access token and, when one is supplied and
// parses validly, the refresh token as well. A malformed or expired
// refresh token never fails the logout — once the access token checks out
// the operation succeeds.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if e == nil || e.tokens == nil || e.revocations == nil {
		return ErrEngineNotReady
	}

	if accessToken == "" {
		return ErrMissingToken
	}

	claims, err := e.tokens.Parse(accessToken)
	if err != nil || claims.TokenKind != token.KindAccess {
		return ErrInvalidToken
	}

	first, err := e.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return storeErr(err)
	}
	if !first {
		return ErrRevokedToken
	}
	e.metricInc(MetricTokenRevoked)

	if refreshToken != "" {
		if rc, err := e.tokens.Parse(refreshToken); err == nil && rc.TokenKind == token.KindRefresh {
			// Best effort: the access token is already revoked, so a registry
			// hiccup here must not fail the logout.
			if first, err := e.revocations.Revoke(ctx, rc.ID, rc.ExpiresAt.Time); err == nil && first {
				e.metricInc(MetricTokenRevoked)
			}
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, claims.Subject, nil, nil)

	return nil
}

func (e *Engine) issuePair(subject string) (TokenPair, error) {
	access, _, err := e.tokens.Issue(subject, token.KindAccess)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, _, err := e.tokens.Issue(subject, token.KindRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
