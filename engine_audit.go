package authgate

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRegisterSuccess     = "register_success"
	auditEventRegisterConflict    = "register_conflict"
	auditEventRegisterRateLimited = "register_rate_limited"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLoginLocked         = "login_locked"
	auditEventLoginRateLimited    = "login_rate_limited"
	auditEventRefreshSuccess      = "refresh_success"
	auditEventRefreshInvalid      = "refresh_invalid"
	auditEventRefreshReuse        = "refresh_reuse_detected"
	auditEventLogout              = "logout"
	auditEventRateLimitTriggered  = "rate_limit_triggered"
)

type auditErrorCode string

const (
	auditErrInvalidCredentials auditErrorCode = "invalid_credentials"
	auditErrAccountLocked      auditErrorCode = "account_locked"
	auditErrAccountDisabled    auditErrorCode = "account_disabled"
	auditErrRateLimited        auditErrorCode = "rate_limited"
	auditErrMissingToken       auditErrorCode = "missing_token"
	auditErrInvalidToken       auditErrorCode = "invalid_token"
	auditErrRevokedToken       auditErrorCode = "revoked_token"
	auditErrValidation         auditErrorCode = "validation"
	auditErrDuplicate          auditErrorCode = "duplicate"
	auditErrUnavailable        auditErrorCode = "backend_unavailable"
	auditErrInternal           auditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := errorCodeOf(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope string, retryAfter time.Duration) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", &RateLimitedError{RetryAfter: retryAfter}, func() map[string]string {
		return map[string]string{
			"scope":       scope,
			"retry_after": retryAfter.String(),
		}
	})
}

func errorCodeOf(err error) auditErrorCode {
	if err == nil {
		return ""
	}

	var (
		validationErr *ValidationError
		conflictErr   *ConflictError
		lockedErr     *AccountLockedError
		limitedErr    *RateLimitedError
	)

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.As(err, &lockedErr):
		return auditErrAccountLocked
	case errors.Is(err, ErrAccountDisabled):
		return auditErrAccountDisabled
	case errors.As(err, &limitedErr):
		return auditErrRateLimited
	case errors.Is(err, ErrMissingToken):
		return auditErrMissingToken
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrRevokedToken):
		return auditErrRevokedToken
	case errors.As(err, &validationErr):
		return auditErrValidation
	case errors.As(err, &conflictErr), errors.Is(err, ErrDuplicateIdentity):
		return auditErrDuplicate
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
