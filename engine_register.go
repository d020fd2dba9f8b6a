package authgate

import (
	"context"
	"errors"
	"strings"
)

// Register validates the input, checks identity uniqueness, creates the
// account, and returns its public projection together with a fresh token
// pair. Validation failures return a [ValidationError] listing every
// violation; uniqueness failures return a [ConflictError] naming the
// contested field.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if e == nil || e.userProvider == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	if e.registerLimiter != nil {
		if client := clientIPFromContext(ctx); client != "" {
			decision, err := e.registerLimiter.Admit(ctx, client, "register")
			if err != nil {
				return nil, storeErr(err)
			}
			if !decision.Allowed {
				e.emitAudit(ctx, auditEventRegisterRateLimited, false, "", &RateLimitedError{RetryAfter: decision.RetryAfter}, nil)
				e.emitRateLimit(ctx, "register", decision.RetryAfter)
				return nil, &RateLimitedError{RetryAfter: decision.RetryAfter}
			}
		}
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)

	if verr := validateRegisterInput(input, e.strength); verr != nil {
		return nil, verr
	}

	if conflict, err := e.findConflict(ctx, input); err != nil {
		return nil, err
	} else if conflict != "" {
		e.metricInc(MetricRegisterConflict)
		e.emitAudit(ctx, auditEventRegisterConflict, false, "", &ConflictError{Field: conflict}, func() map[string]string {
			return map[string]string{"field": conflict}
		})
		return nil, &ConflictError{Field: conflict}
	}

	digest, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, storeErr(err)
	}

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Username:       input.Username,
		Email:          input.Email,
		Phone:          input.Phone,
		PasswordDigest: digest,
		Nickname:       input.Nickname,
		Status:         StatusActive,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			// Lost the check-then-insert race; name the field by re-probing.
			field := e.raceConflictField(ctx, input)
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, auditEventRegisterConflict, false, "", &ConflictError{Field: field}, func() map[string]string {
				return map[string]string{"field": field}
			})
			return nil, &ConflictError{Field: field}
		}
		return nil, storeErr(err)
	}

	pair, err := e.issuePair(user.ID)
	if err != nil {
		return nil, storeErr(err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, nil, nil)

	return &AuthResult{User: user.Profile(), Tokens: pair}, nil
}

// findConflict runs the advisory uniqueness pre-checks. The store's own
// constraints remain authoritative.
func (e *Engine) findConflict(ctx context.Context, input RegisterInput) (string, error) {
	if _, err := e.userProvider.FindByEmail(ctx, input.Email); err == nil {
		return "email", nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return "", storeErr(err)
	}

	if _, err := e.userProvider.FindByUsername(ctx, input.Username); err == nil {
		return "username", nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return "", storeErr(err)
	}

	if input.Phone != "" {
		if _, err := e.userProvider.FindByPhone(ctx, input.Phone); err == nil {
			return "phone", nil
		} else if !errors.Is(err, ErrUserNotFound) {
			return "", storeErr(err)
		}
	}

	return "", nil
}

func (e *Engine) raceConflictField(ctx context.Context, input RegisterInput) string {
	if _, err := e.userProvider.FindByEmail(ctx, input.Email); err == nil {
		return "email"
	}
	if _, err := e.userProvider.FindByUsername(ctx, input.Username); err == nil {
		return "username"
	}
	if input.Phone != "" {
		if _, err := e.userProvider.FindByPhone(ctx, input.Phone); err == nil {
			return "phone"
		}
	}
	return "email"
}
