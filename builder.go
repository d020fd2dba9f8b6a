package authgate

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kaelworth/authgate/internal/rate"
	"github.com/kaelworth/authgate/lockout"
	"github.com/kaelworth/authgate/password"
	"github.com/kaelworth/authgate/revocation"
	"github.com/kaelworth/authgate/token"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build; no I/O happens before the first Engine method call.
//
// Without a Redis client the revocation registry and rate limiter run
// in-process. That is fine for a single instance; multi-instance
// deployments need Redis so a logout on one instance is honored on all.
type Builder struct {
	config       Config
	redis        redis.UniversalClient
	userProvider UserProvider
	hasher       Hasher
	auditSink    AuditSink
	revocations  revocation.Registry
	clock        func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis selects Redis-backed revocation and rate limiting.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the credential store adapter. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithHasher overrides the default argon2id hasher.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink sets the destination for audit events. Without a sink,
// events are dispatched to a no-op.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithRevocations overrides the revocation registry backend entirely,
// taking precedence over WithRedis.
func (b *Builder) WithRevocations(r revocation.Registry) *Builder {
	b.revocations = r
	return b
}

// WithClock injects the time source used by the engine, the token codec,
// and the in-process backends. Tests advance it instead of sleeping.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and wires the engine. A Builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		TimeFunc:      clock,
	})
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		argon, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		hasher = argon
	}

	revocations := b.revocations
	if revocations == nil {
		if b.redis != nil {
			revocations = revocation.NewRedis(b.redis, cfg.Revocation.RedisPrefix, clock)
		} else {
			revocations = revocation.NewMemory(clock)
		}
	}

	engine := &Engine{
		config:       cfg,
		userProvider: b.userProvider,
		hasher:       hasher,
		strength:     password.NewStrengthPolicy(cfg.Password.MinEntropy),
		tokens:       tokens,
		revocations:  revocations,
		lockout: lockout.Policy{
			Threshold: cfg.Lockout.Threshold,
			Duration:  cfg.Lockout.Duration,
		},
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		clock:   clock,
	}

	if cfg.RateLimit.Enabled {
		engine.loginLimiter = b.newLimiter(rate.Config{
			MaxAttempts: cfg.RateLimit.LoginMaxAttempts,
			Window:      cfg.RateLimit.LoginWindow,
		}, clock)
		if cfg.RateLimit.RegisterMaxAttempts > 0 {
			engine.registerLimiter = b.newLimiter(rate.Config{
				MaxAttempts: cfg.RateLimit.RegisterMaxAttempts,
				Window:      cfg.RateLimit.RegisterWindow,
			}, clock)
		}
	}

	return engine, nil
}

func (b *Builder) newLimiter(cfg rate.Config, clock func() time.Time) rate.Limiter {
	if b.redis != nil {
		return rate.NewRedis(b.redis, cfg)
	}
	return rate.NewMemory(cfg, clock)
}
