package authgate

import (
	"errors"
	"time"

	"github.com/kaelworth/authgate/password"
	"github.com/kaelworth/authgate/token"
)

// IdentityField selects which identity column Login resolves accounts by.
type IdentityField string

const (
	// IdentityEmail resolves login identities as email addresses (default).
	IdentityEmail IdentityField = "email"
	// IdentityUsername resolves login identities as usernames.
	IdentityUsername IdentityField = "username"
	// IdentityPhone resolves login identities as phone numbers.
	IdentityPhone IdentityField = "phone"
)

// Config is the engine configuration. Construct with [DefaultConfig] and
// override fields before passing it to the Builder; the engine clones it at
// Build and treats it as immutable afterwards.
type Config struct {
	Token      TokenConfig
	Login      LoginConfig
	Lockout    LockoutConfig
	RateLimit  RateLimitConfig
	Password   PasswordConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// TokenConfig holds the token codec parameters.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// LoginConfig selects login behavior.
type LoginConfig struct {
	Identity IdentityField
}

// LockoutConfig tunes the account lockout policy. Threshold 0 disables
// lockout entirely.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// RateLimitConfig tunes the per-(client, route) fixed windows. Login
// limiting is on by default; Register limiting is opt-in via a non-zero
// RegisterMaxAttempts.
type RateLimitConfig struct {
	Enabled             bool
	LoginMaxAttempts    int
	LoginWindow         time.Duration
	RegisterMaxAttempts int
	RegisterWindow      time.Duration
}

// PasswordConfig holds the argon2id cost parameters and the registration
// strength floor in entropy bits.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinEntropy  float64
}

// RevocationConfig tunes the revocation registry backend.
type RevocationConfig struct {
	RedisPrefix string
}

// AuditConfig tunes the asynchronous audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the engine's atomic counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the documented defaults: 15m access tokens, 7d
// refresh tokens, lockout after 5 failures for 24h, 5 login attempts per
// client per minute.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: string(token.MethodHS256),
			Issuer:        "authgate",
			Leeway:        30 * time.Second,
		},
		Login: LoginConfig{
			Identity: IdentityEmail,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			LoginMaxAttempts: 5,
			LoginWindow:      time.Minute,
			RegisterWindow:   time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinEntropy:  password.DefaultMinEntropy,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "agrv",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for internally inconsistent or unsafe
// values. Build calls it; callers constructing configs by hand may call it
// early for better error locality.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token.AccessTTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token.RefreshTTL must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token.RefreshTTL must not be shorter than AccessTTL")
	}

	switch token.SigningMethod(c.Token.SigningMethod) {
	case token.MethodHS256:
		if len(c.Token.PrivateKey) == 0 {
			return errors.New("Token.PrivateKey required for hs256")
		}
	case token.MethodEd25519:
		if len(c.Token.PrivateKey) == 0 || len(c.Token.PublicKey) == 0 {
			return errors.New("Token key pair required for ed25519")
		}
	default:
		return errors.New("unsupported Token.SigningMethod")
	}

	switch c.Login.Identity {
	case IdentityEmail, IdentityUsername, IdentityPhone:
	default:
		return errors.New("unsupported Login.Identity")
	}

	if c.Lockout.Threshold < 0 {
		return errors.New("Lockout.Threshold must not be negative")
	}
	if c.Lockout.Threshold > 0 && c.Lockout.Duration <= 0 {
		return errors.New("Lockout.Duration must be positive when lockout is enabled")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.LoginMaxAttempts <= 0 {
			return errors.New("RateLimit.LoginMaxAttempts must be positive")
		}
		if c.RateLimit.LoginWindow <= 0 {
			return errors.New("RateLimit.LoginWindow must be positive")
		}
		if c.RateLimit.RegisterMaxAttempts > 0 && c.RateLimit.RegisterWindow <= 0 {
			return errors.New("RateLimit.RegisterWindow must be positive")
		}
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
