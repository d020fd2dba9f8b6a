package authgate

import (
	"context"
	"errors"
	"time"
)

// AccountStatus is the lifecycle state of a user account.
type AccountStatus uint8

const (
	// StatusActive allows login.
	StatusActive AccountStatus = iota
	// StatusDisabled blocks login with a distinct error kind.
	StatusDisabled
)

// Gender is the profile gender enum.
type Gender uint8

const (
	// GenderUnknown is the default for new accounts.
	GenderUnknown Gender = iota
	// GenderMale is the male profile value.
	GenderMale
	// GenderFemale is the female profile value.
	GenderFemale
)

// ExternalIdentity is an optional reference to a third-party identity
// provider. Stored only; no linking flow is implemented.
type ExternalIdentity struct {
	Provider   string
	ProviderID string
}

// UserRecord is the full account record exchanged with a [UserProvider].
// It carries the password digest and must never cross the public surface;
// callers receive [UserProfile] projections instead.
type UserRecord struct {
	ID             string
	Username       string
	Email          string
	Phone          string
	PasswordDigest string

	Nickname string
	Avatar   string
	Gender   Gender
	Birthday *time.Time
	Bio      string

	Status        AccountStatus
	EmailVerified bool
	PhoneVerified bool

	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
	LastLoginIP    string

	External *ExternalIdentity

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// UserProfile is the public projection of a [UserRecord]. It never carries
// the password digest or lockout counters.
type UserProfile struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	Nickname      string     `json:"nickname,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	Gender        Gender     `json:"gender"`
	Birthday      *time.Time `json:"birthday,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Profile returns the public projection of the record.
func (u UserRecord) Profile() UserProfile {
	return UserProfile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Phone:         u.Phone,
		Nickname:      u.Nickname,
		Avatar:        u.Avatar,
		Gender:        u.Gender,
		Birthday:      u.Birthday,
		Bio:           u.Bio,
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// ErrUserNotFound is the sentinel a [UserProvider] returns when a lookup
// matches no live (non-soft-deleted) record.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateIdentity is the sentinel a [UserProvider] returns from
// CreateUser when a uniqueness constraint on username, email, or phone is
// violated. It resolves the check-then-insert race: the engine's own
// pre-checks are advisory, the store's constraint is authoritative.
var ErrDuplicateIdentity = errors.New("duplicate identity")

// LoginStateUpdate is an atomic mutation of the lockout and last-login
// fields of one record. FailedAttempts and LockedUntil are always written;
// LastLoginAt and LastLoginIP are written only when LastLoginAt is non-nil.
type LoginStateUpdate struct {
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
	LastLoginIP    string
}

// CreateUserInput is the input to [UserProvider.CreateUser]. The digest is
// already hashed; providers never see plaintext passwords.
type CreateUserInput struct {
	Username       string
	Email          string
	Phone          string
	PasswordDigest string
	Nickname       string
	Status         AccountStatus
}

// UserProvider is the credential-store contract the caller implements to
// integrate authgate with their user database. Lookups must treat
// soft-deleted records as absent and return [ErrUserNotFound]. CreateUser
// and UpdateLoginState must be atomic with respect to concurrent callers
// (a transaction or row-level lock is sufficient).
type UserProvider interface {
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	FindByUsername(ctx context.Context, username string) (UserRecord, error)
	FindByPhone(ctx context.Context, phone string) (UserRecord, error)
	FindByID(ctx context.Context, id string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdateLoginState(ctx context.Context, userID string, update LoginStateUpdate) error
}

// Hasher is the one-way password hash primitive. The stock implementation
// is password.Argon2; any salted, cost-parameterized scheme satisfying
// this contract may be substituted.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// TokenPair is an access+refresh pair issued together for one subject.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterInput is the input to [Engine.Register].
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    string
	Nickname string
}

// AuthResult is returned by Register and Login: the public projection of
// the account plus a fresh token pair.
type AuthResult struct {
	User   UserProfile
	Tokens TokenPair
}
