// Package gormstore is a GORM-backed credential store satisfying
// authgate.UserProvider, intended for PostgreSQL.
//
// Uniqueness of username, email, and phone is enforced by partial unique
// indexes over non-deleted rows; the engine's pre-checks are advisory and
// the database constraint settles races. Records are soft-deleted only.
package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kaelworth/authgate"
)

// User is the persistence model. LockedUntil and the last-login columns
// mirror the lockout fields authgate reads and writes on every login.
type User struct {
	ID             string `gorm:"size:36;primaryKey"`
	Username       string `gorm:"size:64;not null;index:idx_users_username,unique,where:deleted_at IS NULL"`
	Email          string `gorm:"size:255;not null;index:idx_users_email,unique,where:deleted_at IS NULL"`
	Phone          string `gorm:"size:32;index:idx_users_phone,unique,where:deleted_at IS NULL AND phone <> ''"`
	PasswordDigest string `gorm:"size:255;not null"`

	Nickname string `gorm:"size:64"`
	Avatar   string `gorm:"size:255"`
	Gender   uint8  `gorm:"default:0"`
	Birthday *time.Time
	Bio      string `gorm:"size:512"`

	Status        uint8 `gorm:"default:0"`
	EmailVerified bool  `gorm:"default:false"`
	PhoneVerified bool  `gorm:"default:false"`

	FailedAttempts int        `gorm:"default:0"`
	LockedUntil    *time.Time `gorm:"index"`
	LastLoginAt    *time.Time
	LastLoginIP    string `gorm:"size:64"`

	ExternalProvider   string `gorm:"size:64"`
	ExternalProviderID string `gorm:"size:128"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

// TableName keeps the table name stable across GORM naming strategies.
func (User) TableName() string { return "users" }

// Store adapts a *gorm.DB to the authgate.UserProvider contract.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL, runs the schema migration, and returns a
// store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wraps an existing connection. The gorm.Config must have
// TranslateError enabled for duplicate-key mapping to work.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// FindByEmail looks up a live record by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (authgate.UserRecord, error) {
	return s.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

// FindByUsername looks up a live record by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (authgate.UserRecord, error) {
	return s.findOne(ctx, "username = ?", username)
}

// FindByPhone looks up a live record by phone number.
func (s *Store) FindByPhone(ctx context.Context, phone string) (authgate.UserRecord, error) {
	return s.findOne(ctx, "phone = ? AND phone <> ''", phone)
}

// FindByID looks up a live record by id.
func (s *Store) FindByID(ctx context.Context, id string) (authgate.UserRecord, error) {
	return s.findOne(ctx, "id = ?", id)
}

// CreateUser inserts a row; the partial unique indexes settle concurrent
// duplicates and surface as authgate.ErrDuplicateIdentity.
func (s *Store) CreateUser(ctx context.Context, input authgate.CreateUserInput) (authgate.UserRecord, error) {
	row := User{
		ID:             uuid.NewString(),
		Username:       input.Username,
		Email:          input.Email,
		Phone:          input.Phone,
		PasswordDigest: input.PasswordDigest,
		Nickname:       input.Nickname,
		Status:         uint8(input.Status),
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return authgate.UserRecord{}, authgate.ErrDuplicateIdentity
		}
		return authgate.UserRecord{}, err
	}

	return toRecord(row), nil
}

// UpdateLoginState writes the lockout and last-login columns in one
// statement, atomic at the row level.
func (s *Store) UpdateLoginState(ctx context.Context, userID string, update authgate.LoginStateUpdate) error {
	fields := map[string]interface{}{
		"failed_attempts": update.FailedAttempts,
		"locked_until":    update.LockedUntil,
	}
	if update.LastLoginAt != nil {
		fields["last_login_at"] = update.LastLoginAt
		fields["last_login_ip"] = update.LastLoginIP
	}

	res := s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ? AND deleted_at IS NULL", userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

// SoftDelete marks the row deleted without removing it.
func (s *Store) SoftDelete(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ? AND deleted_at IS NULL", userID).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, query string, arg string) (authgate.UserRecord, error) {
	var row User
	err := s.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Where(query, arg).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authgate.UserRecord{}, authgate.ErrUserNotFound
		}
		return authgate.UserRecord{}, err
	}
	return toRecord(row), nil
}

func toRecord(row User) authgate.UserRecord {
	rec := authgate.UserRecord{
		ID:             row.ID,
		Username:       row.Username,
		Email:          row.Email,
		Phone:          row.Phone,
		PasswordDigest: row.PasswordDigest,
		Nickname:       row.Nickname,
		Avatar:         row.Avatar,
		Gender:         authgate.Gender(row.Gender),
		Birthday:       row.Birthday,
		Bio:            row.Bio,
		Status:         authgate.AccountStatus(row.Status),
		EmailVerified:  row.EmailVerified,
		PhoneVerified:  row.PhoneVerified,
		FailedAttempts: row.FailedAttempts,
		LockedUntil:    row.LockedUntil,
		LastLoginAt:    row.LastLoginAt,
		LastLoginIP:    row.LastLoginIP,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		DeletedAt:      row.DeletedAt,
	}
	if row.ExternalProvider != "" {
		rec.External = &authgate.ExternalIdentity{
			Provider:   row.ExternalProvider,
			ProviderID: row.ExternalProviderID,
		}
	}
	return rec
}
