// Package memstore is an in-memory credential store satisfying
// authgate.UserProvider. It backs tests and the example server; data does
// not survive the process.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kaelworth/authgate"
)

// Store keeps user records in maps guarded by one mutex. Uniqueness of
// username, email, and phone is enforced among non-deleted records, and
// CreateUser/UpdateLoginState are atomic under the lock, matching the
// contract authgate delegates to the store.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*authgate.UserRecord
	byEmail map[string]string
	byName  map[string]string
	byPhone map[string]string
	now     func() time.Time
}

// New returns an empty store. now may be nil for the wall clock.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		byID:    make(map[string]*authgate.UserRecord),
		byEmail: make(map[string]string),
		byName:  make(map[string]string),
		byPhone: make(map[string]string),
		now:     now,
	}
}

// FindByEmail looks up a live record by email.
func (s *Store) FindByEmail(_ context.Context, email string) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(s.byEmail, strings.ToLower(email))
}

// FindByUsername looks up a live record by username.
func (s *Store) FindByUsername(_ context.Context, username string) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(s.byName, username)
}

// FindByPhone looks up a live record by phone number.
func (s *Store) FindByPhone(_ context.Context, phone string) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(s.byPhone, phone)
}

// FindByID looks up a live record by id.
func (s *Store) FindByID(_ context.Context, id string) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok || u.DeletedAt != nil {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return *u, nil
}

// CreateUser inserts a record, enforcing uniqueness atomically.
func (s *Store) CreateUser(_ context.Context, input authgate.CreateUserInput) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(input.Email)
	if _, taken := s.byEmail[email]; taken {
		return authgate.UserRecord{}, authgate.ErrDuplicateIdentity
	}
	if _, taken := s.byName[input.Username]; taken {
		return authgate.UserRecord{}, authgate.ErrDuplicateIdentity
	}
	if input.Phone != "" {
		if _, taken := s.byPhone[input.Phone]; taken {
			return authgate.UserRecord{}, authgate.ErrDuplicateIdentity
		}
	}

	now := s.now()
	u := &authgate.UserRecord{
		ID:             uuid.NewString(),
		Username:       input.Username,
		Email:          email,
		Phone:          input.Phone,
		PasswordDigest: input.PasswordDigest,
		Nickname:       input.Nickname,
		Status:         input.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	s.byName[u.Username] = u.ID
	if u.Phone != "" {
		s.byPhone[u.Phone] = u.ID
	}

	return *u, nil
}

// UpdateLoginState applies the lockout/last-login mutation atomically.
func (s *Store) UpdateLoginState(_ context.Context, userID string, update authgate.LoginStateUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok || u.DeletedAt != nil {
		return authgate.ErrUserNotFound
	}

	u.FailedAttempts = update.FailedAttempts
	u.LockedUntil = update.LockedUntil
	if update.LastLoginAt != nil {
		u.LastLoginAt = update.LastLoginAt
		u.LastLoginIP = update.LastLoginIP
	}
	u.UpdatedAt = s.now()

	return nil
}

// Put seeds a record directly, preserving its ID. Test helper.
func (s *Store) Put(u authgate.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	email := strings.ToLower(u.Email)

	s.byID[u.ID] = &u
	s.byEmail[email] = u.ID
	s.byName[u.Username] = u.ID
	if u.Phone != "" {
		s.byPhone[u.Phone] = u.ID
	}
}

// SoftDelete marks the record deleted, removing it from every lookup while
// keeping the row.
func (s *Store) SoftDelete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok || u.DeletedAt != nil {
		return
	}

	now := s.now()
	u.DeletedAt = &now
	delete(s.byEmail, strings.ToLower(u.Email))
	delete(s.byName, u.Username)
	if u.Phone != "" {
		delete(s.byPhone, u.Phone)
	}
}

func (s *Store) lookupLocked(index map[string]string, key string) (authgate.UserRecord, error) {
	id, ok := index[key]
	if !ok {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	u, ok := s.byID[id]
	if !ok || u.DeletedAt != nil {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return *u, nil
}
