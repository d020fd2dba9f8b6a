package authgate

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kaelworth/authgate/password"
)

// mockUserProvider is a map-backed UserProvider for engine tests. The
// failure knobs simulate store outages and lost create races.
type mockUserProvider struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	byEmail map[string]string
	byName  map[string]string
	byPhone map[string]string
	nextID  int

	findErr   error
	createErr error
	updateErr error

	// raceCreate makes the next CreateUser insert a conflicting row first
	// and fail with ErrDuplicateIdentity, as if another writer won.
	raceCreate bool

	updates []LoginStateUpdate
}

func newMockProvider() *mockUserProvider {
	return &mockUserProvider{
		users:   map[string]UserRecord{},
		byEmail: map[string]string{},
		byName:  map[string]string{},
		byPhone: map[string]string{},
	}
}

func (m *mockUserProvider) put(u UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(u)
}

func (m *mockUserProvider) putLocked(u UserRecord) {
	if u.ID == "" {
		m.nextID++
		u.ID = fmt.Sprintf("u%d", m.nextID)
	}
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	m.byName[u.Username] = u.ID
	if u.Phone != "" {
		m.byPhone[u.Phone] = u.ID
	}
}

func (m *mockUserProvider) get(id string) UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *mockUserProvider) FindByEmail(_ context.Context, email string) (UserRecord, error) {
	return m.lookup(m.byEmail, email)
}

func (m *mockUserProvider) FindByUsername(_ context.Context, username string) (UserRecord, error) {
	return m.lookup(m.byName, username)
}

func (m *mockUserProvider) FindByPhone(_ context.Context, phone string) (UserRecord, error) {
	return m.lookup(m.byPhone, phone)
}

func (m *mockUserProvider) FindByID(_ context.Context, id string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return UserRecord{}, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserProvider) lookup(index map[string]string, key string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return UserRecord{}, m.findErr
	}
	id, ok := index[key]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *mockUserProvider) CreateUser(_ context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.raceCreate {
		m.raceCreate = false
		m.putLocked(UserRecord{
			Username: input.Username,
			Email:    input.Email,
			Phone:    input.Phone,
		})
		return UserRecord{}, ErrDuplicateIdentity
	}
	if m.createErr != nil {
		return UserRecord{}, m.createErr
	}
	if _, exists := m.byEmail[input.Email]; exists {
		return UserRecord{}, ErrDuplicateIdentity
	}
	if _, exists := m.byName[input.Username]; exists {
		return UserRecord{}, ErrDuplicateIdentity
	}
	if input.Phone != "" {
		if _, exists := m.byPhone[input.Phone]; exists {
			return UserRecord{}, ErrDuplicateIdentity
		}
	}

	u := UserRecord{
		Username:       input.Username,
		Email:          input.Email,
		Phone:          input.Phone,
		PasswordDigest: input.PasswordDigest,
		Nickname:       input.Nickname,
		Status:         input.Status,
	}
	m.putLocked(u)
	return m.users[m.byEmail[input.Email]], nil
}

func (m *mockUserProvider) UpdateLoginState(_ context.Context, userID string, update LoginStateUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	u.FailedAttempts = update.FailedAttempts
	u.LockedUntil = update.LockedUntil
	if update.LastLoginAt != nil {
		u.LastLoginAt = update.LastLoginAt
		u.LastLoginIP = update.LastLoginIP
	}
	m.users[userID] = u
	m.updates = append(m.updates, update)
	return nil
}

// testClock is a movable time source so tests advance time instead of
// sleeping.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.RateLimit.Enabled = false
	cfg.Audit.Enabled = false
	return cfg
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	h, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func buildTestEngine(t *testing.T, cfg Config, up UserProvider, clock *testClock) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithUserProvider(up).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

// seedUser hashes the password with cheap parameters and inserts an
// active account.
func seedUser(t *testing.T, up *mockUserProvider, email, username, plaintext string) UserRecord {
	t.Helper()

	digest, err := newTestHasher(t).Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	u := UserRecord{
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
		Status:         StatusActive,
	}
	up.put(u)

	rec, err := up.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("seed lookup failed: %v", err)
	}
	return rec
}
