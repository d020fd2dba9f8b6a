package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kaelworth/authgate"
)

func TestCreateAndLookup(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, authgate.CreateUserInput{
		Username:       "alice",
		Email:          "Alice@Example.com",
		Phone:          "+15550001111",
		PasswordDigest: "digest",
		Status:         authgate.StatusActive,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("email should be stored lowercased, got %q", created.Email)
	}

	for _, lookup := range []func() (authgate.UserRecord, error){
		func() (authgate.UserRecord, error) { return s.FindByEmail(ctx, "alice@example.com") },
		func() (authgate.UserRecord, error) { return s.FindByUsername(ctx, "alice") },
		func() (authgate.UserRecord, error) { return s.FindByPhone(ctx, "+15550001111") },
		func() (authgate.UserRecord, error) { return s.FindByID(ctx, created.ID) },
	} {
		u, err := lookup()
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if u.ID != created.ID {
			t.Fatalf("lookup returned wrong record: %q", u.ID)
		}
	}
}

func TestCreateUser_DuplicateIdentity(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	base := authgate.CreateUserInput{
		Username: "alice", Email: "alice@example.com", Phone: "+15550001111",
		PasswordDigest: "digest",
	}
	if _, err := s.CreateUser(ctx, base); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	cases := []authgate.CreateUserInput{
		{Username: "bob", Email: "alice@example.com", PasswordDigest: "d"},
		{Username: "alice", Email: "bob@example.com", PasswordDigest: "d"},
		{Username: "carol", Email: "carol@example.com", Phone: "+15550001111", PasswordDigest: "d"},
	}
	for i, input := range cases {
		if _, err := s.CreateUser(ctx, input); !errors.Is(err, authgate.ErrDuplicateIdentity) {
			t.Fatalf("case %d: expected ErrDuplicateIdentity, got %v", i, err)
		}
	}
}

func TestUpdateLoginState(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, authgate.CreateUserInput{
		Username: "alice", Email: "alice@example.com", PasswordDigest: "d",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	until := time.Now().Add(time.Hour)
	if err := s.UpdateLoginState(ctx, created.ID, authgate.LoginStateUpdate{
		FailedAttempts: 3,
		LockedUntil:    &until,
	}); err != nil {
		t.Fatalf("UpdateLoginState failed: %v", err)
	}

	u, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if u.FailedAttempts != 3 || u.LockedUntil == nil {
		t.Fatalf("lockout fields not applied: %+v", u)
	}
	if u.LastLoginAt != nil {
		t.Fatal("LastLoginAt must not change when unset in the update")
	}

	loginAt := time.Now()
	if err := s.UpdateLoginState(ctx, created.ID, authgate.LoginStateUpdate{
		LastLoginAt: &loginAt,
		LastLoginIP: "10.0.0.9",
	}); err != nil {
		t.Fatalf("UpdateLoginState failed: %v", err)
	}

	u, _ = s.FindByID(ctx, created.ID)
	if u.FailedAttempts != 0 || u.LockedUntil != nil {
		t.Fatalf("counters should reset: %+v", u)
	}
	if u.LastLoginAt == nil || u.LastLoginIP != "10.0.0.9" {
		t.Fatalf("last-login metadata not recorded: %+v", u)
	}

	if err := s.UpdateLoginState(ctx, "missing", authgate.LoginStateUpdate{}); !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSoftDelete_HidesFromLookups(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, authgate.CreateUserInput{
		Username: "alice", Email: "alice@example.com", Phone: "+15550001111",
		PasswordDigest: "d",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	s.SoftDelete(created.ID)

	if _, err := s.FindByEmail(ctx, "alice@example.com"); !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after soft delete, got %v", err)
	}
	if _, err := s.FindByID(ctx, created.ID); !errors.Is(err, authgate.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound by id after soft delete, got %v", err)
	}

	// Identity becomes reusable among live records.
	if _, err := s.CreateUser(ctx, authgate.CreateUserInput{
		Username: "alice", Email: "alice@example.com", PasswordDigest: "d",
	}); err != nil {
		t.Fatalf("re-registration after soft delete failed: %v", err)
	}
}
