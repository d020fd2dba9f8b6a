package revocation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemory_RevokeAndLookup(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reg := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	first, err := reg.Revoke(ctx, "jti-1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !first {
		t.Fatal("expected the initial Revoke to be first")
	}

	revoked, err := reg.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti-1 to be revoked")
	}

	revoked, err = reg.IsRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("jti-2 was never revoked")
	}
}

func TestMemory_EntryExpires(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reg := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	if _, err := reg.Revoke(ctx, "jti-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	revoked, err := reg.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("entry should have expired with its token")
	}
}

func TestMemory_RepeatRevokeIsNotFirst(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reg := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	deadline := now.Add(time.Hour)
	first, err := reg.Revoke(ctx, "jti-1", deadline)
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !first {
		t.Fatal("expected first writer")
	}

	for i := 0; i < 3; i++ {
		first, err := reg.Revoke(ctx, "jti-1", deadline)
		if err != nil {
			t.Fatalf("Revoke %d failed: %v", i, err)
		}
		if first {
			t.Fatalf("repeat Revoke %d reported first", i)
		}
	}

	if reg.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", reg.Len())
	}

	// A shorter re-revocation must not shrink the existing deadline.
	if _, err := reg.Revoke(ctx, "jti-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	now = now.Add(30 * time.Minute)
	revoked, _ := reg.IsRevoked(ctx, "jti-1")
	if !revoked {
		t.Fatal("re-revocation shortened the entry deadline")
	}
}

func TestMemory_ExpiredDeadlineHeldBriefly(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reg := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	first, err := reg.Revoke(ctx, "jti-1", now.Add(-time.Second))
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !first {
		t.Fatal("expected first writer for held entry")
	}

	// a second writer inside the hold must not be first
	if first, _ := reg.Revoke(ctx, "jti-1", now.Add(-time.Second)); first {
		t.Fatal("second writer reported first during the hold")
	}

	now = now.Add(expiredHold + time.Second)
	revoked, _ := reg.IsRevoked(ctx, "jti-1")
	if revoked {
		t.Fatal("held entry should expire after the hold")
	}
}

func TestMemory_Prune(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reg := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	reg.Revoke(ctx, "short", now.Add(time.Minute))
	reg.Revoke(ctx, "long", now.Add(time.Hour))

	now = now.Add(10 * time.Minute)
	if removed := reg.Prune(); removed != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", removed)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", reg.Len())
	}

	revoked, _ := reg.IsRevoked(ctx, "long")
	if !revoked {
		t.Fatal("prune removed a live entry")
	}
}

func TestMemory_ConcurrentRevokeSingleFirst(t *testing.T) {
	reg := NewMemory(nil)
	ctx := context.Background()
	deadline := time.Now().Add(time.Hour)

	var firsts atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := reg.Revoke(ctx, "shared-jti", deadline)
			if err != nil {
				t.Errorf("Revoke failed: %v", err)
				return
			}
			if first {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := firsts.Load(); got != 1 {
		t.Fatalf("expected exactly one first writer, got %d", got)
	}

	revoked, err := reg.IsRevoked(ctx, "shared-jti")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected shared-jti revoked after concurrent writers")
	}
}
