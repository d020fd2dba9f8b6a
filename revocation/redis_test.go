package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisRegistry(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedis(rdb, "agrv", nil), mr
}

func TestRedis_RevokeAndLookup(t *testing.T) {
	reg, _ := newRedisRegistry(t)
	ctx := context.Background()

	first, err := reg.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))
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
		t.Fatal("expected jti-1 revoked")
	}

	revoked, err = reg.IsRevoked(ctx, "other")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("other was never revoked")
	}
}

func TestRedis_EntryExpiresWithTTL(t *testing.T) {
	reg, mr := newRedisRegistry(t)
	ctx := context.Background()

	if _, err := reg.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	revoked, err := reg.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("entry should expire with its TTL")
	}
}

func TestRedis_RepeatRevokeIsNotFirst(t *testing.T) {
	reg, _ := newRedisRegistry(t)
	ctx := context.Background()

	deadline := time.Now().Add(time.Hour)
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

	revoked, err := reg.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti-1 revoked after repeated Revoke")
	}
}

func TestRedis_ExpiredDeadlineHeldBriefly(t *testing.T) {
	reg, mr := newRedisRegistry(t)
	ctx := context.Background()

	first, err := reg.Revoke(ctx, "jti-1", time.Now().Add(-time.Second))
	if err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !first {
		t.Fatal("expected first writer for held entry")
	}

	if first, _ := reg.Revoke(ctx, "jti-1", time.Now().Add(-time.Second)); first {
		t.Fatal("second writer reported first during the hold")
	}

	mr.FastForward(expiredHold + time.Second)

	revoked, err := reg.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("held entry should expire after the hold")
	}
}
