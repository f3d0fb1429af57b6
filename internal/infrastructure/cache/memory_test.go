package cache

import (
	"context"
	"testing"
	"time"
)

func TestFirstSeenClaimsOnce(t *testing.T) {
	mc := NewMemoryCoordinator()
	ctx := context.Background()

	first, err := mc.FirstSeen(ctx, "key-1", time.Minute)
	if err != nil || !first {
		t.Fatalf("expected first sighting, got first=%v err=%v", first, err)
	}

	again, err := mc.FirstSeen(ctx, "key-1", time.Minute)
	if err != nil || again {
		t.Fatalf("expected duplicate to be rejected, got first=%v err=%v", again, err)
	}
}

func TestForgetAllowsReclaim(t *testing.T) {
	mc := NewMemoryCoordinator()
	ctx := context.Background()

	if first, _ := mc.FirstSeen(ctx, "key-1", time.Minute); !first {
		t.Fatal("initial claim failed")
	}
	if err := mc.Forget(ctx, "key-1"); err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if first, _ := mc.FirstSeen(ctx, "key-1", time.Minute); !first {
		t.Fatal("claim after forget should succeed")
	}
}

func TestFirstSeenExpiresWithWindow(t *testing.T) {
	mc := NewMemoryCoordinator()
	ctx := context.Background()

	if first, _ := mc.FirstSeen(ctx, "key-1", 10*time.Millisecond); !first {
		t.Fatal("initial claim failed")
	}
	time.Sleep(20 * time.Millisecond)
	if first, _ := mc.FirstSeen(ctx, "key-1", time.Minute); !first {
		t.Fatal("claim after window lapse should succeed")
	}
}

func TestLeaseSerializesResource(t *testing.T) {
	mc := NewMemoryCoordinator()
	ctx := context.Background()

	got, err := mc.AcquireLease(ctx, "cr-1", time.Minute)
	if err != nil || !got {
		t.Fatalf("expected lease, got %v err=%v", got, err)
	}

	blocked, err := mc.AcquireLease(ctx, "cr-1", time.Minute)
	if err != nil || blocked {
		t.Fatalf("second acquire should be blocked, got %v err=%v", blocked, err)
	}

	// Leases and dedup keys live in separate namespaces.
	if first, _ := mc.FirstSeen(ctx, "cr-1", time.Minute); !first {
		t.Fatal("dedup key must not collide with lease")
	}

	if err := mc.ReleaseLease(ctx, "cr-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got, _ := mc.AcquireLease(ctx, "cr-1", time.Minute); !got {
		t.Fatal("acquire after release should succeed")
	}
}
