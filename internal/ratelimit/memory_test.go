package ratelimit

import (
	"context"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Enabled:       true,
		Points:        2,
		Duration:      60 * time.Second,
		BlockDuration: 60 * time.Second,
	}
}

func TestMemoryStoreAdmitsWithinQuota(t *testing.T) {
	store := NewMemoryStore()
	cfg := testConfig()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first, errTake := store.Take(context.Background(), "key-x", cfg, now)
	if errTake != nil {
		t.Fatalf("expected no error, got %v", errTake)
	}
	if !first.Allowed || first.Remaining != 1 {
		t.Fatalf("expected allowed with remaining=1, got %+v", first)
	}

	second, _ := store.Take(context.Background(), "key-x", cfg, now.Add(time.Second))
	if !second.Allowed || second.Remaining != 0 {
		t.Fatalf("expected allowed with remaining=0, got %+v", second)
	}
}

func TestMemoryStoreRejectsBeyondQuota(t *testing.T) {
	store := NewMemoryStore()
	cfg := testConfig()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < cfg.Points; i++ {
		if result, _ := store.Take(context.Background(), "key-x", cfg, now); !result.Allowed {
			t.Fatalf("expected request %d admitted", i+1)
		}
	}
	rejected, errTake := store.Take(context.Background(), "key-x", cfg, now)
	if errTake != nil {
		t.Fatalf("expected no error, got %v", errTake)
	}
	if rejected.Allowed {
		t.Fatalf("expected request %d rejected", cfg.Points+1)
	}
	if rejected.Remaining != 0 {
		t.Fatalf("expected remaining=0 on rejection, got %d", rejected.Remaining)
	}
	if rejected.RetryAfter != cfg.BlockDuration {
		t.Fatalf("expected retryAfter=%s, got %s", cfg.BlockDuration, rejected.RetryAfter)
	}
}

func TestMemoryStoreBlockDoesNotIncrement(t *testing.T) {
	store := NewMemoryStore()
	cfg := testConfig()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < cfg.Points+1; i++ {
		store.Take(context.Background(), "key-x", cfg, now)
	}

	// Requests during the cooldown stay rejected and the retry window shrinks.
	later := now.Add(10 * time.Second)
	blocked, _ := store.Take(context.Background(), "key-x", cfg, later)
	if blocked.Allowed {
		t.Fatalf("expected rejection during cooldown, got %+v", blocked)
	}
	if blocked.RetryAfter != 50*time.Second {
		t.Fatalf("expected retryAfter=50s, got %s", blocked.RetryAfter)
	}
}

func TestMemoryStoreAdmissibleAfterBlock(t *testing.T) {
	store := NewMemoryStore()
	cfg := testConfig()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < cfg.Points+1; i++ {
		store.Take(context.Background(), "key-x", cfg, now)
	}

	after := now.Add(cfg.BlockDuration + time.Second)
	result, _ := store.Take(context.Background(), "key-x", cfg, after)
	if !result.Allowed {
		t.Fatalf("expected admission after block elapsed, got %+v", result)
	}
	if result.Remaining != cfg.Points-1 {
		t.Fatalf("expected fresh window remaining=%d, got %d", cfg.Points-1, result.Remaining)
	}
}

func TestMemoryStoreBlockOutlivesWindow(t *testing.T) {
	store := NewMemoryStore()
	cfg := testConfig()
	cfg.Duration = time.Second
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < cfg.Points+1; i++ {
		store.Take(context.Background(), "key-x", cfg, now)
	}

	// Window is long gone but the cooldown still applies.
	afterWindow := now.Add(30 * time.Second)
	result, _ := store.Take(context.Background(), "key-x", cfg, afterWindow)
	if result.Allowed {
		t.Fatalf("expected rejection while still blocked, got %+v", result)
	}
}

func TestMemoryStoreWindowReset(t *testing.T) {
	store := NewMemoryStore()
	cfg := testConfig()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Take(context.Background(), "key-x", cfg, now)
	store.Take(context.Background(), "key-x", cfg, now)

	next, _ := store.Take(context.Background(), "key-x", cfg, now.Add(cfg.Duration+time.Second))
	if !next.Allowed || next.Remaining != cfg.Points-1 {
		t.Fatalf("expected fresh window after expiry, got %+v", next)
	}
}

func TestMemoryStoreRemainingNeverNegative(t *testing.T) {
	store := NewMemoryStore()
	cfg := testConfig()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	previous := cfg.Points
	for i := 0; i < cfg.Points*3; i++ {
		result, _ := store.Take(context.Background(), "key-x", cfg, now)
		if result.Remaining < 0 {
			t.Fatalf("remaining went negative: %d", result.Remaining)
		}
		if result.Remaining > previous {
			t.Fatalf("remaining increased within window: %d -> %d", previous, result.Remaining)
		}
		previous = result.Remaining
	}
}

func TestMemoryStoreIdentitiesAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	cfg := testConfig()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < cfg.Points+1; i++ {
		store.Take(context.Background(), "key-x", cfg, now)
	}
	other, _ := store.Take(context.Background(), "key-y", cfg, now)
	if !other.Allowed {
		t.Fatalf("expected independent identity admitted, got %+v", other)
	}
}
