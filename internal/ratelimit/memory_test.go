package ratelimit

import (
	"context"
	"testing"
	"time"
)

func newFixedClockLimiter(t *testing.T) (*MemoryLimiter, *time.Time) {
	t.Helper()
	l := NewMemoryLimiter(DefaultPolicy())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowUpToLimit(t *testing.T) {
	ctx := context.Background()
	l, _ := newFixedClockLimiter(t)

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "author")
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	ok, err := l.Allow(ctx, "author")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatal("4th call within the window should be denied")
	}
}

func TestWindowSlides(t *testing.T) {
	ctx := context.Background()
	l, now := newFixedClockLimiter(t)

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(ctx, "author"); !ok {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "author"); ok {
		t.Fatal("expected denial at quota")
	}

	*now = now.Add(61 * time.Second)
	ok, err := l.Allow(ctx, "author")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !ok {
		t.Fatal("call after the window elapsed should be allowed")
	}
}

func TestDeniedCallConsumesNothing(t *testing.T) {
	ctx := context.Background()
	l, now := newFixedClockLimiter(t)

	for i := 0; i < 4; i++ {
		l.Allow(ctx, "author")
	}
	// Only the 3 allowed attempts occupy the window; once the first of them
	// expires a new attempt fits.
	*now = now.Add(60*time.Second + time.Millisecond)
	if ok, _ := l.Allow(ctx, "author"); !ok {
		t.Fatal("denied attempts must not extend the window")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := newFixedClockLimiter(t)

	for i := 0; i < 3; i++ {
		l.Allow(ctx, "author_a")
	}
	if ok, _ := l.Allow(ctx, "author_a"); ok {
		t.Fatal("author_a should be at quota")
	}
	if ok, _ := l.Allow(ctx, "author_b"); !ok {
		t.Fatal("author_b has its own window")
	}
}

func TestPruneDropsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	l, now := newFixedClockLimiter(t)

	l.Allow(ctx, "stale")
	*now = now.Add(2 * time.Minute)
	l.Allow(ctx, "fresh")

	l.Prune()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.windows["stale"]; ok {
		t.Fatal("stale key should be pruned")
	}
	if _, ok := l.windows["fresh"]; !ok {
		t.Fatal("fresh key should survive pruning")
	}
}
