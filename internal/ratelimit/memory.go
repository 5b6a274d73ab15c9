package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process sliding-window limiter for tests and local
// development. It keeps a timestamp log per key under a mutex.
type MemoryLimiter struct {
	mu      sync.Mutex
	policy  Policy
	windows map[string][]time.Time
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates an empty limiter with the given policy.
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:  policy,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether the keyed caller may act now, recording the attempt
// when allowed.
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.policy.Window)

	window := l.windows[key]
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.policy.Limit {
		l.windows[key] = kept
		return false, nil
	}

	l.windows[key] = append(kept, now)
	return true, nil
}

// Prune drops keys whose windows have fully expired. Intended to run on a
// schedule so idle keys do not accumulate.
func (l *MemoryLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.policy.Window)
	for key, window := range l.windows {
		live := false
		for _, t := range window {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.windows, key)
		}
	}
}
