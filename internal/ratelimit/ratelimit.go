// Package ratelimit enforces the post-creation quota: a fixed number of
// allowed actions per key within a rolling window.
package ratelimit

import (
	"context"
	"time"
)

// Limiter answers a single atomic check-and-increment per call. A denied
// call consumes nothing.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Policy defines the window shared by all limiter implementations.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicy is the production creation quota.
func DefaultPolicy() Policy {
	return Policy{Limit: 3, Window: 60 * time.Second}
}
