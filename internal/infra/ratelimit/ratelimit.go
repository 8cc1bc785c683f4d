// Package ratelimit throttles upload traffic per wallet address.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// NoopLimiter admits everything; used when no limit is configured.
type NoopLimiter struct{}

func (NoopLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
}

// WindowLimiter is an in-process fixed-window counter, used when rate
// limiting is enabled but no Redis is available. Not shared across replicas.
type WindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewWindowLimiter(now func() time.Time) *WindowLimiter {
	if now == nil {
		now = time.Now
	}
	return &WindowLimiter{windows: make(map[string]*window), now: now}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string, limit int, windowSize time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(windowSize)}
		l.windows[key] = w
	}
	w.count++

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   w.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}, nil
}
