// Package ratelimit throttles login attempts per client key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter reports whether one more attempt for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Unlimited allows everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// MemoryLimiter is a token bucket per key, refilled at limit per window
// with a burst of limit. Idle keys are dropped after a window of silence.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	window   time.Duration
	calls    int
	now      func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit < 1 {
		limit = 1
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.calls++
	if m.calls%1024 == 0 {
		m.sweep(now)
	}

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(m.every, m.burst)}
		m.visitors[key] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1), nil
}

func (m *MemoryLimiter) sweep(now time.Time) {
	for k, v := range m.visitors {
		if now.Sub(v.seen) > m.window {
			delete(m.visitors, k)
		}
	}
}
