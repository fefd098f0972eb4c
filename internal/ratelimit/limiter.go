// Package ratelimit provides a fixed-window in-memory request limiter.
//
// Limits are a soft defense: state lives in process memory, resets on
// restart, and is independent per replica.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	windowStart time.Time
	count       int
}

// Limiter counts requests per opaque string key in fixed windows.
// Safe for concurrent use. Buckets are created lazily on first use of a key
// and reset in place once their window elapses; unrelated keys never
// contend beyond the map lock.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// New creates an empty limiter.
func New() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket)}
}

// Allow reports whether a request under key fits within limit per window,
// evaluated at the given instant, and counts it if so. Once the count
// reaches limit, further calls in the same window return false without
// advancing the bucket. Exact races at window rollover may admit a request
// on either side of the boundary; that is accepted behavior.
func (l *Limiter) Allow(key string, limit int, window time.Duration, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{windowStart: now}
		l.buckets[key] = b
	}

	if now.Sub(b.windowStart) >= window {
		b.windowStart = now
		b.count = 0
	}

	if b.count >= limit {
		return false
	}
	b.count++
	return true
}

// AllowNow is Allow evaluated at the current wall-clock time.
func (l *Limiter) AllowNow(key string, limit int, window time.Duration) bool {
	return l.Allow(key, limit, window, time.Now())
}

// Prune drops buckets whose window ended before the given instant. Intended
// for a periodic maintenance pass so long-idle keys do not accumulate.
func (l *Limiter) Prune(window time.Duration, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var dropped int
	for key, b := range l.buckets {
		if now.Sub(b.windowStart) >= window {
			delete(l.buckets, key)
			dropped++
		}
	}
	return dropped
}
