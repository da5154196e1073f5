package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-client token bucket. A zero rate or burst disables it.
type Limiter struct {
	mu      sync.Mutex
	rps     float64
	burst   float64
	idle    time.Duration
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		rps:     rps,
		burst:   float64(burst),
		idle:    10 * time.Minute,
		buckets: make(map[string]*bucket),
	}
}

// Allow returns true if the client may proceed, false if rate limited.
func (l *Limiter) Allow(client string, now time.Time) bool {
	if l == nil || client == "" {
		return true
	}
	if l.rps <= 0 || l.burst <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[client] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	b.tokens += elapsed * l.rps
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Sweep drops buckets that have been idle long enough to be full again.
func (l *Limiter) Sweep(now time.Time) int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for client, b := range l.buckets {
		if now.Sub(b.last) > l.idle {
			delete(l.buckets, client)
			removed++
		}
	}
	return removed
}

func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
