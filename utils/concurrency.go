package utils

import (
	"sync"
	"time"
)

// Gate serializes poll cycles: at most one holder at a time. A timer
// tick and an interactive request can therefore never run two cycles
// concurrently against the ledger.
type Gate struct {
	mu sync.Mutex
}

// Acquire blocks until the gate is free and takes it.
func (g *Gate) Acquire() {
	g.mu.Lock()
}

// TryAcquire takes the gate only if it is free and reports success.
func (g *Gate) TryAcquire() bool {
	return g.mu.TryLock()
}

// Release frees the gate.
func (g *Gate) Release() {
	g.mu.Unlock()
}

// RateLimiter enforces a minimum interval between outbound requests so
// the scraped site is not hammered.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewRateLimiter creates a RateLimiter with the given minimum interval.
// A zero or negative interval disables limiting.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{minInterval: minInterval}
}

// Wait blocks until at least the configured interval has elapsed since
// the previous call.
func (r *RateLimiter) Wait() {
	if r.minInterval <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastRequest.IsZero() {
		if elapsed := time.Since(r.lastRequest); elapsed < r.minInterval {
			time.Sleep(r.minInterval - elapsed)
		}
	}
	r.lastRequest = time.Now()
}
