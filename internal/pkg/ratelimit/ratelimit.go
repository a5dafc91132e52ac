package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between successive calls. The public
// Overpass and Nominatim instances throttle clients that burst, so every
// outbound request passes through Wait first.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// New returns a limiter allowing one call per interval. A zero or negative
// interval disables waiting.
func New(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait blocks until the configured interval since the previous call has
// elapsed, or the context is cancelled. Concurrent callers are serialized.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if wait := l.interval - time.Since(l.last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.last = time.Now()
	return nil
}
