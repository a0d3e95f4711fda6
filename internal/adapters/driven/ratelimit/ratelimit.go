// Package ratelimit throttles requests to remote AI providers.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration for a provider.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// Defaults per provider. Local servers get a generous budget; cloud APIs
// stay well below published tier-1 limits.
var Defaults = map[string]Config{
	"ollama":    {RequestsPerSecond: 50, BurstSize: 50},
	"lmstudio":  {RequestsPerSecond: 20, BurstSize: 20},
	"openai":    {RequestsPerSecond: 5, BurstSize: 10},
	"anthropic": {RequestsPerSecond: 1, BurstSize: 5},
}

// DefaultBackoff applies when a 429 carries no Retry-After header.
const DefaultBackoff = 30 * time.Second

// Limiter is a token bucket with a backoff window set by 429 responses.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// New creates a limiter with the defaults for provider.
func New(provider string) *Limiter {
	cfg, ok := Defaults[provider]
	if !ok {
		cfg = Config{RequestsPerSecond: 5, BurstSize: 10}
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a limiter with custom configuration.
func NewWithConfig(cfg Config) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by Backoff.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Backoff delays future requests after a 429. retryAfter is the raw
// Retry-After header value in seconds; empty or invalid uses DefaultBackoff.
func (l *Limiter) Backoff(retryAfter string) {
	d := DefaultBackoff
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		d = time.Duration(secs) * time.Second
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.retryAt = time.Now().Add(d)
}

// Allow reports whether a request can be made immediately.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return l.limiter.Allow()
}
