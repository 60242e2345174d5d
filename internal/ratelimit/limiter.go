// internal/ratelimit/limiter.go

// Package ratelimit implements the per-identifier token bucket that gatekeeps
// every outbound request against the shared spending API.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "spendquery/internal/common/errors"
	"spendquery/internal/common/metrics"
)

// Stats is a non-consuming snapshot of one bucket, for diagnostics.
type Stats struct {
	AvailableTokens float64 `json:"availableTokens"`
	Capacity        float64 `json:"capacity"`
	RefillPerSecond float64 `json:"refillPerSecond"`
}

// DefaultIdentifier is the single shared bucket used when callers do not
// partition by API key or host.
const DefaultIdentifier = "upstream"

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// Limiter owns a lazily-populated map of token buckets, one per identifier.
// Buckets live for the process lifetime.
type Limiter struct {
	capacity        float64
	refillPerSecond float64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	buckets map[string]*bucket
}

// Option customizes a Limiter, used by tests to control time.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSleep replaces the cancellable wait between refill checks.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) { l.sleep = sleep }
}

func New(capacity, refillPerSecond float64, opts ...Option) *Limiter {
	l := &Limiter{
		capacity:        capacity,
		refillPerSecond: refillPerSecond,
		now:             time.Now,
		sleep:           sleepContext,
		buckets:         make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) bucketFor(identifier string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[identifier]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: l.now()}
		l.buckets[identifier] = b
	}
	return b
}

// refillLocked adds elapsed*rate tokens capped at capacity. Caller holds b.mu.
func (l *Limiter) refillLocked(b *bucket) {
	now := l.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.refillPerSecond
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
	}
	b.lastRefill = now
}

// Acquire waits until cost tokens are available on the identifier's bucket,
// then consumes them. A cancelled wait consumes nothing. Costs above the
// bucket capacity can never be satisfied and fail fast.
func (l *Limiter) Acquire(ctx context.Context, identifier string, cost float64) error {
	if err := l.checkCost(cost); err != nil {
		return err
	}

	b := l.bucketFor(identifier)
	start := l.now()

	for {
		b.mu.Lock()
		l.refillLocked(b)
		if b.tokens >= cost {
			b.tokens -= cost
			b.mu.Unlock()
			waited := l.now().Sub(start)
			if waited > 0 {
				metrics.RateLimiterWaitSeconds.WithLabelValues(identifier).Observe(waited.Seconds())
			}
			return nil
		}
		wait := time.Duration((cost - b.tokens) / l.refillPerSecond * float64(time.Second))
		b.mu.Unlock()

		// Concurrent acquirers on the same identifier may win the refilled
		// tokens first; in that case the loop waits out the new deficit
		// rather than failing.
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// TryAcquire is the non-blocking variant. It reports false both when tokens
// are currently insufficient and when the cost can never be satisfied.
func (l *Limiter) TryAcquire(identifier string, cost float64) bool {
	if err := l.checkCost(cost); err != nil {
		return false
	}

	b := l.bucketFor(identifier)
	b.mu.Lock()
	defer b.mu.Unlock()
	l.refillLocked(b)
	if b.tokens >= cost {
		b.tokens -= cost
		return true
	}
	return false
}

// Stats returns a current snapshot without consuming tokens. The refill
// timestamp is advanced so the reported balance is current.
func (l *Limiter) Stats(identifier string) Stats {
	b := l.bucketFor(identifier)
	b.mu.Lock()
	defer b.mu.Unlock()
	l.refillLocked(b)
	return Stats{
		AvailableTokens: b.tokens,
		Capacity:        l.capacity,
		RefillPerSecond: l.refillPerSecond,
	}
}

func (l *Limiter) checkCost(cost float64) error {
	if cost <= 0 {
		return apperrors.NewConfigurationError(
			"rate-limit cost must be positive",
			fmt.Sprintf("cost: %v", cost),
		)
	}
	if cost > l.capacity {
		return apperrors.NewConfigurationError(
			"rate-limit cost exceeds bucket capacity",
			fmt.Sprintf("cost: %v, capacity: %v", cost, l.capacity),
		)
	}
	return nil
}
