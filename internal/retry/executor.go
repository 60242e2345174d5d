// internal/retry/executor.go

// Package retry wraps a single idempotent outbound call with classified
// exponential backoff. Transport failures and a fixed set of status codes are
// retried; everything else is terminal and surfaced immediately.
package retry

import (
	"context"
	"errors"
	"time"

	apperrors "spendquery/internal/common/errors"
	"spendquery/internal/common/httpclient"
	"spendquery/internal/common/logger"
	"spendquery/internal/common/metrics"
	"spendquery/internal/ratelimit"
)

// Operation performs one attempt of an idempotent outbound call.
type Operation func(ctx context.Context) (*httpclient.Response, error)

// Policy is the immutable retry configuration, constructed once at startup.
type Policy struct {
	MaxAttempts          int
	BaseDelay            time.Duration
	MaxDelay             time.Duration
	RetryableStatusCodes map[int]bool
}

// DefaultPolicy returns the standard policy for the spending API: transient
// server-side statuses plus request-timeout and throttling responses.
func DefaultPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		RetryableStatusCodes: map[int]bool{
			408: true, 429: true, 500: true, 502: true, 503: true, 504: true,
		},
	}
}

// BackoffDelay computes the delay before the given 1-based attempt retries.
func (p Policy) BackoffDelay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Executor runs operations under a policy, re-acquiring a rate-limit token
// before every attempt: a retried attempt is a fresh request against the
// upstream API's own limits.
type Executor struct {
	policy     Policy
	limiter    *ratelimit.Limiter
	identifier string
	logger     logger.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option customizes an Executor, used by tests to observe backoff sleeps.
type Option func(*Executor)

// WithSleep replaces the cancellable backoff sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// NewExecutor builds an Executor. The limiter may be nil for calls that are
// not rate-gated (e.g. local collaborators).
func NewExecutor(policy Policy, limiter *ratelimit.Limiter, identifier string, log logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		policy:     policy,
		limiter:    limiter,
		identifier: identifier,
		logger:     log,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
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

// Do executes the operation with up to MaxAttempts tries. On success it
// returns the 2xx response. Terminal outcomes (non-retryable statuses,
// configuration errors, cancellation) return immediately. When attempts are
// exhausted the final outcome is wrapped in a RetriesExhaustedError; the
// caller must not re-attempt.
func (e *Executor) Do(ctx context.Context, endpoint string, op Operation) (*httpclient.Response, error) {
	start := time.Now()
	var lastErr error
	var lastResp *httpclient.Response

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Acquire(ctx, e.identifier, 1); err != nil {
				return nil, err
			}
		}

		resp, err := op(ctx)
		switch {
		case err != nil:
			if !e.retryableError(err) {
				return nil, err
			}
			lastErr = err
			lastResp = nil
		case resp.IsSuccess():
			metrics.APIRequestsTotal.WithLabelValues(endpoint, "2xx").Inc()
			return resp, nil
		case e.policy.RetryableStatusCodes[resp.StatusCode]:
			lastErr = apperrors.NewUpstreamError(resp.StatusCode, string(resp.Body))
			lastResp = resp
		default:
			// Terminal status (e.g. 4xx other than 408/429): surfaced as-is,
			// no retry.
			metrics.APIRequestsTotal.WithLabelValues(endpoint, statusClass(resp)).Inc()
			return resp, apperrors.NewUpstreamError(resp.StatusCode, string(resp.Body))
		}

		metrics.APIRequestsTotal.WithLabelValues(endpoint, statusClass(lastResp)).Inc()

		if attempt == e.policy.MaxAttempts {
			break
		}

		delay := e.policy.BackoffDelay(attempt)
		e.logger.Warn("retryable attempt failed, backing off", map[string]interface{}{
			"endpoint":    endpoint,
			"attempt":     attempt,
			"maxAttempts": e.policy.MaxAttempts,
			"delay":       delay.String(),
			"error":       lastErr.Error(),
		})
		metrics.APIRetriesTotal.WithLabelValues(endpoint).Inc()

		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return lastResp, apperrors.NewRetriesExhaustedError(e.policy.MaxAttempts, time.Since(start), lastErr)
}

// retryableError reports whether a transport-level failure may be retried.
// Classified transport errors are checked first: a per-attempt client timeout
// also satisfies errors.Is(err, context.DeadlineExceeded) but is retryable.
// Bare context errors mean the caller gave up and are never retried.
func (e *Executor) retryableError(err error) bool {
	var te *apperrors.TransportError
	if errors.As(err, &te) {
		return apperrors.IsRetryableKind(te.Kind)
	}
	return false
}

func statusClass(resp *httpclient.Response) string {
	if resp == nil {
		return "transport_error"
	}
	switch {
	case resp.StatusCode >= 500:
		return "5xx"
	case resp.StatusCode >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
