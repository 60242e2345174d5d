// internal/retry/executor_test.go
package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "spendquery/internal/common/errors"
	"spendquery/internal/common/httpclient"
	"spendquery/internal/common/logger"
	"spendquery/internal/ratelimit"
)

func testPolicy(maxAttempts int) Policy {
	return DefaultPolicy(maxAttempts, 100*time.Millisecond, 2*time.Second)
}

// newTestExecutor records backoff sleeps without actually sleeping.
func newTestExecutor(t *testing.T, policy Policy, limiter *ratelimit.Limiter) (*Executor, *[]time.Duration) {
	var sleeps []time.Duration
	e := NewExecutor(policy, limiter, "test", logger.NewTestLogger(t),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return ctx.Err()
		}),
	)
	return e, &sleeps
}

func response(status int, body string) *httpclient.Response {
	return &httpclient.Response{StatusCode: status, Body: []byte(body)}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	e, sleeps := newTestExecutor(t, testPolicy(3), nil)

	calls := 0
	resp, err := e.Do(context.Background(), "/search", func(ctx context.Context) (*httpclient.Response, error) {
		calls++
		return response(200, `{}`), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}

func TestDo_RetriesServerErrorsThenSucceeds(t *testing.T) {
	e, sleeps := newTestExecutor(t, testPolicy(3), nil)

	calls := 0
	resp, err := e.Do(context.Background(), "/search", func(ctx context.Context) (*httpclient.Response, error) {
		calls++
		if calls < 3 {
			return response(500, "boom"), nil
		}
		return response(200, `{}`), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, calls)
	// maxAttempts-1 backoff delays, doubling from the base.
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *sleeps)
}

func TestDo_TerminalStatusReturnsImmediately(t *testing.T) {
	e, sleeps := newTestExecutor(t, testPolicy(3), nil)

	calls := 0
	resp, err := e.Do(context.Background(), "/search", func(ctx context.Context) (*httpclient.Response, error) {
		calls++
		return response(404, "not found"), nil
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
	assert.Equal(t, 404, resp.StatusCode)

	var upstream *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 404, upstream.StatusCode)
}

func TestDo_ExhaustionAnnotatesError(t *testing.T) {
	e, _ := newTestExecutor(t, testPolicy(3), nil)

	resp, err := e.Do(context.Background(), "/search", func(ctx context.Context) (*httpclient.Response, error) {
		return response(503, "unavailable"), nil
	})

	require.Error(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	var exhausted *apperrors.RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)

	var upstream *apperrors.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestDo_RetryableTransportErrors(t *testing.T) {
	tests := []struct {
		name      string
		kind      apperrors.TransportKind
		retryable bool
	}{
		{"timeout", apperrors.KindTimeout, true},
		{"connection refused", apperrors.KindConnectionRefused, true},
		{"connection reset", apperrors.KindConnectionReset, true},
		{"pool exhausted", apperrors.KindPoolExhausted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExecutor(t, testPolicy(2), nil)

			calls := 0
			resp, err := e.Do(context.Background(), "/search", func(ctx context.Context) (*httpclient.Response, error) {
				calls++
				if calls == 1 {
					return nil, apperrors.NewTransportError(tt.kind, assert.AnError)
				}
				return response(200, `{}`), nil
			})

			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, 2, calls)
		})
	}
}

func TestDo_CallerCancellationIsTerminal(t *testing.T) {
	e, _ := newTestExecutor(t, testPolicy(3), nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := e.Do(ctx, "/search", func(ctx context.Context) (*httpclient.Response, error) {
		calls++
		cancel()
		return nil, ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_EveryAttemptAcquiresToken(t *testing.T) {
	// Capacity covers exactly the attempt count; a fixed clock means no
	// refill, so a fourth acquisition would block forever.
	clockNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(3, 1, ratelimit.WithClock(func() time.Time { return clockNow }))

	e, _ := newTestExecutor(t, testPolicy(3), limiter)

	_, err := e.Do(context.Background(), "/search", func(ctx context.Context) (*httpclient.Response, error) {
		return response(500, "boom"), nil
	})

	var exhausted *apperrors.RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 0.0, limiter.Stats("test").AvailableTokens)
}

func TestBackoffDelay_CapsAtMaxDelay(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond, MaxAttempts: 10}

	assert.Equal(t, 100*time.Millisecond, p.BackoffDelay(1))
	assert.Equal(t, 200*time.Millisecond, p.BackoffDelay(2))
	assert.Equal(t, 350*time.Millisecond, p.BackoffDelay(3))
	assert.Equal(t, 350*time.Millisecond, p.BackoffDelay(8))
}
