package model

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior for capability calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialBackoff is the starting backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each attempt.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64

	// RetryableFunc optionally overrides the default retryability check.
	// The default retries only CapabilityErrors marked retryable.
	RetryableFunc func(error) bool
}

// DefaultRetry is the standard retry configuration.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// AggressiveRetry retries more times with shorter backoff.
var AggressiveRetry = RetryConfig{
	MaxAttempts:    5,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     10 * time.Second,
	BackoffFactor:  1.5,
	Jitter:         0.2,
}

// NoRetry disables retries.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

// RetryResult contains the outcome of a retried operation.
type RetryResult[T any] struct {
	// Value is the result if successful.
	Value T

	// Err is the final error if all attempts failed.
	Err error

	// Attempts is the number of attempts made.
	Attempts int

	// Duration is the total time spent including backoff.
	Duration time.Duration
}

// Retry executes fn with retries, respecting context cancellation.
// Non-retryable errors and context cancellation stop immediately.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) RetryResult[T] {
	start := time.Now()
	backoff := cfg.InitialBackoff
	var lastErr error

	retryable := cfg.RetryableFunc
	if retryable == nil {
		retryable = IsRetryable
	}

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return RetryResult[T]{Err: err, Attempts: attempt, Duration: time.Since(start)}
		}

		result, err := fn(ctx)
		if err == nil {
			return RetryResult[T]{Value: result, Attempts: attempt + 1, Duration: time.Since(start)}
		}
		lastErr = err

		if !retryable(err) {
			return RetryResult[T]{Err: err, Attempts: attempt + 1, Duration: time.Since(start)}
		}

		// No sleep after the last attempt.
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return RetryResult[T]{Err: ctx.Err(), Attempts: attempt + 1, Duration: time.Since(start)}
			case <-time.After(backoffWithJitter(backoff, cfg.Jitter)):
			}

			backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	return RetryResult[T]{
		Err:      fmt.Errorf("after %d attempts: %w", attempts, lastErr),
		Attempts: attempts,
		Duration: time.Since(start),
	}
}

// backoffWithJitter returns base +/- (base * jitter * random).
func backoffWithJitter(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	amount := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + amount)
}

// RetryingClient wraps a Client with retries on transient failures.
type RetryingClient struct {
	inner Client
	cfg   RetryConfig
}

// WithRetries wraps client so Complete and the initial Stream call retry
// per cfg. In-flight streams are never retried.
func WithRetries(client Client, cfg RetryConfig) *RetryingClient {
	return &RetryingClient{inner: client, cfg: cfg}
}

// Complete implements Client.
func (c *RetryingClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	res := Retry(ctx, c.cfg, func(ctx context.Context) (*CompletionResponse, error) {
		return c.inner.Complete(ctx, req)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Value, nil
}

// Stream implements Client.
func (c *RetryingClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	res := Retry(ctx, c.cfg, func(ctx context.Context) (<-chan StreamChunk, error) {
		return c.inner.Stream(ctx, req)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Value, nil
}
