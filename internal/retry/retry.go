// Package retry wraps provider calls with bounded retries, per-attempt
// timeouts, and transient-failure classification.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Policy controls one wrapped operation.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Delay is the pause before the first retry; doubled on rate limits.
	Delay time.Duration
	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

// Presets tuned to call expense: cheap metadata calls fail fast, full
// generation calls get one long-fused retry.
var (
	Fast      = Policy{MaxRetries: 1, Delay: 500 * time.Millisecond, Timeout: 10 * time.Second}
	Standard  = Policy{MaxRetries: 2, Delay: time.Second, Timeout: 30 * time.Second}
	Expensive = Policy{MaxRetries: 1, Delay: 3 * time.Second, Timeout: 60 * time.Second}
)

// WithTimeout returns a copy of the policy with the attempt timeout replaced,
// typically after capping against the run budget.
func (p Policy) WithTimeout(d time.Duration) Policy {
	p.Timeout = d
	return p
}

// StatusError carries an HTTP status from a provider so the retry loop can
// classify it. Anything else is treated as non-transient.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// Outcome is the uniform result of a wrapped operation. Success is explicit
// so callers can persist partial failures without re-deriving them from err.
type Outcome[T any] struct {
	Success    bool
	Data       T
	Err        error
	Duration   time.Duration
	RetryCount int
}

// Execute runs op under the policy, retrying transient failures. Each attempt
// gets its own deadline; an attempt that outlives it fails with a timeout and
// counts as transient. The label tags log lines only.
func Execute[T any](ctx context.Context, label string, policy Policy, op func(context.Context) (T, error)) Outcome[T] {
	start := time.Now()
	delay := policy.Delay
	var lastErr error
	retries := 0

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		retries = attempt
		if attempt > 0 {
			log.Printf("[retry] %s: attempt %d/%d after %v (last error: %v)",
				label, attempt+1, policy.MaxRetries+1, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Outcome[T]{Err: ctx.Err(), Duration: time.Since(start), RetryCount: attempt}
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		data, err := op(attemptCtx)
		cancel()

		if err == nil {
			return Outcome[T]{Success: true, Data: data, Duration: time.Since(start), RetryCount: attempt}
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s timed out after %v: %w", label, policy.Timeout, context.DeadlineExceeded)
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if !Transient(err) {
			break
		}
		if RateLimited(err) {
			delay *= 2
		}
	}

	return Outcome[T]{Err: lastErr, Duration: time.Since(start), RetryCount: retries}
}

// Transient reports whether the error is worth retrying: timeouts, rate
// limits, and provider-side 5xx responses.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429 || se.StatusCode >= 500
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "overloaded")
}

// RateLimited reports whether the error indicates throttling, which widens
// the backoff instead of hammering the provider at the same cadence.
func RateLimited(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "429")
}
