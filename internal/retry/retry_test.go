package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	out := Execute(context.Background(), "test", Fast, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	if !out.Success {
		t.Fatalf("expected success, got error: %v", out.Err)
	}
	if out.Data != "ok" {
		t.Errorf("Data = %q, want %q", out.Data, "ok")
	}
	if out.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", out.RetryCount)
	}
}

func TestExecuteRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	policy := Policy{MaxRetries: 2, Delay: time.Millisecond, Timeout: time.Second}
	out := Execute(context.Background(), "test", policy, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, &StatusError{StatusCode: 503, Message: "overloaded"}
		}
		return 42, nil
	})
	if !out.Success {
		t.Fatalf("expected success after retries, got error: %v", out.Err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if out.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", out.RetryCount)
	}
	if out.Data != 42 {
		t.Errorf("Data = %d, want 42", out.Data)
	}
}

func TestExecuteStopsOnNonTransient(t *testing.T) {
	calls := 0
	policy := Policy{MaxRetries: 3, Delay: time.Millisecond, Timeout: time.Second}
	out := Execute(context.Background(), "test", policy, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("invalid request payload")
	})
	if out.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on non-transient error)", calls)
	}
	if out.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0 (no retries were performed)", out.RetryCount)
	}
}

func TestExecuteReportsRetriesTaken(t *testing.T) {
	policy := Policy{MaxRetries: 2, Delay: time.Millisecond, Timeout: time.Second}
	out := Execute(context.Background(), "test", policy, func(ctx context.Context) (string, error) {
		return "", &StatusError{StatusCode: 503}
	})
	if out.Success {
		t.Fatal("expected failure")
	}
	if out.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2 (all retries exhausted)", out.RetryCount)
	}
}

func TestExecuteTimesOutSlowAttempt(t *testing.T) {
	policy := Policy{MaxRetries: 0, Delay: time.Millisecond, Timeout: 20 * time.Millisecond}
	out := Execute(context.Background(), "slow", policy, func(ctx context.Context) (string, error) {
		select {
		case <-time.After(time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	if out.Success {
		t.Fatal("expected timeout failure")
	}
	if !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want wrapped context.DeadlineExceeded", out.Err)
	}
}

func TestExecuteRespectsCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	policy := Policy{MaxRetries: 5, Delay: 10 * time.Millisecond, Timeout: time.Second}
	out := Execute(ctx, "test", policy, func(ctx context.Context) (string, error) {
		calls++
		return "", &StatusError{StatusCode: 500}
	})
	if out.Success {
		t.Fatal("expected failure under cancelled context")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after parent cancellation)", calls)
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limit status", &StatusError{StatusCode: 429}, true},
		{"server error status", &StatusError{StatusCode: 503}, true},
		{"client error status", &StatusError{StatusCode: 400}, false},
		{"rate limit text", errors.New("Rate limit exceeded"), true},
		{"timeout text", errors.New("request timed out"), true},
		{"overloaded text", errors.New("model is overloaded"), true},
		{"plain failure", errors.New("malformed response"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transient(tt.err); got != tt.want {
				t.Errorf("Transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRateLimitedDoublesDelay(t *testing.T) {
	var gaps []time.Time
	policy := Policy{MaxRetries: 2, Delay: 10 * time.Millisecond, Timeout: time.Second}
	out := Execute(context.Background(), "test", policy, func(ctx context.Context) (string, error) {
		gaps = append(gaps, time.Now())
		return "", &StatusError{StatusCode: 429}
	})
	if out.Success {
		t.Fatal("expected failure")
	}
	if len(gaps) != 3 {
		t.Fatalf("attempts = %d, want 3", len(gaps))
	}
	first := gaps[1].Sub(gaps[0])
	second := gaps[2].Sub(gaps[1])
	if second < first {
		t.Errorf("backoff did not widen: first gap %v, second gap %v", first, second)
	}
}
