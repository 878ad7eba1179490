package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"steer-sdk/core/pkg/providers"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestExecute_SucceedsOnFirstTry(t *testing.T) {
	calls := 0
	state, err := execute(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return nil
	}, noSleep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if state.Attempts != 0 {
		t.Errorf("expected 0 retries, got %d", state.Attempts)
	}
}

func TestExecute_RetriesServerErrorThenSucceeds(t *testing.T) {
	calls := 0
	state, err := execute(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &providers.ProviderError{Provider: "openai", StatusCodeValue: 500, Message: "boom"}
		}
		return nil
	}, noSleep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if state.Attempts != 2 {
		t.Errorf("expected 2 retries, got %d", state.Attempts)
	}
}

func TestExecute_StopsOnNonRetryableCategory(t *testing.T) {
	calls := 0
	_, err := execute(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return &providers.ValidationError{Field: "model", Message: "missing"}
	}, noSleep)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry on validation), got %d", calls)
	}
}

func TestExecute_StopsAtMaxAttempts(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxAttempts = 2

	calls := 0
	_, err := execute(context.Background(), policy, func(ctx context.Context) error {
		calls++
		return &providers.ProviderError{Provider: "openai", StatusCodeValue: 503}
	}, noSleep)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 calls (MaxAttempts), got %d", calls)
	}
}

func TestExecute_RespectsExplicitRetryable(t *testing.T) {
	calls := 0
	state, err := execute(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return explicitRetryableError{}
		}
		return nil
	}, noSleep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Attempts != 1 {
		t.Errorf("expected 1 retry, got %d", state.Attempts)
	}
}

type explicitRetryableError struct{}

func (explicitRetryableError) Error() string         { return "borderline error" }
func (explicitRetryableError) IsRetryable() bool      { return true }
func (explicitRetryableError) StatusCode() int        { return 0 }
func (explicitRetryableError) RetryAfter() time.Duration { return 0 }
func (explicitRetryableError) TypeName() string       { return "" }

func TestNextDelay_FloorsAt100ms(t *testing.T) {
	policy := Policy{InitialDelay: time.Nanosecond, BackoffFactor: 1, ExponentialBackoff: true}
	d := nextDelay(policy, 0, classifyErr(errors.New("x")))
	if d < 100*time.Millisecond {
		t.Errorf("expected floor of 100ms, got %s", d)
	}
}
