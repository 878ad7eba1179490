// Package retry implements the policy-driven retry loop: a
// caller-supplied function is retried with exponential backoff and
// jitter, honoring a provider's Retry-After when the classifier surfaces
// one. The backoff math (math.Pow, ctx-aware sleep) used to run inline
// inside pkg/providers' DoRequest; it lives here instead so it can wrap
// any provider call, not just the HTTP transport, and so the router
// itself never retries directly.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"steer-sdk/core/pkg/classify"
)

// Policy configures one retry loop.
type Policy struct {
	MaxAttempts int
	InitialDelay time.Duration
	MaxDelay time.Duration
	BackoffFactor float64
	JitterFactor float64
	RetryOnTimeout bool
	RetryOnRateLimit bool
	RetryOnServerError bool
	RetryOnNetworkError bool
	RespectRetryAfter bool
	ExponentialBackoff bool
	MaxTotalDelay time.Duration
}

// DefaultPolicy is a fixed MaxAttempts=3 (the first call plus at most two
// retries), 1s-doubling backoff policy, applied uniformly across every
// retryable category.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		InitialDelay: time.Second,
		MaxDelay: 30 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor: 0.2,
		RetryOnTimeout: true,
		RetryOnRateLimit: true,
		RetryOnServerError: true,
		RetryOnNetworkError: true,
		RespectRetryAfter: true,
		ExponentialBackoff: true,
		MaxTotalDelay: 2 * time.Minute,
	}
}

// State tracks the attempts made by one execute() call.
type State struct {
	Attempts int
	TotalDelay time.Duration
	LastError error
}

// categoryEnabled reports whether policy permits retrying category.
func categoryEnabled(policy Policy, category classify.Category) bool {
	switch category {
	case classify.Timeout:
		return policy.RetryOnTimeout
	case classify.RateLimit:
		return policy.RetryOnRateLimit
	case classify.ServerError:
		return policy.RetryOnServerError
	case classify.Network:
		return policy.RetryOnNetworkError
	default:
		return false
	}
}

// sleeper abstracts time.Sleep so tests can run without real delays.
type sleeper func(ctx context.Context, d time.Duration) error

func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Execute runs fn, retrying on classify-retryable errors per policy.
// It takes no request or provider identifiers and does no logging of
// its own.
func Execute(ctx context.Context, policy Policy, fn func(ctx context.Context) error) (*State, error) {
	return execute(ctx, policy, fn, ctxSleep)
}

func execute(ctx context.Context, policy Policy, fn func(ctx context.Context) error, sleep sleeper) (*State, error) {
	state := &State{}

	for {
		err := fn(ctx)
		if err == nil {
			return state, nil
		}
		state.LastError = err

		classification := classifyErr(err)

		// An explicit opt-in short-circuits the category check entirely
		//: an adapter can mark a borderline error retryable even
		// when its classified category isn't one the policy enables.
		explicitRetry, hasExplicit := asExplicitRetryable(err)
		switch {
		case hasExplicit && !explicitRetry.IsRetryable():
			return state, err
		case hasExplicit && explicitRetry.IsRetryable():
			// proceed to retry below
		case !classification.IsRetryable || !categoryEnabled(policy, classification.Category):
			return state, err
		}
		if state.Attempts+1 >= policy.MaxAttempts {
			return state, err
		}

		delay := nextDelay(policy, state.Attempts, classification)
		if policy.MaxTotalDelay > 0 && state.TotalDelay+delay > policy.MaxTotalDelay {
			return state, err
		}

		state.Attempts++
		state.TotalDelay += delay

		if err := sleep(ctx, delay); err != nil {
			return state, err
		}
	}
}

func classifyErr(err error) classify.Classification {
	return classify.Classify(err)
}

func asExplicitRetryable(err error) (classify.ExplicitRetryable, bool) {
	var er classify.ExplicitRetryable
	if errors.As(err, &er) {
		return er, true
	}
	return nil, false
}

// nextDelay computes the wait before the next attempt:
// Retry-After wins when present and respected; otherwise exponential
// backoff capped at MaxDelay, with ±jitterFactor jitter and a 100ms floor.
func nextDelay(policy Policy, attempt int, classification classify.Classification) time.Duration {
	var base time.Duration
	respectingRetryAfter := policy.RespectRetryAfter && classification.SuggestedDelay > 0
	if respectingRetryAfter {
		base = classification.SuggestedDelay
	} else if policy.ExponentialBackoff {
		base = time.Duration(float64(policy.InitialDelay) * math.Pow(policy.BackoffFactor, float64(attempt)))
	} else {
		base = policy.InitialDelay
	}

	if policy.JitterFactor > 0 {
		if respectingRetryAfter {
			// Retry-After is a floor, not a midpoint: the
			// next attempt must land in [X, X+jitter], never below it.
			jitter := rand.Float64() * policy.JitterFactor * float64(base)
			base = base + time.Duration(jitter)
		} else {
			jitter := (rand.Float64()*2 - 1) * policy.JitterFactor * float64(base)
			base = base + time.Duration(jitter)
		}
	}

	if policy.MaxDelay > 0 && base > policy.MaxDelay {
		base = policy.MaxDelay
	}

	const floor = 100 * time.Millisecond
	if base < floor {
		base = floor
	}
	return base
}
