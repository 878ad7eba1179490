package ratelimit

import (
	"fmt"
	"time"
)

// requestWindow pairs one request-rate token bucket with the reset it
// reports when exhausted.
type requestWindow struct {
	name       string
	bucket     *TokenBucket
	resetAfter time.Duration
}

// tokenWindow pairs one token-rate sliding window with the budget it
// enforces over that window.
type tokenWindow struct {
	name       string
	window     *SlidingWindow
	limit      int64
	resetAfter time.Duration
}

// Limiter coordinates request-rate, token-rate, and concurrency limits for
// a single (provider, model) bucket, as produced by one Config. The three
// request windows (second/minute/hour) and two token windows
// (minute/hour) are driven through the same generic check loop rather
// than duplicated per window, so adding a new granularity is one entry in
// buildRequestWindows/buildTokenWindows, not a new copy-pasted branch.
type Limiter struct {
	requestWindows []requestWindow
	tokenWindows   []tokenWindow
	concurrent     *ConcurrentLimiter
	config         Config
}

// NewLimiter builds a Limiter from config. Fields left at zero impose no
// limit on that dimension.
func NewLimiter(config Config) *Limiter {
	return &Limiter{
		config:         config,
		requestWindows: buildRequestWindows(config),
		tokenWindows:   buildTokenWindows(config),
		concurrent:     buildConcurrent(config),
	}
}

func buildRequestWindows(config Config) []requestWindow {
	var windows []requestWindow
	if config.RequestsPerSecond > 0 {
		capacity := int64(config.RequestsPerSecond * 2) // allow a 2x burst
		windows = append(windows, requestWindow{
			name:       "second",
			bucket:     NewTokenBucket(capacity, float64(config.RequestsPerSecond)),
			resetAfter: time.Second,
		})
	}
	if config.RequestsPerMinute > 0 {
		windows = append(windows, requestWindow{
			name:       "minute",
			bucket:     NewTokenBucket(int64(config.RequestsPerMinute), float64(config.RequestsPerMinute)/60.0),
			resetAfter: time.Minute,
		})
	}
	if config.RequestsPerHour > 0 {
		capacity := int64(config.RequestsPerHour / 12) // allow a 5-minute burst
		windows = append(windows, requestWindow{
			name:       "hour",
			bucket:     NewTokenBucket(capacity, float64(config.RequestsPerHour)/3600.0),
			resetAfter: time.Hour,
		})
	}
	return windows
}

func buildTokenWindows(config Config) []tokenWindow {
	var windows []tokenWindow
	if config.TokensPerMinute > 0 {
		windows = append(windows, tokenWindow{
			name:       "minute",
			window:     NewSlidingWindow(time.Minute, time.Second),
			limit:      int64(config.TokensPerMinute),
			resetAfter: time.Minute,
		})
	}
	if config.TokensPerHour > 0 {
		windows = append(windows, tokenWindow{
			name:       "hour",
			window:     NewSlidingWindow(time.Hour, time.Minute),
			limit:      int64(config.TokensPerHour),
			resetAfter: time.Hour,
		})
	}
	return windows
}

func buildConcurrent(config Config) *ConcurrentLimiter {
	if config.MaxConcurrent <= 0 {
		return nil
	}
	return NewConcurrentLimiter(config.MaxConcurrent)
}

// CheckRequest draws one token from every configured request window.
// Once a window rejects, the buckets it already drew from stay drawn;
// callers treat a rejected Decision as "do not send this request" rather
// than retrying the same Limiter call.
func (l *Limiter) CheckRequest() *Decision {
	for _, w := range l.requestWindows {
		if w.bucket.Take(1) {
			continue
		}
		return &Decision{
			Reason:     fmt.Sprintf("requests per %s limit exceeded", w.name),
			Limit:      w.bucket.Capacity(),
			Remaining:  w.bucket.Remaining(),
			Reset:      time.Now().Add(w.resetAfter),
			RetryAfter: w.bucket.TimeUntilAvailable(1),
		}
	}
	return &Decision{Allowed: true}
}

// CheckTokens reports whether estimatedTokens would fit within every
// configured token window without recording anything; RecordTokens does
// the actual accounting once the request's real usage is known.
func (l *Limiter) CheckTokens(estimatedTokens int) *Decision {
	for _, w := range l.tokenWindows {
		used := w.window.Sum()
		if used+int64(estimatedTokens) <= w.limit {
			continue
		}
		return &Decision{
			Reason:     fmt.Sprintf("tokens per %s limit exceeded", w.name),
			Limit:      w.limit,
			Remaining:  w.limit - used,
			Reset:      time.Now().Add(w.resetAfter),
			RetryAfter: w.resetAfter,
		}
	}
	return &Decision{Allowed: true}
}

// RecordTokens adds actualTokens to every configured token window after a
// request completes.
func (l *Limiter) RecordTokens(actualTokens int) {
	for _, w := range l.tokenWindows {
		w.window.Add(int64(actualTokens))
	}
}

// AcquireConcurrent claims a concurrency slot. The caller must call
// ReleaseConcurrent once it returns true.
func (l *Limiter) AcquireConcurrent() bool {
	if l.concurrent == nil {
		return true
	}
	return l.concurrent.Acquire()
}

// ReleaseConcurrent frees a slot claimed by AcquireConcurrent.
func (l *Limiter) ReleaseConcurrent() {
	if l.concurrent != nil {
		l.concurrent.Release()
	}
}

// ConcurrentStatus reports the current concurrency usage without
// attempting to acquire a slot.
func (l *Limiter) ConcurrentStatus() *Decision {
	if l.concurrent == nil {
		return &Decision{Allowed: true}
	}
	return &Decision{
		Allowed:   true,
		Limit:     l.concurrent.Limit(),
		Remaining: l.concurrent.Remaining(),
	}
}

// Reset clears every window and the concurrency counter. Tests use this to
// isolate scenarios without rebuilding a Limiter.
func (l *Limiter) Reset() {
	for _, w := range l.requestWindows {
		w.bucket.Reset()
	}
	for _, w := range l.tokenWindows {
		w.window.Reset()
	}
	if l.concurrent != nil {
		l.concurrent.Reset()
	}
}
