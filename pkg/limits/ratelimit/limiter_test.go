package ratelimit

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	cases := []struct {
		provider, model, want string
	}{
		{"anthropic", "claude-3-opus", "anthropic::claude-3-opus"},
		{"anthropic", "", "anthropic"},
		{"openai", "gpt-4", "openai::gpt-4"},
	}
	for _, c := range cases {
		if got := Key(c.provider, c.model); got != c.want {
			t.Errorf("Key(%q, %q) = %q, want %q", c.provider, c.model, got, c.want)
		}
	}
}

func TestTokenBucket_BurstThenRefill(t *testing.T) {
	b := NewTokenBucket(5, 5) // 5 tokens, refills 5/sec

	for i := 0; i < 5; i++ {
		if !b.Take(1) {
			t.Fatalf("take %d: expected capacity to allow a 5-token burst", i)
		}
	}
	if b.Take(1) {
		t.Fatal("expected bucket to be empty after exhausting burst capacity")
	}

	time.Sleep(250 * time.Millisecond) // ~1.25 tokens at 5/sec
	if !b.Take(1) {
		t.Fatal("expected a token to have refilled after 250ms at 5/sec")
	}
}

func TestSlidingWindow_AccumulatesWithinWindow(t *testing.T) {
	w := NewSlidingWindow(time.Minute, time.Second)

	w.Add(100)
	w.Add(50)
	w.Add(25)

	if sum := w.Sum(); sum != 175 {
		t.Errorf("expected sum 175, got %d", sum)
	}
}

func TestConcurrentLimiter_CapsInFlight(t *testing.T) {
	c := NewConcurrentLimiter(2)

	if !c.Acquire() || !c.Acquire() {
		t.Fatal("expected first two acquisitions to succeed")
	}
	if c.Acquire() {
		t.Fatal("expected third acquisition to fail at the cap")
	}

	c.Release()
	if !c.Acquire() {
		t.Fatal("expected an acquisition to succeed after a release")
	}
}

func TestLimiter_CheckRequest_CollapsesAcrossWindows(t *testing.T) {
	// RequestsPerSecond and RequestsPerMinute are both configured; the
	// second-window bucket should reject first since it has far less
	// burst capacity (2x2=4) than the minute bucket (60).
	limiter := NewLimiter(Config{RequestsPerSecond: 2, RequestsPerMinute: 60})

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.CheckRequest().Allowed {
			allowed++
		}
	}
	if allowed != 4 {
		t.Errorf("expected the per-second burst (4) to gate first, got %d allowed", allowed)
	}
}

func TestLimiter_CheckTokens_RespectsSmallestWindow(t *testing.T) {
	limiter := NewLimiter(Config{TokensPerMinute: 1000, TokensPerHour: 100000})

	decision := limiter.CheckTokens(1500)
	if decision.Allowed {
		t.Fatal("expected the per-minute window to reject a request over its own budget")
	}
	if decision.Reason == "" {
		t.Error("expected a reason naming the exceeded window")
	}
}

func TestLimiter_RecordTokens_FeedsBothWindows(t *testing.T) {
	limiter := NewLimiter(Config{TokensPerMinute: 1000, TokensPerHour: 5000})

	limiter.RecordTokens(400)
	limiter.RecordTokens(400)

	if decision := limiter.CheckTokens(300); decision.Allowed {
		t.Error("expected the per-minute window (800/1000 used) to reject 300 more tokens")
	}
}

func TestLimiter_ConcurrentStatus_NoLimitConfigured(t *testing.T) {
	limiter := NewLimiter(Config{})
	if status := limiter.ConcurrentStatus(); !status.Allowed {
		t.Error("expected an unconfigured concurrency dimension to report Allowed")
	}
	if !limiter.AcquireConcurrent() {
		t.Error("expected AcquireConcurrent to be a no-op success with no MaxConcurrent set")
	}
}

func TestLimiter_Reset_ClearsEveryWindow(t *testing.T) {
	limiter := NewLimiter(Config{RequestsPerSecond: 1, TokensPerMinute: 100, MaxConcurrent: 1})

	limiter.CheckRequest()
	limiter.RecordTokens(100)
	limiter.AcquireConcurrent()

	limiter.Reset()

	if !limiter.CheckRequest().Allowed {
		t.Error("expected request window to be fresh after Reset")
	}
	if !limiter.CheckTokens(50).Allowed {
		t.Error("expected token window to be fresh after Reset")
	}
	if !limiter.AcquireConcurrent() {
		t.Error("expected concurrency slot to be free after Reset")
	}
}

func BenchmarkLimiter_CheckRequest(b *testing.B) {
	limiter := NewLimiter(Config{RequestsPerSecond: 1 << 20})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.CheckRequest()
	}
}

func BenchmarkLimiter_CheckTokens(b *testing.B) {
	limiter := NewLimiter(Config{TokensPerMinute: 1 << 30})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.CheckTokens(10)
	}
}
