package limits

import (
	"context"
	"sync"
	"testing"
	"time"

	"steer-sdk/core/pkg/limits/budget"
	"steer-sdk/core/pkg/limits/enforcement"
	"steer-sdk/core/pkg/limits/ratelimit"
)

// TestIntegration_EndToEnd tests the complete flow from limit check to usage recording.
func TestIntegration_EndToEnd(t *testing.T) {
	config := Config{
		RateLimits: map[string]ratelimit.Config{
			"anthropic": {
				RequestsPerSecond: 100,
				TokensPerMinute:   100000,
				MaxConcurrent:     10,
			},
		},
		Budgets: map[string]budget.Config{
			"anthropic": {
				Hourly:         10.00,
				Daily:          200.00,
				Monthly:        5000.00,
				AlertThreshold: 0.8,
			},
		},
		Enforcement: enforcement.Config{
			DefaultAction: enforcement.ActionBlock,
		},
	}

	manager := NewManager(config)
	defer manager.Close()

	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := manager.CheckLimits(ctx, "anthropic", "claude-3-opus", 1000, 0.05)
		if err != nil {
			t.Fatalf("request %d: CheckLimits failed: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("request %d: expected to be allowed, reason: %s", i, result.Reason)
		}

		if !manager.AcquireConcurrent("anthropic", "claude-3-opus") {
			t.Fatalf("request %d: failed to acquire concurrent slot", i)
		}

		err = manager.RecordUsage(ctx, &UsageRecord{
			Identifier:     "anthropic",
			Dimension:      DimensionAPIKey,
			RequestTokens:  1000,
			ResponseTokens: 500,
			TotalTokens:    1500,
			Cost:           0.05,
			Provider:       "anthropic",
			Model:          "claude-3-opus",
		})
		if err != nil {
			t.Fatalf("request %d: RecordUsage failed: %v", i, err)
		}

		manager.ReleaseConcurrent("anthropic", "claude-3-opus")
	}

	// After 10 requests @ $0.05 each = $0.50 spent, still under $10/hour.
	result, err := manager.CheckLimits(ctx, "anthropic", "claude-3-opus", 1000, 0.05)
	if err != nil {
		t.Fatalf("final check failed: %v", err)
	}
	if !result.Allowed {
		t.Error("expected final request to be allowed")
	}
}

// TestIntegration_MultiDimension tests limits across different providers.
func TestIntegration_MultiDimension(t *testing.T) {
	config := Config{
		RateLimits: map[string]ratelimit.Config{
			"anthropic": {RequestsPerSecond: 10},
			"openai":    {RequestsPerSecond: 5},
			"google":    {RequestsPerSecond: 20},
		},
		Budgets: map[string]budget.Config{
			"anthropic": {Daily: 100.00},
			"openai":    {Daily: 50.00},
			"google":    {Daily: 200.00},
		},
	}

	manager := NewManager(config)
	defer manager.Close()

	ctx := context.Background()

	providers := []string{"anthropic", "openai", "google"}
	for _, provider := range providers {
		result, err := manager.CheckLimits(ctx, provider, "default", 0, 0)
		if err != nil {
			t.Fatalf("CheckLimits for %s failed: %v", provider, err)
		}
		if !result.Allowed {
			t.Errorf("expected %s to be allowed", provider)
		}
	}

	// Exceeds openai's budget but not anthropic's.
	manager.RecordUsage(ctx, &UsageRecord{
		Identifier: "anthropic",
		Dimension:  DimensionAPIKey,
		Cost:       60.00,
		Provider:   "anthropic",
		Model:      "default",
	})

	result, _ := manager.CheckLimits(ctx, "anthropic", "default", 0, 0)
	if !result.Allowed {
		t.Error("expected anthropic to still be allowed")
	}

	result, _ = manager.CheckLimits(ctx, "openai", "default", 0, 0)
	if !result.Allowed {
		t.Error("expected openai to be allowed (independent budget)")
	}
}

// TestIntegration_AlertThreshold tests alert triggering at threshold.
func TestIntegration_AlertThreshold(t *testing.T) {
	config := Config{
		Budgets: map[string]budget.Config{
			"anthropic": {
				Daily:          10.00,
				AlertThreshold: 0.8,
			},
		},
	}

	manager := NewManager(config)
	defer manager.Close()

	ctx := context.Background()

	manager.RecordUsage(ctx, &UsageRecord{
		Identifier: "anthropic",
		Dimension:  DimensionAPIKey,
		Cost:       7.00,
		Provider:   "anthropic",
		Model:      "claude-3-opus",
	})

	result, _ := manager.CheckLimits(ctx, "anthropic", "claude-3-opus", 0, 0)
	if result.Action == ActionAlert {
		t.Error("expected no alert at 70% usage")
	}

	manager.RecordUsage(ctx, &UsageRecord{
		Identifier: "anthropic",
		Dimension:  DimensionAPIKey,
		Cost:       1.50,
		Provider:   "anthropic",
		Model:      "claude-3-opus",
	})

	result, _ = manager.CheckLimits(ctx, "anthropic", "claude-3-opus", 0, 0)
	if result.Action != ActionAlert {
		t.Errorf("expected alert at 85%% usage, got action: %s", result.Action)
	}
	if !result.Allowed {
		t.Error("expected request to still be allowed with alert")
	}
}

// TestIntegration_ConcurrentLoad tests handling of concurrent requests.
func TestIntegration_ConcurrentLoad(t *testing.T) {
	config := Config{
		RateLimits: map[string]ratelimit.Config{
			"anthropic": {
				RequestsPerSecond: 1000,
				MaxConcurrent:     50,
			},
		},
		Budgets: map[string]budget.Config{
			"anthropic": {Daily: 10000.00},
		},
	}

	manager := NewManager(config)
	defer manager.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	successCount := 0
	var mu sync.Mutex

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			result, err := manager.CheckLimits(ctx, "anthropic", "claude-3-opus", 100, 0.01)
			if err != nil {
				t.Errorf("request %d: CheckLimits failed: %v", id, err)
				return
			}
			if !result.Allowed {
				return // expected: some rejected by the rate limit
			}

			if !manager.AcquireConcurrent("anthropic", "claude-3-opus") {
				return // expected: concurrent limit reached
			}

			mu.Lock()
			successCount++
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			manager.ReleaseConcurrent("anthropic", "claude-3-opus")

			manager.RecordUsage(ctx, &UsageRecord{
				Identifier: "anthropic",
				Dimension:  DimensionAPIKey,
				Cost:       0.01,
				Provider:   "anthropic",
				Model:      "claude-3-opus",
			})
		}(i)
	}

	wg.Wait()

	if successCount == 0 {
		t.Error("expected at least some requests to succeed")
	}
	if successCount > 50 {
		t.Errorf("expected at most 50 concurrent requests, got %d", successCount)
	}
}

// TestIntegration_ModelDowngrade tests automatic model downgrade.
func TestIntegration_ModelDowngrade(t *testing.T) {
	config := Config{
		Budgets: map[string]budget.Config{
			"anthropic": {Daily: 5.00},
		},
		Enforcement: enforcement.Config{
			DefaultAction: enforcement.ActionDowngrade,
			ModelDowngrades: map[string]string{
				"claude-3-opus": "claude-3-sonnet",
			},
		},
	}

	manager := NewManager(config)
	defer manager.Close()

	ctx := context.Background()

	manager.RecordUsage(ctx, &UsageRecord{
		Identifier: "anthropic",
		Dimension:  DimensionAPIKey,
		Cost:       6.00,
		Provider:   "anthropic",
		Model:      "claude-3-opus",
	})

	result, err := manager.CheckLimits(ctx, "anthropic", "claude-3-opus", 0, 0)
	if err != nil {
		t.Fatalf("CheckLimits failed: %v", err)
	}
	if !result.Allowed {
		t.Error("expected request to be allowed with downgrade")
	}
	if result.Action != ActionDowngrade {
		t.Errorf("expected downgrade action, got: %s", result.Action)
	}
	if result.DowngradeTo != "claude-3-sonnet" {
		t.Errorf("expected downgrade to claude-3-sonnet, got: %s", result.DowngradeTo)
	}
}

// TestIntegration_LoadTest simulates high load across many providers.
func TestIntegration_LoadTest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	rateLimits := make(map[string]ratelimit.Config)
	budgets := make(map[string]budget.Config)

	for i := 0; i < 10; i++ {
		provider := "provider-" + string(rune('0'+i))
		rateLimits[provider] = ratelimit.Config{RequestsPerSecond: 100}
		budgets[provider] = budget.Config{Daily: 100.00}
	}

	manager := NewManager(Config{RateLimits: rateLimits, Budgets: budgets})
	defer manager.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			provider := "provider-" + string(rune('0'+id%10))

			result, err := manager.CheckLimits(ctx, provider, "default", 100, 0.01)
			if err != nil {
				t.Errorf("request %d: CheckLimits failed: %v", id, err)
				return
			}
			if result.Allowed {
				manager.RecordUsage(ctx, &UsageRecord{
					Identifier: provider,
					Dimension:  DimensionAPIKey,
					Cost:       0.01,
					Provider:   provider,
					Model:      "default",
				})
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)

	if duration > time.Second {
		t.Errorf("load test took too long: %v", duration)
	}
	t.Logf("processed 1000 requests in %v (%.2f req/s)", duration, float64(1000)/duration.Seconds())
}

// TestIntegration_RollingWindow tests rolling window behavior over time.
func TestIntegration_RollingWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping time-based test in short mode")
	}

	config := Config{
		Budgets: map[string]budget.Config{
			"anthropic": {Hourly: 1.00},
		},
	}

	manager := NewManager(config)
	defer manager.Close()

	ctx := context.Background()

	manager.RecordUsage(ctx, &UsageRecord{
		Identifier: "anthropic",
		Dimension:  DimensionAPIKey,
		Cost:       0.90,
		Provider:   "anthropic",
		Model:      "claude-3-opus",
	})

	result, _ := manager.CheckLimits(ctx, "anthropic", "claude-3-opus", 0, 0)
	if !result.Allowed {
		t.Error("expected to be under limit at 90%")
	}

	manager.RecordUsage(ctx, &UsageRecord{
		Identifier: "anthropic",
		Dimension:  DimensionAPIKey,
		Cost:       0.15,
		Provider:   "anthropic",
		Model:      "claude-3-opus",
	})

	result, _ = manager.CheckLimits(ctx, "anthropic", "claude-3-opus", 0, 0)
	if result.Allowed {
		t.Error("expected to exceed hourly limit at 105%")
	}
}
