package config

import (
	"testing"
	"time"
)

func TestValidateLimits_ValidConfig(t *testing.T) {
	cfg := &LimitsConfig{
		Budgets: map[string]BudgetConfig{
			"test-key": {Hourly: 10.00, Daily: 200.00, Monthly: 5000.00, AlertThreshold: 0.8},
		},
		RateLimits: map[string]RateLimitConfig{
			"test-key": {RequestsPerSecond: 10, RequestsPerMinute: 500, TokensPerMinute: 100000, MaxConcurrent: 20},
		},
		Enforcement: EnforcementConfig{DefaultAction: "block", QueueDepth: 100, QueueTimeout: 30 * time.Second},
	}

	errs := validateLimits(cfg)
	if len(errs) != 0 {
		t.Errorf("expected no validation errors, got: %v", errs)
	}
}

func TestValidateLimits_NegativeRateLimit(t *testing.T) {
	cfg := &LimitsConfig{
		RateLimits: map[string]RateLimitConfig{
			"test-key": {RequestsPerSecond: -1},
		},
	}

	errs := validateLimits(cfg)
	if len(errs) == 0 {
		t.Error("expected validation error for negative rate limit")
	}
}

func TestValidateLimits_NegativeMaxConcurrent(t *testing.T) {
	cfg := &LimitsConfig{
		RateLimits: map[string]RateLimitConfig{
			"test-key": {MaxConcurrent: -5},
		},
	}

	errs := validateLimits(cfg)
	if len(errs) == 0 {
		t.Error("expected validation error for negative max_concurrent")
	}
}

func TestValidateLimits_NegativeBudget(t *testing.T) {
	cfg := &LimitsConfig{
		Budgets: map[string]BudgetConfig{
			"test-key": {Daily: -10.0},
		},
	}

	errs := validateLimits(cfg)
	if len(errs) == 0 {
		t.Error("expected validation error for negative budget")
	}
}

func TestValidateLimits_AlertThresholdOutOfRange(t *testing.T) {
	cfg := &LimitsConfig{
		Budgets: map[string]BudgetConfig{
			"test-key": {Daily: 10.0, AlertThreshold: 1.5},
		},
	}

	errs := validateLimits(cfg)
	if len(errs) == 0 {
		t.Error("expected validation error for alert_threshold out of range")
	}
}

func TestValidateLimits_UnknownEnforcementAction(t *testing.T) {
	cfg := &LimitsConfig{
		Enforcement: EnforcementConfig{DefaultAction: "explode"},
	}

	errs := validateLimits(cfg)
	if len(errs) == 0 {
		t.Error("expected validation error for unknown enforcement action")
	}
}

func TestValidateLimits_EmptyActionIsValid(t *testing.T) {
	cfg := &LimitsConfig{
		Enforcement: EnforcementConfig{DefaultAction: ""},
	}

	errs := validateLimits(cfg)
	if len(errs) != 0 {
		t.Errorf("expected empty default_action to be valid, got: %v", errs)
	}
}

func TestValidateLimits_NegativeQueueDepth(t *testing.T) {
	cfg := &LimitsConfig{
		Enforcement: EnforcementConfig{QueueDepth: -1},
	}

	errs := validateLimits(cfg)
	if len(errs) == 0 {
		t.Error("expected validation error for negative queue_depth")
	}
}
