package config

import (
	"os"

	"steer-sdk/core/pkg/limits"
	"steer-sdk/core/pkg/limits/budget"
	"steer-sdk/core/pkg/limits/enforcement"
	"steer-sdk/core/pkg/limits/ratelimit"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/reliability/breaker"
	"steer-sdk/core/pkg/reliability/retry"
)

// ToProviderConfig converts one entry of Config.Providers into the shape
// pkg/providerfactory expects, resolving APIKeyEnv over the literal
// APIKey when both are present.
func (p ProviderConfig) ToProviderConfig(name string) providers.ProviderConfig {
	apiKey := p.APIKey
	if p.APIKeyEnv != "" {
		if v := os.Getenv(p.APIKeyEnv); v != "" {
			apiKey = v
		}
	}
	return providers.ProviderConfig{
		Name:                name,
		Type:                p.Type,
		BaseURL:             p.BaseURL,
		APIKey:              apiKey,
		Timeout:             p.Timeout,
		HealthCheckInterval: p.HealthCheckInterval,
		MaxIdleConns:        p.MaxIdleConns,
		MaxIdleConnsPerHost: p.MaxIdleConnsPerHost,
		IdleConnTimeout:     p.IdleConnTimeout,
		MaxRetries:          p.MaxRetries,
	}
}

// ToRetryPolicy converts RetryConfig to retry.Policy.
func (r RetryConfig) ToRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:         r.MaxAttempts,
		InitialDelay:        r.InitialDelay,
		MaxDelay:            r.MaxDelay,
		BackoffFactor:       r.BackoffFactor,
		JitterFactor:        r.JitterFactor,
		RetryOnTimeout:      r.RetryOnTimeout,
		RetryOnRateLimit:    r.RetryOnRateLimit,
		RetryOnServerError:  r.RetryOnServerError,
		RetryOnNetworkError: r.RetryOnNetworkError,
		RespectRetryAfter:   r.RespectRetryAfter,
		ExponentialBackoff:  r.ExponentialBackoff,
		MaxTotalDelay:       r.MaxTotalDelay,
	}
}

// ToBreakerConfig converts BreakerConfig to breaker.Config.
func (b BreakerConfig) ToBreakerConfig() breaker.Config {
	return breaker.Config{
		FailureThreshold: b.FailureThreshold,
		SuccessThreshold: b.SuccessThreshold,
		Timeout:          b.Timeout,
		HalfOpenRequests: b.HalfOpenRequests,
		WindowSize:       b.WindowSize,
	}
}

// ToLimitsConfig converts LimitsConfig to limits.Config.
func (l LimitsConfig) ToLimitsConfig() limits.Config {
	rl := make(map[string]ratelimit.Config, len(l.RateLimits))
	for k, v := range l.RateLimits {
		rl[k] = ratelimit.Config{
			RequestsPerSecond: v.RequestsPerSecond,
			RequestsPerMinute: v.RequestsPerMinute,
			RequestsPerHour:   v.RequestsPerHour,
			TokensPerMinute:   v.TokensPerMinute,
			TokensPerHour:     v.TokensPerHour,
			MaxConcurrent:     v.MaxConcurrent,
		}
	}
	bg := make(map[string]budget.Config, len(l.Budgets))
	for k, v := range l.Budgets {
		bg[k] = budget.Config{
			Hourly:         v.Hourly,
			Daily:          v.Daily,
			Monthly:        v.Monthly,
			AlertThreshold: v.AlertThreshold,
		}
	}
	return limits.Config{
		RateLimits: rl,
		Budgets:    bg,
		Enforcement: enforcement.Config{
			DefaultAction:   enforcement.Action(l.Enforcement.DefaultAction),
			ModelDowngrades: l.Enforcement.ModelDowngrades,
			QueueDepth:      l.Enforcement.QueueDepth,
			QueueTimeout:    l.Enforcement.QueueTimeout,
		},
	}
}
