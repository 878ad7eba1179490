package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{
		Providers: make(map[string]ProviderConfig),
	}
	ApplyDefaults(&cfg)

	cfg.Providers["openai"] = ProviderConfig{
		BaseURL:    "https://api.openai.com/v1",
		APIKey:     "test-key",
		Timeout:    DefaultProviderTimeout,
		MaxRetries: DefaultProviderMaxRetries,
	}

	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithProvider adds or updates a provider configuration.
func (b *ConfigBuilder) WithProvider(name string, provider ProviderConfig) *ConfigBuilder {
	if b.cfg.Providers == nil {
		b.cfg.Providers = make(map[string]ProviderConfig)
	}
	b.cfg.Providers[name] = provider
	return b
}

// WithRetryMaxAttempts sets the retry max attempts.
func (b *ConfigBuilder) WithRetryMaxAttempts(n int) *ConfigBuilder {
	b.cfg.Reliability.Retry.MaxAttempts = n
	return b
}

// WithBreakerFailureThreshold sets the breaker failure threshold.
func (b *ConfigBuilder) WithBreakerFailureThreshold(n int) *ConfigBuilder {
	b.cfg.Reliability.Breaker.FailureThreshold = n
	return b
}

// WithRateLimit sets a named rate limit.
func (b *ConfigBuilder) WithRateLimit(key string, rl RateLimitConfig) *ConfigBuilder {
	if b.cfg.Limits.RateLimits == nil {
		b.cfg.Limits.RateLimits = make(map[string]RateLimitConfig)
	}
	b.cfg.Limits.RateLimits[key] = rl
	return b
}

// WithBudget sets a named budget.
func (b *ConfigBuilder) WithBudget(key string, budget BudgetConfig) *ConfigBuilder {
	if b.cfg.Limits.Budgets == nil {
		b.cfg.Limits.Budgets = make(map[string]BudgetConfig)
	}
	b.cfg.Limits.Budgets[key] = budget
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are enabled.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = enabled
	return b
}

// WithTracingEnabled sets whether tracing is enabled.
func (b *ConfigBuilder) WithTracingEnabled(enabled bool, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = enabled
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	if b.cfg.Telemetry.Tracing.SampleRatio == 0 {
		b.cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	return b
}

// WithCLIDefaultModel sets the CLI default model.
func (b *ConfigBuilder) WithCLIDefaultModel(model string) *ConfigBuilder {
	b.cfg.CLI.DefaultModel = model
	return b
}

// WithIdempotencyTTL sets the idempotency cache TTL.
func (b *ConfigBuilder) WithIdempotencyTTL(ttl time.Duration) *ConfigBuilder {
	b.cfg.Reliability.Idempotency.TTL = ttl
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
// This is useful for tests that don't care about most configuration values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
