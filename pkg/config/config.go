package config

import "time"

// Config is the root configuration structure for the SDK. Unlike the
// gateway this package was grounded on, there is no HTTP proxy surface,
// policy engine, or evidence store to configure: a client process only
// needs to know which providers it can talk to, how the reliability
// layer should behave, what budgets/rate limits to enforce, and how to
// emit logs/metrics/traces.
type Config struct {
	// Providers configures every provider the client can route to.
	// Keys are provider names (e.g. "openai", "anthropic", "xai") and
	// match registry.ModelConfig.Provider / providerfactory.Manager keys.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Reliability configures the retry policy, circuit breaker, and
	// idempotency cache shared by every provider call.
	Reliability ReliabilityConfig `yaml:"reliability"`

	// Limits configures budget tracking and rate limiting (pkg/limits),
	// keyed the same way as Providers.
	Limits LimitsConfig `yaml:"limits"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// CLI configures the steer command-line tool (cmd/steer).
	CLI CLIConfig `yaml:"cli"`
}

// ProviderConfig is the YAML-facing shape for one provider entry. It is
// converted to providers.ProviderConfig by ToProviderConfig once the
// API key environment overlay has been resolved.
type ProviderConfig struct {
	// Type selects the adapter: "openai", "anthropic", "xai", or "generic"
	// for an OpenAI-compatible third-party endpoint.
	Type string `yaml:"type"`

	// BaseURL is the provider API base URL. Left empty to use the
	// adapter's compiled-in default.
	BaseURL string `yaml:"base_url"`

	// APIKey is the literal API key. Prefer APIKeyEnv in committed config.
	APIKey string `yaml:"api_key"`

	// APIKeyEnv names an environment variable to read the API key from.
	// Takes precedence over APIKey when both are set.
	APIKeyEnv string `yaml:"api_key_env"`

	// Timeout bounds a single HTTP call to the provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// HealthCheckInterval controls how often pkg/providers.HealthChecker
	// polls this provider. Zero disables polling.
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`

	// MaxIdleConns, MaxIdleConnsPerHost, and IdleConnTimeout configure the
	// adapter's underlying http.Transport connection pool.
	MaxIdleConns int `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`

	// MaxRetries is read by pkg/reliability/retry at the call site, not
	// by the adapter itself (see providers.ProviderConfig.MaxRetries).
	MaxRetries int `yaml:"max_retries"`
}

// ReliabilityConfig configures the retry/breaker/idempotency layer
// wrapping every provider call.
type ReliabilityConfig struct {
	Retry RetryConfig `yaml:"retry"`
	Breaker BreakerConfig `yaml:"breaker"`
	Idempotency IdempotencyConfig `yaml:"idempotency"`
}

// RetryConfig mirrors retry.Policy with yaml tags.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay time.Duration `yaml:"max_delay"`
	BackoffFactor float64 `yaml:"backoff_factor"`
	JitterFactor float64 `yaml:"jitter_factor"`
	RetryOnTimeout bool `yaml:"retry_on_timeout"`
	RetryOnRateLimit bool `yaml:"retry_on_rate_limit"`
	RetryOnServerError bool `yaml:"retry_on_server_error"`
	RetryOnNetworkError bool `yaml:"retry_on_network_error"`
	RespectRetryAfter bool `yaml:"respect_retry_after"`
	ExponentialBackoff bool `yaml:"exponential_backoff"`
	MaxTotalDelay time.Duration `yaml:"max_total_delay"`
}

// BreakerConfig mirrors breaker.Config with yaml tags.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	SuccessThreshold int `yaml:"success_threshold"`
	Timeout time.Duration `yaml:"timeout"`
	HalfOpenRequests int `yaml:"half_open_requests"`
	WindowSize time.Duration `yaml:"window_size"`
}

// IdempotencyConfig mirrors the arguments to idempotency.New.
type IdempotencyConfig struct {
	TTL time.Duration `yaml:"ttl"`
	MaxEntries int `yaml:"max_entries"`
}

// LimitsConfig is the YAML-facing shape of limits.Config: budget
// tracking and rate limiting, keyed by provider (or any other dimension
// a caller wants to govern — see pkg/limits.doc.go).
type LimitsConfig struct {
	RateLimits map[string]RateLimitConfig `yaml:"rate_limits"`
	Budgets map[string]BudgetConfig `yaml:"budgets"`
	Enforcement EnforcementConfig `yaml:"enforcement"`
}

// RateLimitConfig mirrors ratelimit.Config with yaml tags.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerHour int `yaml:"requests_per_hour"`
	TokensPerMinute int `yaml:"tokens_per_minute"`
	TokensPerHour int `yaml:"tokens_per_hour"`
	MaxConcurrent int `yaml:"max_concurrent"`
}

// BudgetConfig mirrors budget.Config with yaml tags.
type BudgetConfig struct {
	Hourly float64 `yaml:"hourly"`
	Daily float64 `yaml:"daily"`
	Monthly float64 `yaml:"monthly"`
	AlertThreshold float64 `yaml:"alert_threshold"`
}

// EnforcementConfig mirrors enforcement.Config with yaml tags.
type EnforcementConfig struct {
	DefaultAction string `yaml:"default_action"`
	ModelDowngrades map[string]string `yaml:"model_downgrades"`
	QueueDepth int `yaml:"queue_depth"`
	QueueTimeout time.Duration `yaml:"queue_timeout"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig mirrors logging.Config (pkg/telemetry/logging) with
// yaml tags so it can be loaded from file.
type LoggingConfig struct {
	// Level is the minimum log level to emit: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format: "json", "text", or "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPII enables automatic redaction of API keys and prompt
	// content via pkg/telemetry/logging.Redactor.
	// ApplyDefaults does not set it, so an unset field stays false.
	RedactPII bool `yaml:"redact_pii"`

	// BufferSize is the size of the async log buffer.
	// Default: 10000
	BufferSize int `yaml:"buffer_size"`

	// RedactPatterns contains custom PII redaction patterns layered on
	// top of logging.Redactor's built-in set.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom PII redaction pattern, consumed by
// pkg/telemetry/logging.NewRedactor.
type RedactPattern struct {
	Name string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration. Consumed
// directly by pkg/telemetry/metrics and pkg/orchestrator/metrics.go.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// ApplyDefaults does not set it, so an unset field stays false.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Port is an optional separate port for metrics.
	Port int `yaml:"port"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// TokenCountBuckets defines histogram buckets for token counts.
	TokenCountBuckets []float64 `yaml:"token_count_buckets"`
}

// TracingConfig contains distributed tracing configuration. Consumed
// directly by pkg/telemetry/tracing.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy: "always", "never", "ratio".
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample when Sampler is "ratio".
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter selects the trace exporter: "otlp", "jaeger", "zipkin".
	Exporter string `yaml:"exporter"`

	// Endpoint is the trace collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name attached to every span.
	ServiceName string `yaml:"service_name"`

	OTLP OTLPConfig `yaml:"otlp"`
	Jaeger JaegerConfig `yaml:"jaeger"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	Insecure bool `yaml:"insecure"`
	Timeout time.Duration `yaml:"timeout"`
}

// JaegerConfig contains Jaeger exporter configuration.
type JaegerConfig struct {
	AgentHost string `yaml:"agent_host"`
	AgentPort int `yaml:"agent_port"`
}

// HealthConfig configures pkg/telemetry/health polling.
type HealthConfig struct {
	CheckTimeout time.Duration `yaml:"check_timeout"`
	MinHealthyProviders int `yaml:"min_healthy_providers"`
}

// CLIConfig configures cmd/steer defaults.
type CLIConfig struct {
	// DefaultModel is a default model id loaded from file or
	// STEER_CLI_DEFAULT_MODEL. `steer generate` takes the model as a
	// required argument and does not read this field.
	DefaultModel string `yaml:"default_model"`

	// OutputFormat is the default output format: "text", "json", or "csv".
	OutputFormat string `yaml:"output_format"`
}
