package config

import "time"

// Default values for configuration fields.
const (
	// Provider defaults
	DefaultProviderTimeout    = 60 * time.Second
	DefaultProviderMaxRetries = 3

	// Reliability defaults (mirrors retry.DefaultPolicy / breaker.DefaultConfig)
	DefaultRetryMaxAttempts   = 3
	DefaultRetryInitialDelay  = 1 * time.Second
	DefaultRetryMaxDelay      = 30 * time.Second
	DefaultRetryBackoffFactor = 2.0
	DefaultRetryJitterFactor  = 0.2
	DefaultRetryMaxTotalDelay = 2 * time.Minute

	DefaultBreakerFailureThreshold = 5
	DefaultBreakerSuccessThreshold = 2
	DefaultBreakerTimeout          = 30 * time.Second
	DefaultBreakerHalfOpenRequests = 1
	DefaultBreakerWindowSize       = time.Minute

	DefaultIdempotencyTTL        = 900 * time.Second
	DefaultIdempotencyMaxEntries = 1000

	// Enforcement defaults
	DefaultEnforcementAction       = "block"
	DefaultEnforcementQueueDepth   = 100
	DefaultEnforcementQueueTimeout = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultLoggingBufferSize = 10000

	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "steer"
	DefaultMetricsSubsystem = "sdk"

	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingExporter    = "otlp"
	DefaultTracingServiceName = "steer-sdk"

	DefaultHealthCheckTimeout        = 5 * time.Second
	DefaultHealthMinHealthyProviders = 1

	// CLI defaults
	DefaultCLIOutputFormat = "text"
)

// DefaultRequestDurationBuckets are the default Prometheus histogram
// buckets (seconds) for request duration metrics.
func DefaultRequestDurationBuckets() []float64 {
	return []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
}

// DefaultTokenCountBuckets are the default Prometheus histogram buckets
// for token count metrics.
func DefaultTokenCountBuckets() []float64 {
	return []float64{100, 500, 1000, 5000, 10000, 50000, 100000}
}

// DefaultConfig returns a fully-populated Config with every field set
// to its default value, for use as the base layer in LoadConfig's
// mergo.Merge call.
func DefaultConfig() Config {
	cfg := Config{}
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields of cfg with defaults in place.
// It is idempotent: calling it twice leaves an already-defaulted Config
// unchanged, since every check is "if zero, set".
func ApplyDefaults(cfg *Config) {
	for name, p := range cfg.Providers {
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.MaxRetries == 0 {
			p.MaxRetries = DefaultProviderMaxRetries
		}
		cfg.Providers[name] = p
	}

	applyRetryDefaults(&cfg.Reliability.Retry)
	applyBreakerDefaults(&cfg.Reliability.Breaker)
	applyIdempotencyDefaults(&cfg.Reliability.Idempotency)

	if cfg.Limits.Enforcement.DefaultAction == "" {
		cfg.Limits.Enforcement.DefaultAction = DefaultEnforcementAction
	}
	if cfg.Limits.Enforcement.QueueDepth == 0 {
		cfg.Limits.Enforcement.QueueDepth = DefaultEnforcementQueueDepth
	}
	if cfg.Limits.Enforcement.QueueTimeout == 0 {
		cfg.Limits.Enforcement.QueueTimeout = DefaultEnforcementQueueTimeout
	}

	applyLoggingDefaults(&cfg.Telemetry.Logging)
	applyMetricsDefaults(&cfg.Telemetry.Metrics)
	applyTracingDefaults(&cfg.Telemetry.Tracing)
	applyHealthDefaults(&cfg.Telemetry.Health)

	if cfg.CLI.OutputFormat == "" {
		cfg.CLI.OutputFormat = DefaultCLIOutputFormat
	}
}

func applyRetryDefaults(r *RetryConfig) {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = DefaultRetryMaxAttempts
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = DefaultRetryInitialDelay
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = DefaultRetryMaxDelay
	}
	if r.BackoffFactor == 0 {
		r.BackoffFactor = DefaultRetryBackoffFactor
	}
	if r.JitterFactor == 0 {
		r.JitterFactor = DefaultRetryJitterFactor
	}
	if r.MaxTotalDelay == 0 {
		r.MaxTotalDelay = DefaultRetryMaxTotalDelay
	}
	// Retry-on-category flags and RespectRetryAfter/ExponentialBackoff
	// default true the way retry.DefaultPolicy does, but a config
	// author who explicitly sets false can't be distinguished from the
	// zero value here. So when all four categories are false they are
	// all switched on, together with RespectRetryAfter and
	// ExponentialBackoff; a Config validated without ApplyDefaults is
	// rejected by Validate for the all-false case instead.
	if !r.RetryOnTimeout && !r.RetryOnRateLimit && !r.RetryOnServerError && !r.RetryOnNetworkError {
		r.RetryOnTimeout = true
		r.RetryOnRateLimit = true
		r.RetryOnServerError = true
		r.RetryOnNetworkError = true
		r.RespectRetryAfter = true
		r.ExponentialBackoff = true
	}
}

func applyBreakerDefaults(b *BreakerConfig) {
	if b.FailureThreshold == 0 {
		b.FailureThreshold = DefaultBreakerFailureThreshold
	}
	if b.SuccessThreshold == 0 {
		b.SuccessThreshold = DefaultBreakerSuccessThreshold
	}
	if b.Timeout == 0 {
		b.Timeout = DefaultBreakerTimeout
	}
	if b.HalfOpenRequests == 0 {
		b.HalfOpenRequests = DefaultBreakerHalfOpenRequests
	}
	if b.WindowSize == 0 {
		b.WindowSize = DefaultBreakerWindowSize
	}
}

func applyIdempotencyDefaults(i *IdempotencyConfig) {
	if i.TTL == 0 {
		i.TTL = DefaultIdempotencyTTL
	}
	if i.MaxEntries == 0 {
		i.MaxEntries = DefaultIdempotencyMaxEntries
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = DefaultLoggingLevel
	}
	if l.Format == "" {
		l.Format = DefaultLoggingFormat
	}
	if l.BufferSize == 0 {
		l.BufferSize = DefaultLoggingBufferSize
	}
}

func applyMetricsDefaults(m *MetricsConfig) {
	if m.Path == "" {
		m.Path = DefaultMetricsPath
	}
	if m.Namespace == "" {
		m.Namespace = DefaultMetricsNamespace
	}
	if m.Subsystem == "" {
		m.Subsystem = DefaultMetricsSubsystem
	}
	if len(m.RequestDurationBuckets) == 0 {
		m.RequestDurationBuckets = DefaultRequestDurationBuckets()
	}
	if len(m.TokenCountBuckets) == 0 {
		m.TokenCountBuckets = DefaultTokenCountBuckets()
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Sampler == "" {
		t.Sampler = DefaultTracingSampler
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Exporter == "" {
		t.Exporter = DefaultTracingExporter
	}
	if t.ServiceName == "" {
		t.ServiceName = DefaultTracingServiceName
	}
}

func applyHealthDefaults(h *HealthConfig) {
	if h.CheckTimeout == 0 {
		h.CheckTimeout = DefaultHealthCheckTimeout
	}
	if h.MinHealthyProviders == 0 {
		h.MinHealthyProviders = DefaultHealthMinHealthyProviders
	}
}
