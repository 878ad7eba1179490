package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "providers.openai.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateReliability(&cfg.Reliability)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateCLI(&cfg.CLI)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	for name, provider := range providers {
		prefix := fmt.Sprintf("providers.%s", name)

		if provider.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required",
			})
		} else if _, err := url.Parse(provider.BaseURL); err != nil {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: fmt.Sprintf("invalid URL format: %v", err),
			})
		}

		// API key can be empty here and injected later via api_key_env or
		// an environment override; runtime calls fail on an empty key.

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
		if provider.MaxRetries < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max_retries must not be negative",
			})
		}
		if provider.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_idle_conns",
				Message: "max_idle_conns must not be negative",
			})
		}
		if provider.MaxIdleConnsPerHost < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_idle_conns_per_host",
				Message: "max_idle_conns_per_host must not be negative",
			})
		}
	}

	return errs
}

func validateReliability(r *ReliabilityConfig) []FieldError {
	var errs []FieldError
	errs = append(errs, validateRetry(&r.Retry)...)
	errs = append(errs, validateBreaker(&r.Breaker)...)
	errs = append(errs, validateIdempotency(&r.Idempotency)...)
	return errs
}

func validateRetry(r *RetryConfig) []FieldError {
	var errs []FieldError

	if r.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "reliability.retry.max_attempts",
			Message: "max_attempts must be at least 1",
		})
	}
	if r.InitialDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "reliability.retry.initial_delay",
			Message: "initial_delay must not be negative",
		})
	}
	if r.MaxDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "reliability.retry.max_delay",
			Message: "max_delay must not be negative",
		})
	}
	if r.MaxDelay != 0 && r.InitialDelay != 0 && r.MaxDelay < r.InitialDelay {
		errs = append(errs, FieldError{
			Field:   "reliability.retry.max_delay",
			Message: "max_delay must not be less than initial_delay",
		})
	}
	if r.BackoffFactor < 1 {
		errs = append(errs, FieldError{
			Field:   "reliability.retry.backoff_factor",
			Message: "backoff_factor must be at least 1",
		})
	}
	if r.JitterFactor < 0 || r.JitterFactor > 1 {
		errs = append(errs, FieldError{
			Field:   "reliability.retry.jitter_factor",
			Message: "jitter_factor must be between 0 and 1",
		})
	}
	if !r.RetryOnTimeout && !r.RetryOnRateLimit && !r.RetryOnServerError && !r.RetryOnNetworkError {
		errs = append(errs, FieldError{
			Field:   "reliability.retry",
			Message: "at least one retry_on_* category must be enabled, or retries never fire",
		})
	}

	return errs
}

func validateBreaker(b *BreakerConfig) []FieldError {
	var errs []FieldError

	if b.FailureThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "reliability.breaker.failure_threshold",
			Message: "failure_threshold must be at least 1",
		})
	}
	if b.SuccessThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "reliability.breaker.success_threshold",
			Message: "success_threshold must be at least 1",
		})
	}
	if b.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "reliability.breaker.timeout",
			Message: "timeout must be positive",
		})
	}
	if b.HalfOpenRequests < 1 {
		errs = append(errs, FieldError{
			Field:   "reliability.breaker.half_open_requests",
			Message: "half_open_requests must be at least 1",
		})
	}
	if b.WindowSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "reliability.breaker.window_size",
			Message: "window_size must be positive",
		})
	}

	return errs
}

func validateIdempotency(i *IdempotencyConfig) []FieldError {
	var errs []FieldError

	if i.TTL < 0 {
		errs = append(errs, FieldError{
			Field:   "reliability.idempotency.ttl",
			Message: "ttl must not be negative",
		})
	}
	if i.MaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "reliability.idempotency.max_entries",
			Message: "max_entries must not be negative",
		})
	}

	return errs
}

func validateLimits(l *LimitsConfig) []FieldError {
	var errs []FieldError

	for key, rl := range l.RateLimits {
		prefix := fmt.Sprintf("limits.rate_limits.%s", key)
		if rl.RequestsPerSecond < 0 || rl.RequestsPerMinute < 0 || rl.RequestsPerHour < 0 {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: "request rate fields must not be negative",
			})
		}
		if rl.TokensPerMinute < 0 || rl.TokensPerHour < 0 {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: "token rate fields must not be negative",
			})
		}
		if rl.MaxConcurrent < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_concurrent",
				Message: "max_concurrent must not be negative",
			})
		}
	}

	for key, b := range l.Budgets {
		prefix := fmt.Sprintf("limits.budgets.%s", key)
		if b.Hourly < 0 || b.Daily < 0 || b.Monthly < 0 {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: "budget amounts must not be negative",
			})
		}
		if b.AlertThreshold < 0 || b.AlertThreshold > 1 {
			errs = append(errs, FieldError{
				Field:   prefix + ".alert_threshold",
				Message: "alert_threshold must be between 0 and 1",
			})
		}
	}

	switch l.Enforcement.DefaultAction {
case "", "allow", "block", "queue", "downgrade", "alert":
default:
		errs = append(errs, FieldError{
			Field:   "limits.enforcement.default_action",
			Message: fmt.Sprintf("unknown action %q", l.Enforcement.DefaultAction),
		})
	}
	if l.Enforcement.QueueDepth < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.enforcement.queue_depth",
			Message: "queue_depth must not be negative",
		})
	}
	if l.Enforcement.QueueTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.enforcement.queue_timeout",
			Message: "queue_timeout must not be negative",
		})
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch t.Logging.Level {
case "", "debug", "info", "warn", "error":
default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q, must be one of debug, info, warn, error", t.Logging.Level),
		})
	}
	switch t.Logging.Format {
case "", "json", "text", "console":
default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q, must be json, text or console", t.Logging.Format),
		})
	}
	if t.Logging.BufferSize < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.buffer_size",
			Message: "buffer_size must not be negative",
		})
	}
	for i, p := range t.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern must not be empty",
			})
			continue
		}
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if t.Metrics.Port < 0 || t.Metrics.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.port",
			Message: "port must be between 0 and 65535",
		})
	}

	switch t.Tracing.Sampler {
case "", "always", "never", "ratio":
default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("unknown sampler %q, must be always, never, or ratio", t.Tracing.Sampler),
		})
	}
	if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample_ratio must be between 0 and 1",
		})
	}
	if t.Tracing.Enabled && t.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	if t.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check_timeout must not be negative",
		})
	}
	if t.Health.MinHealthyProviders < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.min_healthy_providers",
			Message: "min_healthy_providers must not be negative",
		})
	}

	return errs
}

func validateCLI(c *CLIConfig) []FieldError {
	var errs []FieldError

	switch c.OutputFormat {
case "", "text", "json", "csv":
default:
		errs = append(errs, FieldError{
			Field:   "cli.output_format",
			Message: fmt.Sprintf("unknown format %q, must be text, json, or csv", c.OutputFormat),
		})
	}

	return errs
}
