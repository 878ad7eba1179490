package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{Providers: make(map[string]ProviderConfig)},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Reliability.Retry.MaxAttempts != DefaultRetryMaxAttempts {
					t.Errorf("expected retry max attempts %d, got %d", DefaultRetryMaxAttempts, cfg.Reliability.Retry.MaxAttempts)
				}
				if cfg.Reliability.Breaker.FailureThreshold != DefaultBreakerFailureThreshold {
					t.Errorf("expected breaker failure threshold %d, got %d", DefaultBreakerFailureThreshold, cfg.Reliability.Breaker.FailureThreshold)
				}
				if cfg.Reliability.Idempotency.TTL != DefaultIdempotencyTTL {
					t.Errorf("expected idempotency TTL %v, got %v", DefaultIdempotencyTTL, cfg.Reliability.Idempotency.TTL)
				}
				if cfg.Limits.Enforcement.DefaultAction != DefaultEnforcementAction {
					t.Errorf("expected enforcement action %q, got %q", DefaultEnforcementAction, cfg.Limits.Enforcement.DefaultAction)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
					t.Errorf("expected logging format %q, got %q", DefaultLoggingFormat, cfg.Telemetry.Logging.Format)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
				if cfg.CLI.OutputFormat != DefaultCLIOutputFormat {
					t.Errorf("expected output format %q, got %q", DefaultCLIOutputFormat, cfg.CLI.OutputFormat)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Reliability: ReliabilityConfig{
					Retry: RetryConfig{
						MaxAttempts:  7,
						InitialDelay: 2 * time.Second,
					},
				},
				Providers: map[string]ProviderConfig{
					"openai": {
						BaseURL: "https://custom.openai.com",
						Timeout: 90 * time.Second,
					},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Reliability.Retry.MaxAttempts != 7 {
					t.Error("existing max attempts was overwritten")
				}
				if cfg.Reliability.Retry.InitialDelay != 2*time.Second {
					t.Error("existing initial delay was overwritten")
				}
				// Check that unset values got defaults
				if cfg.Reliability.Retry.MaxDelay != DefaultRetryMaxDelay {
					t.Error("max delay should get default when not set")
				}
			},
		},
		{
			name: "provider defaults applied",
			input: Config{
				Providers: map[string]ProviderConfig{
					"openai": {
						BaseURL: "https://api.openai.com/v1",
						APIKey:  "test-key",
						// Timeout and MaxRetries not set
					},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				provider := cfg.Providers["openai"]
				if provider.Timeout != DefaultProviderTimeout {
					t.Errorf("expected provider timeout %v, got %v", DefaultProviderTimeout, provider.Timeout)
				}
				if provider.MaxRetries != DefaultProviderMaxRetries {
					t.Errorf("expected provider max retries %d, got %d", DefaultProviderMaxRetries, provider.MaxRetries)
				}
				if provider.BaseURL != "https://api.openai.com/v1" {
					t.Error("existing base URL was overwritten")
				}
				if provider.APIKey != "test-key" {
					t.Error("existing API key was overwritten")
				}
			},
		},
		{
			name: "retry categories default to all-enabled when all are false",
			input: Config{
				Providers: make(map[string]ProviderConfig),
			},
			check: func(t *testing.T, cfg *Config) {
				r := cfg.Reliability.Retry
				if !r.RetryOnTimeout || !r.RetryOnRateLimit || !r.RetryOnServerError || !r.RetryOnNetworkError {
					t.Error("expected all retry categories to default to true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := Config{
		Providers: make(map[string]ProviderConfig),
	}

	ApplyDefaults(&cfg)
	firstPass := cfg.Reliability.Retry.MaxAttempts

	ApplyDefaults(&cfg)
	secondPass := cfg.Reliability.Retry.MaxAttempts

	if firstPass != secondPass {
		t.Error("ApplyDefaults should be idempotent")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Reliability.Retry.MaxAttempts != DefaultRetryMaxAttempts {
		t.Errorf("expected retry max attempts %d, got %d", DefaultRetryMaxAttempts, cfg.Reliability.Retry.MaxAttempts)
	}
	if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("expected metrics namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
	}
}
