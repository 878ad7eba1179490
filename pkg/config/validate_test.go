package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := MinimalConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{Level: "bogus"},
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}

	errMsg := validationErr.Error()
	if !strings.Contains(errMsg, "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", errMsg)
	}
}

func TestValidate_Providers(t *testing.T) {
	tests := []struct {
		name       string
		providers  map[string]ProviderConfig
		wantError  bool
		errorField string
	}{
		{
			name:      "no providers",
			providers: map[string]ProviderConfig{},
			wantError: true,
		},
		{
			name: "valid provider",
			providers: map[string]ProviderConfig{
				"openai": {BaseURL: "https://api.openai.com/v1", Timeout: 30 * time.Second},
			},
			wantError: false,
		},
		{
			name: "missing base URL",
			providers: map[string]ProviderConfig{
				"openai": {},
			},
			wantError:  true,
			errorField: "providers.openai.base_url",
		},
		{
			name: "invalid base URL",
			providers: map[string]ProviderConfig{
				"openai": {BaseURL: "://not-a-url"},
			},
			wantError:  true,
			errorField: "providers.openai.base_url",
		},
		{
			name: "negative timeout",
			providers: map[string]ProviderConfig{
				"openai": {BaseURL: "https://api.openai.com/v1", Timeout: -1},
			},
			wantError:  true,
			errorField: "providers.openai.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateProviders(tt.providers)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
			if tt.wantError && tt.errorField != "" {
				found := false
				for _, err := range errs {
					if err.Field == tt.errorField {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected error for field %q, got errors: %v", tt.errorField, errs)
				}
			}
		})
	}
}

func TestValidate_Retry(t *testing.T) {
	tests := []struct {
		name      string
		retry     RetryConfig
		wantError bool
	}{
		{
			name: "valid retry policy",
			retry: RetryConfig{
				MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 30 * time.Second,
				BackoffFactor: 2.0, JitterFactor: 0.2, RetryOnTimeout: true,
			},
			wantError: false,
		},
		{
			name:      "zero max attempts",
			retry:     RetryConfig{MaxAttempts: 0, RetryOnTimeout: true},
			wantError: true,
		},
		{
			name:      "max delay less than initial delay",
			retry:     RetryConfig{MaxAttempts: 3, InitialDelay: 10 * time.Second, MaxDelay: time.Second, BackoffFactor: 2, RetryOnTimeout: true},
			wantError: true,
		},
		{
			name:      "backoff factor below one",
			retry:     RetryConfig{MaxAttempts: 3, BackoffFactor: 0.5, RetryOnTimeout: true},
			wantError: true,
		},
		{
			name:      "jitter factor out of range",
			retry:     RetryConfig{MaxAttempts: 3, BackoffFactor: 1, JitterFactor: 1.5, RetryOnTimeout: true},
			wantError: true,
		},
		{
			name:      "all retry categories disabled",
			retry:     RetryConfig{MaxAttempts: 3, BackoffFactor: 1},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateRetry(&tt.retry)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
		})
	}
}

func TestValidate_Breaker(t *testing.T) {
	tests := []struct {
		name      string
		breaker   BreakerConfig
		wantError bool
	}{
		{
			name: "valid breaker config",
			breaker: BreakerConfig{
				FailureThreshold: 5, SuccessThreshold: 2, Timeout: 30 * time.Second,
				HalfOpenRequests: 1, WindowSize: time.Minute,
			},
			wantError: false,
		},
		{
			name:      "zero failure threshold",
			breaker:   BreakerConfig{FailureThreshold: 0, SuccessThreshold: 1, Timeout: time.Second, HalfOpenRequests: 1, WindowSize: time.Minute},
			wantError: true,
		},
		{
			name:      "zero timeout",
			breaker:   BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: 0, HalfOpenRequests: 1, WindowSize: time.Minute},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateBreaker(&tt.breaker)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
		})
	}
}

func TestValidate_Telemetry(t *testing.T) {
	tests := []struct {
		name      string
		telemetry TelemetryConfig
		wantError bool
	}{
		{
			name: "valid telemetry config",
			telemetry: TelemetryConfig{
				Logging: LoggingConfig{Level: "info", Format: "json"},
				Metrics: MetricsConfig{Port: 9090},
				Tracing: TracingConfig{Sampler: "ratio", SampleRatio: 0.1},
			},
			wantError: false,
		},
		{
			name:      "invalid logging level",
			telemetry: TelemetryConfig{Logging: LoggingConfig{Level: "verbose"}},
			wantError: true,
		},
		{
			name:      "invalid logging format",
			telemetry: TelemetryConfig{Logging: LoggingConfig{Format: "xml"}},
			wantError: true,
		},
		{
			name:      "metrics port out of range",
			telemetry: TelemetryConfig{Metrics: MetricsConfig{Port: 99999}},
			wantError: true,
		},
		{
			name:      "tracing enabled without endpoint",
			telemetry: TelemetryConfig{Tracing: TracingConfig{Enabled: true}},
			wantError: true,
		},
		{
			name:      "sample ratio out of range",
			telemetry: TelemetryConfig{Tracing: TracingConfig{SampleRatio: 2.0}},
			wantError: true,
		},
		{
			name: "invalid redact pattern regex",
			telemetry: TelemetryConfig{
				Logging: LoggingConfig{RedactPatterns: []RedactPattern{{Name: "bad", Pattern: "("}}},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateTelemetry(&tt.telemetry)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
		})
	}
}

func TestValidate_CLI(t *testing.T) {
	tests := []struct {
		name      string
		cli       CLIConfig
		wantError bool
	}{
		{name: "empty format uses default", cli: CLIConfig{}, wantError: false},
		{name: "valid text format", cli: CLIConfig{OutputFormat: "text"}, wantError: false},
		{name: "valid json format", cli: CLIConfig{OutputFormat: "json"}, wantError: false},
		{name: "invalid format", cli: CLIConfig{OutputFormat: "yaml"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateCLI(&tt.cli)
			if tt.wantError && len(errs) == 0 {
				t.Error("expected validation error, got none")
			}
			if !tt.wantError && len(errs) > 0 {
				t.Errorf("expected no validation error, got: %v", errs)
			}
		})
	}
}

func TestFieldError_Error(t *testing.T) {
	err := FieldError{Field: "providers.openai.base_url", Message: "is required"}
	want := "providers.openai.base_url: is required"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestValidationError_Error(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		err := ValidationError{}
		if err.Error() != "configuration validation failed" {
			t.Errorf("unexpected message: %q", err.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		err := ValidationError{Errors: []FieldError{{Field: "providers", Message: "required"}}}
		if !strings.Contains(err.Error(), "providers: required") {
			t.Errorf("unexpected message: %q", err.Error())
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := ValidationError{Errors: []FieldError{
			{Field: "providers", Message: "required"},
			{Field: "reliability.retry.max_attempts", Message: "must be at least 1"},
		}}
		msg := err.Error()
		if !strings.Contains(msg, "2 errors") {
			t.Errorf("expected error count in message, got: %q", msg)
		}
	})
}
