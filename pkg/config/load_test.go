package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
providers:
  openai:
    base_url: "https://api.openai.com/v1"
    api_key: "test-key-123"
    timeout: "30s"
    max_retries: 5

reliability:
  retry:
    max_attempts: 5

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: true
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	openai, exists := cfg.Providers["openai"]
	if !exists {
		t.Fatal("expected openai provider")
	}
	if openai.APIKey != "test-key-123" {
		t.Errorf("expected API key %q, got %q", "test-key-123", openai.APIKey)
	}
	if openai.Timeout != 30*time.Second {
		t.Errorf("expected timeout %v, got %v", 30*time.Second, openai.Timeout)
	}

	if cfg.Reliability.Retry.MaxAttempts != 5 {
		t.Errorf("expected retry max attempts 5, got %d", cfg.Reliability.Retry.MaxAttempts)
	}

	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}

	// Unset fields should still get their defaults merged in.
	if cfg.Reliability.Breaker.FailureThreshold != DefaultBreakerFailureThreshold {
		t.Errorf("expected default breaker failure threshold %d, got %d", DefaultBreakerFailureThreshold, cfg.Reliability.Breaker.FailureThreshold)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "no such file or directory") {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	malformedContent := `
providers:
  openai:
    invalid yaml here: [
`

	if err := os.WriteFile(configPath, []byte(malformedContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidContent := `
providers: {}

telemetry:
  logging:
    level: "invalid"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError in error chain, got %T: %v", err, err)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
providers:
  openai:
    base_url: "https://api.openai.com/v1"
    api_key: "file-key"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("STEER_PROVIDERS_OPENAI_API_KEY", "env-key-override")
	os.Setenv("STEER_TELEMETRY_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("STEER_PROVIDERS_OPENAI_API_KEY")
		os.Unsetenv("STEER_TELEMETRY_LOGGING_LEVEL")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	openai := cfg.Providers["openai"]
	if openai.APIKey != "env-key-override" {
		t.Errorf("expected API key %q from env, got %q", "env-key-override", openai.APIKey)
	}

	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q from env, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_DurationParsing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
providers:
  openai:
    base_url: "https://api.openai.com/v1"
    api_key: "test-key"
    timeout: "30s"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("STEER_PROVIDERS_OPENAI_TIMEOUT", "45s")
	defer os.Unsetenv("STEER_PROVIDERS_OPENAI_TIMEOUT")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Providers["openai"].Timeout != 45*time.Second {
		t.Errorf("expected provider timeout %v, got %v", 45*time.Second, cfg.Providers["openai"].Timeout)
	}
}

func TestLoadConfigWithEnvOverrides_IntegerParsing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
providers:
  openai:
    base_url: "https://api.openai.com/v1"
    api_key: "test-key"
    max_retries: 3

reliability:
  retry:
    max_attempts: 3
  breaker:
    failure_threshold: 5
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("STEER_PROVIDERS_OPENAI_MAX_RETRIES", "5")
	os.Setenv("STEER_RELIABILITY_RETRY_MAX_ATTEMPTS", "7")
	os.Setenv("STEER_RELIABILITY_BREAKER_FAILURE_THRESHOLD", "9")
	defer func() {
		os.Unsetenv("STEER_PROVIDERS_OPENAI_MAX_RETRIES")
		os.Unsetenv("STEER_RELIABILITY_RETRY_MAX_ATTEMPTS")
		os.Unsetenv("STEER_RELIABILITY_BREAKER_FAILURE_THRESHOLD")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Providers["openai"].MaxRetries != 5 {
		t.Errorf("expected max retries %d, got %d", 5, cfg.Providers["openai"].MaxRetries)
	}
	if cfg.Reliability.Retry.MaxAttempts != 7 {
		t.Errorf("expected retry max attempts %d, got %d", 7, cfg.Reliability.Retry.MaxAttempts)
	}
	if cfg.Reliability.Breaker.FailureThreshold != 9 {
		t.Errorf("expected breaker failure threshold %d, got %d", 9, cfg.Reliability.Breaker.FailureThreshold)
	}
}

func TestLoadConfigWithEnvOverrides_BooleanParsing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
providers:
  openai:
    base_url: "https://api.openai.com/v1"
    api_key: "test-key"

telemetry:
  metrics:
    enabled: false
  tracing:
    enabled: false
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("STEER_TELEMETRY_METRICS_ENABLED", "true")
	os.Setenv("STEER_TELEMETRY_TRACING_ENABLED", "true")
	os.Setenv("STEER_TELEMETRY_TRACING_ENDPOINT", "http://collector:4317")
	defer func() {
		os.Unsetenv("STEER_TELEMETRY_METRICS_ENABLED")
		os.Unsetenv("STEER_TELEMETRY_TRACING_ENABLED")
		os.Unsetenv("STEER_TELEMETRY_TRACING_ENDPOINT")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled to be true from env")
	}
	if !cfg.Telemetry.Tracing.Enabled {
		t.Error("expected tracing enabled to be true from env")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
providers:
  openai:
    base_url: "https://api.openai.com/v1"
    api_key: "test-key"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("STEER_RELIABILITY_RETRY_MAX_ATTEMPTS", "not-a-number")
	os.Setenv("STEER_TELEMETRY_LOGGING_LEVEL", "invalid-level")
	defer func() {
		os.Unsetenv("STEER_RELIABILITY_RETRY_MAX_ATTEMPTS")
		os.Unsetenv("STEER_TELEMETRY_LOGGING_LEVEL")
	}()

	_, err := LoadConfigWithEnvOverrides(configPath)
	if err == nil {
		t.Error("expected validation error for invalid env values")
	}
}

func TestLoadConfigWithEnvOverrides_NewProvider(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
providers:
  openai:
    base_url: "https://api.openai.com/v1"
    api_key: "test-key"

telemetry:
  logging:
    level: "info"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("STEER_PROVIDERS_ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1")
	os.Setenv("STEER_PROVIDERS_ANTHROPIC_API_KEY", "anthropic-key")
	defer func() {
		os.Unsetenv("STEER_PROVIDERS_ANTHROPIC_BASE_URL")
		os.Unsetenv("STEER_PROVIDERS_ANTHROPIC_API_KEY")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	anthropic, exists := cfg.Providers["anthropic"]
	if !exists {
		t.Error("expected anthropic provider to be added from env vars")
	} else {
		if anthropic.BaseURL != "https://api.anthropic.com/v1" {
			t.Errorf("expected base URL %q, got %q", "https://api.anthropic.com/v1", anthropic.BaseURL)
		}
		if anthropic.APIKey != "anthropic-key" {
			t.Errorf("expected API key %q, got %q", "anthropic-key", anthropic.APIKey)
		}
	}
}
