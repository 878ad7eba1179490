package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, layers it over
// DefaultConfig with dario.cat/mergo (file values win over defaults,
// since mergo.Merge only fills zero-valued fields on the destination),
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	defaults := DefaultConfig()
	if err := mergo.Merge(&cfg, defaults); err != nil {
		return nil, fmt.Errorf("failed to merge default configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// layers environment variable overrides on top: env always wins
// over file and defaults.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Merge defaults for anything the file left zero-valued
// 3. Apply environment variable overrides
// 4. Re-validate
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies STEER_SECTION_FIELD environment variable
// overrides for provider keys plus the telemetry/reliability knobs.
func applyEnvOverrides(cfg *Config) {
	applyProviderEnvOverrides(cfg, "openai")
	applyProviderEnvOverrides(cfg, "anthropic")
	applyProviderEnvOverrides(cfg, "xai")

	if val := os.Getenv("STEER_RELIABILITY_RETRY_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Reliability.Retry.MaxAttempts = i
		}
	}
	if val := os.Getenv("STEER_RELIABILITY_BREAKER_FAILURE_THRESHOLD"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Reliability.Breaker.FailureThreshold = i
		}
	}

	if val := os.Getenv("STEER_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("STEER_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("STEER_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("STEER_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("STEER_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("STEER_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("STEER_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	if val := os.Getenv("STEER_CLI_DEFAULT_MODEL"); val != "" {
		cfg.CLI.DefaultModel = val
	}
}

// applyProviderEnvOverrides applies STEER_PROVIDERS_<NAME>_<FIELD>
// overrides for one provider, creating the entry if the file omitted
// it entirely, namespaced so file and env configuration compose
// predictably.
func applyProviderEnvOverrides(cfg *Config, providerName string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	provider, exists := cfg.Providers[providerName]

	prefix := fmt.Sprintf("STEER_PROVIDERS_%s_", strings.ToUpper(providerName))
	modified := false

	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
		modified = true
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
		modified = true
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.Timeout = d
			modified = true
		}
	}
	if val := os.Getenv(prefix + "MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.MaxRetries = i
			modified = true
		}
	}

	if modified || exists {
		cfg.Providers[providerName] = provider
	}
}
