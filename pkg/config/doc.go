// Package config provides configuration management for the SDK.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// Values left zero in the file are filled from DefaultConfig using
// dario.cat/mergo; file values always win over defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention STEER_SECTION_FIELD.
// For example:
//
//   - STEER_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//   - STEER_RELIABILITY_RETRY_MAX_ATTEMPTS overrides reliability.retry.max_attempts
//   - STEER_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Telemetry.Logging.Level)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., at least one provider)
//   - Range validation (e.g., ports must be 0-65535, ratios 0-1)
//   - Format validation (e.g., valid URL format, valid regex patterns)
//   - Logical validation (e.g., at least one retry category must be enabled)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - providers: at least one provider must be configured
//	  - reliability.retry: at least one retry_on_* category must be enabled, or retries never fire
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	providers:
//	  openai:
//	    base_url: "https://api.openai.com/v1"
//	    api_key_env: "OPENAI_API_KEY"
//
//	reliability:
//	  retry:
//	    max_attempts: 3
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while protecting against concurrent writes during
// reload operations.
package config
