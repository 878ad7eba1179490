// Package telemetry provides comprehensive observability for Steer.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// OpenTelemetry distributed tracing, and health check endpoints. It provides
// visibility into runtime behavior while maintaining low overhead (<50µs per
// request).
//
// # Components
//
//   - logging: Structured logging with PII redaction
//   - metrics: Prometheus metrics collection
//   - tracing: OpenTelemetry distributed tracing
//   - health: Health check endpoints
//
// # Usage
//
// This package holds documentation only and exports nothing. Each
// component is built from its own subpackage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	checker := health.New(5 * time.Second)
//
// # Performance
//
// The telemetry package is designed for minimal overhead:
//
//   - Logging: <10µs when enabled, <1µs when disabled
//   - Metrics: <50µs per metric update
//   - Tracing: <100µs per span
//   - Total overhead: <0.5% of request time
//
// # PII Protection
//
// When the logger's RedactPII option is on (it is off unless set), PII is
// redacted from logs:
//
//   - API keys: sk-abc123 → sk-***
//   - Emails: user@example.com → u***@example.com
//   - SSN: 123-45-6789 → ***-**-****
//   - IP addresses: 192.168.1.1 → 192.*.*.*
//
// Custom redaction patterns can be configured.
package telemetry
