// Package logging provides the structured logger the SDK and cmd/steer
// use for generate/stream calls: request/provider/model-scoped fields,
// and PII redaction for prompt content and provider API keys. Log calls
// write synchronously to the configured writer.
//
// # Overview
//
// logging wraps log/slog to add:
//   - JSON, text, or console output
//   - Redaction of provider API keys and other sensitive fields via Redactor
//   - Context-aware logging carrying request/provider/model/session/trace ids
//   - The usual debug/info/warn/error levels
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//	if err != nil {
//	    // ...
//	}
//	defer logger.Shutdown()
//
//	logger.Info("dispatching request",
//	    "request_id", "req-123",
//	    "provider", "anthropic",
//	    "model", "claude-3-opus-20240229",
//	)
//
//	ctx := logging.WithRequestID(context.Background(), "req-123")
//	ctx = logging.WithProvider(ctx, "anthropic")
//	logging.NewContextLogger(logger, ctx).Info("request accepted")
//
// # PII Redaction
//
// RedactPII replaces sensitive field values before they reach the
// formatter:
//
//   - Provider API keys: sk-ant-abc123xyz -> sk-***
//   - Emails: user@example.com -> u***@example.com
//   - IP addresses: 192.168.1.100 -> 192.*.*.*
//
// # Performance
//
// A message below the configured level is filtered out before it is
// formatted. Every other message is formatted and written to the writer
// within the log call; there is no queue, and no message is dropped.
package logging
