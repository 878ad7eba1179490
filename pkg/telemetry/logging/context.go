package logging

import (
	"context"
)

// contextKey namespaces the values this package stashes on a context so
// they don't collide with keys other packages might use.
type contextKey string

const (
	// RequestIDKey correlates every log line emitted while handling one
	// generate/stream call, including the lines written by the
	// reliability layer's retries against the same request.
	RequestIDKey contextKey = "request_id"

	// ProviderKey is the resolved provider family (anthropic, openai, xai).
	ProviderKey contextKey = "provider"

	// ModelKey is the resolved model id, after alias folding.
	ModelKey contextKey = "model"

	// SessionKey groups the calls belonging to one multi-turn conversation.
	SessionKey contextKey = "session"

	// TraceIDKey and SpanIDKey carry the active span's identifiers so log
	// lines can be joined with exported spans without re-deriving them.
	TraceIDKey contextKey = "trace_id"
	SpanIDKey  contextKey = "span_id"
)

// withStringValue and stringValue back every With*/Get* pair below so
// adding a new field doesn't mean adding a new context.WithValue dance.
func withStringValue(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithRequestID attaches the in-flight request's id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withStringValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request id, or "" if none was attached.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// WithProvider attaches the resolved provider family to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return withStringValue(ctx, ProviderKey, provider)
}

// GetProvider retrieves the provider family, or "" if none was attached.
func GetProvider(ctx context.Context) string {
	return stringValue(ctx, ProviderKey)
}

// WithModel attaches the resolved model id to the context.
func WithModel(ctx context.Context, model string) context.Context {
	return withStringValue(ctx, ModelKey, model)
}

// GetModel retrieves the model id, or "" if none was attached.
func GetModel(ctx context.Context) string {
	return stringValue(ctx, ModelKey)
}

// WithSession attaches a conversation/session id to the context.
func WithSession(ctx context.Context, session string) context.Context {
	return withStringValue(ctx, SessionKey, session)
}

// GetSession retrieves the session id, or "" if none was attached.
func GetSession(ctx context.Context) string {
	return stringValue(ctx, SessionKey)
}

// WithTraceID attaches the active trace id to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withStringValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace id, or "" if none was attached.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// WithSpanID attaches the active span id to the context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return withStringValue(ctx, SpanIDKey, spanID)
}

// GetSpanID retrieves the span id, or "" if none was attached.
func GetSpanID(ctx context.Context) string {
	return stringValue(ctx, SpanIDKey)
}

// fieldExtractor pairs a context key's log field name with the getter
// that reads it back off the context; extractContextFields walks this
// table instead of repeating the same nine-way if-chain teacher code did.
type fieldExtractor struct {
	name string
	get  func(context.Context) string
}

var contextFields = []fieldExtractor{
	{"request_id", GetRequestID},
	{"provider", GetProvider},
	{"model", GetModel},
	{"session", GetSession},
	{"trace_id", GetTraceID},
	{"span_id", GetSpanID},
}

// extractContextFields pulls every known field off ctx for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, f := range contextFields {
		if v := f.get(ctx); v != "" {
			fields = append(fields, f.name, v)
		}
	}
	return fields
}

// ContextLogger wraps a Logger with a context whose fields it attaches
// to every call, so request/provider/model/trace identifiers don't need
// to be threaded through every log call site by hand.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger binds logger to ctx, attaching ctx's known fields to
// every subsequent call made through the returned ContextLogger.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message carrying ctx's fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message carrying ctx's fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message carrying ctx's fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message carrying ctx's fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With returns a child ContextLogger that also carries the given fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}
