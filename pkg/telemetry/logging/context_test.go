package logging

import (
	"context"
	"testing"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}

	ctx = WithProvider(ctx, "anthropic")
	if got := GetProvider(ctx); got != "anthropic" {
		t.Errorf("GetProvider() = %q, want %q", got, "anthropic")
	}

	ctx = WithModel(ctx, "claude-3-opus-20240229")
	if got := GetModel(ctx); got != "claude-3-opus-20240229" {
		t.Errorf("GetModel() = %q, want %q", got, "claude-3-opus-20240229")
	}

	ctx = WithSession(ctx, "session-xyz")
	if got := GetSession(ctx); got != "session-xyz" {
		t.Errorf("GetSession() = %q, want %q", got, "session-xyz")
	}

	ctx = WithTraceID(ctx, "trace-abc")
	if got := GetTraceID(ctx); got != "trace-abc" {
		t.Errorf("GetTraceID() = %q, want %q", got, "trace-abc")
	}

	ctx = WithSpanID(ctx, "span-def")
	if got := GetSpanID(ctx); got != "span-def" {
		t.Errorf("GetSpanID() = %q, want %q", got, "span-def")
	}
}

func TestContextKeys_Empty(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		get  func(context.Context) string
	}{
		{"RequestID", GetRequestID},
		{"Provider", GetProvider},
		{"Model", GetModel},
		{"Session", GetSession},
		{"TraceID", GetTraceID},
		{"SpanID", GetSpanID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(ctx); got != "" {
				t.Errorf("Get%s() = %q, want empty string", tt.name, got)
			}
		})
	}
}

func TestExtractContextFields(t *testing.T) {
	tests := []struct {
		name       string
		setupCtx   func(context.Context) context.Context
		wantFields map[string]string
	}{
		{
			name:     "empty context",
			setupCtx: func(ctx context.Context) context.Context { return ctx },
			wantFields: map[string]string{},
		},
		{
			name: "request id only",
			setupCtx: func(ctx context.Context) context.Context {
				return WithRequestID(ctx, "req-123")
			},
			wantFields: map[string]string{"request_id": "req-123"},
		},
		{
			name: "provider and model",
			setupCtx: func(ctx context.Context) context.Context {
				ctx = WithRequestID(ctx, "req-456")
				ctx = WithProvider(ctx, "openai")
				ctx = WithModel(ctx, "gpt-4o")
				return ctx
			},
			wantFields: map[string]string{
				"request_id": "req-456",
				"provider":   "openai",
				"model":      "gpt-4o",
			},
		},
		{
			name: "every field",
			setupCtx: func(ctx context.Context) context.Context {
				ctx = WithRequestID(ctx, "req-789")
				ctx = WithProvider(ctx, "anthropic")
				ctx = WithModel(ctx, "claude-3-opus-20240229")
				ctx = WithSession(ctx, "sess-1")
				ctx = WithTraceID(ctx, "trace-1")
				ctx = WithSpanID(ctx, "span-1")
				return ctx
			},
			wantFields: map[string]string{
				"request_id": "req-789",
				"provider":   "anthropic",
				"model":      "claude-3-opus-20240229",
				"session":    "sess-1",
				"trace_id":   "trace-1",
				"span_id":    "span-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupCtx(context.Background())
			fields := extractContextFields(ctx)

			fieldsMap := make(map[string]string)
			for i := 0; i < len(fields); i += 2 {
				key := fields[i].(string)
				value := fields[i+1].(string)
				fieldsMap[key] = value
			}

			for key, expectedValue := range tt.wantFields {
				if gotValue, ok := fieldsMap[key]; !ok {
					t.Errorf("expected field %q not found", key)
				} else if gotValue != expectedValue {
					t.Errorf("field %q = %q, want %q", key, gotValue, expectedValue)
				}
			}

			if len(fieldsMap) != len(tt.wantFields) {
				t.Errorf("got %d fields, want %d. fields: %v",
					len(fieldsMap), len(tt.wantFields), fieldsMap)
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-cl-1")
	ctx = WithProvider(ctx, "anthropic")

	logger, err := New(Config{
		Level:      "info",
		Format:     "json",
		RedactPII:  false,
		BufferSize: 100,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Shutdown()

	ctxLogger := NewContextLogger(logger, ctx)
	if ctxLogger == nil {
		t.Fatal("NewContextLogger returned nil")
	}

	ctxLogger.Debug("dispatching request")
	ctxLogger.Info("request accepted")
	ctxLogger.Warn("provider responded slowly")
	ctxLogger.Error("request failed")

	childLogger := ctxLogger.With("attempt", 2)
	if childLogger == nil {
		t.Fatal("ContextLogger.With returned nil")
	}
	childLogger.Info("retrying request")
}

func TestContextLogger_With(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-with-1")

	logger, err := New(Config{
		Level:      "info",
		Format:     "json",
		RedactPII:  false,
		BufferSize: 100,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Shutdown()

	ctxLogger := NewContextLogger(logger, ctx)

	childLogger := ctxLogger.With("model", "gpt-4o", "attempt", 1)
	if childLogger == nil {
		t.Fatal("ContextLogger.With returned nil")
	}
	childLogger.Info("generating completion")
}

func TestContextChaining(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-chain-1")
	ctx = WithProvider(ctx, "xai")

	if got := GetRequestID(ctx); got != "req-chain-1" {
		t.Errorf("after chaining, GetRequestID() = %q, want %q", got, "req-chain-1")
	}
	if got := GetProvider(ctx); got != "xai" {
		t.Errorf("after chaining, GetProvider() = %q, want %q", got, "xai")
	}

	ctx = WithModel(ctx, "grok-2")
	ctx = WithSession(ctx, "session-1")

	if got := GetModel(ctx); got != "grok-2" {
		t.Errorf("after more chaining, GetModel() = %q, want %q", got, "grok-2")
	}
	if got := GetSession(ctx); got != "session-1" {
		t.Errorf("after more chaining, GetSession() = %q, want %q", got, "session-1")
	}

	if got := GetRequestID(ctx); got != "req-chain-1" {
		t.Errorf("original value changed: GetRequestID() = %q, want %q", got, "req-chain-1")
	}
}

func TestContextOverwrite(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-old")

	if got := GetRequestID(ctx); got != "req-old" {
		t.Errorf("initial GetRequestID() = %q, want %q", got, "req-old")
	}

	ctx = WithRequestID(ctx, "req-new")

	if got := GetRequestID(ctx); got != "req-new" {
		t.Errorf("after overwrite, GetRequestID() = %q, want %q", got, "req-new")
	}
}

func BenchmarkExtractContextFields(b *testing.B) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-bench")
	ctx = WithProvider(ctx, "anthropic")
	ctx = WithModel(ctx, "claude-3-opus-20240229")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = extractContextFields(ctx)
	}
}

func BenchmarkWithRequestID(b *testing.B) {
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = WithRequestID(ctx, "req-123")
	}
}

func BenchmarkGetRequestID(b *testing.B) {
	ctx := WithRequestID(context.Background(), "req-123")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetRequestID(ctx)
	}
}
