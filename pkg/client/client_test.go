package client

import (
	"context"
	"testing"
	"time"

	testhelpers "steer-sdk/core/internal/providers"
	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/limits"
	"steer-sdk/core/pkg/limits/enforcement"
	"steer-sdk/core/pkg/limits/ratelimit"
	"steer-sdk/core/pkg/providerfactory"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
)

// newTestClient wires a Client whose only provider ("openai") points at
// server, with the base registry's compiled-in gpt-4o entry left intact
// so cost attachment and capability checks exercise the real table.
func newTestClient(t *testing.T, server *testhelpers.MockServer) *Client {
	t.Helper()

	reg := registry.New()
	reg.Freeze()

	mgr := providerfactory.NewManager()
	cfg := testhelpers.TestConfigWithURL("openai", "openai", server.URL())
	if err := mgr.AddProvider(cfg); err != nil {
		t.Fatalf("AddProvider() error = %v", err)
	}

	return New(reg, mgr)
}

func TestGetAvailableModelsReportsConfiguredProvider(t *testing.T) {
	server := testhelpers.NewMockServer()
	defer server.Close()

	c := newTestClient(t, server)
	models := c.GetAvailableModels()

	found := false
	for _, m := range models {
		if m == "gpt-4o" {
			found = true
		}
		if m == "claude-3-5-sonnet" || m == "grok-2" {
			t.Errorf("model %q should not be reported available (no provider registered)", m)
		}
	}
	if !found {
		t.Error("expected gpt-4o to be reported as available")
	}
}

func TestCheckModelAvailabilityUnknownModel(t *testing.T) {
	server := testhelpers.NewMockServer()
	defer server.Close()
	c := newTestClient(t, server)

	if c.CheckModelAvailability("not-a-real-model") {
		t.Error("expected unknown model to be unavailable")
	}
}

func TestGenerateAttachesCost(t *testing.T) {
	server := testhelpers.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", testhelpers.MockResponse{
			Body: testhelpers.MockOpenAIResponse("hello", "gpt-4o"),
		})
	c := newTestClient(t, server)

	resp, err := c.Generate(context.Background(), "gpt-4o", []core.Message{
			{Role: core.RoleUser, Content: "hi"},
		}, core.GenerationParams{MaxTokens: 100})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text != "hello" {
		t.Errorf("Text = %q, want hello", resp.Text)
	}
	if resp.CostUSD == nil {
		t.Fatal("expected CostUSD to be populated for gpt-4o's priced entry")
	}
}

func TestGenerateUnknownModel(t *testing.T) {
	server := testhelpers.NewMockServer()
	defer server.Close()
	c := newTestClient(t, server)

	_, err := c.Generate(context.Background(), "nonexistent-model", []core.Message{
			{Role: core.RoleUser, Content: "hi"},
		}, core.GenerationParams{})
	if err == nil {
		t.Fatal("expected an error for an unknown model")
	}
	if _, ok := err.(*providers.ValidationError); !ok {
		t.Errorf("error = %T, want *providers.ValidationError", err)
	}
}

func TestGenerateBlockedByAttachedLimitsManager(t *testing.T) {
	server := testhelpers.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", testhelpers.MockResponse{
			Body: testhelpers.MockOpenAIResponse("hello", "gpt-4o"),
		})

	reg := registry.New()
	reg.Freeze()
	mgr := providerfactory.NewManager()
	cfg := testhelpers.TestConfigWithURL("openai", "openai", server.URL())
	if err := mgr.AddProvider(cfg); err != nil {
		t.Fatalf("AddProvider() error = %v", err)
	}

	lm := limits.NewManager(limits.Config{
			RateLimits: map[string]ratelimit.Config{
				"openai": {RequestsPerSecond: 1},
			},
			Enforcement: enforcement.Config{DefaultAction: enforcement.ActionBlock},
		})
	c := New(reg, mgr, WithLimits(lm))

	msgs := []core.Message{{Role: core.RoleUser, Content: "hi"}}
	// Burst capacity is 2x the per-second rate: the
	// first two calls drain the bucket, the third lands before it refills.
	for i := 0; i < 2; i++ {
		if _, err := c.Generate(context.Background(), "gpt-4o", msgs, core.GenerationParams{}); err != nil {
			t.Fatalf("call %d: unexpected error = %v", i, err)
		}
	}
	_, err := c.Generate(context.Background(), "gpt-4o", msgs, core.GenerationParams{})
	if err == nil {
		t.Fatal("expected the third rapid call to be blocked by the rate limiter")
	}
	if _, ok := err.(*limits.LimitError); !ok {
		t.Errorf("error = %T, want *limits.LimitError", err)
	}
}

func TestStreamWithUsageYieldsTerminalUsage(t *testing.T) {
	server := testhelpers.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", testhelpers.MockResponse{
			StreamChunks: []string{
				testhelpers.MockOpenAIStreamChunk("Hello", ""),
				testhelpers.MockOpenAIStreamChunk(" world", "stop"),
			},
		})
	c := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := c.StreamWithUsage(ctx, "gpt-4o", []core.Message{
			{Role: core.RoleUser, Content: "hi"},
		}, core.GenerationParams{MaxTokens: 100})
	if err != nil {
		t.Fatalf("StreamWithUsage() error = %v", err)
	}

	var sawComplete bool
	var text string
	for e := range events {
		switch e.Kind {
		case core.EventDelta:
			if s, ok := e.Delta.Value.(string); ok {
				text += s
			}
		case core.EventComplete:
			sawComplete = true
		case core.EventError:
			t.Fatalf("unexpected error event: %v", e.Err)
		}
	}
	if !sawComplete {
		t.Error("expected a terminal complete event")
	}
	if text != "Hello world" {
		t.Errorf("accumulated text = %q, want %q", text, "Hello world")
	}
}

func TestStreamFiltersToTextDeltas(t *testing.T) {
	server := testhelpers.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", testhelpers.MockResponse{
			StreamChunks: []string{
				testhelpers.MockOpenAIStreamChunk("abc", "stop"),
			},
		})
	c := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := c.Stream(ctx, "gpt-4o", []core.Message{
			{Role: core.RoleUser, Content: "hi"},
		}, core.GenerationParams{MaxTokens: 100})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var got string
	for s := range out {
		got += s
	}
	if got != "abc" {
		t.Errorf("accumulated stream = %q, want %q", got, "abc")
	}
}
