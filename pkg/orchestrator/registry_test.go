package orchestrator

import (
	"context"
	"testing"

	"steer-sdk/core/pkg/events"
)

type stubTool struct {
	name, version, description string
	md                         *ToolMetadata
	result                     Result
	err                        error
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Version() string     { return s.version }
func (s *stubTool) Description() string { return s.description }
func (s *stubTool) Execute(ctx context.Context, req Request, options map[string]any, em *events.Manager) (Result, error) {
	return s.result, s.err
}
func (s *stubTool) Metadata() ToolMetadata {
	if s.md != nil {
		return *s.md
	}
	return ToolMetadata{Name: s.name, Version: s.version, Description: s.description}
}

func TestToolRegistry_RegisterAndGet(t *testing.T) {
	reg := NewToolRegistry()
	tool := &stubTool{name: "echo", version: "1.0.0"}

	if err := reg.Register(tool); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := reg.Get("echo"); got != tool {
		t.Fatalf("expected registered tool back, got %v", got)
	}
	if !reg.Has("echo") {
		t.Fatal("expected Has(echo) to be true")
	}
}

func TestToolRegistry_DuplicateNameRejected(t *testing.T) {
	reg := NewToolRegistry()
	first := &stubTool{name: "echo", version: "1.0.0"}
	second := &stubTool{name: "echo", version: "2.0.0"}

	if err := reg.Register(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := reg.Register(second)
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestToolRegistry_UnregisterAndClear(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(&stubTool{name: "a"})
	reg.Register(&stubTool{name: "b"})

	if !reg.Unregister("a") {
		t.Fatal("expected Unregister(a) to succeed")
	}
	if reg.Has("a") {
		t.Fatal("expected a to be gone")
	}
	reg.Clear()
	if len(reg.Names()) != 0 {
		t.Fatalf("expected empty registry after Clear, got %v", reg.Names())
	}
}

func TestToolRegistry_MetadataUsesOptionalProvider(t *testing.T) {
	reg := NewToolRegistry()
	md := ToolMetadata{Name: "bundle", SupportedModels: []string{"gpt-4o-mini"}, DefaultOptions: map[string]any{"k": 3}}
	reg.Register(&stubTool{name: "bundle", version: "1.0.0", md: &md})

	out := reg.Metadata()
	got, ok := out["bundle"]
	if !ok {
		t.Fatal("expected bundle metadata")
	}
	if got.SupportedModels[0] != "gpt-4o-mini" {
		t.Fatalf("expected metadata to flow through MetadataProvider, got %+v", got)
	}
}
