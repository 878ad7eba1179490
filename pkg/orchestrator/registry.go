package orchestrator

import (
	"fmt"
	"sort"
	"sync"
)

// ToolMetadata describes a registered tool to the planner.
type ToolMetadata struct {
	Name string
	Version string
	Description string
	SupportedModels []string
	DefaultOptions map[string]any
	Capabilities []string
	ResourceRequirements map[string]any
}

// ToolRegistry is the single-writer name->tool map; duplicate names
// reject with version diagnostics. A mutex guards the map's
// single-writer guarantee.
type ToolRegistry struct {
	mu sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds tool under tool.Name(). A duplicate name is rejected
// with a diagnostic naming both the existing and incoming versions.
func (r *ToolRegistry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tools[tool.Name()]; ok {
		return fmt.Errorf(
			"tool %q already registered (existing version %s, new version %s)",
			tool.Name(), existing.Version(), tool.Version(),
		)
	}
	r.tools[tool.Name()] = tool
	return nil
}

// Get returns the tool registered under name, or nil if none.
func (r *ToolRegistry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has reports whether name is registered.
func (r *ToolRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Unregister removes a tool, mainly for tests.
func (r *ToolRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; ok {
		delete(r.tools, name)
		return true
	}
	return false
}

// Clear removes every registered tool, mainly for tests.
func (r *ToolRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
}

// Names returns every registered tool name, sorted for deterministic
// diagnostics.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metadata returns a ToolMetadata snapshot for every registered tool,
// keyed by name, for the planner.
func (r *ToolRegistry) Metadata() map[string]ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]ToolMetadata, len(r.tools))
	for name, tool := range r.tools {
		md := ToolMetadata{
			Name: name,
			Version: tool.Version(),
			Description: tool.Description(),
		}
		if mp, ok := tool.(MetadataProvider); ok {
			extra := mp.Metadata()
			md.SupportedModels = extra.SupportedModels
			md.DefaultOptions = extra.DefaultOptions
			md.Capabilities = extra.Capabilities
			md.ResourceRequirements = extra.ResourceRequirements
		}
		out[name] = md
	}
	return out
}

// MetadataProvider is an optional extension a Tool may implement to
// advertise richer planning metadata (supported models, resource
// requirements) beyond name/version/description.
type MetadataProvider interface {
	Metadata() ToolMetadata
}
