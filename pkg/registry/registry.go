package registry

import "sync"

// Registry is the process-wide, read-only-after-init capability and
// pricing table. Construction supports overlaying caller-supplied
// entries on top of the compiled-in base table, after which the
// table is frozen.
type Registry struct {
	mu sync.RWMutex
	models map[string]ModelConfig
	frozen bool
}

// New builds a registry from the compiled-in base table.
func New() *Registry {
	r := &Registry{models: baseTable()}
	return r
}

// Overlay merges additional/override ModelConfig entries into the base
// table. Must be called before Freeze; panics otherwise to catch the
// "mutating a live registry" bug class early — registries are
// read-only after init.
func (r *Registry) Overlay(entries map[string]ModelConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("registry: Overlay called after Freeze")
	}
	for id, cfg := range entries {
		r.models[id] = cfg
	}
}

// Freeze marks the registry read-only. Subsequent Overlay calls panic.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Resolve looks up a model id, folding aliases first, falling back to
// DefaultCapabilities/zero-pricing for unknown ids.
func (r *Registry) Resolve(modelID string) ModelConfig {
	id := resolveAlias(modelID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.models[id]; ok {
		return cfg
	}
	return ModelConfig{
		ID: modelID,
		Provider: "",
		Capabilities: DefaultCapabilities(),
	}
}

// Has reports whether modelID (after alias folding) is a known model.
func (r *Registry) Has(modelID string) bool {
	id := resolveAlias(modelID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[id]
	return ok
}

// List returns every known model id.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	return ids
}

// baseTable is the compiled-in registry. It is intentionally small: a
// host application overlays the rest via Overlay.
func baseTable() map[string]ModelConfig {
	return map[string]ModelConfig{
		"gpt-4o": {
			ID: "gpt-4o", DisplayName: "GPT-4o", Provider: "openai",
			Capabilities: Capabilities{
				SupportsJSONSchema: true, SupportsStreaming: true, SupportsTools: true,
				SupportsSeed: true, SupportsLogprobs: true, MaxContext: 128000, MaxOutput: 16384,
				SupportsSystemMessage: true, SupportsResponseFormat: true, SupportsPromptCaching: true,
				HasCachedPricing: true, SupportsTemperature: true, StreamingIncludesUsage: true,
				StreamingDeltaFormat: DeltaFormatText,
			},
			Pricing: Pricing{InputPer1K: 0.005, OutputPer1K: 0.015, CachedPer1K: 0.0025},
		},
		"gpt-4o-mini": {
			ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", Provider: "openai",
			Capabilities: Capabilities{
				SupportsJSONSchema: true, SupportsStreaming: true, SupportsTools: true,
				SupportsSeed: true, MaxContext: 128000, MaxOutput: 16384,
				SupportsSystemMessage: true, SupportsResponseFormat: true, SupportsPromptCaching: true,
				HasCachedPricing: true, SupportsTemperature: true, StreamingIncludesUsage: true,
				StreamingDeltaFormat: DeltaFormatText,
			},
			Pricing: Pricing{InputPer1K: 0.00015, OutputPer1K: 0.0006, CachedPer1K: 0.000075},
		},
		"o4-mini": {
			ID: "o4-mini", DisplayName: "o4-mini", Provider: "openai",
			Capabilities: Capabilities{
				SupportsJSONSchema: true, SupportsStreaming: true, MaxContext: 200000, MaxOutput: 65536,
				UsesMaxOutputTokensInResponsesAPI: true, SupportsSystemMessage: true, SupportsResponseFormat: true,
				RequiresTemperatureOne: true, StreamingIncludesUsage: true, StreamingDeltaFormat: DeltaFormatText,
			},
			Pricing: Pricing{InputPer1K: 0.0011, OutputPer1K: 0.0044},
		},
		"claude-3-5-sonnet": {
			ID: "claude-3-5-sonnet", DisplayName: "Claude 3.5 Sonnet", Provider: "anthropic",
			Capabilities: Capabilities{
				SupportsStreaming: true, SupportsTools: true, MaxContext: 200000, MaxOutput: 8192,
				SupportsSystemMessage: true, SupportsMultipleSystemMessages: true, SupportsPromptCaching: true,
				CacheTTLSeconds: 300, HasCachedPricing: true, SupportsTemperature: true,
				DeterministicTemperatureMax: 0.1, StreamingDeltaFormat: DeltaFormatText,
			},
			Pricing: Pricing{InputPer1K: 0.003, OutputPer1K: 0.015, CachedPer1K: 0.0003},
		},
		"claude-3-5-haiku": {
			ID: "claude-3-5-haiku", DisplayName: "Claude 3.5 Haiku", Provider: "anthropic",
			Capabilities: Capabilities{
				SupportsStreaming: true, SupportsTools: true, MaxContext: 200000, MaxOutput: 8192,
				SupportsSystemMessage: true, SupportsMultipleSystemMessages: true, SupportsTemperature: true,
				StreamingDeltaFormat: DeltaFormatText,
			},
			Pricing: Pricing{InputPer1K: 0.0008, OutputPer1K: 0.004},
		},
		"grok-2": {
			ID: "grok-2", DisplayName: "Grok 2", Provider: "xai",
			Capabilities: Capabilities{
				SupportsStreaming: true, SupportsTools: true, MaxContext: 131072, MaxOutput: 4096,
				SupportsSystemMessage: true, SupportsTemperature: true, StreamingDeltaFormat: DeltaFormatText,
			},
			Pricing: Pricing{InputPer1K: 0.002, OutputPer1K: 0.01},
		},
	}
}
