// Package registry implements the capability registry and its policy
// helpers: a process-wide, read-only-after-init lookup from
// model id to Capabilities and pricing, plus the small set of pure
// functions that derive wire-level decisions from a model's capabilities.
package registry

// StreamingDeltaFormat describes the shape of a provider's streaming delta.
type StreamingDeltaFormat string

const (
	DeltaFormatText StreamingDeltaFormat = "text"
	DeltaFormatJSON StreamingDeltaFormat = "json"
	DeltaFormatCustom StreamingDeltaFormat = "custom"
)

// Capabilities is the declarative per-model feature/limit record.
type Capabilities struct {
	SupportsJSONSchema bool
	SupportsStreaming bool
	SupportsTools bool
	SupportsSeed bool
	SupportsLogprobs bool
	MaxContext int
	MaxOutput int
	UsesMaxCompletionTokens bool
	UsesMaxOutputTokensInResponsesAPI bool
	SupportsSystemMessage bool
	SupportsResponseFormat bool
	SupportsPromptCaching bool
	CacheTTLSeconds int
	HasCachedPricing bool
	DeterministicTemperatureMax float64
	DeterministicTopP float64
	SupportsTemperature bool
	RequiresTemperatureOne bool
	SupportsMultipleSystemMessages bool
	SupportsImageInputs bool
	StreamingIncludesUsage bool
	StreamingDeltaFormat StreamingDeltaFormat
}

// DefaultCapabilities is returned for an unknown model id:
// conservative, streaming-capable, 4096-token ceiling.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		SupportsJSONSchema: false,
		SupportsStreaming: true,
		SupportsTools: true,
		MaxContext: 4096,
		MaxOutput: 4096,
		SupportsSystemMessage: true,
		SupportsTemperature: true,
		StreamingDeltaFormat: DeltaFormatText,
	}
}

// Pricing holds per-1K-token USD rates for a model.
type Pricing struct {
	InputPer1K float64
	OutputPer1K float64
	CachedPer1K float64 // 0 means no cached-token discount available
}

// ModelConfig is the registry entry for one model id.
type ModelConfig struct {
	ID string
	DisplayName string
	Provider string
	Capabilities Capabilities
	Pricing Pricing
}
