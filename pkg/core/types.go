// Package core holds the provider-agnostic data model shared by every
// layer of the SDK: messages, generation parameters, usage, and the
// normalized response/stream shapes.
package core

import "time"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role Role `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat requests structured output from the provider.
type ResponseFormat struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	JSONSchema map[string]any `json:"json_schema,omitempty"`
	Strict *bool `json:"strict,omitempty"`
}

// GenerationParams is the uniform request shape accepted by the router
// and provider adapters, before provider-specific normalization.
type GenerationParams struct {
	Model string `json:"model"`
	MaxTokens int `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP *float64 `json:"top_p,omitempty"`
	TopK *int `json:"top_k,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`
	Stop []string `json:"stop,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Seed *int `json:"seed,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Clamp enforces the universal bounds from the data model:
// maxTokens in [1,16384], temperature in [0,2], topP in [0,1],
// frequency/presence penalty in [-2,2].
func (p *GenerationParams) Clamp() {
	if p.MaxTokens < 1 {
		p.MaxTokens = 1
	}
	if p.MaxTokens > 16384 {
		p.MaxTokens = 16384
	}
	clampFloat(p.Temperature, 0, 2)
	clampFloat(p.TopP, 0, 1)
	clampFloat(p.FrequencyPenalty, -2, 2)
	clampFloat(p.PresencePenalty, -2, 2)
}

func clampFloat(v *float64, lo, hi float64) {
	if v == nil {
		return
	}
	if *v < lo {
		*v = lo
	}
	if *v > hi {
		*v = hi
	}
}

// CacheInfo carries provider cache-accounting fields and, when the usage
// was estimated rather than reported, the estimation method/confidence.
type CacheInfo struct {
	CachedTokens int `json:"cached_tokens,omitempty"`
	CacheCreationTokens int `json:"cache_creation_tokens,omitempty"`
	CacheReadTokens int `json:"cache_read_tokens,omitempty"`
	EstimationMethod string `json:"estimation_method,omitempty"`
	EstimationConfidence float64 `json:"estimation_confidence,omitempty"`
}

// Usage is the uniform token-accounting shape:
// all counts are non-negative and TotalTokens == PromptTokens +
// CompletionTokens whenever the provider does not supply a distinct total.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens int `json:"total_tokens"`
	CacheInfo CacheInfo `json:"cache_info"`
}

// Normalize enforces the post-condition from: a zero total is
// replaced by prompt+completion, and negative counts are floored at 0.
func (u *Usage) Normalize() {
	if u.PromptTokens < 0 {
		u.PromptTokens = 0
	}
	if u.CompletionTokens < 0 {
		u.CompletionTokens = 0
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
}

// CostBreakdown itemizes a GenerationResponse's cost.
type CostBreakdown struct {
	PromptCost float64 `json:"prompt_cost"`
	CompletionCost float64 `json:"completion_cost"`
	TotalCost float64 `json:"total_cost"`
	Currency string `json:"currency"`
}

// GenerationResponse is the uniform one-shot or terminal-streaming result.
type GenerationResponse struct {
	Text string `json:"text"`
	Model string `json:"model"`
	Usage Usage `json:"usage"`
	Provider string `json:"provider"`
	FinishReason string `json:"finish_reason,omitempty"`
	CostUSD *float64 `json:"cost_usd,omitempty"`
	CostBreakdown *CostBreakdown `json:"cost_breakdown,omitempty"`
}

// StreamEventKind tags the StreamEvent union.
type StreamEventKind string

const (
	EventStart StreamEventKind = "start"
	EventDelta StreamEventKind = "delta"
	EventUsage StreamEventKind = "usage"
	EventComplete StreamEventKind = "complete"
	EventError StreamEventKind = "error"
)

// StreamEvent is the tagged union emitted by the streaming pipeline.
// Only the fields relevant to Kind are populated.
type StreamEvent struct {
	Kind StreamEventKind

	// Envelope fields present on every event.
	Provider string
	Model string
	RequestID string
	Timestamp time.Time
	Metadata map[string]any

	// Start
	StreamID string

	// Delta
	Delta StreamDelta
	ChunkIndex int

	// Usage
	Usage Usage
	IsEstimated bool
	Confidence float64

	// Complete
	TotalChunks int
	DurationMs int64
	FinalUsage *Usage

	// Error
	Err error
	ErrorType string
	IsRetryable bool
}

// StreamDeltaKind distinguishes a plain text delta from a parsed JSON
// fragment produced by the JSON stream handler.
type StreamDeltaKind string

const (
	DeltaText StreamDeltaKind = "text"
	DeltaJSON StreamDeltaKind = "json"
)

// StreamDelta is one normalized chunk of streamed content.
type StreamDelta struct {
	Kind StreamDeltaKind
	Value any
	Provider string
	RawEvent any
	Metadata map[string]any
}
