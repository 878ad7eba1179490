package providers

import (
	"time"

	"steer-sdk/core/pkg/core"
)

// Message represents a single message in a conversation.
// It is provider-agnostic and will be transformed to provider-specific formats.
type Message struct {
	// Role identifies the message sender (system, user, assistant, tool)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is an optional name for the message sender (used for multi-user conversations)
	Name string `json:"name,omitempty"`

	// ToolCalls contains function/tool calls made by the assistant (for assistant role)
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID is used when role is "tool" to reference which tool call this responds to
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall represents a function/tool call request from the model.
type ToolCall struct {
	ID string `json:"id"`
	Type string `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall represents a specific function invocation.
type FunctionCall struct {
	Name string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool represents a tool/function definition that the model can call.
type Tool struct {
	Type string `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition defines a callable function.
type FunctionDefinition struct {
	Name string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// CompletionRequest is the provider-agnostic request an Adapter receives
// after pkg/normalize has applied capability policy. It
// carries the common wire-level message/tool shapes, plus the
// structured-output and caching fields this SDK's capability model adds.
type CompletionRequest struct {
	Model string `json:"model"`
	System string `json:"system,omitempty"`
	Messages []Message `json:"messages"`

	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens int `json:"max_tokens,omitempty"`
	TopP *float64 `json:"top_p,omitempty"`
	TopK *int `json:"top_k,omitempty"`
	Stream bool `json:"stream,omitempty"`
	Tools []Tool `json:"tools,omitempty"`
	ToolChoice any `json:"tool_choice,omitempty"`
	Stop []string `json:"stop,omitempty"`
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	Seed *int `json:"seed,omitempty"`

	// ResponseFormat requests structured output.
	ResponseFormat *core.ResponseFormat `json:"response_format,omitempty"`

	// CacheEligible marks content long enough to carry a cache-control
	// marker when the model supports prompt caching.
	CacheEligible bool `json:"-"`

	User string `json:"user,omitempty"`
	Metadata map[string]string `json:"-"`
}

// CompletionResponse is the provider-agnostic normalized response.
type CompletionResponse struct {
	ID string `json:"id"`
	Model string `json:"model"`
	Content string `json:"content"`
	FinishReason string `json:"finish_reason"`
	Usage core.Usage `json:"usage"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Created int64 `json:"created"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// StreamChunk represents a single chunk in a streaming response.
type StreamChunk struct {
	ID string `json:"id"`
	Model string `json:"model"`
	Delta string `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage *core.Usage `json:"usage,omitempty"`
	Error error `json:"-"`
	Created int64 `json:"created"`
}

// ToGenerationResponse adapts a provider's CompletionResponse into the
// uniform core.GenerationResponse returned by the router.
func (r CompletionResponse) ToGenerationResponse(provider string) core.GenerationResponse {
	usage := r.Usage
	usage.Normalize()
	return core.GenerationResponse{
		Text: r.Content,
		Model: r.Model,
		Usage: usage,
		Provider: provider,
		FinishReason: r.FinishReason,
	}
}

// ProviderHealth tracks the health status of a provider.
type ProviderHealth struct {
	IsHealthy bool
	LastCheck time.Time
	LastError error
	ConsecutiveFailures int
	LastSuccessfulRequest time.Time
	TotalRequests int64
	FailedRequests int64
}

// ProviderConfig contains configuration for a single provider instance.
type ProviderConfig struct {
	Name string
	Type string
	BaseURL string
	APIKey string
	Timeout time.Duration
	HealthCheckInterval time.Duration
	MaxIdleConns int
	MaxIdleConnsPerHost int
	IdleConnTimeout time.Duration

	// MaxRetries is carried for callers that still configure retries on
	// the provider config (e.g. cmd/steer, pkg/config). The adapter
	// itself makes a single attempt (see HTTPProvider.DoRequest); it is
	// pkg/reliability/retry's job to read this and retry at the call site,
	// not the provider's.
	MaxRetries int
}

// Message role constants
const (
	RoleSystem = "system"
	RoleUser = "user"
	RoleAssistant = "assistant"
	RoleTool = "tool"
)

// Finish reason constants
const (
	FinishReasonStop = "stop"
	FinishReasonLength = "length"
	FinishReasonToolCalls = "tool_calls"
	FinishReasonContentFilter = "content_filter"
)

// Tool type constants
const (
	ToolTypeFunction = "function"
)
