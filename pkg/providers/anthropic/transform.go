package anthropic

import (
	"encoding/json"
	"fmt"

	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/normalize"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
)

// Anthropic API request/response types

// AnthropicRequest represents an Anthropic messages request.
type AnthropicRequest struct {
	Model string `json:"model"`
	Messages []AnthropicMessage `json:"messages"`
	System any `json:"system,omitempty"`
	MaxTokens int `json:"max_tokens"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP *float64 `json:"top_p,omitempty"`
	TopK *int `json:"top_k,omitempty"`
	Stream bool `json:"stream,omitempty"`
	Tools []AnthropicTool `json:"tools,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// AnthropicMessage represents a message in Anthropic format.
type AnthropicMessage struct {
	Role string `json:"role"`
	Content interface{} `json:"content"` // Can be string or []ContentBlock
}

// ContentBlock represents a content block in Anthropic format.
type ContentBlock struct {
	Type string `json:"type"` // "text" or "tool_use" or "tool_result"
	Text string `json:"text,omitempty"`

	// CacheControl marks this block as an ephemeral prompt-cache
	// candidate. Only ever set on the
	// last system block when the model supports prompt caching and
	// the content clears the length threshold.
	CacheControl *registry.CacheControlBlock `json:"cache_control,omitempty"`

	// For tool_use blocks
	ID string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`

	// For tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content string `json:"content,omitempty"`
}

// AnthropicTool represents a tool definition in Anthropic format.
type AnthropicTool struct {
	Name string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// AnthropicResponse represents an Anthropic messages response.
type AnthropicResponse struct {
	ID string `json:"id"`
	Type string `json:"type"`
	Role string `json:"role"`
	Content []ContentBlock `json:"content"`
	Model string `json:"model"`
	StopReason string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence,omitempty"`
	Usage AnthropicUsage `json:"usage"`
}

// AnthropicUsage represents token usage in Anthropic format, including
// the cache_creation_input_tokens/cache_read_input_tokens breakdown
// normalize requires for prompt-caching models.
type AnthropicUsage struct {
	InputTokens int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens int `json:"cache_read_input_tokens,omitempty"`
}

// Anthropic streaming response types

// AnthropicStreamEvent represents an event in Anthropic's SSE stream.
type AnthropicStreamEvent struct {
	Type string `json:"type"`

	// For message_start event
	Message *AnthropicResponse `json:"message,omitempty"`

	// For content_block_start event
	Index int `json:"index,omitempty"`
	ContentBlock *ContentBlock `json:"content_block,omitempty"`

	// For content_block_delta event
	Delta *ContentBlockDelta `json:"delta,omitempty"`

	// For message_delta event
	Delta2 *MessageDelta `json:"delta,omitempty"`
	Usage *AnthropicUsage `json:"usage,omitempty"`
}

// ContentBlockDelta represents incremental content in Anthropic format.
type ContentBlockDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessageDelta represents message-level deltas.
type MessageDelta struct {
	StopReason string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
}

// Transformation functions

// capabilitiesFor resolves registry.Capabilities for a model id, falling
// back to the conservative default for unknown models. A nil
// registry (e.g. a provider built without one) also falls back to the
// default so the adapter still runs standalone.
func capabilitiesFor(reg *registry.Registry, model string) registry.Capabilities {
	if reg == nil {
		return registry.DefaultCapabilities()
	}
	return reg.Resolve(model).Capabilities
}

// transformRequest transforms a provider-agnostic request to Anthropic
// format, applying capability gating: system messages are
// concatenated via pkg/normalize rather than keeping only the last one,
// temperature/top_p follow the model's policy, and a long system block
// gets an ephemeral cache_control marker when the model supports prompt
// caching and the caller flagged the request CacheEligible.
func transformRequest(req *providers.CompletionRequest, caps registry.Capabilities) (*AnthropicRequest, error) {
	coreMessages := make([]core.Message, len(req.Messages))
	for i, msg := range req.Messages {
		coreMessages[i] = core.Message{Role: core.Role(msg.Role), Content: msg.Content}
	}
	transformed := normalize.TransformMessages(coreMessages, caps)

	anthropicReq := &AnthropicRequest{
		Model: req.Model,
		Messages: make([]AnthropicMessage, 0, len(transformed.Messages)),
		MaxTokens: req.MaxTokens,
		TopP: req.TopP,
		TopK: req.TopK,
		Stream: req.Stream,
		StopSequences: req.Stop,
	}

	params := core.GenerationParams{Temperature: req.Temperature}
	registry.ApplyTemperaturePolicy(&params, caps, false)
	anthropicReq.Temperature = params.Temperature

	// Set default max_tokens if not provided (required by Anthropic)
	if anthropicReq.MaxTokens == 0 {
		anthropicReq.MaxTokens = 4096
	}
	if caps.MaxOutput > 0 && anthropicReq.MaxTokens > caps.MaxOutput {
		anthropicReq.MaxTokens = caps.MaxOutput
	}

	if transformed.System != "" {
		if cc := registry.GetCacheControlConfig(caps, len(transformed.System), 0); cc != nil && req.CacheEligible {
			anthropicReq.System = []ContentBlock{{Type: "text", Text: transformed.System, CacheControl: cc}}
		} else {
			anthropicReq.System = transformed.System
		}
	}

	for _, msg := range transformed.Messages {
		anthropicReq.Messages = append(anthropicReq.Messages, AnthropicMessage{
				Role: string(msg.Role),
				Content: msg.Content,
			})
	}

	// Transform tools
	if len(req.Tools) > 0 {
		anthropicReq.Tools = make([]AnthropicTool, len(req.Tools))
		for i, tool := range req.Tools {
			anthropicReq.Tools[i] = AnthropicTool{
				Name: tool.Function.Name,
				Description: tool.Function.Description,
				InputSchema: tool.Function.Parameters,
			}
		}
	}

	// Validate: Anthropic requires alternating user/assistant messages
	if err := validateMessageSequence(anthropicReq.Messages); err != nil {
		return nil, err
	}

	return anthropicReq, nil
}

// validateMessageSequence validates that messages alternate between user and assistant.
func validateMessageSequence(messages []AnthropicMessage) error {
	if len(messages) == 0 {
		return nil
	}

	// First message must be from user
	if messages[0].Role != providers.RoleUser {
		return &providers.ValidationError{
			Field: "messages",
			Message: "first message must be from user (Anthropic requirement)",
		}
	}

	// Check alternation
	for i := 1; i < len(messages); i++ {
		prev := messages[i-1].Role
		curr := messages[i].Role

		// Messages must alternate
		if prev == curr {
			return &providers.ValidationError{
				Field: "messages",
				Message: fmt.Sprintf("messages must alternate between user and assistant (Anthropic requirement), found consecutive %s messages at index %d", curr, i),
			}
		}
	}

	return nil
}

// transformResponse transforms an Anthropic response to provider-agnostic
// format, folding cache_read/cache_creation tokens into the cached-token
// count pkg/normalize expects (cached-token cost resolution:
// cached tokens are charged at the cached rate, the remainder at the
// input rate).
func transformResponse(resp *AnthropicResponse) (*providers.CompletionResponse, error) {
	// Extract text content from content blocks
	var content string
	var toolCalls []providers.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content += block.Text

		case "tool_use":
			// Convert tool use to tool call
			// For Anthropic, input is a map, we need to convert to JSON string
			argsJSON, err := jsonMarshalString(block.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}

			toolCalls = append(toolCalls, providers.ToolCall{
					ID: block.ID,
					Type: providers.ToolTypeFunction,
					Function: providers.FunctionCall{
						Name: block.Name,
						Arguments: argsJSON,
					},
				})
		}
	}

	cached := resp.Usage.CacheReadInputTokens
	promptTokens := resp.Usage.InputTokens + resp.Usage.CacheCreationInputTokens + cached

	result := &providers.CompletionResponse{
		ID: resp.ID,
		Model: resp.Model,
		Content: content,
		FinishReason: normalizeStopReason(resp.StopReason),
		Usage: normalize.NormalizeUsage(promptTokens, resp.Usage.OutputTokens, promptTokens+resp.Usage.OutputTokens, cached),
		ToolCalls: toolCalls,
		Metadata: make(map[string]string),
	}

	return result, nil
}

// transformStreamChunk transforms an Anthropic stream event to provider-agnostic format.
func transformStreamChunk(event *AnthropicStreamEvent, state *streamState) (*providers.StreamChunk, error) {
	switch event.Type {
	case "message_start":
		// Initialize stream state
		if event.Message != nil {
			state.id = event.Message.ID
			state.model = event.Message.Model
		}
		return nil, nil // Don't emit chunk for message_start

	case "content_block_start":
		// Start of a new content block
		return nil, nil // Don't emit chunk yet

	case "content_block_delta":
		// Incremental content
		if event.Delta != nil && event.Delta.Text != "" {
			return &providers.StreamChunk{
				ID: state.id,
				Model: state.model,
				Delta: event.Delta.Text,
			}, nil
		}
		return nil, nil

	case "content_block_stop":
		// End of content block
		return nil, nil // Don't emit chunk

	case "message_delta":
		// Message-level delta (includes stop_reason)
		chunk := &providers.StreamChunk{
			ID: state.id,
			Model: state.model,
			Delta: "",
		}
		if event.Delta2 != nil {
			chunk.FinishReason = normalizeStopReason(event.Delta2.StopReason)
		}
		if event.Usage != nil {
			cached := event.Usage.CacheReadInputTokens
			promptTokens := event.Usage.InputTokens + event.Usage.CacheCreationInputTokens + cached
			u := normalize.NormalizeUsage(promptTokens, event.Usage.OutputTokens, promptTokens+event.Usage.OutputTokens, cached)
			chunk.Usage = &u
		}
		return chunk, nil

	case "message_stop":
		// End of stream
		return nil, nil

	case "ping":
		// Keep-alive ping
		return nil, nil

	default:
		// Unknown event types are skipped rather than treated as fatal;
		// Anthropic has added new SSE event types in the past without a
		// version bump (e.g. "citations_delta").
		return nil, nil
	}
}

// streamState tracks state across stream events.
type streamState struct {
	id string
	model string
}

// normalizeStopReason normalizes Anthropic stop reasons to provider-agnostic values.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	case "tool_use":
		return providers.FinishReasonToolCalls
	case "stop_sequence":
		return providers.FinishReasonStop
	default:
		return reason
	}
}

// Helper function to marshal map to JSON string
func jsonMarshalString(v interface{}) (string, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
