package xai

import (
	"fmt"

	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/normalize"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
)

// xAI Chat request/response types ("xAI Chat: {model, messages
// (typed system/user/assistant wrappers), temperature, top_p,
// frequency_penalty, presence_penalty, max_tokens, stop?}"). The wire
// shape mirrors OpenAI Chat Completions closely enough that this
// adapter is a trimmed copy of pkg/providers/openai's transform, minus
// the fields xAI's API does not accept (response_format, seed,
// stream_options, logprobs).

// ChatRequest is an xAI chat completions request.
type ChatRequest struct {
	Model string `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`
	MaxTokens int `json:"max_tokens,omitempty"`
	Stop []string `json:"stop,omitempty"`
	Stream bool `json:"stream,omitempty"`
	Tools []ChatTool `json:"tools,omitempty"`
	ToolChoice interface{} `json:"tool_choice,omitempty"`
}

// ChatMessage is a typed system/user/assistant message wrapper.
type ChatMessage struct {
	Role string `json:"role"`
	Content string `json:"content,omitempty"`
	Name string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolCalls []ChatToolCall `json:"tool_calls,omitempty"`
}

// ChatToolCall is a tool call emitted by the model.
type ChatToolCall struct {
	ID string `json:"id"`
	Type string `json:"type"`
	Function ChatFnCall `json:"function"`
}

// ChatFnCall is the function payload of a ChatToolCall.
type ChatFnCall struct {
	Name string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatTool is a tool definition passed in the request.
type ChatTool struct {
	Type string `json:"type"`
	Function ChatFnDef `json:"function"`
}

// ChatFnDef describes a callable function tool.
type ChatFnDef struct {
	Name string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// ChatResponse is an xAI chat completions response.
type ChatResponse struct {
	ID string `json:"id"`
	Model string `json:"model"`
	Created int64 `json:"created"`
	Choices []ChatChoice `json:"choices"`
	Usage ChatUsage `json:"usage"`
}

// ChatChoice is one completion choice.
type ChatChoice struct {
	Index int `json:"index"`
	Message ChatMessage `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// ChatUsage reports token usage, when xAI includes it. Non-streaming
// responses generally do; streaming responses do not ('s
// UsageAggregator exists for that gap).
type ChatUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens int `json:"total_tokens"`
}

// ChatStreamResponse is one SSE chunk from the streaming endpoint.
type ChatStreamResponse struct {
	ID string `json:"id"`
	Model string `json:"model"`
	Created int64 `json:"created"`
	Choices []ChatStreamChoice `json:"choices"`
}

// ChatStreamChoice is the delta payload of one streaming chunk.
type ChatStreamChoice struct {
	Index int `json:"index"`
	Delta ChatStreamDelta `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// ChatStreamDelta carries the incremental content of a streaming chunk.
type ChatStreamDelta struct {
	Role string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	ToolCalls []ChatToolCall `json:"tool_calls,omitempty"`
}

// transformRequest builds the xAI wire request, applying the same
// capability-gated temperature policy pkg/normalize uses for the other
// adapters.
func transformRequest(req *providers.CompletionRequest, caps registry.Capabilities) *ChatRequest {
	out := &ChatRequest{
		Model: req.Model,
		Messages: make([]ChatMessage, len(req.Messages)),
		TopP: req.TopP,
		Stream: req.Stream,
		Stop: req.Stop,
		PresencePenalty: req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		MaxTokens: req.MaxTokens,
		ToolChoice: req.ToolChoice,
	}

	params := core.GenerationParams{Temperature: req.Temperature}
	registry.ApplyTemperaturePolicy(&params, caps, false)
	out.Temperature = params.Temperature

	for i, msg := range req.Messages {
		out.Messages[i] = ChatMessage{
			Role: msg.Role,
			Content: msg.Content,
			Name: msg.Name,
			ToolCallID: msg.ToolCallID,
		}
	}

	if len(req.Tools) > 0 {
		out.Tools = make([]ChatTool, len(req.Tools))
		for i, tool := range req.Tools {
			out.Tools[i] = ChatTool{
				Type: tool.Type,
				Function: ChatFnDef{
					Name: tool.Function.Name,
					Description: tool.Function.Description,
					Parameters: tool.Function.Parameters,
				},
			}
		}
	}

	return out
}

// transformResponse converts an xAI response to the provider-agnostic
// shape, normalizing usage via pkg/normalize.
func transformResponse(resp *ChatResponse) (*providers.CompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	result := &providers.CompletionResponse{
		ID: resp.ID,
		Model: resp.Model,
		Content: choice.Message.Content,
		FinishReason: normalizeFinishReason(choice.FinishReason),
		Usage: normalize.NormalizeUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens, 0),
		Created: resp.Created,
		Metadata: make(map[string]string),
	}

	if len(choice.Message.ToolCalls) > 0 {
		result.ToolCalls = make([]providers.ToolCall, len(choice.Message.ToolCalls))
		for i, tc := range choice.Message.ToolCalls {
			result.ToolCalls[i] = providers.ToolCall{
				ID: tc.ID,
				Type: tc.Type,
				Function: providers.FunctionCall{
					Name: tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			}
		}
	}

	return result, nil
}

// transformStreamChunk converts one SSE chunk. xAI streams never carry
// a usage field; the caller layers
// streaming.UsageAggregator on top to estimate it.
func transformStreamChunk(chunk *ChatStreamResponse) *providers.StreamChunk {
	var delta string
	var finish string
	var toolCalls []providers.ToolCall

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		delta = choice.Delta.Content
		finish = normalizeFinishReason(choice.FinishReason)
		if len(choice.Delta.ToolCalls) > 0 {
			toolCalls = make([]providers.ToolCall, len(choice.Delta.ToolCalls))
			for i, tc := range choice.Delta.ToolCalls {
				toolCalls[i] = providers.ToolCall{
					ID: tc.ID,
					Type: tc.Type,
					Function: providers.FunctionCall{
						Name: tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			}
		}
	}

	return &providers.StreamChunk{
		ID: chunk.ID,
		Model: chunk.Model,
		Delta: delta,
		FinishReason: finish,
		ToolCalls: toolCalls,
		Created: chunk.Created,
	}
}

func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "tool_calls", "function_call":
		return providers.FinishReasonToolCalls
	case "content_filter":
		return providers.FinishReasonContentFilter
	default:
		return reason
	}
}

// capabilitiesFor resolves registry.Capabilities for a model id,
// falling back to the conservative default for unknown models.
func capabilitiesFor(reg *registry.Registry, model string) registry.Capabilities {
	if reg == nil {
		return registry.DefaultCapabilities()
	}
	return reg.Resolve(model).Capabilities
}
