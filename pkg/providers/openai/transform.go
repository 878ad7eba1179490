package openai

import (
	"fmt"

	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/normalize"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
)

// OpenAI API request/response types

// OpenAIRequest represents an OpenAI chat completions request.
type OpenAIRequest struct {
	Model string `json:"model"`
	Messages []OpenAIMessage `json:"messages"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens int `json:"max_tokens,omitempty"`
	MaxCompletionToken int `json:"max_completion_tokens,omitempty"`
	TopP *float64 `json:"top_p,omitempty"`
	Stream bool `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
	Tools []OpenAITool `json:"tools,omitempty"`
	ToolChoice interface{} `json:"tool_choice,omitempty"`
	Stop []string `json:"stop,omitempty"`
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	Logprobs bool `json:"logprobs,omitempty"`
	Seed *int `json:"seed,omitempty"`
	User string `json:"user,omitempty"`
	N int `json:"n,omitempty"`
	ResponseFormat map[string]interface{} `json:"response_format,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// OpenAIMessage represents a message in OpenAI format.
type OpenAIMessage struct {
	Role string `json:"role"`
	Content string `json:"content,omitempty"`
	Name string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolCalls []OpenAIToolCall `json:"tool_calls,omitempty"`
}

// OpenAIToolCall represents a tool call in OpenAI format.
type OpenAIToolCall struct {
	ID string `json:"id"`
	Type string `json:"type"`
	Function OpenAIFunctionCall `json:"function"`
}

// OpenAIFunctionCall represents a function call in OpenAI format.
type OpenAIFunctionCall struct {
	Name string `json:"name"`
	Arguments string `json:"arguments"`
}

// OpenAITool represents a tool definition in OpenAI format.
type OpenAITool struct {
	Type string `json:"type"`
	Function OpenAIFunctionDefinition `json:"function"`
}

// OpenAIFunctionDefinition represents a function definition in OpenAI format.
type OpenAIFunctionDefinition struct {
	Name string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OpenAIResponse represents an OpenAI chat completions response.
type OpenAIResponse struct {
	ID string `json:"id"`
	Object string `json:"object"`
	Created int64 `json:"created"`
	Model string `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage OpenAIUsage `json:"usage"`
}

// OpenAIChoice represents a completion choice in OpenAI format.
type OpenAIChoice struct {
	Index int `json:"index"`
	Message OpenAIMessage `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// OpenAIUsage represents token usage in OpenAI format, including the
// prompt_tokens_details.cached_tokens breakdown requires.
type OpenAIUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens int `json:"total_tokens"`
	PromptTokensDetails *promptTokensDetails `json:"prompt_tokens_details,omitempty"`
}

type promptTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

// OpenAI streaming response types

// OpenAIStreamResponse represents a chunk in OpenAI's SSE stream.
type OpenAIStreamResponse struct {
	ID string `json:"id"`
	Object string `json:"object"`
	Created int64 `json:"created"`
	Model string `json:"model"`
	Choices []OpenAIStreamChoice `json:"choices"`
	Usage *OpenAIUsage `json:"usage,omitempty"`
}

// OpenAIStreamChoice represents a choice in a stream chunk.
type OpenAIStreamChoice struct {
	Index int `json:"index"`
	Delta OpenAIStreamDelta `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// OpenAIStreamDelta represents the incremental content in a stream chunk.
type OpenAIStreamDelta struct {
	Role string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	ToolCalls []OpenAIToolCall `json:"tool_calls,omitempty"`
}

// Responses API wire types.

// OpenAIResponsesRequest is the Responses API request body used when
// registry.ShouldUseResponsesAPI is true.
type OpenAIResponsesRequest struct {
	Model string `json:"model"`
	Instructions string `json:"instructions,omitempty"`
	Input any `json:"input"`
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP *float64 `json:"top_p,omitempty"`
	Seed *int `json:"seed,omitempty"`
	Stop []string `json:"stop,omitempty"`
	Text map[string]any `json:"text,omitempty"`
	Stream bool `json:"stream,omitempty"`
}

// OpenAIResponsesResponse is the Responses API response body.
type OpenAIResponsesResponse struct {
	ID string `json:"id"`
	Model string `json:"model"`
	OutputText string `json:"output_text"`
	Output []responsesOutputItem `json:"output"`
	Usage responsesUsage `json:"usage"`
	Status string `json:"status"`
}

type responsesOutputItem struct {
	Content []responsesContentItem `json:"content"`
}

type responsesContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responsesUsage struct {
	InputTokens int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens int `json:"total_tokens"`
	InputTokensDetails *promptTokensDetails `json:"input_tokens_details,omitempty"`
}

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

// transformRequest transforms a provider-agnostic request to OpenAI's
// Chat Completions format, applying capability gating: the token
// limit field, temperature policy, and which optional parameters are
// copied at all.
func transformRequest(req *providers.CompletionRequest, caps registry.Capabilities) *OpenAIRequest {
	openaiReq := &OpenAIRequest{
		Model: req.Model,
		Messages: make([]OpenAIMessage, len(req.Messages)),
		TopP: req.TopP,
		Stream: req.Stream,
		Stop: req.Stop,
		User: req.User,
		ToolChoice: req.ToolChoice,
		N: 1,
	}

	temperature := req.Temperature
	params := core.GenerationParams{Temperature: temperature}
	registry.ApplyTemperaturePolicy(&params, caps, false)
	openaiReq.Temperature = params.Temperature

	if caps.SupportsSeed {
		openaiReq.Seed = req.Seed
	}

	if caps.SupportsLogprobs {
		// logprobs is a capability-gated pass-through; the
		// adapter only exposes the boolean toggle, not per-token detail.
		openaiReq.Logprobs = false
	}

	switch registry.MapMaxTokensField(caps, false) {
	case registry.TokenFieldMaxCompletionTokens:
		openaiReq.MaxCompletionToken = req.MaxTokens
	default:
		openaiReq.MaxTokens = req.MaxTokens
	}

	openaiReq.PresencePenalty = req.PresencePenalty
	openaiReq.FrequencyPenalty = req.FrequencyPenalty

	if req.ResponseFormat != nil && caps.SupportsResponseFormat {
		openaiReq.ResponseFormat = map[string]interface{}{"type": req.ResponseFormat.Type}
	}

	if req.Stream && caps.StreamingIncludesUsage {
		openaiReq.StreamOptions = &streamOptions{IncludeUsage: true}
	}

	for i, msg := range req.Messages {
		openaiReq.Messages[i] = OpenAIMessage{
			Role: msg.Role,
			Content: msg.Content,
			Name: msg.Name,
			ToolCallID: msg.ToolCallID,
		}
	}

	if len(req.Tools) > 0 {
		openaiReq.Tools = make([]OpenAITool, len(req.Tools))
		for i, tool := range req.Tools {
			openaiReq.Tools[i] = OpenAITool{
				Type: tool.Type,
				Function: OpenAIFunctionDefinition{
					Name: tool.Function.Name,
					Description: tool.Function.Description,
					Parameters: tool.Function.Parameters,
				},
			}
		}
	}

	return openaiReq
}

// transformResponsesRequest builds a Responses API body (
// shouldUseResponsesAPI, formatResponsesAPISchema; wire format). The
// first system message (if `useInstructions`) becomes `instructions`;
// the rest are joined into `input`.
func transformResponsesRequest(req *providers.CompletionRequest, caps registry.Capabilities, useInstructions bool) *OpenAIResponsesRequest {
	out := &OpenAIResponsesRequest{
		Model: req.Model,
		TopP: req.TopP,
		Stop: req.Stop,
		Stream: req.Stream,
	}

	params := core.GenerationParams{Temperature: req.Temperature}
	registry.ApplyTemperaturePolicy(&params, caps, false)
	out.Temperature = params.Temperature

	if caps.SupportsSeed {
		out.Seed = req.Seed
	}

	if registry.MapMaxTokensField(caps, true) == registry.TokenFieldMaxOutputTokens {
		out.MaxOutputTokens = req.MaxTokens
	}

	var instructions string
	var inputMessages []OpenAIMessage
	tookInstructions := false
	for _, msg := range req.Messages {
		if useInstructions && msg.Role == providers.RoleSystem && !tookInstructions {
			instructions = msg.Content
			tookInstructions = true
			continue
		}
		inputMessages = append(inputMessages, OpenAIMessage{Role: msg.Role, Content: msg.Content})
	}
	out.Instructions = instructions
	out.Input = inputMessages

	if req.ResponseFormat != nil && req.ResponseFormat.JSONSchema != nil {
		out.Text = registry.FormatResponsesAPISchema(req.ResponseFormat.JSONSchema, req.ResponseFormat.Name, req.ResponseFormat.Strict)
	}

	return out
}

// transformResponse transforms an OpenAI Chat Completions response to
// provider-agnostic format, normalizing usage via pkg/normalize.
func transformResponse(resp *OpenAIResponse) (*providers.CompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	cached := 0
	if resp.Usage.PromptTokensDetails != nil {
		cached = resp.Usage.PromptTokensDetails.CachedTokens
	}

	result := &providers.CompletionResponse{
		ID: resp.ID,
		Model: resp.Model,
		Content: choice.Message.Content,
		FinishReason: normalizeFinishReason(choice.FinishReason),
		Usage: normalize.NormalizeUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens, cached),
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

// transformResponsesResponse transforms a Responses API response to
// provider-agnostic format. Text extraction prefers `output_text`,
// falling back to the first output item's text.
func transformResponsesResponse(resp *OpenAIResponsesResponse) (*providers.CompletionResponse, error) {
	text := resp.OutputText
	if text == "" && len(resp.Output) > 0 && len(resp.Output[0].Content) > 0 {
		text = resp.Output[0].Content[0].Text
	}

	cached := 0
	if resp.Usage.InputTokensDetails != nil {
		cached = resp.Usage.InputTokensDetails.CachedTokens
	}

	finish := providers.FinishReasonStop
	if resp.Status != "" && resp.Status != "completed" {
		finish = resp.Status
	}

	return &providers.CompletionResponse{
		ID: resp.ID,
		Model: resp.Model,
		Content: text,
		FinishReason: finish,
		Usage: normalize.NormalizeUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens, cached),
		Metadata: make(map[string]string),
	}, nil
}

// transformStreamChunk transforms an OpenAI stream chunk to provider-agnostic format.
func transformStreamChunk(chunk *OpenAIStreamResponse) (*providers.StreamChunk, error) {
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

	result := &providers.StreamChunk{
		ID: chunk.ID,
		Model: chunk.Model,
		Delta: delta,
		FinishReason: finish,
		ToolCalls: toolCalls,
		Created: chunk.Created,
	}

	if chunk.Usage != nil {
		cached := 0
		if chunk.Usage.PromptTokensDetails != nil {
			cached = chunk.Usage.PromptTokensDetails.CachedTokens
		}
		u := normalize.NormalizeUsage(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens, chunk.Usage.TotalTokens, cached)
		result.Usage = &u
	}

	return result, nil
}

// normalizeFinishReason normalizes OpenAI finish reasons to provider-agnostic values.
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
