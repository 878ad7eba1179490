package registry

import "steer-sdk/core/pkg/core"

// TokenField names the wire field a provider uses to carry the output
// token limit.
type TokenField string

const (
	TokenFieldMaxTokens TokenField = "maxTokens"
	TokenFieldMaxCompletionTokens TokenField = "maxCompletionTokens"
	TokenFieldMaxOutputTokens TokenField = "maxOutputTokens"
)

// MapMaxTokensField chooses which wire field carries the output token
// limit: Responses API uses maxOutputTokens when the capability
// calls for it; otherwise maxCompletionTokens when required; otherwise
// the plain maxTokens field.
func MapMaxTokensField(caps Capabilities, usingResponsesAPI bool) TokenField {
	if usingResponsesAPI && caps.UsesMaxOutputTokensInResponsesAPI {
		return TokenFieldMaxOutputTokens
	}
	if caps.UsesMaxCompletionTokens {
		return TokenFieldMaxCompletionTokens
	}
	return TokenFieldMaxTokens
}

// ApplyTemperaturePolicy mutates params in place per: drop
// temperature when unsupported, force to 1 when required, clamp to the
// model's deterministic ceiling when deterministic is requested.
func ApplyTemperaturePolicy(params *core.GenerationParams, caps Capabilities, deterministic bool) {
	if !caps.SupportsTemperature {
		params.Temperature = nil
		return
	}
	if caps.RequiresTemperatureOne {
		one := 1.0
		params.Temperature = &one
		return
	}
	if deterministic && caps.DeterministicTemperatureMax > 0 && params.Temperature != nil {
		if *params.Temperature > caps.DeterministicTemperatureMax {
			*params.Temperature = caps.DeterministicTemperatureMax
		}
	}
}

// ShouldUseResponsesAPI implements the predicate: the model supports
// JSON-schema output and the caller actually requested a schema.
func ShouldUseResponsesAPI(params core.GenerationParams, caps Capabilities) bool {
	return caps.SupportsJSONSchema &&
	params.ResponseFormat != nil &&
	params.ResponseFormat.Type == "json_schema" &&
	params.ResponseFormat.JSONSchema != nil
}

// FormatResponsesAPISchema wraps a JSON schema for the Responses API
// "text.format" envelope, forcing
// additionalProperties:false on the schema root.
func FormatResponsesAPISchema(schema map[string]any, name string, strict *bool) map[string]any {
	root := make(map[string]any, len(schema)+1)
	for k, v := range schema {
		root[k] = v
	}
	root["additionalProperties"] = false

	format := map[string]any{
		"type": "json_schema",
		"name": name,
		"schema": root,
	}
	if strict != nil {
		format["strict"] = *strict
	}
	return map[string]any{"format": format}
}

// CacheControlBlock is the provider-specific ephemeral cache marker
// attached to long system/content blocks.
type CacheControlBlock struct {
	Type string `json:"type"`
}

// GetCacheControlConfig returns a cache-control block when the model
// supports prompt caching and the content length exceeds threshold
//; otherwise nil.
func GetCacheControlConfig(caps Capabilities, length int, threshold int) *CacheControlBlock {
	if threshold <= 0 {
		threshold = 1024
	}
	if !caps.SupportsPromptCaching || length <= threshold {
		return nil
	}
	return &CacheControlBlock{Type: "ephemeral"}
}
