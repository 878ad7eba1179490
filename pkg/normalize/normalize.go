// Package normalize turns provider-agnostic requests into the exact
// shape each provider's wire format expects, and turns each provider's
// raw usage payload back into core.Usage. The message and parameter
// transforms live per-provider in pkg/providers/*/transform.go; this
// package drives them through policy sourced from
// registry.Capabilities rather than per-provider free functions.
package normalize

import (
	"strings"

	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/registry"
)

// NormalizeParams clamps and reshapes generation parameters for one
// model's capabilities: clamps numeric ranges, applies the
// temperature policy, and chooses whether the Responses API is used.
func NormalizeParams(params core.GenerationParams, caps registry.Capabilities, deterministic bool) core.GenerationParams {
	out := params
	out.Clamp()
	if caps.MaxOutput > 0 && out.MaxTokens > caps.MaxOutput {
		out.MaxTokens = caps.MaxOutput
	}
	registry.ApplyTemperaturePolicy(&out, caps, deterministic)
	return out
}

// TransformedMessages is the wire-ready shape shared by every provider
// adapter: a resolved system block (already cache-control-annotated
// when applicable) plus the remaining turn messages.
type TransformedMessages struct {
	System string
	Messages []core.Message
}

// TransformMessages reshapes a message list for one provider family.
// Rather than keeping only the last system message, this concatenates
// every system message in order, separated by a blank line, so no
// system content is silently dropped when a caller sends more than one
// system turn (a real scenario for orchestration tools that prepend
// policy text ahead of a user-supplied system prompt).
func TransformMessages(messages []core.Message, caps registry.Capabilities) TransformedMessages {
	var systemParts []string
	var rest []core.Message

	for _, msg := range messages {
		if msg.Role == core.RoleSystem {
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}
			continue
		}
		rest = append(rest, msg)
	}

	system := strings.Join(systemParts, "\n\n")

	if !caps.SupportsSystemMessage && system != "" {
		// Models without a dedicated system role get it folded into the
		// first user turn, matching how providers without that field
		// are handled upstream.
		rest = prependAsUserTurn(rest, system)
		system = ""
	}

	return TransformedMessages{System: system, Messages: rest}
}

func prependAsUserTurn(messages []core.Message, system string) []core.Message {
	out := make([]core.Message, 0, len(messages)+1)
	out = append(out, core.Message{Role: core.RoleUser, Content: system})
	out = append(out, messages...)
	return out
}

// NormalizeUsage converts a provider's raw token counts into core.Usage,
// filling totalTokens when the provider omits it and clamping negatives
// to zero.
func NormalizeUsage(promptTokens, completionTokens, totalTokens int, cachedTokens int) core.Usage {
	u := core.Usage{
		PromptTokens: nonNegative(promptTokens),
		CompletionTokens: nonNegative(completionTokens),
		TotalTokens: nonNegative(totalTokens),
		CacheInfo: core.CacheInfo{CachedTokens: nonNegative(cachedTokens)},
	}
	u.Normalize()
	return u
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
