package generic

import (
	"context"
	"log/slog"

	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/providers/openai"
)

// Provider is a generic OpenAI-compatible provider adapter. It supports
// any provider that implements the OpenAI chat completions wire format
// with a custom base URL: Ollama, LM Studio, vLLM, FastChat, and
// similar self-hosted or OpenAI-compatible endpoints ( "generic
// adapter for OpenAI-compatible providers not otherwise registered").
//
// This adapter reuses the OpenAI request/response transform wholesale
// and only changes endpoint selection and availability semantics.
type Provider struct {
	*openai.Provider
}

// NewProvider creates a new generic OpenAI-compatible provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "generic",
			Field: "name",
			Message: "provider name is required",
		}
	}

	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field: "base_url",
			Message: "base URL is required for generic provider",
		}
	}

	// API key is optional for generic providers (local models don't need
	// one). Set a dummy key so the OpenAI adapter's own config
	// validation doesn't reject the zero value.
	if config.APIKey == "" {
		config.APIKey = "not-required"
	}

	if config.MaxRetries == 0 {
		config.MaxRetries = 1 // local providers typically don't need retries
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 5
	}

	openaiProvider, err := openai.NewProvider(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{Provider: openaiProvider}

	slog.Info("generic OpenAI-compatible provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"type", "generic",
	)

	return p, nil
}

// SendCompletion delegates to the embedded OpenAI adapter; the wire
// format is identical.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	return p.Provider.SendCompletion(ctx, req)
}

// StreamCompletion delegates to the embedded OpenAI adapter; the SSE
// envelope is identical.
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	return p.Provider.StreamCompletion(ctx, req)
}

// GetType returns "generic" regardless of what the embedded OpenAI
// adapter reports.
func (p *Provider) GetType() string {
	return "generic"
}

// IsAvailable always reports true: generic/local endpoints (Ollama, LM
// Studio, vLLM) routinely run with no API key at all, so the embedded
// OpenAI adapter's key-presence check does not apply here. A configured
// base URL is all this adapter needs to attempt a call.
func (p *Provider) IsAvailable() bool {
	return true
}
