package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
)

// Provider is the OpenAI provider adapter. It implements the
// providers.Provider interface for both the Chat Completions and
// Responses APIs, selecting between them per model capability
// and whether the caller requested a JSON schema (
// shouldUseResponsesAPI).
type Provider struct {
	*providers.HTTPProvider

	// registry resolves per-model Capabilities. Nil falls back to
	// registry.DefaultCapabilities, so the adapter still works standalone
	// (e.g. in unit tests that construct it directly).
	registry *registry.Registry

	// useInstructions controls whether the first system message is sent
	// as `instructions` when the Responses API is used (
	// transformMessages, metadata key `responses_use_instructions`).
	useInstructions bool
}

// NewProvider creates a new OpenAI provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{Provider: "openai", Field: "name", Message: "provider name is required"}
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "api_key", Message: "API key is required for OpenAI"}
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
		useInstructions: true,
	}

	slog.Info("OpenAI provider initialized", "provider", config.Name, "base_url", config.BaseURL)
	return p, nil
}

// WithRegistry attaches the capability registry this adapter should
// consult for policy decisions. Returns the provider for chaining.
func (p *Provider) WithRegistry(r *registry.Registry) *Provider {
	p.registry = r
	return p
}

func (p *Provider) caps(model string) registry.Capabilities {
	return capabilitiesFor(p.registry, model)
}

// SendCompletion sends a completion request to OpenAI, dispatching to
// the Responses API when the model/request calls for native JSON-schema
// output. On a Responses-API failure
// the adapter falls back to Chat Completions.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	caps := p.caps(req.Model)
	genParams := core.GenerationParams{Model: req.Model, ResponseFormat: req.ResponseFormat}

	if registry.ShouldUseResponsesAPI(genParams, caps) {
		resp, err := p.sendResponsesCompletion(ctx, req, caps)
		if err == nil {
			return resp, nil
		}
		slog.Warn("responses API failed, falling back to chat completions", "provider", p.GetName(), "error", err)
	}

	return p.sendChatCompletion(ctx, req, caps)
}

func (p *Provider) sendChatCompletion(ctx context.Context, req *providers.CompletionRequest, caps registry.Capabilities) (*providers.CompletionResponse, error) {
	openaiReq := transformRequest(req, caps)
	url := fmt.Sprintf("%s/chat/completions", p.GetConfig().BaseURL)
	headers := map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type": "application/json",
	}

	var resp OpenAIResponse
	if err := p.DoJSONRequest(ctx, "POST", url, openaiReq, &resp, headers); err != nil {
		return nil, err
	}

	result, err := transformResponse(&resp)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.GetName(), Cause: err}
	}
	return result, nil
}

func (p *Provider) sendResponsesCompletion(ctx context.Context, req *providers.CompletionRequest, caps registry.Capabilities) (*providers.CompletionResponse, error) {
	responsesReq := transformResponsesRequest(req, caps, p.useInstructions)
	url := fmt.Sprintf("%s/responses", p.GetConfig().BaseURL)
	headers := map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type": "application/json",
	}

	var resp OpenAIResponsesResponse
	if err := p.DoJSONRequest(ctx, "POST", url, responsesReq, &resp, headers); err != nil {
		return nil, err
	}

	return transformResponsesResponse(&resp)
}

// StreamCompletion sends a streaming completion request to OpenAI via
// Chat Completions (the Responses API streaming envelope is out of
// scope for the text-delta contract this adapter exposes).
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	caps := p.caps(req.Model)
	openaiReq := transformRequest(req, caps)
	openaiReq.Stream = true

	url := fmt.Sprintf("%s/chat/completions", p.GetConfig().BaseURL)
	headers := map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type": "application/json",
		"Accept": "text/event-stream",
	}

	stream, err := newStreamReader(ctx, p.HTTPProvider, url, openaiReq, headers)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *providers.StreamChunk, 100)
	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			chunk, err := stream.Read(ctx)
			if err != nil {
				if err != io.EOF {
					chunks <- &providers.StreamChunk{Error: err}
				}
				return
			}
			if chunk == nil {
				return
			}
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, nil
}

// HealthCheck performs a lightweight models-list request to verify
// connectivity and the API key.
func (p *Provider) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/models", p.GetConfig().BaseURL)
	headers := map[string]string{"Authorization": "Bearer " + p.GetConfig().APIKey}
	resp, err := p.DoRequest(ctx, "GET", url, nil, headers)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if req.Model == "" {
		return &providers.ValidationError{Field: "model", Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return &providers.ValidationError{Field: "messages", Message: "at least one message is required"}
	}
	return nil
}
