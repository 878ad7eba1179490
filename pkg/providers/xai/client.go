package xai

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
)

// Provider is the xAI (Grok) provider adapter. It implements
// providers.Provider against xAI's Chat Completions endpoint, which is
// wire-compatible enough with OpenAI's that this adapter
// follows pkg/providers/openai's structure closely while trimming the
// fields xAI does not accept and omitting streaming usage, which xAI's
// API never reports.
type Provider struct {
	*providers.HTTPProvider

	// registry resolves per-model Capabilities; nil falls back to
	// registry.DefaultCapabilities.
	registry *registry.Registry
}

// NewProvider creates a new xAI provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{Provider: "xai", Field: "name", Message: "provider name is required"}
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.x.ai/v1"
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "api_key", Message: "API key is required for xAI"}
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	p := &Provider{HTTPProvider: providers.NewHTTPProvider(config)}

	slog.Info("xAI provider initialized", "provider", config.Name, "base_url", config.BaseURL)
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

// SendCompletion sends a non-streaming completion request to xAI.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	caps := p.caps(req.Model)
	xaiReq := transformRequest(req, caps)
	url := fmt.Sprintf("%s/chat/completions", p.GetConfig().BaseURL)
	headers := map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type": "application/json",
	}

	var resp ChatResponse
	if err := p.DoJSONRequest(ctx, "POST", url, xaiReq, &resp, headers); err != nil {
		return nil, err
	}

	result, err := transformResponse(&resp)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.GetName(), Cause: err}
	}
	return result, nil
}

// StreamCompletion sends a streaming completion request to xAI. The
// returned chunks never carry usage; callers needing an estimate
// attach streaming.NewUsageAggregator("xai", model) to the pipeline.
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	caps := p.caps(req.Model)
	xaiReq := transformRequest(req, caps)
	xaiReq.Stream = true

	url := fmt.Sprintf("%s/chat/completions", p.GetConfig().BaseURL)
	headers := map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type": "application/json",
		"Accept": "text/event-stream",
	}

	stream, err := newStreamReader(ctx, p.HTTPProvider, url, xaiReq, headers)
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
