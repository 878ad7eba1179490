// Package client implements the Router and the public client
// API surface (generate/stream/streamWithUsage/getAvailableModels/
// checkModelAvailability): the single entry point that resolves a model
// id through the capability registry, normalizes the request, dispatches
// to the configured provider adapter, and wraps the call with the
// retry and circuit-breaking reliability layers ("the
// router does not itself retry or break circuits when invoked
// directly; the Client/Orchestrator wraps it with reliability").
//
// Client is not a load balancer across multiple instances of the SAME
// logical provider (no sticky sessions, no weighted/round-robin policy).
// It resolves model id -> provider FAMILY and never sees more than one
// instance per provider name.
package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"steer-sdk/core/pkg/classify"
	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/limits"
	"steer-sdk/core/pkg/normalize"
	"steer-sdk/core/pkg/providerfactory"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
	"steer-sdk/core/pkg/reliability/breaker"
	"steer-sdk/core/pkg/reliability/retry"
	"steer-sdk/core/pkg/streaming"
)

// Client is the router/public-API facade.
type Client struct {
	registry *registry.Registry
	providers *providerfactory.Manager
	retryPolicy retry.Policy
	breaker *breaker.Breaker
	limits *limits.Manager
}

// Option configures a Client at construction.
type Option func(*Client)

// WithRetryPolicy overrides the default retry.Policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.retryPolicy = p }
}

// WithBreaker overrides the default circuit breaker instance, letting
// callers share one breaker across multiple clients.
func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithLimits attaches a budget/rate-limit governor that runs ahead of
// the reliability layer: CheckLimits can reject or downgrade a request
// before it ever reaches a provider, and every completed call reports
// its actual usage back through RecordUsage. A Client without this
// option skips governance entirely, which is the right default for a
// single caller that doesn't need shared rate limits or budgets.
func WithLimits(m *limits.Manager) Option {
	return func(c *Client) { c.limits = m }
}

// New creates a Client over an already-populated capability registry
// and provider manager.
func New(reg *registry.Registry, mgr *providerfactory.Manager, opts ...Option) *Client {
	c := &Client{
		registry: reg,
		providers: mgr,
		retryPolicy: retry.DefaultPolicy(),
		breaker: breaker.New(breaker.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAvailableModels returns every registered model id whose provider
// is currently available.
func (c *Client) GetAvailableModels() []string {
	var out []string
	for _, id := range c.registry.List() {
		if c.CheckModelAvailability(id) {
			out = append(out, id)
		}
	}
	return out
}

// AllModels returns every model id in the capability registry,
// regardless of whether its provider is currently configured or
// reachable. Use GetAvailableModels to filter to what can actually be
// called right now.
func (c *Client) AllModels() []string {
	return c.registry.List()
}

// CheckModelAvailability reports whether modelID resolves to a known
// provider that is currently available.
func (c *Client) CheckModelAvailability(modelID string) bool {
	cfg := c.registry.Resolve(modelID)
	if cfg.Provider == "" {
		return false
	}
	p, err := c.providers.GetProvider(cfg.Provider)
	if err != nil {
		return false
	}
	return p.IsAvailable()
}

// resolveAvailable implements steps 1-2: resolve ModelConfig
// (aliases honored by registry.Resolve) and reject if the provider is
// unavailable.
func (c *Client) resolveAvailable(modelID string) (registry.ModelConfig, providers.Provider, error) {
	cfg := c.registry.Resolve(modelID)
	if cfg.Provider == "" {
		return cfg, nil, &providers.ValidationError{Field: "model", Message: fmt.Sprintf("unknown model %q", modelID)}
	}

	p, err := c.providers.GetProvider(cfg.Provider)
	if err != nil {
		return cfg, nil, &providers.ConfigError{Provider: cfg.Provider, Field: "provider", Message: err.Error()}
	}
	if !p.IsAvailable() {
		return cfg, nil, &providers.AuthError{Provider: cfg.Provider, Message: "provider is not available (missing API key or disabled)"}
	}
	return cfg, p, nil
}

// buildRequest implements: normalize raw params and reshape
// messages into the provider-agnostic wire request every adapter
// expects, letting each adapter's own transform.go do the final
// provider-specific messages/system split.
func buildRequest(modelID string, messages []core.Message, params core.GenerationParams, caps registry.Capabilities, stream bool) *providers.CompletionRequest {
	params.Model = modelID
	normalized := normalize.NormalizeParams(params, caps, false)

	req := &providers.CompletionRequest{
		Model: modelID,
		Temperature: normalized.Temperature,
		MaxTokens: normalized.MaxTokens,
		TopP: normalized.TopP,
		TopK: normalized.TopK,
		Stream: stream,
		Stop: normalized.Stop,
		PresencePenalty: normalized.PresencePenalty,
		FrequencyPenalty: normalized.FrequencyPenalty,
		Seed: normalized.Seed,
		ResponseFormat: normalized.ResponseFormat,
		Messages: make([]providers.Message, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = providers.Message{Role: string(m.Role), Content: m.Content}
	}
	return req
}

// attachCost implements: attach costUSD/costBreakdown when
// the ModelConfig carries pricing.
func attachCost(resp *core.GenerationResponse, pricing registry.Pricing) {
	if pricing.InputPer1K == 0 && pricing.OutputPer1K == 0 {
		return
	}
	breakdown := registry.CalculateCost(resp.Usage, pricing)
	resp.CostBreakdown = &breakdown
	resp.CostUSD = &breakdown.TotalCost
}

// checkLimits implements the governance step that runs before
// step 3 when a limits.Manager is attached: it estimates the request's
// prompt tokens with the same aggregator streaming uses for
// usage-less providers, then asks the manager whether the call is
// allowed for cfg.Provider. A nil c.limits makes this a no-op so
// governance stays strictly opt-in.
func (c *Client) checkLimits(ctx context.Context, cfg registry.ModelConfig, messages []providers.Message, modelID string) error {
	if c.limits == nil {
		return nil
	}

	agg := streaming.NewUsageAggregator(cfg.Provider, modelID)
	agg.AddPrompt(messages, modelID)
	estimatedTokens := agg.Usage().PromptTokens

	var estimatedCost float64
	if cfg.Pricing.InputPer1K != 0 || cfg.Pricing.OutputPer1K != 0 {
		estimatedCost = float64(estimatedTokens) / 1000 * cfg.Pricing.InputPer1K
	}

	result, err := c.limits.CheckLimits(ctx, cfg.Provider, modelID, estimatedTokens, estimatedCost)
	if err != nil {
		return fmt.Errorf("limit check failed: %w", err)
	}
	if !result.Allowed {
		underlying := limits.ErrRateLimitExceeded
		if result.Budget != nil {
			underlying = limits.ErrBudgetExceeded
		}
		return &limits.LimitError{Type: string(result.Action), Identifier: cfg.Provider, Limit: result.Action, Current: result.Reason, Err: underlying}
	}
	return nil
}

// recordUsage reports actual usage to the attached limits.Manager after
// a call completes successfully. A nil c.limits makes this a no-op.
func (c *Client) recordUsage(ctx context.Context, cfg registry.ModelConfig, modelID string, usage core.Usage, costUSD float64) {
	if c.limits == nil {
		return
	}
	record := limits.NewUsageRecord(limits.DimensionAPIKey, cfg.Provider, usage.PromptTokens, usage.CompletionTokens, costUSD, cfg.Provider, modelID)
	_ = c.limits.RecordUsage(ctx, record)
}

// withReliability wraps fn with the breaker+retry stack: the breaker
// gates permission, retry.Execute handles
// transient failures inside the gated call.
func (c *Client) withReliability(provider string, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		key := breaker.Key(provider, "")
		return c.breaker.Call(key, func() error {
				_, err := retry.Execute(ctx, c.retryPolicy, fn)
				return err
			})
	}
}

// Generate implements `generate`: one-shot completion.
func (c *Client) Generate(ctx context.Context, modelID string, messages []core.Message, params core.GenerationParams) (*core.GenerationResponse, error) {
	cfg, p, err := c.resolveAvailable(modelID)
	if err != nil {
		return nil, err
	}

	req := buildRequest(modelID, messages, params, cfg.Capabilities, false)

	if err := c.checkLimits(ctx, cfg, req.Messages, modelID); err != nil {
		return nil, err
	}

	var resp *providers.CompletionResponse
	call := c.withReliability(cfg.Provider, func(ctx context.Context) error {
			r, err := p.SendCompletion(ctx, req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
	if err := call(ctx); err != nil {
		return nil, err
	}

	out := resp.ToGenerationResponse(cfg.Provider)
	attachCost(&out, cfg.Pricing)
	var costUSD float64
	if out.CostUSD != nil {
		costUSD = *out.CostUSD
	}
	c.recordUsage(ctx, cfg, modelID, out.Usage, costUSD)
	return &out, nil
}

// Stream implements `stream`: a text-only delta stream (
// `generateStream(...) -> async<string>`). Errors surfaced mid-stream
// close the channel after sending nothing further; the caller should
// check ctx.Err()/the last classify.Classify result via StreamWithUsage
// if it needs the structured error.
func (c *Client) Stream(ctx context.Context, modelID string, messages []core.Message, params core.GenerationParams) (<-chan string, error) {
	events, err := c.StreamWithUsage(ctx, modelID, messages, params)
	if err != nil {
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for e := range events {
			if e.Kind != core.EventDelta || e.Delta.Kind != core.DeltaText {
				continue
			}
			text, _ := e.Delta.Value.(string)
			select {
			case out <- text:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// StreamWithUsage implements `streamWithUsage`: the full
// core.StreamEvent sequence ( `generateStreamWithUsage(...) ->
// async<(text?, finalPayload?)>`), guaranteeing a terminal usage
// payload even for providers whose wire stream never reports one.
func (c *Client) StreamWithUsage(ctx context.Context, modelID string, messages []core.Message, params core.GenerationParams) (<-chan core.StreamEvent, error) {
	cfg, p, err := c.resolveAvailable(modelID)
	if err != nil {
		return nil, err
	}

	req := buildRequest(modelID, messages, params, cfg.Capabilities, true)

	if err := c.checkLimits(ctx, cfg, req.Messages, modelID); err != nil {
		return nil, err
	}

	var opts []streaming.Option
	if !cfg.Capabilities.StreamingIncludesUsage {
		opts = append(opts, streaming.WithUsageEstimation(streaming.NewUsageAggregator(cfg.Provider, modelID)))
	}

	requestID := uuid.NewString()
	out := make(chan core.StreamEvent)

	go func() {
		defer close(out)

		var chunks <-chan *providers.StreamChunk
		call := c.withReliability(cfg.Provider, func(ctx context.Context) error {
				ch, err := p.StreamCompletion(ctx, req)
				if err != nil {
					return err
				}
				chunks = ch
				return nil
			})
		if err := call(ctx); err != nil {
			classification := classify.Classify(err)
			out <- core.StreamEvent{
				Kind: core.EventError,
				Provider: cfg.Provider,
				Model: modelID,
				RequestID: requestID,
				Err: err,
				ErrorType: string(classification.Category),
			}
			return
		}

		adapter := streaming.NewAdapter(cfg.Provider, modelID, requestID, opts...)
		for e := range adapter.Run(ctx, chunks, req.Messages) {
			if e.Kind == core.EventUsage {
				c.recordUsage(context.Background(), cfg, modelID, e.Usage, 0)
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
