package orchestrator

import (
	"context"

	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/events"
)

// Request is the uniform input to a Tool.
// Concrete tools read whatever keys they expect out of Query/Options;
// the SDK itself only ever sets "query" for a bare string request.
type Request struct {
	Query string
	Model string
	Messages []core.Message
	Options map[string]any
}

// StringRequest builds a Request carrying only a free-text query.
func StringRequest(query string) Request {
	return Request{Query: query}
}

// Option reads a keyed value out of Options, returning ok=false when
// Options is nil or the key is absent. The value is not type-checked.
func (r Request) Option(key string) (any, bool) {
	if r.Options == nil {
		return nil, false
	}
	v, ok := r.Options[key]
	return v, ok
}

// Result is what a Tool.Execute returns. Exactly one of Bundle or
// Content is meaningful; Usage/CostUSD/Metadata/Content apply to the
// dict-result shape ("(a) EvidenceBundle, (b) a map
// with {content, usage?, costUSD?, metadata?}, or (c) a plain value").
type Result struct {
	Bundle *EvidenceBundle
	Content any
	Usage core.Usage
	HasUsage bool
	CostUSD *float64
	Metadata map[string]any
}

// ValueResult wraps a plain, non-dict result.
func ValueResult(v any) Result {
	return Result{Content: v}
}

// BundleResult wraps an EvidenceBundle as a tool result.
func BundleResult(b *EvidenceBundle) Result {
	return Result{Bundle: b}
}

// Tool is the contract every orchestration tool implements.
// Implementations own their own parallel execution, validation, and
// result aggregation; the orchestrator only sequences calls to them.
type Tool interface {
	Name() string
	Version() string
	Description() string
	Execute(ctx context.Context, req Request, options map[string]any, em *events.Manager) (Result, error)
}

// ValidatingTool is an optional extension a Tool may implement to
// reject a malformed request before Execute runs.
type ValidatingTool interface {
	ValidateRequest(req Request) error
}

// processResult extracts (content, usage, cost, metadata) uniformly
// whichever of the three result shapes a tool used.
func processResult(r Result) (content any, usage core.Usage, cost *float64, metadata map[string]any) {
	if r.Bundle != nil {
		b := r.Bundle
		content = map[string]any{
			"evidence_bundle": map[string]any{
				"meta": b.Meta,
				"replicates": b.Replicates,
				"summary": b.Summary,
			},
		}
		if b.UsageTotal != nil {
			usage = *b.UsageTotal
		}
		cost = b.CostTotalUSD
		metadata = map[string]any{
			"bundle_meta": b.Meta,
			"replicate_count": len(b.Replicates),
			"confidence": b.Summary.Confidence,
			"early_stopped": b.Meta.EarlyStopped,
		}
		for k, v := range b.Metadata {
			metadata[k] = v
		}
		return content, usage, cost, metadata
	}

	if r.HasUsage || r.CostUSD != nil || r.Metadata != nil || r.Content != nil {
		content = r.Content
		usage = r.Usage
		cost = r.CostUSD
		metadata = r.Metadata
		return content, usage, cost, metadata
	}

	return nil, core.Usage{}, nil, nil
}
