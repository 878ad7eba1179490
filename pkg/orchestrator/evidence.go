package orchestrator

import "steer-sdk/core/pkg/core"

// ReplicateQuality is the validation verdict for one replicate.
type ReplicateQuality struct {
	Valid bool `json:"valid"`
	Errors []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	SchemaVersion string `json:"schema_version,omitempty"`
}

// Replicate is one independent bundle-tool sub-agent execution (see
// GLOSSARY "Replicate").
type Replicate struct {
	ID string `json:"id"`
	Data any `json:"data"`
	Quality ReplicateQuality `json:"quality"`
	Usage *core.Usage `json:"usage,omitempty"`
	ElapsedMs int64 `json:"elapsed_ms,omitempty"`
	Seed int `json:"seed,omitempty"`
	Model string `json:"model,omitempty"`
}

// Disagreement records one field where replicates produced differing
// values.
type Disagreement struct {
	Field string `json:"field"`
	Values []string `json:"values"`
	ReplicateIDs []string `json:"replicate_ids,omitempty"`
}

// BundleSummary is the statistical summary across replicates.
type BundleSummary struct {
	Consensus any `json:"consensus,omitempty"`
	Disagreements []Disagreement `json:"disagreements"`
	PairwiseDistance [][]float64 `json:"pairwise_distance,omitempty"`
	Distributions map[string]any `json:"distributions,omitempty"`
	Confidence float64 `json:"confidence"`
	Truncated bool `json:"truncated"`
	TruncationInfo map[string]any `json:"truncation_info,omitempty"`
}

// BundleMeta is the bundle-level execution metadata.
type BundleMeta struct {
	Task string `json:"task"`
	K int `json:"k"`
	KCompleted int `json:"k_completed"`
	Model string `json:"model"`
	Seeds []int `json:"seeds"`
	EarlyStopped bool `json:"early_stopped"`
	EarlyStopReason string `json:"early_stop_reason,omitempty"`
	TotalElapsedMs int64 `json:"total_elapsed_ms"`
	SchemaURI string `json:"schema_uri,omitempty"`
}

// EvidenceBundle is the aggregate a bundle tool returns (GLOSSARY
// "Evidence Bundle"): replicates plus a statistical summary plus
// aggregated usage/cost.
type EvidenceBundle struct {
	Meta BundleMeta `json:"meta"`
	Replicates []Replicate `json:"replicates"`
	Summary BundleSummary `json:"summary"`
	UsageTotal *core.Usage `json:"usage_total,omitempty"`
	CostTotalUSD *float64 `json:"cost_total_usd,omitempty"`
	CostBreakdown map[string]float64 `json:"cost_breakdown,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
