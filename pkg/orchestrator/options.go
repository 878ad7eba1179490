package orchestrator

import "time"

// Budget bounds a run along up to three dimensions. A zero value in
// a field means "no limit on that dimension" rather than "limit of
// zero", tracked via the has* flags below.
type Budget struct {
	Tokens int
	CostUSD float64
	Ms int64

	hasTokens bool
	hasCostUSD bool
	hasMs bool
}

// NewBudget builds an empty Budget; only the dimensions set through the
// With* setters below are enforced. Setting the exported fields
// directly leaves the has* flags false, so those dimensions are not
// enforced.
func NewBudget() *Budget { return &Budget{} }

func (b *Budget) WithTokens(n int) *Budget { b.Tokens = n; b.hasTokens = true; return b }
func (b *Budget) WithCostUSD(c float64) *Budget { b.CostUSD = c; b.hasCostUSD = true; return b }
func (b *Budget) WithMs(ms int64) *Budget { b.Ms = ms; b.hasMs = true; return b }

// RedactorFunc rewrites event metadata before it leaves the
// orchestrator.
type RedactorFunc func(map[string]any) map[string]any

// Options configures one Orchestrator.Run call.
type Options struct {
	MaxParallel int

	Budget *Budget

	Deterministic bool
	Streaming bool

	RetryOnFailure bool
	MaxRetries int

	TimeoutMs int64
	PerAgentTimeout int64

	TraceID string
	RequestID string
	IdempotencyKey string

	Redactor RedactorFunc
	Metadata map[string]any

	QualityRequirements map[string]any

	EnableCircuitBreaker bool
	EnableFallback bool
}

// DefaultOptions returns the baseline defaults: max_parallel=10,
// max_retries=2, circuit breaker and fallback enabled.
func DefaultOptions() Options {
	return Options{
		MaxParallel: 10,
		RetryOnFailure: true,
		MaxRetries: 2,
		EnableCircuitBreaker: true,
		EnableFallback: true,
	}
}

// Timeout returns TimeoutMs as a time.Duration, or 0 if unset.
func (o Options) Timeout() time.Duration {
	if o.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

// mergedToolOptions builds's merged tool options map:
// tool-specific options overlaid with the orchestrator-level knobs
// every tool receives regardless of kind.
func mergedToolOptions(toolOptions map[string]any, o Options) map[string]any {
	merged := make(map[string]any, len(toolOptions)+4)
	for k, v := range toolOptions {
		merged[k] = v
	}
	merged["max_parallel"] = o.MaxParallel
	if o.TraceID != "" {
		merged["trace_id"] = o.TraceID
	}
	if o.RequestID != "" {
		merged["request_id"] = o.RequestID
	}
	if o.Budget != nil {
		merged["global_budget"] = o.Budget
	}
	if o.TimeoutMs > 0 {
		merged["timeout_ms"] = o.TimeoutMs
	}
	return merged
}
