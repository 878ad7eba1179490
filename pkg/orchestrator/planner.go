package orchestrator

// ExecutionStrategy is how the planner wants the selected tool(s) run.
// Only Single is implemented by the orchestrators in this package;
// Chain/Parallel/Conditional are forward-declared for future use.
type ExecutionStrategy string

const (
	StrategySingle ExecutionStrategy = "single"
	StrategyChain ExecutionStrategy = "chain"
	StrategyParallel ExecutionStrategy = "parallel"
	StrategyConditional ExecutionStrategy = "conditional"
)

// PlanContext carries the state a Planner needs beyond the raw request:
// the run's budget/quality requirements and live circuit-breaker state
// so a planner can skip a tripped provider.
type PlanContext struct {
	Budget *Budget
	QualityRequirements map[string]any
	PreviousFailures []string
	CircuitBreakerStates map[string]string // tool/provider name -> "open"|"closed"|"half_open"
	UserPreferences map[string]any
}

// PlanDecision is a Planner's verdict: which tool to run, its options,
// fallbacks, execution strategy, cost/duration estimates, confidence,
// and an optional human-readable reasoning string.
type PlanDecision struct {
	SelectedTool string
	ToolOptions map[string]any
	FallbackTools []string
	ExecutionStrategy ExecutionStrategy
	EstimatedCost *float64
	EstimatedDurationMs *int64
	Confidence float64
	Reasoning string
	Metadata map[string]any
}

// Planner selects and configures which tool(s) should answer a request.
type Planner interface {
	Plan(req Request, availableTools map[string]ToolMetadata, ctx PlanContext) (PlanDecision, error)
}

// validateToolAvailability reports whether name is both a known tool
// and not presently circuit-broken.
func validateToolAvailability(name string, availableTools map[string]ToolMetadata, ctx PlanContext) bool {
	if _, ok := availableTools[name]; !ok {
		return false
	}
	return ctx.CircuitBreakerStates[name] != "open"
}

// estimateCost scales a tool's advertised per-run cost by its
// replicate count k.
func estimateCost(options map[string]any, md ToolMetadata) *float64 {
	base, ok := md.ResourceRequirements["estimated_cost_per_run"].(float64)
	if !ok {
		return nil
	}
	k := optionInt(options, "k", 1)
	cost := base * float64(k)
	return &cost
}

// estimateDuration batches the per-run duration across
// ceil(k/maxParallel) rounds.
func estimateDuration(options map[string]any, md ToolMetadata) *int64 {
	base, ok := md.ResourceRequirements["estimated_duration_ms"].(int64)
	if !ok {
		baseF, okF := md.ResourceRequirements["estimated_duration_ms"].(float64)
		if !okF {
			return nil
		}
		base = int64(baseF)
	}
	k := optionInt(options, "k", 1)
	maxParallel := optionInt(options, "max_parallel", 10)
	if maxParallel <= 0 {
		maxParallel = 10
	}
	if k <= maxParallel {
		return &base
	}
	batches := int64((k + maxParallel - 1) / maxParallel)
	total := base * batches
	return &total
}

func optionInt(options map[string]any, key string, def int) int {
	v, ok := options[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}
