package orchestrator

import (
	"context"
	"fmt"
	"time"

	"steer-sdk/core/pkg/core"
	"steer-sdk/core/pkg/events"
)

// Status reports the outcome of one Orchestrator.Run call.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed Status = "failed"
)

// RunResult is the value Orchestrator.Run returns.
type RunResult struct {
	Content any
	Usage core.Usage
	CostUSD *float64
	CostBreakdown map[string]float64
	ElapsedMs int64
	PerAgent map[string]any
	Status Status
	Errors map[string]any
	Metadata map[string]any
}

// Orchestrator is the base orchestrator: it looks up a named
// tool, invokes it under an optional timeout, enforces the run's
// budget, and emits start/complete/error events. It does not select a
// tool automatically or add reliability — see EnhancedOrchestrator for
// that.
type Orchestrator struct {
	Registry *ToolRegistry
}

// New creates an Orchestrator over reg. A nil reg is replaced with a
// fresh empty registry.
func New(reg *ToolRegistry) *Orchestrator {
	if reg == nil {
		reg = NewToolRegistry()
	}
	return &Orchestrator{Registry: reg}
}

// RegisterTool is the public surface `registerTool`.
func (o *Orchestrator) RegisterTool(tool Tool) error {
	return o.Registry.Register(tool)
}

// Run implements Orchestrator.run steps 1-8.
func (o *Orchestrator) Run(ctx context.Context, req Request, toolName string, toolOptions map[string]any, opts Options, em *events.Manager) (*RunResult, error) {
	start := time.Now()

	tool := o.Registry.Get(toolName)
	if tool == nil {
		return nil, &ToolNotFoundError{ToolName: toolName, Available: o.Registry.Names()}
	}

	if opts.Streaming && em != nil {
		em.EmitStart(map[string]any{
				"source": toolName,
				"tool_version": tool.Version(),
				"request_id": opts.RequestID,
			})
	}

	merged := mergedToolOptions(toolOptions, opts)

	result, err := runWithTimeout(ctx, opts.Timeout(), func(ctx context.Context) (Result, error) {
			return tool.Execute(ctx, req, merged, em)
		})
	if err != nil {
		return o.failedResult(err, toolName, tool, opts, em, start)
	}

	content, usage, cost, metadata := processResult(result)

	if opts.Budget != nil {
		if budgetErr := checkBudget(opts.Budget, usage, cost, time.Since(start)); budgetErr != nil {
			return nil, budgetErr
		}
	}

	elapsed := time.Since(start).Milliseconds()

	if opts.Streaming && em != nil {
		em.EmitComplete(map[string]any{
				"source": toolName,
				"tool_version": tool.Version(),
				"elapsed_ms": elapsed,
				"request_id": opts.RequestID,
			})
	}

	final := buildMetadata(toolName, tool.Version(), opts, metadata)

	return &RunResult{
		Content: content,
		Usage: usage,
		CostUSD: cost,
		ElapsedMs: elapsed,
		Status: StatusSucceeded,
		Metadata: final,
	}, nil
}

// runWithTimeout applies's optional wall-clock timeout,
// turning a context deadline exceeded into a BudgetExceeded(time,...)
// ("A timeout raises BudgetExceeded('time',...)").
func runWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) (Result, error)) (Result, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		r, err := fn(ctx)
		ch <- outcome{r, err}
	}()

	select {
	case o := <-ch:
		return o.result, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// failedResult wraps a tool failure (or a timeout) into a non-raising
// failed RunResult, except a timeout which is surfaced as
// BudgetExceeded.
func (o *Orchestrator) failedResult(err error, toolName string, tool Tool, opts Options, em *events.Manager, start time.Time) (*RunResult, error) {
	elapsed := time.Since(start).Milliseconds()

	if err == context.DeadlineExceeded {
		be := &BudgetExceeded{Kind: BudgetTime, Limit: float64(opts.TimeoutMs), Actual: float64(elapsed), AffectedAgents: []string{toolName}}
		if opts.Streaming && em != nil {
			em.EmitError(map[string]any{"source": toolName, "error": be.Error(), "elapsed_ms": elapsed, "request_id": opts.RequestID})
		}
		return nil, be
	}

	errInfo := map[string]any{
		"type": fmt.Sprintf("%T", err),
		"message": err.Error(),
		"is_retryable": false,
	}
	if te, ok := err.(*ToolExecutionError); ok {
		errInfo["is_retryable"] = te.IsRetryable
	}

	if opts.Streaming && em != nil {
		em.EmitError(map[string]any{"source": toolName, "error": errInfo, "elapsed_ms": elapsed, "request_id": opts.RequestID})
	}

	return &RunResult{
		Content: map[string]any{"error": errInfo},
		ElapsedMs: elapsed,
		Status: StatusFailed,
		Errors: map[string]any{toolName: errInfo},
		Metadata: buildMetadata(toolName, tool.Version(), opts, nil),
	}, nil
}

// checkBudget returns BudgetExceeded for the first dimension that
// overruns, checked in order: tokens, then cost, then time.
func checkBudget(b *Budget, usage core.Usage, cost *float64, elapsed time.Duration) error {
	if b.hasTokens && usage.TotalTokens > b.Tokens {
		return &BudgetExceeded{Kind: BudgetTokens, Limit: float64(b.Tokens), Actual: float64(usage.TotalTokens)}
	}
	if b.hasCostUSD && cost != nil && *cost > b.CostUSD {
		return &BudgetExceeded{Kind: BudgetCost, Limit: b.CostUSD, Actual: *cost}
	}
	if b.hasMs && elapsed.Milliseconds() > b.Ms {
		return &BudgetExceeded{Kind: BudgetTime, Limit: float64(b.Ms), Actual: float64(elapsed.Milliseconds())}
	}
	return nil
}

// buildMetadata implements the standard result metadata: tool
// identity, tracing ids, budget (for auditability), plus whatever the
// tool itself returned.
func buildMetadata(toolName, toolVersion string, opts Options, extra map[string]any) map[string]any {
	m := map[string]any{
		"tool_name": toolName,
		"tool_version": toolVersion,
	}
	if opts.TraceID != "" {
		m["trace_id"] = opts.TraceID
	}
	if opts.RequestID != "" {
		m["request_id"] = opts.RequestID
	}
	if opts.Budget != nil {
		m["budget"] = opts.Budget
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}
