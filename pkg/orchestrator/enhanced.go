package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"steer-sdk/core/pkg/events"
	"steer-sdk/core/pkg/reliability/idempotency"
)

// EnhancedOrchestrator extends Orchestrator with automatic tool
// selection, reliability (retry/breaker/fallback), and idempotency.
type EnhancedOrchestrator struct {
	*Orchestrator

	Planner Planner
	ReliableExecutor *ReliableToolExecutor
	Idempotency *idempotency.Cache
	Metrics *Metrics
}

// NewEnhancedOrchestrator builds an EnhancedOrchestrator over reg. A nil
// planner defaults to an empty RuleBasedPlanner (falls straight through
// to its default-selection path); a nil idempotency cache defaults to
// an in-memory one with's defaults.
func NewEnhancedOrchestrator(reg *ToolRegistry, planner Planner, reliabilityConfig OrchestratorReliabilityConfig, idemCache *idempotency.Cache) *EnhancedOrchestrator {
	if planner == nil {
		planner = NewRuleBasedPlanner()
	}
	if idemCache == nil {
		idemCache = idempotency.New(0, 0)
	}
	return &EnhancedOrchestrator{
		Orchestrator: New(reg),
		Planner: planner,
		ReliableExecutor: NewReliableToolExecutor(reliabilityConfig),
		Idempotency: idemCache,
	}
}

// idempotencyRecord is what's stored under an idempotency key: both the
// result and a fingerprint of the request that produced it, so a reused
// key with a different request surfaces ConflictError.
type idempotencyRecord struct {
	Fingerprint string
	Result *RunResult
}

// Run implements orchestrator_v2.py's EnhancedOrchestrator.run: generate
// trace/request ids, check the idempotency cache, plan a tool when
// toolName is empty, execute with reliability, check the budget, and
// store the result for idempotent replay.
func (o *EnhancedOrchestrator) Run(ctx context.Context, req Request, toolName string, toolOptions map[string]any, opts Options, em *events.Manager) (*RunResult, error) {
	start := time.Now()

	if opts.RequestID == "" {
		opts.RequestID = uuid.NewString()
	}
	if opts.TraceID == "" {
		opts.TraceID = opts.RequestID
	}

	fingerprint := fingerprintRequest(req)

	if opts.IdempotencyKey != "" {
		if cached, ok := o.Idempotency.Get(opts.IdempotencyKey); ok {
			record, ok := cached.(idempotencyRecord)
			if ok {
				if o.Metrics != nil {
					o.Metrics.RecordIdempotencyHit(toolName)
				}
				if record.Fingerprint != fingerprint {
					return nil, &ConflictError{IdempotencyKey: opts.IdempotencyKey}
				}
				return record.Result, nil
			}
		} else if o.Metrics != nil {
			o.Metrics.RecordIdempotencyMiss(toolName)
		}
	}

	var fallbackNames []string
	if toolName == "" {
		decision, err := o.plan(req, opts)
		if err != nil {
			return nil, err
		}
		toolName = decision.SelectedTool
		// Planned options win over any caller-supplied tool_options,
		// matching orchestrator_v2.py's tool_options.update(planning_result.tool_options).
		toolOptions = mergeOptions(toolOptions, decision.ToolOptions)
		fallbackNames = decision.FallbackTools
	}

	tool := o.Registry.Get(toolName)
	if tool == nil {
		return nil, &ToolNotFoundError{ToolName: toolName, Available: o.Registry.Names()}
	}

	var fallbackTools []Tool
	for _, name := range fallbackNames {
		if fb := o.Registry.Get(name); fb != nil {
			fallbackTools = append(fallbackTools, fb)
		}
	}

	if opts.Streaming && em != nil {
		em.EmitStart(map[string]any{
				"source": toolName,
				"tool_version": tool.Version(),
				"request_id": opts.RequestID,
			})
	}

	merged := mergedToolOptions(toolOptions, opts)
	if opts.IdempotencyKey != "" {
		merged["idempotency_key"] = opts.IdempotencyKey + ":" + toolName
	}

	result, err := o.ReliableExecutor.ExecuteWithReliability(ctx, tool, req, merged, em, fallbackTools)
	if err != nil {
		return o.failedResultFor(err, toolName, tool, opts, em, start)
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

	costBreakdown := map[string]float64{}
	if cost != nil {
		costBreakdown[toolName] = *cost
	}

	runResult := &RunResult{
		Content: content,
		Usage: usage,
		CostUSD: cost,
		CostBreakdown: costBreakdown,
		ElapsedMs: elapsed,
		PerAgent: map[string]any{toolName: map[string]any{"content": content, "usage": usage}},
		Status: StatusSucceeded,
		Metadata: buildMetadata(toolName, tool.Version(), opts, metadata),
	}

	if opts.IdempotencyKey != "" {
		if err := o.Idempotency.Store(opts.IdempotencyKey, fingerprint, idempotencyRecord{Fingerprint: fingerprint, Result: runResult}); err != nil {
			slog.Warn("orchestrator: failed to store idempotency result", "key", opts.IdempotencyKey, "error", err)
		}
	}

	return runResult, nil
}

// failedResultFor mirrors Orchestrator.failedResult but recognizes
// AllToolsFailedError and ToolExecutionError shapes the reliability
// layer raises.
func (o *EnhancedOrchestrator) failedResultFor(err error, toolName string, tool Tool, opts Options, em *events.Manager, start time.Time) (*RunResult, error) {
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
		"code": "TOOL_ERROR",
		"is_retryable": false,
	}
	switch e := err.(type) {
	case *ToolExecutionError:
		errInfo["is_retryable"] = e.IsRetryable
	case *AllToolsFailedError:
		errInfo["code"] = "ALL_TOOLS_FAILED"
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

// plan builds a PlanContext from live breaker state and delegates to
// o.Planner (_plan_execution).
func (o *EnhancedOrchestrator) plan(req Request, opts Options) (PlanDecision, error) {
	ctx := PlanContext{
		Budget: opts.Budget,
		QualityRequirements: opts.QualityRequirements,
		CircuitBreakerStates: o.circuitBreakerStates(),
	}
	return o.Planner.Plan(req, o.Registry.Metadata(), ctx)
}

// circuitBreakerStates implements _get_circuit_breaker_states: it
// reports "closed" for every registered tool. The executor's breakers
// are not consulted, so the planner never sees a tool as open or
// half-open here.
func (o *EnhancedOrchestrator) circuitBreakerStates() map[string]string {
	states := make(map[string]string)
	for name := range o.Registry.Metadata() {
		states[name] = "closed"
	}
	return states
}

// fingerprintRequest hashes a Request's externally observable content
// so Run can detect an idempotency key reused with a different payload
// ("cached_result.get('request') != request").
func fingerprintRequest(req Request) string {
	payload := map[string]any{
		"query": req.Query,
		"model": req.Model,
		"messages": req.Messages,
		"options": req.Options,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
