package orchestrator

import "fmt"

// Error is the base type every orchestration-specific error embeds.
type Error struct {
	Code string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("orchestrator: %s: %s", e.Code, e.Message)
	}
	return "orchestrator: " + e.Message
}

// ToolNotFoundError is raised by Run/plan when tool_name (or the
// planner's selection) does not resolve to a registered tool (
// step 1: "if not found, raise ValueError").
type ToolNotFoundError struct {
	ToolName string
	Available []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found; available tools: %v", e.ToolName, e.Available)
}

// ToolExecutionError wraps a tool's own execution failure before it is
// packaged into a failed OrchestratorResult ("Orchestrator catches
// tool execution errors and packages them into a failed
// OrchestratorResult").
type ToolExecutionError struct {
	ToolName string
	Cause error
	IsRetryable bool
	Metadata map[string]any
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.ToolName, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// BudgetKind names which budget dimension a BudgetExceeded violation
// comes from.
type BudgetKind string

const (
	BudgetTime BudgetKind = "time"
	BudgetTokens BudgetKind = "tokens"
	BudgetCost BudgetKind = "cost"
)

// BudgetExceeded is raised (never silently clamped) when actual usage
// crosses a configured budget limit.
type BudgetExceeded struct {
	Kind BudgetKind
	Limit float64
	Actual float64
	AffectedAgents []string
}

func (e *BudgetExceeded) Error() string {
	msg := fmt.Sprintf("budget exceeded: %s limit %v, actual %v", e.Kind, e.Limit, e.Actual)
	if len(e.AffectedAgents) > 0 {
		msg += fmt.Sprintf(" (affected: %v)", e.AffectedAgents)
	}
	return msg
}

// ConflictError is raised when an idempotency key is reused with a
// request payload that does not match the one that produced the
// cached result.
type ConflictError struct {
	IdempotencyKey string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("idempotency conflict for key %q: request payload differs from the cached one", e.IdempotencyKey)
}

// AllToolsFailedError is raised by the ReliableToolExecutor when the
// primary tool and every fallback have been exhausted (
// "ReliableToolExecutor").
type AllToolsFailedError struct {
	PrimaryError error
	Attempts int
}

func (e *AllToolsFailedError) Error() string {
	return fmt.Sprintf("all tool attempts failed after %d attempt(s); primary error: %v", e.Attempts, e.PrimaryError)
}

func (e *AllToolsFailedError) Unwrap() error { return e.PrimaryError }
