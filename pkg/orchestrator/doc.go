// Package orchestrator implements: a single-writer Tool registry,
// a planner that picks which registered tool answers a request, a
// reliable executor that wraps tool execution in retry + circuit
// breaking + fallback, and the Orchestrator/EnhancedOrchestrator entry
// points that tie registry+planner+reliability+budgets+events together.
//
// Typed structs replace free-form maps wherever a request or option
// shape is fixed, errors are returned rather than raised, and every
// shared map is guarded by a sync.RWMutex.
package orchestrator
