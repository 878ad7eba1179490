// Package limits provides budget tracking and rate limiting for calls
// routed through pkg/client, keyed by provider and model rather than by
// API-key/user/team as in the gateway this was grounded on — this SDK has
// no multi-tenant caller identity of its own. Rate limiting is scoped to
// ratelimit.Key(provider, model) so one provider's Config template still
// isolates a bucket per model; budgets stay scoped to the bare provider
// since spend is tracked at the account level regardless of which model
// earned it.
//
// # Overview
//
// The limits package implements multi-dimensional budget tracking and rate
// limiting to prevent cost overruns and enforce usage quotas. It supports:
//
//   - Budget tracking (rolling hourly/daily/monthly windows)
//   - Rate limiting (request-based, token-based, concurrent)
//   - Enforcement actions (block, queue, downgrade, alert)
//
// It does not persist state across process restarts: the SQLite/Postgres
// storage backends the gateway this was grounded on shipped are not
// carried over here (see DESIGN.md) — every limiter and tracker lives
// only in the Manager's in-memory maps.
//
// # Architecture
//
// The package is organized into sub-packages:
//
//   - ratelimit: Token bucket and sliding window rate limiters
//   - budget: Rolling window budget tracking
//   - enforcement: Enforcement action execution
//
// # Usage
//
//	manager := limits.NewManager(limits.Config{
//	    RateLimits: map[string]ratelimit.Config{"anthropic": {RequestsPerSecond: 20}},
//	    Budgets:    map[string]budget.Config{"anthropic": {Daily: 50.00}},
//	})
//
//	result, err := manager.CheckLimits(ctx, "anthropic", model, estimatedTokens, estimatedCost)
//	if !result.Allowed {
//	    return fmt.Errorf("limit exceeded: %s", result.Reason)
//	}
//
//	err = manager.RecordUsage(ctx, limits.NewUsageRecord(limits.DimensionAPIKey, "anthropic", promptTokens, completionTokens, cost, "anthropic", model))
//
// # Thread Safety
//
// All operations are thread-safe and use fine-grained locking to minimize
// contention. The rate limiter and budget tracker can be accessed concurrently
// from multiple goroutines.
package limits
