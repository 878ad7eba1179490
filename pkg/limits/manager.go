package limits

import (
	"context"
	"fmt"
	"sync"

	"steer-sdk/core/pkg/limits/budget"
	"steer-sdk/core/pkg/limits/enforcement"
	"steer-sdk/core/pkg/limits/ratelimit"
)

// Manager coordinates budget tracking and rate limiting across providers
// and models. Rate limiters are keyed by ratelimit.Key(provider, model) so
// a shared per-provider Config still isolates buckets per model; budgets
// stay keyed by the bare provider since spend is typically tracked at the
// account/provider level regardless of which model earned it. State lives
// entirely in memory: there is no persistence backend, so counters reset
// on process restart.
//
// # Example
//
//	manager := limits.NewManager(config)
//
//	result, err := manager.CheckLimits(ctx, "anthropic", "claude-3-opus", estimatedTokens, estimatedCost)
//	if !result.Allowed {
//	    // Handle limit exceeded
//	}
//
//	err = manager.RecordUsage(ctx, record)
type Manager struct {
	// rateLimiters is keyed by ratelimit.Key(provider, model); rateLimitConfigs
	// is keyed by the bare provider and used as the template for every
	// model bucket under that provider.
	rateLimiters     map[string]*ratelimit.Limiter
	rateLimitConfigs map[string]ratelimit.Config

	// budgets/budgetConfigs are keyed by provider only.
	budgets       map[string]*budget.Tracker
	budgetConfigs map[string]budget.Config

	enforcer          *enforcement.Enforcer
	enforcementConfig enforcement.Config

	mu sync.Mutex
}

// Config contains configuration for the limits manager.
type Config struct {
	// RateLimits maps provider names to the rate limit template applied to
	// every model under that provider.
	RateLimits map[string]ratelimit.Config

	// Budgets maps provider names to budget configurations.
	Budgets map[string]budget.Config

	// Enforcement configures enforcement actions.
	Enforcement enforcement.Config
}

// NewManager creates a new limits manager with the given configuration.
//
// Example:
//
//	manager := NewManager(Config{
//	    RateLimits: map[string]ratelimit.Config{
//	        "anthropic": {RequestsPerSecond: 10, TokensPerMinute: 100000},
//	    },
//	    Budgets: map[string]budget.Config{
//	        "anthropic": {Daily: 100.00, AlertThreshold: 0.8},
//	    },
//	    Enforcement: enforcement.Config{DefaultAction: enforcement.ActionBlock},
//	})
func NewManager(config Config) *Manager {
	manager := &Manager{
		rateLimiters:      make(map[string]*ratelimit.Limiter),
		rateLimitConfigs:  config.RateLimits,
		budgets:           make(map[string]*budget.Tracker),
		budgetConfigs:     config.Budgets,
		enforcer:          enforcement.NewEnforcer(config.Enforcement),
		enforcementConfig: config.Enforcement,
	}

	// Budgets can be pre-initialized immediately: they're keyed by the bare
	// provider. Rate limiters are created lazily per (provider, model) the
	// first time that pair is seen, since the model set isn't known at
	// construction time.
	for provider, budgetConfig := range config.Budgets {
		manager.budgets[provider] = budget.NewTracker(budgetConfig)
	}

	return manager
}

// CheckLimits checks if a request is allowed based on rate limits and
// budgets.
//
// This checks, in order: request-rate limits, token-rate limits (both
// scoped to the (provider, model) pair), then the provider-level budget.
// The first dimension to reject short-circuits the rest.
//
// Parameters:
//   - ctx: Context for cancellation and deadlines
//   - provider: The LLM provider name (openai, anthropic, ...)
//   - model: The requested model name; narrows rate limiting to this model
//     within the provider's shared Config template
//   - estimatedTokens: Estimated number of tokens for this request
//   - estimatedCost: Estimated cost in USD for this request (currently
//     surfaced to enforcement via budget checks only)
func (m *Manager) CheckLimits(ctx context.Context, provider, model string, estimatedTokens int, estimatedCost float64) (*LimitCheckResult, error) {
	key := ratelimit.Key(provider, model)

	m.mu.Lock()
	rateLimiter := m.getRateLimiterLocked(provider, key)
	budgetTracker := m.getBudgetTrackerLocked(provider)
	m.mu.Unlock()

	if rateLimiter != nil {
		if decision := rateLimiter.CheckRequest(); !decision.Allowed {
			return m.enforceRateDecision(ctx, key, model, decision)
		}
		if decision := rateLimiter.CheckTokens(estimatedTokens); !decision.Allowed {
			return m.enforceRateDecision(ctx, key, model, decision)
		}
	}

	if budgetTracker != nil {
		status := budgetTracker.Check()
		if !status.Allowed {
			enforcementResult, err := m.enforcer.Enforce(ctx, m.enforcementConfig.DefaultAction, status.Reason, model, 0)
			if err != nil {
				return nil, fmt.Errorf("enforcement failed: %w", err)
			}
			return &LimitCheckResult{
				Allowed: enforcementResult.Allowed,
				Reason:  status.Reason,
				Budget:  budgetInfo(provider, status),
				Action:  EnforcementAction(enforcementResult.Action),

				DowngradeTo: enforcementResult.DowngradedModel,
			}, nil
		}
		if status.AlertTriggered {
			return &LimitCheckResult{
				Allowed: true,
				Budget:  budgetInfo(provider, status),
				Action:  ActionAlert,
			}, nil
		}
	}

	return &LimitCheckResult{Allowed: true}, nil
}

func (m *Manager) enforceRateDecision(ctx context.Context, key, model string, decision *ratelimit.Decision) (*LimitCheckResult, error) {
	enforcementResult, err := m.enforcer.Enforce(ctx, m.enforcementConfig.DefaultAction, decision.Reason, model, decision.RetryAfter)
	if err != nil {
		return nil, fmt.Errorf("enforcement failed: %w", err)
	}
	return &LimitCheckResult{
		Allowed: enforcementResult.Allowed,
		Reason:  decision.Reason,
		RateLimit: &RateLimitInfo{
			Dimension:  string(DimensionAPIKey),
			Identifier: key,
			Limit:      decision.Limit,
			Remaining:  decision.Remaining,
			Reset:      decision.Reset,
		},
		Action:      EnforcementAction(enforcementResult.Action),
		RetryAfter:  enforcementResult.RetryAfter,
		DowngradeTo: enforcementResult.DowngradedModel,
	}, nil
}

func budgetInfo(provider string, status *budget.Status) *BudgetInfo {
	return &BudgetInfo{
		Dimension:  string(DimensionAPIKey),
		Identifier: provider,
		Limit:      status.Limit,
		Used:       status.Used,
		Remaining:  status.Remaining,
		Percentage: status.Percentage,
		Reset:      status.Reset,
		Window:     status.Window,
	}
}

// RecordUsage records actual usage after a request completes, updating the
// (provider, model) rate limiter and the provider's budget tracker.
func (m *Manager) RecordUsage(ctx context.Context, record *UsageRecord) error {
	key := ratelimit.Key(record.Provider, record.Model)

	m.mu.Lock()
	defer m.mu.Unlock()

	if rateLimiter := m.getRateLimiterLocked(record.Provider, key); rateLimiter != nil {
		rateLimiter.RecordTokens(record.TotalTokens)
	}
	if budgetTracker := m.getBudgetTrackerLocked(record.Provider); budgetTracker != nil {
		budgetTracker.Add(record.Cost)
	}
	return nil
}

// AcquireConcurrent attempts to acquire a concurrent request slot for
// (provider, model). Returns true if acquired, false if the concurrent
// limit is reached. If this returns true, the caller MUST call
// ReleaseConcurrent with the same arguments when done.
func (m *Manager) AcquireConcurrent(provider, model string) bool {
	key := ratelimit.Key(provider, model)
	m.mu.Lock()
	rateLimiter := m.getRateLimiterLocked(provider, key)
	m.mu.Unlock()

	if rateLimiter == nil {
		return true
	}
	return rateLimiter.AcquireConcurrent()
}

// ReleaseConcurrent releases a concurrent request slot acquired by
// AcquireConcurrent for the same (provider, model).
func (m *Manager) ReleaseConcurrent(provider, model string) {
	key := ratelimit.Key(provider, model)
	m.mu.Lock()
	rateLimiter := m.getRateLimiterLocked(provider, key)
	m.mu.Unlock()

	if rateLimiter != nil {
		rateLimiter.ReleaseConcurrent()
	}
}

// Close releases any resources held by the manager. It exists to satisfy
// callers that manage Manager lifecycle symmetrically with other
// reliability components; there is nothing to flush or close here.
func (m *Manager) Close() error {
	return nil
}

// getRateLimiterLocked gets the rate limiter for key, creating one from
// provider's Config template on first use. Caller must hold mu.
func (m *Manager) getRateLimiterLocked(provider, key string) *ratelimit.Limiter {
	limiter, exists := m.rateLimiters[key]
	if !exists {
		config, hasConfig := m.rateLimitConfigs[provider]
		if !hasConfig {
			return nil
		}
		limiter = ratelimit.NewLimiter(config)
		m.rateLimiters[key] = limiter
	}
	return limiter
}

// getBudgetTrackerLocked gets the budget tracker for provider, creating one
// from budgetConfigs on first use. Caller must hold mu.
func (m *Manager) getBudgetTrackerLocked(provider string) *budget.Tracker {
	tracker, exists := m.budgets[provider]
	if !exists {
		config, hasConfig := m.budgetConfigs[provider]
		if !hasConfig {
			return nil
		}
		tracker = budget.NewTracker(config)
		m.budgets[provider] = tracker
	}
	return tracker
}
