package orchestrator

import (
	"context"
	"sync"
	"time"

	"steer-sdk/core/pkg/classify"
	"steer-sdk/core/pkg/events"
	"steer-sdk/core/pkg/reliability/breaker"
	"steer-sdk/core/pkg/reliability/retry"
)

// OrchestratorReliabilityConfig configures retry/breaker/fallback
// behavior for ReliableToolExecutor: a shared retry policy plus one
// circuit-breaker config per provider (openai/anthropic/xai/default).
type OrchestratorReliabilityConfig struct {
	RetryPolicy retry.Policy
	BreakerConfigs map[string]breaker.Config
	EnableFallback bool
	MaxFallbackAttempts int
	MaxTotalRetryTime time.Duration
	MaxTotalAttempts int
}

// DefaultReliabilityConfig returns the per-provider breaker defaults.
func DefaultReliabilityConfig() OrchestratorReliabilityConfig {
	return OrchestratorReliabilityConfig{
		RetryPolicy: retry.DefaultPolicy(),
		BreakerConfigs: map[string]breaker.Config{
			"openai": {
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout: 60 * time.Second,
				HalfOpenRequests: 1,
				WindowSize: 300 * time.Second,
			},
			"anthropic": {
				FailureThreshold: 3,
				SuccessThreshold: 1,
				Timeout: 120 * time.Second,
				HalfOpenRequests: 1,
				WindowSize: 300 * time.Second,
			},
			"xai": {
				FailureThreshold: 4,
				SuccessThreshold: 2,
				Timeout: 90 * time.Second,
				HalfOpenRequests: 1,
				WindowSize: 300 * time.Second,
			},
			"default": {
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout: 60 * time.Second,
				HalfOpenRequests: 1,
				WindowSize: 300 * time.Second,
			},
		},
		EnableFallback: true,
		MaxFallbackAttempts: 2,
		MaxTotalRetryTime: 5 * time.Minute,
		MaxTotalAttempts: 10,
	}
}

func (c OrchestratorReliabilityConfig) breakerConfigFor(provider string) breaker.Config {
	if cfg, ok := c.BreakerConfigs[provider]; ok {
		return cfg
	}
	return c.BreakerConfigs["default"]
}

// ReliableToolExecutor wraps tool execution with a per-(provider, tool)
// circuit breaker, policy-driven retry, and an ordered fallback chain.
// Breakers are created lazily, one per provider, since each provider
// carries its own Config.
type ReliableToolExecutor struct {
	Config OrchestratorReliabilityConfig
	Metrics *Metrics

	mu sync.Mutex
	breakers map[string]*breaker.Breaker
}

// NewReliableToolExecutor builds an executor. A zero Config is replaced
// with DefaultReliabilityConfig.
func NewReliableToolExecutor(config OrchestratorReliabilityConfig) *ReliableToolExecutor {
	if config.BreakerConfigs == nil {
		config = DefaultReliabilityConfig()
	}
	return &ReliableToolExecutor{
		Config: config,
		breakers: make(map[string]*breaker.Breaker),
	}
}

// breakerFor returns the lazily-created breaker for provider, wiring
// its state-change callback into Metrics when one is configured.
func (e *ReliableToolExecutor) breakerFor(provider string) *breaker.Breaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.breakers[provider]; ok {
		return b
	}
	b := breaker.New(e.Config.breakerConfigFor(provider))
	if e.Metrics != nil {
		b.OnStateChange(func(key string, _, to breaker.State) {
				e.Metrics.UpdateBreakerState(provider, key, to.String())
			})
	}
	e.breakers[provider] = b
	return b
}

// ProviderNamer is an optional extension a Tool may implement to
// advertise the provider its breaker/retry config should key on.
type ProviderNamer interface {
	Provider() string
}

// providerOf checks an explicit tool.Provider(), then
// options["provider"], defaulting to "default" so an unclassified
// tool still gets a breaker config.
func providerOf(tool Tool, options map[string]any) string {
	if pn, ok := tool.(ProviderNamer); ok {
		if p := pn.Provider(); p != "" {
			return p
		}
	}
	if p, ok := options["provider"].(string); ok && p != "" {
		return p
	}
	return "default"
}

// ExecuteWithReliability tries the primary tool under retry+breaker
// protection, then each fallback in order (bounded by
// MaxFallbackAttempts and MaxTotalAttempts), and if every attempt
// fails returns AllToolsFailedError wrapping the primary error.
func (e *ReliableToolExecutor) ExecuteWithReliability(ctx context.Context, tool Tool, req Request, options map[string]any, em *events.Manager, fallbackTools []Tool) (Result, error) {
	totalAttempts := 0

	result, err := e.executeSingle(ctx, tool, req, options, em)
	if err == nil {
		return result, nil
	}
	primaryErr := err
	totalAttempts += e.attemptsFor(err)

	if !e.isRetryableError(err) || !e.Config.EnableFallback {
		return Result{}, err
	}

	maxFallback := e.Config.MaxFallbackAttempts
	if maxFallback > len(fallbackTools) {
		maxFallback = len(fallbackTools)
	}

	attempted := []string{tool.Name()}
	for i := 0; i < maxFallback; i++ {
		if e.Config.MaxTotalAttempts > 0 && totalAttempts >= e.Config.MaxTotalAttempts {
			break
		}
		fb := fallbackTools[i]
		attempted = append(attempted, fb.Name())

		result, err := e.executeSingle(ctx, fb, req, options, em)
		if err == nil {
			return result, nil
		}
		totalAttempts += e.attemptsFor(err)
	}

	return Result{}, &AllToolsFailedError{PrimaryError: primaryErr, Attempts: len(attempted)}
}

// executeSingle implements _execute_single_tool: breaker-gated retry of
// one tool's Execute.
func (e *ReliableToolExecutor) executeSingle(ctx context.Context, tool Tool, req Request, options map[string]any, em *events.Manager) (Result, error) {
	provider := providerOf(tool, options)
	key := breaker.Key(provider, tool.Name())
	b := e.breakerFor(provider)

	var result Result
	breakerErr := b.Call(key, func() error {
			state, retryErr := retry.Execute(ctx, e.Config.RetryPolicy, func(ctx context.Context) error {
					r, err := tool.Execute(ctx, req, options, em)
					if err != nil {
						return err
					}
					result = r
					return nil
				})
			if e.Metrics != nil && state != nil {
				for i := 0; i < state.Attempts; i++ {
					e.Metrics.RecordRetryAttempt(tool.Name(), provider)
				}
			}
			return retryErr
		})
	if breakerErr != nil {
		classification := classify.Classify(breakerErr)
		return Result{}, &ToolExecutionError{ToolName: tool.Name(), Cause: breakerErr, IsRetryable: classification.IsRetryable}
	}
	return result, nil
}

func (e *ReliableToolExecutor) isRetryableError(err error) bool {
	if te, ok := err.(*ToolExecutionError); ok {
		return te.IsRetryable
	}
	return classify.Classify(err).IsRetryable
}

func (e *ReliableToolExecutor) attemptsFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
