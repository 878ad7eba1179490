package main

import (
	"fmt"
	"os"

	"steer-sdk/core/pkg/client"
	"steer-sdk/core/pkg/config"
	"steer-sdk/core/pkg/limits"
	"steer-sdk/core/pkg/providerfactory"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
)

// buildClient wires a client.Client from --config when the file exists,
// falling back to client.NewFromEnv otherwise so the CLI stays usable
// with nothing but OPENAI_API_KEY/ANTHROPIC_API_KEY/XAI_API_KEY set.
func buildClient() (*client.Client, error) {
	if cfgFile == "" {
		return client.NewFromEnv()
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		return client.NewFromEnv()
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", cfgFile, err)
	}

	reg := registry.New()
	reg.Freeze()

	mgr := providerfactory.NewManager()
	var pcfgs []providers.ProviderConfig
	for name, p := range cfg.Providers {
		pcfgs = append(pcfgs, p.ToProviderConfig(name))
	}
	if err := mgr.LoadFromConfig(pcfgs); err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithRetryPolicy(cfg.Reliability.Retry.ToRetryPolicy()),
	}
	if len(cfg.Limits.RateLimits) > 0 || len(cfg.Limits.Budgets) > 0 {
		opts = append(opts, client.WithLimits(newLimitsManager(cfg)))
	}

	return client.New(reg, mgr, opts...), nil
}

func newLimitsManager(cfg *config.Config) *limits.Manager {
	return limits.NewManager(cfg.Limits.ToLimitsConfig())
}
