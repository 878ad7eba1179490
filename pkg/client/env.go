package client

import (
	"os"
	"strconv"
	"time"

	"steer-sdk/core/pkg/providerfactory"
	"steer-sdk/core/pkg/providers"
	"steer-sdk/core/pkg/registry"
)

// NewFromEnv builds a Client wired to the compiled-in registry and a
// provider manager populated from the environment variables names:
// OPENAI_API_KEY, ANTHROPIC_API_KEY, XAI_API_KEY gate provider
// availability; OPENAI_TIMEOUT (seconds, default 60) overrides the
// OpenAI HTTP client timeout. A provider whose API key env var is unset
// is not registered at all, so CheckModelAvailability reports false for
// its models and GetAvailableModels leaves them out.
func NewFromEnv(opts ...Option) (*Client, error) {
	reg := registry.New()
	reg.Freeze()

	mgr := providerfactory.NewManager()

	candidates := []providers.ProviderConfig{
		{Name: "openai", Type: "openai", APIKey: os.Getenv("OPENAI_API_KEY"), Timeout: openAITimeout()},
		{Name: "anthropic", Type: "anthropic", APIKey: os.Getenv("ANTHROPIC_API_KEY")},
		{Name: "xai", Type: "xai", APIKey: os.Getenv("XAI_API_KEY")},
	}

	// Providers whose key env var is unset are left out entirely rather
	// than registered-but-broken: each adapter's NewProvider rejects a
	// missing API key outright, so CheckModelAvailability simply
	// reports false for models on an absent provider (no GetProvider
	// match) instead of erroring at startup.
	var configs []providers.ProviderConfig
	for _, cfg := range candidates {
		if cfg.APIKey != "" {
			configs = append(configs, cfg)
		}
	}

	if err := mgr.LoadFromConfig(configs); err != nil {
		return nil, err
	}

	return New(reg, mgr, opts...), nil
}

func openAITimeout() time.Duration {
	const def = 60 * time.Second
	raw := os.Getenv("OPENAI_TIMEOUT")
	if raw == "" {
		return def
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}
