// Package generic implements a generic OpenAI-compatible provider
// adapter for any service that speaks the OpenAI chat completions wire
// format under a custom base URL: Ollama, LM Studio, vLLM, FastChat,
// Text Generation Inference, LocalAI, and similar self-hosted or
// OpenAI-compatible endpoints.
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:    "ollama",
//	    Type:    "generic",
//	    BaseURL: "http://localhost:11434/v1",
//	    // API key is optional for local providers
//	}
//
//	provider, err := generic.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
package generic
