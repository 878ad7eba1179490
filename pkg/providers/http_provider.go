package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// HTTPProvider is the base implementation for HTTP-based provider adapters.
// It provides connection pooling, single-attempt request execution, and
// health monitoring. Retry and circuit-breaking policy live one layer up
// in pkg/reliability so every provider adapter is governed by the same
// rules — DoRequest never loops with its own exponential backoff.
//
// Concrete provider implementations (OpenAI, Anthropic, etc.) should embed this
// struct and implement the Provider interface methods.
type HTTPProvider struct {
	// config contains the provider configuration
	config ProviderConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	// health tracks the provider's health status
	health ProviderHealth

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex

	// stopHealthCheck is closed to signal the health checker to stop
	stopHealthCheck chan struct{}

	// healthCheckStopped is closed when the health checker has stopped
	healthCheckStopped chan struct{}
}

// NewHTTPProvider creates a new base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	// Create HTTP transport with connection pooling
	transport := &http.Transport{
		MaxIdleConns: config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout: config.IdleConnTimeout,
		DisableCompression: false,
		// Enable HTTP/2
		ForceAttemptHTTP2: true,
	}

	// Create HTTP client with timeout
	client := &http.Client{
		Transport: transport,
		Timeout: config.Timeout,
	}

	p := &HTTPProvider{
		config: config,
		client: client,
		health: ProviderHealth{
			IsHealthy: true, // Start optimistic
			LastCheck: time.Now(),
			ConsecutiveFailures: 0,
			LastSuccessfulRequest: time.Now(),
			TotalRequests: 0,
			FailedRequests: 0,
		},
		stopHealthCheck: make(chan struct{}),
		healthCheckStopped: make(chan struct{}),
	}

	return p
}

// GetName returns the provider's configured name.
func (p *HTTPProvider) GetName() string {
	return p.config.Name
}

// GetType returns the provider's type.
func (p *HTTPProvider) GetType() string {
	return p.config.Type
}

// GetConfig returns the provider's configuration.
func (p *HTTPProvider) GetConfig() ProviderConfig {
	return p.config
}

// IsHealthy returns the current health status.
func (p *HTTPProvider) IsHealthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health.IsHealthy
}

// GetHealth returns detailed health information.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// updateHealth updates the provider's health status.
// This is called after each health check or request.
func (p *HTTPProvider) updateHealth(success bool, err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.LastCheck = time.Now()

	if success {
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccessfulRequest = time.Now()
	} else {
		p.health.ConsecutiveFailures++
		p.health.LastError = err

		// Mark unhealthy after 3 consecutive failures (circuit breaker)
		if p.health.ConsecutiveFailures >= 3 {
			p.health.IsHealthy = false
			slog.Warn("provider marked unhealthy",
				"provider", p.config.Name,
				"consecutive_failures", p.health.ConsecutiveFailures,
				"error", err,
			)
		}
	}
}

// recordRequest records request metrics.
func (p *HTTPProvider) recordRequest(success bool) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	if !success {
		p.health.FailedRequests++
	}
}

// DoRequest performs a single HTTP request attempt and classifies the
// result into the typed error taxonomy pkg/classify understands. It
// does not retry; pkg/reliability/retry wraps calls to this method for
// callers that want retry-with-backoff.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("sending request to provider", "provider", p.config.Name, "method", method, "url", url)

	resp, err := p.client.Do(req)
	if err != nil {
		p.recordRequest(false)
		if ctx.Err() != nil {
			err := &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout}
			p.updateHealth(false, err)
			return nil, err
		}
		p.updateHealth(false, err)
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.recordRequest(true)
		p.updateHealth(true, nil)
		return resp, nil
	}

	errorBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	p.recordRequest(false)

	var classified error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		classified = &AuthError{Provider: p.config.Name, Message: string(errorBody)}
	case http.StatusTooManyRequests:
		classified = &RateLimitError{
			Provider: p.config.Name,
			RetryAfterValue: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message: string(errorBody),
		}
	default:
		classified = &ProviderError{
			Provider: p.config.Name,
			StatusCodeValue: resp.StatusCode,
			Message: string(errorBody),
		}
	}
	p.updateHealth(false, classified)
	return nil, classified
}

// DoJSONRequest performs a JSON request and decodes the response.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody interface{}, respBody interface{}, headers map[string]string) error {
	// Marshal request body
	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	// Perform request
	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Read response body
	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: p.config.Name,
			Cause: fmt.Errorf("failed to read response: %w", err),
		}
	}

	// Decode response
	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider: p.config.Name,
				RawResponse: string(responseBytes),
				Cause: fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// bypassAvailabilityEnv is a test escape hatch: set to "true" to make
// every provider report available regardless of API key, so test
// suites can exercise routing/reliability without real credentials.
const bypassAvailabilityEnv = "STEER_SDK_BYPASS_AVAILABILITY_CHECK"

// IsAvailable reports whether the provider has an API key configured,
// unless STEER_SDK_BYPASS_AVAILABILITY_CHECK=true.
func (p *HTTPProvider) IsAvailable() bool {
	if os.Getenv(bypassAvailabilityEnv) == "true" {
		return true
	}
	return p.config.APIKey != "" && p.config.APIKey != "not-required"
}

// Close closes the HTTP client and stops the health checker.
func (p *HTTPProvider) Close() error {
	// Signal health checker to stop
	close(p.stopHealthCheck)

	// Wait for health checker to stop (with timeout)
	select {
	case <-p.healthCheckStopped:
		slog.Debug("health checker stopped", "provider", p.config.Name)
	case <-time.After(5 * time.Second):
		slog.Warn("health checker did not stop in time", "provider", p.config.Name)
	}

	// Close idle connections
	p.client.CloseIdleConnections()

	slog.Info("provider closed", "provider", p.config.Name)
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	// Try parsing as seconds
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try parsing as HTTP date
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
