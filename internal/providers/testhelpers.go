// Package providers holds test-only fixtures shared by the provider
// adapter test suites (openai, anthropic, ...). It lives under internal/
// so it cannot leak into a consumer's import graph.
package providers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"steer-sdk/core/pkg/providers"
)

// MockResponse describes how the mock server should answer a single path.
// Set StreamChunks (each a raw JSON chunk body, no SSE framing) for an
// SSE response; leave it nil for a plain JSON response using Body.
type MockResponse struct {
	StatusCode   int
	Body         string
	StreamChunks []string
	Headers      map[string]string
}

// MockServer is a minimal httptest-backed stand-in for a provider's API.
// Responses are registered per path; every request to a registered path
// is counted, regardless of method.
type MockServer struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	counts    map[string]int
}

// NewMockServer starts a mock server with no responses registered.
// Register paths with SetResponse before issuing requests against it.
func NewMockServer() *MockServer {
	m := &MockServer{
		responses: make(map[string]MockResponse),
		counts:    make(map[string]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

func (m *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.counts[r.URL.Path]++
	resp, ok := m.responses[r.URL.Path]
	m.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error":{"message":"no mock response registered for %s"}}`, r.URL.Path)
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}

	if len(resp.StreamChunks) > 0 {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(statusOr(resp.StatusCode, http.StatusOK))
		flusher, _ := w.(http.Flusher)
		for _, chunk := range resp.StreamChunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		if flusher != nil {
			flusher.Flush()
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOr(resp.StatusCode, http.StatusOK))
	fmt.Fprint(w, resp.Body)
}

func statusOr(code, fallback int) int {
	if code == 0 {
		return fallback
	}
	return code
}

// SetResponse registers the response the server returns for path.
func (m *MockServer) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = resp
}

// GetRequestCount returns how many requests were made across all paths.
func (m *MockServer) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, c := range m.counts {
		total += c
	}
	return total
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the underlying httptest server.
func (m *MockServer) Close() {
	m.server.Close()
}

// MockOpenAIResponse builds a non-streaming Chat Completions response body.
func MockOpenAIResponse(content, model string) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-test",
		"object": "chat.completion",
		"created": 1700000000,
		"model": %q,
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": %q},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
	}`, model, content)
}

// MockOpenAIStreamChunk builds a single Chat Completions SSE chunk body
// (without the "data: " framing, which MockServer adds).
func MockOpenAIStreamChunk(content, finishReason string) string {
	var finish string
	if finishReason == "" {
		finish = "null"
	} else {
		finish = fmt.Sprintf("%q", finishReason)
	}
	return fmt.Sprintf(`{
		"id": "chatcmpl-test",
		"object": "chat.completion.chunk",
		"created": 1700000000,
		"model": "gpt-4",
		"choices": [{
			"index": 0,
			"delta": {"content": %q},
			"finish_reason": %s
		}]
	}`, content, finish)
}

// MockAnthropicResponse builds a non-streaming Messages API response body.
func MockAnthropicResponse(content, model string) string {
	return fmt.Sprintf(`{
		"id": "msg-test",
		"type": "message",
		"role": "assistant",
		"model": %q,
		"content": [{"type": "text", "text": %q}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 20}
	}`, model, content)
}

// MockXAIResponse builds a non-streaming xAI chat completions response body.
func MockXAIResponse(content, model string) string {
	return fmt.Sprintf(`{
		"id": "xai-test",
		"model": %q,
		"created": 1700000000,
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": %q},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
	}`, model, content)
}

// MockXAIStreamChunk builds a single xAI SSE chunk body (without the
// "data: " framing, which MockServer adds). xAI stream chunks never
// carry a usage field.
func MockXAIStreamChunk(content, finishReason string) string {
	var finish string
	if finishReason == "" {
		finish = "null"
	} else {
		finish = fmt.Sprintf("%q", finishReason)
	}
	return fmt.Sprintf(`{
		"id": "xai-test",
		"model": "grok-2",
		"created": 1700000000,
		"choices": [{
			"index": 0,
			"delta": {"content": %q},
			"finish_reason": %s
		}]
	}`, content, finish)
}

// MockErrorResponse builds a provider-style JSON error body.
func MockErrorResponse(status int, msg string) string {
	return fmt.Sprintf(`{"error": {"message": %q, "type": "error", "code": %d}}`, msg, status)
}

// MockAuthError is a ready-to-use 401 response.
func MockAuthError() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       MockErrorResponse(http.StatusUnauthorized, "invalid api key"),
	}
}

// MockRateLimitError is a ready-to-use 429 response with a Retry-After header.
func MockRateLimitError(seconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       MockErrorResponse(http.StatusTooManyRequests, "rate limit exceeded"),
		Headers:    map[string]string{"Retry-After": fmt.Sprintf("%d", seconds)},
	}
}

// TestConfig builds a minimal valid ProviderConfig for unit tests that
// never dial out (validation-only tests).
func TestConfig(name, typ string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		Type:                typ,
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		HealthCheckInterval: time.Minute,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestConfigWithURL is TestConfig pointed at a mock server's base URL.
func TestConfigWithURL(name, typ, baseURL string) providers.ProviderConfig {
	cfg := TestConfig(name, typ)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	return cfg
}

// TestMessage builds a single provider-agnostic message.
func TestMessage(role, content string) providers.Message {
	return providers.Message{Role: role, Content: content}
}

// TestCompletionRequest builds a minimal CompletionRequest for a given
// model and message list.
func TestCompletionRequest(model string, messages ...providers.Message) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: 1024,
	}
}
