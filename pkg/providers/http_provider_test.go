package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPProvider_SingleAttemptOn5xx(t *testing.T) {
	attemptCount := int32(0)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attemptCount, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "internal server error"}`))
	}))
	defer server.Close()

	config := ProviderConfig{Name: "test-provider", Type: "openai", BaseURL: server.URL, Timeout: 5 * time.Second}
	provider := NewHTTPProvider(config)

	ctx := context.Background()
	resp, err := provider.DoRequest(ctx, "POST", server.URL+"/test", []byte(`{"test": true}`), nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil {
		t.Fatal("expected error for 500 status")
	}

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.StatusCode() != 500 {
		t.Errorf("expected ProviderError(500), got %T: %v", err, err)
	}

	if finalCount := atomic.LoadInt32(&attemptCount); finalCount != 1 {
		t.Errorf("expected exactly 1 attempt (no retry at the transport layer), got %d", finalCount)
	}
}

func TestHTTPProvider_ErrorClassificationByStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorType  string
	}{
		{"400 bad request", http.StatusBadRequest, "ProviderError"},
		{"401 unauthorized", http.StatusUnauthorized, "AuthError"},
		{"403 forbidden", http.StatusForbidden, "AuthError"},
		{"429 rate limit", http.StatusTooManyRequests, "RateLimitError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"error": "client error"}`))
			}))
			defer server.Close()

			config := ProviderConfig{Name: "test-provider", Type: "openai", BaseURL: server.URL, Timeout: 5 * time.Second}
			provider := NewHTTPProvider(config)

			ctx := context.Background()
			resp, err := provider.DoRequest(ctx, "POST", server.URL+"/test", []byte(`{"test": true}`), nil)
			if resp != nil {
				resp.Body.Close()
			}
			if err == nil {
				t.Fatalf("expected error for %d status, got nil", tt.statusCode)
			}

			switch tt.errorType {
		case "AuthError":
				var authErr *AuthError
				if !errors.As(err, &authErr) {
					t.Errorf("expected AuthError, got %T: %v", err, err)
				}
		case "RateLimitError":
				var rateLimitErr *RateLimitError
				if !errors.As(err, &rateLimitErr) {
					t.Errorf("expected RateLimitError, got %T: %v", err, err)
				}
		case "ProviderError":
				var providerErr *ProviderError
				if !errors.As(err, &providerErr) {
					t.Errorf("expected ProviderError, got %T: %v", err, err)
				}
			}
		})
	}
}

func TestHTTPProvider_RetryAfterHeaderParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	config := ProviderConfig{Name: "test-provider", Type: "openai", BaseURL: server.URL, Timeout: 5 * time.Second}
	provider := NewHTTPProvider(config)

	_, err := provider.DoRequest(context.Background(), "POST", server.URL+"/test", nil, nil)

	var rateLimitErr *RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rateLimitErr.RetryAfter() != 7*time.Second {
		t.Errorf("expected RetryAfter=7s, got %s", rateLimitErr.RetryAfter())
	}
}

func TestHTTPProvider_ContextTimeoutYieldsTimeoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := ProviderConfig{Name: "test-provider", Type: "openai", BaseURL: server.URL, Timeout: 5 * time.Second}
	provider := NewHTTPProvider(config)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp, err := provider.DoRequest(ctx, "GET", server.URL+"/test", nil, nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Errorf("expected TimeoutError, got %T: %v", err, err)
	}
}

// TestHTTPProvider_ConnectionReuse verifies that HTTP connections are reused.
func TestHTTPProvider_ConnectionReuse(t *testing.T) {
	connectionCount := int32(0)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&connectionCount, 1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "success"}`))
	}))
	defer server.Close()

	config := ProviderConfig{
		Name:                "test-provider",
		Type:                "openai",
		BaseURL:             server.URL,
		Timeout:             5 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
	provider := NewHTTPProvider(config)

	ctx := context.Background()
	numRequests := 5
	for i := 0; i < numRequests; i++ {
		resp, err := provider.DoRequest(ctx, "GET", server.URL+"/test", nil, nil)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		_, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
	}

	if count := atomic.LoadInt32(&connectionCount); count != int32(numRequests) {
		t.Errorf("expected %d requests, got %d", numRequests, count)
	}
}

// TestHTTPProvider_PoolLimitEnforcement verifies connection pool limits don't
// deadlock concurrent callers.
func TestHTTPProvider_PoolLimitEnforcement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "success"}`))
	}))
	defer server.Close()

	config := ProviderConfig{
		Name:                "test-provider",
		Type:                "openai",
		BaseURL:             server.URL,
		Timeout:             5 * time.Second,
		MaxIdleConns:        2,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     1 * time.Second,
	}
	provider := NewHTTPProvider(config)

	ctx := context.Background()
	numRequests := 10
	errCh := make(chan error, numRequests)
	start := time.Now()

	for i := 0; i < numRequests; i++ {
		go func(id int) {
			resp, err := provider.DoRequest(ctx, "GET", fmt.Sprintf("%s/test?id=%d", server.URL, id), nil, nil)
			if err != nil {
				errCh <- err
				return
			}
			_, _ = io.ReadAll(resp.Body)
			resp.Body.Close()
			errCh <- nil
		}(i)
	}

	for i := 0; i < numRequests; i++ {
		if err := <-errCh; err != nil {
			t.Errorf("request failed: %v", err)
		}
	}

	if duration := time.Since(start); duration > 5*time.Second {
		t.Errorf("requests took too long: %s (connection pooling may not be working)", duration)
	}
	if !provider.IsHealthy() {
		t.Error("expected provider to be healthy after concurrent requests")
	}
}
