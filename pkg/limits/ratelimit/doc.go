// Package ratelimit provides the request- and token-based rate limiting
// algorithms the limits.Manager uses to govern outbound calls to a given
// provider or model before they reach the client's reliability layer
// (pkg/reliability) — distinct from that layer's retry/circuit-breaking,
// which reacts to failures rather than pre-empting load. The token
// bucket / sliding window / semaphore algorithms here are
// provider-agnostic primitives with no gateway-specific behavior to
// adapt, so they carry over unchanged; Key builds the (provider, model)
// string a Limiter is indexed by, so one provider-level Config can back
// an isolated bucket per model rather than lumping every model under a
// provider into a single shared bucket.
//
// # Overview
//
// The ratelimit package implements multiple rate limiting strategies:
//
//   - Token Bucket: Request-based rate limiting with constant refill rate
//   - Sliding Window: Token-based rate limiting over rolling time windows
//   - Concurrent Limiter: Semaphore-based concurrent request limiting
//
// # Token Bucket Algorithm
//
// The token bucket algorithm allows bursts up to the bucket capacity while
// maintaining an average rate over time:
//
//	bucket := ratelimit.NewTokenBucket(100, 10) // 100 capacity, 10 refill/sec
//	if bucket.Take(1) {
//	    // Request allowed
//	} else {
//	    // Rate limit exceeded
//	}
//
// # Sliding Window
//
// The sliding window tracks token usage over rolling time windows:
//
//	window := ratelimit.NewSlidingWindow(time.Minute, time.Second) // 1-minute window, 1-second buckets
//	window.Add(5000) // Add 5K tokens used
//	if window.Sum() > 100000 { // 100K tokens/min budget
//	    // Rate limit exceeded
//	}
//
// # Concurrent Limiter
//
// The concurrent limiter enforces maximum simultaneous requests:
//
//	limiter := ratelimit.NewConcurrentLimiter(50) // Max 50 concurrent
//	if limiter.Acquire() {
//	    defer limiter.Release()
//	    // Process request
//	}
//
// # Thread Safety
//
// All rate limiters are thread-safe and use fine-grained locking to minimize
// contention under high load.
package ratelimit
