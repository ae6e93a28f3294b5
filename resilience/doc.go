// Package resilience provides patterns for building fault-tolerant systems.
//
// This package includes:
//   - CircuitBreaker: Prevents cascading failures by failing fast
//   - Retry: Retries failed operations with exponential backoff
//   - Bulkhead: Limits concurrent access to isolate failures
//   - RateLimiter: Controls request rate with token bucket algorithm
//
// The connection pool retries failed replicas with Retry, the local runner
// guards crash-looping workers with CircuitBreaker, and the gateway bounds
// in-flight dispatches with Bulkhead. The patterns compose:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("pod"))
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 10})
//
//	err := cb.Execute(func() error {
//	    return bh.Execute(ctx, func() error {
//	        _, err := pool.SendRequestSync(ctx, req, addr)
//	        return err
//	    })
//	})
package resilience
