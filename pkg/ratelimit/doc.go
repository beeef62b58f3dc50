// Package ratelimit paces outbound platform requests so a batch run
// stays under each platform's request budget.
//
// Available Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - More accurate rate limiting over time
//   - Used by the pipeline via NewPerMinute
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait(ctx) error - Block until a request is allowed or ctx ends
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	limiter := ratelimit.NewPerMinute(60)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // run cancelled
//	}
//	// Proceed with request
package ratelimit
