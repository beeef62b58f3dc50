package fetcher

import (
	"context"

	"socialharvest/pkg/config"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/models"
	"socialharvest/pkg/retry"
)

// Retrier wraps a Fetcher with the uniform retry policy. Rate limited
// attempts back off exponentially, transient failures retry after a
// short constant delay, not_found and invalid return immediately.
// A rate_limited outcome is never reclassified; after the budget is
// exhausted the last non-ok result is returned as-is.
type Retrier struct {
	inner               Fetcher
	maxRateLimitRetries int
	maxTransientRetries int
	rateLimitBackoff    retry.BackoffStrategy
	transientBackoff    retry.BackoffStrategy
	log                 logger.Logger
}

// NewRetrier builds a Retrier from the configured retry policy.
func NewRetrier(inner Fetcher, cfg config.RetryConfig, log logger.Logger) *Retrier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Retrier{
		inner:               inner,
		maxRateLimitRetries: cfg.MaxRateLimitRetries,
		maxTransientRetries: cfg.MaxTransientRetries,
		rateLimitBackoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.RateLimitBaseDelay,
			MaxDelay:     0,
			Multiplier:   cfg.BackoffMultiplier,
			JitterFactor: 0.1,
		},
		transientBackoff: &retry.ConstantBackoff{Delay: cfg.TransientDelay},
		log:              log,
	}
}

// Platform returns the wrapped fetcher's platform key.
func (r *Retrier) Platform() string {
	return r.inner.Platform()
}

// Fetch runs the wrapped fetcher under the retry policy.
func (r *Retrier) Fetch(ctx context.Context, id models.Identifier) Result {
	rateLimitAttempts := 0
	transientAttempts := 0

	for {
		result := r.inner.Fetch(ctx, id)

		switch result.Status {
		case StatusOk, StatusNotFound, StatusInvalid:
			return result

		case StatusRateLimited:
			rateLimitAttempts++
			if rateLimitAttempts >= r.maxRateLimitRetries {
				return result
			}
			wait := r.rateLimitBackoff.NextDelay(rateLimitAttempts)
			logger.LogRateLimit(r.log, r.Platform(), id.String(), rateLimitAttempts, wait)
			if err := retry.Wait(ctx, wait); err != nil {
				return Fail(StatusRateLimited, err)
			}

		case StatusTransient:
			transientAttempts++
			if transientAttempts > r.maxTransientRetries {
				return result
			}
			logger.LogRetry(r.log, r.Platform(), id.String(), transientAttempts, result.Err)
			if err := retry.Wait(ctx, r.transientBackoff.NextDelay(transientAttempts)); err != nil {
				return Fail(StatusTransient, err)
			}

		default:
			return result
		}
	}
}
