package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialharvest/pkg/config"
	"socialharvest/pkg/models"
)

// scriptedFetcher returns a fixed sequence of results, repeating the
// last one once the script runs out.
type scriptedFetcher struct {
	script []Result
	calls  int
}

func (s *scriptedFetcher) Platform() string { return "scripted" }

func (s *scriptedFetcher) Fetch(ctx context.Context, id models.Identifier) Result {
	i := s.calls
	s.calls++
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i]
}

func fastRetryConfig() config.RetryConfig {
	return config.RetryConfig{
		MaxRateLimitRetries: 4,
		MaxTransientRetries: 2,
		RateLimitBaseDelay:  time.Millisecond,
		BackoffMultiplier:   2.0,
		TransientDelay:      time.Millisecond,
	}
}

func TestRetrierOkPassesThrough(t *testing.T) {
	profile := &RawProfile{ID: "1", Handle: "someone"}
	stub := &scriptedFetcher{script: []Result{Ok(profile, nil)}}
	r := NewRetrier(stub, fastRetryConfig(), nil)

	result := r.Fetch(context.Background(), "someone")

	require.Equal(t, StatusOk, result.Status)
	assert.Equal(t, profile, result.Profile)
	assert.Equal(t, 1, stub.calls)
}

func TestRetrierRateLimitBound(t *testing.T) {
	stub := &scriptedFetcher{script: []Result{
		Fail(StatusRateLimited, errors.New("throttled")),
	}}
	r := NewRetrier(stub, fastRetryConfig(), nil)

	result := r.Fetch(context.Background(), "someone")

	// Exactly the attempt budget, never reclassified
	assert.Equal(t, 4, stub.calls)
	assert.Equal(t, StatusRateLimited, result.Status)
	assert.EqualError(t, result.Err, "throttled")
}

func TestRetrierRateLimitSucceedsOnLastAttempt(t *testing.T) {
	throttled := Fail(StatusRateLimited, errors.New("throttled"))
	stub := &scriptedFetcher{script: []Result{
		throttled, throttled, throttled,
		Ok(&RawProfile{ID: "1"}, nil),
	}}
	r := NewRetrier(stub, fastRetryConfig(), nil)

	result := r.Fetch(context.Background(), "someone")

	assert.Equal(t, StatusOk, result.Status)
	assert.Equal(t, 4, stub.calls)
}

func TestRetrierTransientBound(t *testing.T) {
	stub := &scriptedFetcher{script: []Result{
		Fail(StatusTransient, errors.New("timeout")),
	}}
	r := NewRetrier(stub, fastRetryConfig(), nil)

	result := r.Fetch(context.Background(), "someone")

	// 1 initial attempt + 2 retries
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, StatusTransient, result.Status)
}

func TestRetrierTransientThenOk(t *testing.T) {
	stub := &scriptedFetcher{script: []Result{
		Fail(StatusTransient, errors.New("timeout")),
		Ok(&RawProfile{ID: "1"}, nil),
	}}
	r := NewRetrier(stub, fastRetryConfig(), nil)

	result := r.Fetch(context.Background(), "someone")

	assert.Equal(t, StatusOk, result.Status)
	assert.Equal(t, 2, stub.calls)
}

func TestRetrierTerminalStatusesNoRetry(t *testing.T) {
	for _, status := range []Status{StatusNotFound, StatusInvalid} {
		t.Run(status.String(), func(t *testing.T) {
			stub := &scriptedFetcher{script: []Result{Fail(status, errors.New("nope"))}}
			r := NewRetrier(stub, fastRetryConfig(), nil)

			result := r.Fetch(context.Background(), "someone")

			assert.Equal(t, status, result.Status)
			assert.Equal(t, 1, stub.calls)
		})
	}
}

func TestRetrierCancelledDuringBackoff(t *testing.T) {
	cfg := fastRetryConfig()
	cfg.RateLimitBaseDelay = time.Minute

	stub := &scriptedFetcher{script: []Result{
		Fail(StatusRateLimited, errors.New("throttled")),
	}}
	r := NewRetrier(stub, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := r.Fetch(ctx, "someone")

	assert.Equal(t, StatusRateLimited, result.Status)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStatusStrings(t *testing.T) {
	cases := map[Status]string{
		StatusOk:          "ok",
		StatusRateLimited: "rate_limited",
		StatusNotFound:    "not_found",
		StatusTransient:   "transient_error",
		StatusInvalid:     "invalid",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
	}
}

func TestStatusRetryable(t *testing.T) {
	assert.True(t, StatusRateLimited.Retryable())
	assert.True(t, StatusTransient.Retryable())
	assert.False(t, StatusOk.Retryable())
	assert.False(t, StatusNotFound.Retryable())
	assert.False(t, StatusInvalid.Retryable())
}
