package pipeline

import "time"

// Summary reports one run's counters. Every cleaned identifier lands
// in exactly one of the outcome buckets.
type Summary struct {
	RunID    string
	Platform string

	// Processed is the number of cleaned identifiers submitted.
	Processed int
	// Fetched is the number of profiles that passed the threshold and
	// entered the batch.
	Fetched int
	// BelowThreshold counts ok fetches skipped for follower count.
	BelowThreshold int
	NotFound       int
	Invalid        int
	// RateLimited counts identifiers abandoned after the retry budget.
	RateLimited int
	// TransientFailures counts identifiers abandoned after transient
	// retries ran out.
	TransientFailures int

	// PostsDropped counts posts excluded during normalization.
	PostsDropped int

	ProfilesUpserted int
	PostsUpserted    int

	Duration time.Duration
}

// Failures is the total of identifiers that produced no rows.
func (s *Summary) Failures() int {
	return s.NotFound + s.Invalid + s.RateLimited + s.TransientFailures
}

// Fields renders the summary for structured logging.
func (s *Summary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"run_id":             s.RunID,
		"platform":           s.Platform,
		"processed":          s.Processed,
		"fetched":            s.Fetched,
		"below_threshold":    s.BelowThreshold,
		"not_found":          s.NotFound,
		"invalid":            s.Invalid,
		"rate_limited":       s.RateLimited,
		"transient_failures": s.TransientFailures,
		"posts_dropped":      s.PostsDropped,
		"profiles_upserted":  s.ProfilesUpserted,
		"posts_upserted":     s.PostsUpserted,
		"duration":           s.Duration,
	}
}
