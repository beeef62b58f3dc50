package fetcher

import (
	"context"
	"fmt"

	"socialharvest/pkg/models"
)

// Status classifies the outcome of one fetch attempt. The set is
// closed; platform clients must map every failure mode onto exactly
// one of these values.
type Status int

const (
	// StatusOk means the profile was retrieved and the payload is usable.
	StatusOk Status = iota
	// StatusRateLimited means the platform throttled the request.
	// Retryable with long exponential backoff, never reclassified.
	StatusRateLimited
	// StatusNotFound means the account does not exist or is not
	// accessible through the platform surface being queried. Terminal.
	StatusNotFound
	// StatusTransient covers timeouts, connection failures and 5xx
	// responses. Retryable with a short constant delay.
	StatusTransient
	// StatusInvalid means the identifier or the response payload is
	// malformed beyond use. Terminal.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusRateLimited:
		return "rate_limited"
	case StatusNotFound:
		return "not_found"
	case StatusTransient:
		return "transient_error"
	case StatusInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Retryable reports whether the retry policy may attempt the fetch again.
func (s Status) Retryable() bool {
	return s == StatusRateLimited || s == StatusTransient
}

// RawProfile is a platform-shaped profile payload before normalization.
// Counts may be negative or absent, text fields are untouched.
type RawProfile struct {
	ID            string
	Handle        string
	DisplayName   string
	Bio           string
	FollowerCount int64
	MediaCount    int64
	AvatarURL     string
	ProfileURL    string
}

// RawPost is a platform-shaped post payload before normalization.
// Timestamp keeps the platform's string form; parsing happens in the
// normalizer so one bad post never fails the fetch.
type RawPost struct {
	ID           string
	Caption      string
	LikeCount    int64
	CommentCount int64
	ViewCount    int64
	Timestamp    string
	MediaURL     string
	Permalink    string
}

// Result is the outcome of fetching one identifier. Profile and Posts
// are set only when Status is StatusOk; Err carries detail for the
// non-ok statuses.
type Result struct {
	Status  Status
	Profile *RawProfile
	Posts   []RawPost
	Err     error
}

// Ok builds a successful result.
func Ok(profile *RawProfile, posts []RawPost) Result {
	return Result{Status: StatusOk, Profile: profile, Posts: posts}
}

// Fail builds a non-ok result.
func Fail(status Status, err error) Result {
	return Result{Status: status, Err: err}
}

// Fetcher retrieves one profile and its recent posts from a platform.
type Fetcher interface {
	// Platform returns the platform key ("instagram", "tiktok",
	// "youtube", "x") used for table names and log fields.
	Platform() string
	// Fetch retrieves the profile for one identifier. It never
	// returns an error directly; failures are classified in the
	// Result status.
	Fetch(ctx context.Context, id models.Identifier) Result
}
