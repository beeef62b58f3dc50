package x

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"socialharvest/pkg/config"
	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/models"
)

const (
	defaultBaseURL = "https://api.x.com/2"
	maxTweets      = 5
)

// Client fetches users through the X API v2 with an app-only bearer
// token. One profile costs two calls: the user lookup and the recent
// tweets page.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	bearerToken string
	log         logger.Logger
}

// NewClient creates an X API client.
func NewClient(cfg config.XConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:     defaultBaseURL,
		bearerToken: cfg.BearerToken,
		log:         log,
	}
}

// Platform returns the platform key.
func (c *Client) Platform() string { return "x" }

type userResponse struct {
	Data *struct {
		ID              string `json:"id"`
		Username        string `json:"username"`
		Name            string `json:"name"`
		Description     string `json:"description"`
		ProfileImageURL string `json:"profile_image_url"`
		PublicMetrics   struct {
			FollowersCount int64 `json:"followers_count"`
			TweetCount     int64 `json:"tweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

type tweetsResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			LikeCount       int64 `json:"like_count"`
			ReplyCount      int64 `json:"reply_count"`
			ImpressionCount int64 `json:"impression_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// Fetch looks up one user and their recent tweets.
func (c *Client) Fetch(ctx context.Context, id models.Identifier) fetcher.Result {
	handle := id.String()

	var user userResponse
	userURL := fmt.Sprintf("%s/users/by/username/%s?user.fields=description,profile_image_url,public_metrics",
		c.baseURL, url.PathEscape(handle))
	if res := c.get(ctx, handle, userURL, &user); res != nil {
		return *res
	}
	if user.Data == nil {
		return fetcher.Fail(fetcher.StatusNotFound, fmt.Errorf("no user for handle %s", handle))
	}

	profile := &fetcher.RawProfile{
		ID:            user.Data.ID,
		Handle:        user.Data.Username,
		DisplayName:   user.Data.Name,
		Bio:           user.Data.Description,
		FollowerCount: user.Data.PublicMetrics.FollowersCount,
		MediaCount:    user.Data.PublicMetrics.TweetCount,
		AvatarURL:     user.Data.ProfileImageURL,
		ProfileURL:    "https://x.com/" + user.Data.Username,
	}

	var tweets tweetsResponse
	tweetsURL := fmt.Sprintf("%s/users/%s/tweets?max_results=%d&tweet.fields=created_at,public_metrics,text",
		c.baseURL, user.Data.ID, maxTweets)
	if res := c.get(ctx, handle, tweetsURL, &tweets); res != nil {
		return *res
	}

	posts := make([]fetcher.RawPost, 0, len(tweets.Data))
	for _, tw := range tweets.Data {
		posts = append(posts, fetcher.RawPost{
			ID:           tw.ID,
			Caption:      tw.Text,
			LikeCount:    tw.PublicMetrics.LikeCount,
			CommentCount: tw.PublicMetrics.ReplyCount,
			ViewCount:    tw.PublicMetrics.ImpressionCount,
			Timestamp:    tw.CreatedAt,
			Permalink:    fmt.Sprintf("https://x.com/%s/status/%s", user.Data.Username, tw.ID),
		})
	}

	return fetcher.Ok(profile, posts)
}

// get performs one API call, decoding into out. A non-nil return is a
// terminal classification for the whole fetch.
func (c *Client) get(ctx context.Context, handle, endpoint string, out interface{}) *fetcher.Result {
	logger.LogRequest(c.log, c.Platform(), handle, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return failPtr(fetcher.StatusInvalid, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failPtr(fetcher.StatusTransient, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return failPtr(fetcher.StatusRateLimited, rateLimitError(resp))
	case resp.StatusCode == http.StatusNotFound:
		return failPtr(fetcher.StatusNotFound, fmt.Errorf("api returned 404"))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return failPtr(fetcher.StatusInvalid, fmt.Errorf("api returned %d, check the bearer token", resp.StatusCode))
	case resp.StatusCode >= 500:
		return failPtr(fetcher.StatusTransient, fmt.Errorf("api returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return failPtr(fetcher.StatusInvalid, fmt.Errorf("api returned unexpected %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return failPtr(fetcher.StatusInvalid, fmt.Errorf("malformed response: %w", err))
	}
	return nil
}

// rateLimitError reports when the window resets if the header carries
// a sane epoch.
func rateLimitError(resp *http.Response) error {
	reset := resp.Header.Get("x-rate-limit-reset")
	if reset == "" {
		return fmt.Errorf("api returned 429")
	}
	epoch, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return fmt.Errorf("api returned 429")
	}
	until := time.Until(time.Unix(epoch, 0))
	if until <= 0 || until > 24*time.Hour {
		return fmt.Errorf("api returned 429")
	}
	return fmt.Errorf("api returned 429, window resets in %s", until.Round(time.Second))
}

func failPtr(status fetcher.Status, err error) *fetcher.Result {
	r := fetcher.Fail(status, err)
	return &r
}
