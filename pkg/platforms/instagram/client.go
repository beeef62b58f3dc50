package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"socialharvest/pkg/config"
	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/models"
)

// ReservedPaths are instagram.com path segments that can never be
// account handles.
var ReservedPaths = map[string]bool{
	"explore":  true,
	"p":        true,
	"reel":     true,
	"reels":    true,
	"stories":  true,
	"tv":       true,
	"accounts": true,
}

// Graph API error codes that signal throttling.
var rateLimitCodes = map[int]bool{4: true, 17: true, 613: true}

const defaultBaseURL = "https://graph.facebook.com"

// Client fetches profiles through the Graph API business discovery
// endpoint. Requires a page access token and the business account id
// the token belongs to.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiVersion  string
	accessToken string
	businessID  string
	postLimit   int
	log         logger.Logger
}

// NewClient creates an Instagram Graph API client.
func NewClient(cfg config.InstagramConfig, postLimit int, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:     defaultBaseURL,
		apiVersion:  cfg.APIVersion,
		accessToken: cfg.AccessToken,
		businessID:  cfg.BusinessID,
		postLimit:   postLimit,
		log:         log,
	}
}

// Platform returns the platform key.
func (c *Client) Platform() string { return "instagram" }

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type graphMedia struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	LikeCount     int64  `json:"like_count"`
	CommentsCount int64  `json:"comments_count"`
	Timestamp     string `json:"timestamp"`
	MediaURL      string `json:"media_url"`
	Permalink     string `json:"permalink"`
}

type graphDiscovery struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	Biography         string `json:"biography"`
	ProfilePictureURL string `json:"profile_picture_url"`
	FollowersCount    int64  `json:"followers_count"`
	MediaCount        int64  `json:"media_count"`
	Media             struct {
		Data []graphMedia `json:"data"`
	} `json:"media"`
}

type graphResponse struct {
	BusinessDiscovery *graphDiscovery `json:"business_discovery"`
	Error             *graphError     `json:"error"`
}

// Fetch looks up one handle through business discovery.
func (c *Client) Fetch(ctx context.Context, id models.Identifier) fetcher.Result {
	handle := id.String()
	if ReservedPaths[handle] {
		return fetcher.Fail(fetcher.StatusInvalid, fmt.Errorf("reserved path: %s", handle))
	}

	endpoint := c.discoveryURL(handle)
	logger.LogRequest(c.log, c.Platform(), handle, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fetcher.Fail(fetcher.StatusInvalid, fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fetcher.Fail(fetcher.StatusTransient, err)
		}
		return fetcher.Fail(fetcher.StatusTransient, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fetcher.Fail(fetcher.StatusRateLimited, errors.New("graph api returned 429"))
	}
	if resp.StatusCode >= 500 {
		return fetcher.Fail(fetcher.StatusTransient, fmt.Errorf("graph api returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fetcher.Fail(fetcher.StatusTransient, fmt.Errorf("failed to read response: %w", err))
	}

	var payload graphResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return fetcher.Fail(fetcher.StatusInvalid, fmt.Errorf("malformed graph response: %w", err))
	}

	if payload.Error != nil {
		return c.classifyError(payload.Error)
	}
	if payload.BusinessDiscovery == nil {
		return fetcher.Fail(fetcher.StatusNotFound, fmt.Errorf("no business account for %s", handle))
	}

	return fetcher.Ok(c.toRawProfile(payload.BusinessDiscovery), c.toRawPosts(payload.BusinessDiscovery))
}

// classifyError maps a Graph API error onto the fetch taxonomy.
// Throttling codes are checked before anything else so a rate limit is
// never misread as a missing account.
func (c *Client) classifyError(ge *graphError) fetcher.Result {
	err := fmt.Errorf("graph api error %d: %s", ge.Code, ge.Message)

	if rateLimitCodes[ge.Code] || strings.Contains(strings.ToLower(ge.Message), "rate limit") {
		return fetcher.Fail(fetcher.StatusRateLimited, err)
	}
	if strings.Contains(strings.ToLower(ge.Message), "cannot be found") {
		return fetcher.Fail(fetcher.StatusNotFound, err)
	}
	if ge.Type == "OAuthException" {
		return fetcher.Fail(fetcher.StatusInvalid, err)
	}
	return fetcher.Fail(fetcher.StatusTransient, err)
}

func (c *Client) discoveryURL(handle string) string {
	fields := fmt.Sprintf(
		"business_discovery.username(%s){id,username,name,biography,profile_picture_url,followers_count,media_count,media.limit(%d){id,caption,like_count,comments_count,timestamp,media_url,permalink}}",
		handle, c.postLimit)

	params := url.Values{}
	params.Set("fields", fields)
	params.Set("access_token", c.accessToken)

	return fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.apiVersion, c.businessID, params.Encode())
}

func (c *Client) toRawProfile(d *graphDiscovery) *fetcher.RawProfile {
	return &fetcher.RawProfile{
		ID:            d.ID,
		Handle:        d.Username,
		DisplayName:   d.Name,
		Bio:           d.Biography,
		FollowerCount: d.FollowersCount,
		MediaCount:    d.MediaCount,
		AvatarURL:     d.ProfilePictureURL,
		ProfileURL:    "https://www.instagram.com/" + d.Username + "/",
	}
}

func (c *Client) toRawPosts(d *graphDiscovery) []fetcher.RawPost {
	posts := make([]fetcher.RawPost, 0, len(d.Media.Data))
	for _, m := range d.Media.Data {
		posts = append(posts, fetcher.RawPost{
			ID:           m.ID,
			Caption:      m.Caption,
			LikeCount:    m.LikeCount,
			CommentCount: m.CommentsCount,
			Timestamp:    m.Timestamp,
			MediaURL:     m.MediaURL,
			Permalink:    m.Permalink,
		})
	}
	return posts
}
