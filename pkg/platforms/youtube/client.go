package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"socialharvest/pkg/config"
	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/models"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client fetches channels through the YouTube Data API v3. One profile
// costs three calls: the channel lookup, the uploads playlist page and
// the video statistics batch.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	postLimit  int
	log        logger.Logger
}

// NewClient creates a YouTube Data API client.
func NewClient(cfg config.YouTubeConfig, postLimit int, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    defaultBaseURL,
		apiKey:     cfg.APIKey,
		postLimit:  postLimit,
		log:        log,
	}
}

// Platform returns the platform key.
func (c *Client) Platform() string { return "youtube" }

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			CustomURL   string `json:"customUrl"`
			Thumbnails  struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID          string `json:"videoId"`
			VideoPublishedAt string `json:"videoPublishedAt"`
		} `json:"contentDetails"`
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Fetch resolves a channel handle and its recent uploads.
func (c *Client) Fetch(ctx context.Context, id models.Identifier) fetcher.Result {
	handle := id.String()

	var channels channelListResponse
	params := url.Values{}
	params.Set("part", "snippet,statistics,contentDetails")
	params.Set("forHandle", "@"+handle)
	if res := c.get(ctx, handle, "channels", params, &channels); res != nil {
		return *res
	}
	if len(channels.Items) == 0 {
		return fetcher.Fail(fetcher.StatusNotFound, fmt.Errorf("no channel for handle %s", handle))
	}

	ch := channels.Items[0]
	profile := &fetcher.RawProfile{
		ID:            ch.ID,
		Handle:        handle,
		DisplayName:   ch.Snippet.Title,
		Bio:           ch.Snippet.Description,
		FollowerCount: parseCount(ch.Statistics.SubscriberCount),
		MediaCount:    parseCount(ch.Statistics.VideoCount),
		AvatarURL:     ch.Snippet.Thumbnails.High.URL,
		ProfileURL:    "https://www.youtube.com/@" + handle,
	}

	uploads := ch.ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return fetcher.Ok(profile, nil)
	}

	var playlist playlistItemsResponse
	params = url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("playlistId", uploads)
	params.Set("maxResults", strconv.Itoa(c.postLimit))
	if res := c.get(ctx, handle, "playlistItems", params, &playlist); res != nil {
		return *res
	}
	if len(playlist.Items) == 0 {
		return fetcher.Ok(profile, nil)
	}

	videoIDs := make([]string, 0, len(playlist.Items))
	posts := make([]fetcher.RawPost, 0, len(playlist.Items))
	for _, item := range playlist.Items {
		videoID := item.ContentDetails.VideoID
		if videoID == "" {
			continue
		}
		publishedAt := item.ContentDetails.VideoPublishedAt
		if publishedAt == "" {
			publishedAt = item.Snippet.PublishedAt
		}
		videoIDs = append(videoIDs, videoID)
		posts = append(posts, fetcher.RawPost{
			ID:        videoID,
			Caption:   item.Snippet.Title,
			Timestamp: publishedAt,
			MediaURL:  "https://www.youtube.com/watch?v=" + videoID,
			Permalink: "https://www.youtube.com/watch?v=" + videoID,
		})
	}

	var videos videoListResponse
	params = url.Values{}
	params.Set("part", "statistics")
	params.Set("id", strings.Join(videoIDs, ","))
	if res := c.get(ctx, handle, "videos", params, &videos); res != nil {
		return *res
	}

	stats := make(map[string]int, len(videos.Items))
	for i, v := range videos.Items {
		stats[v.ID] = i
	}
	for i := range posts {
		if j, ok := stats[posts[i].ID]; ok {
			posts[i].ViewCount = parseCount(videos.Items[j].Statistics.ViewCount)
			posts[i].LikeCount = parseCount(videos.Items[j].Statistics.LikeCount)
			posts[i].CommentCount = parseCount(videos.Items[j].Statistics.CommentCount)
		}
	}

	return fetcher.Ok(profile, posts)
}

// get performs one API call, decoding into out. A non-nil return is a
// terminal classification for the whole fetch.
func (c *Client) get(ctx context.Context, handle, resource string, params url.Values, out interface{}) *fetcher.Result {
	params.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, params.Encode())
	logger.LogRequest(c.log, c.Platform(), handle, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return failPtr(fetcher.StatusInvalid, fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failPtr(fetcher.StatusTransient, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		// 403 is how the Data API reports an exhausted quota
		return failPtr(fetcher.StatusRateLimited, fmt.Errorf("%s returned %d", resource, resp.StatusCode))
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return failPtr(fetcher.StatusInvalid, fmt.Errorf("%s returned %d", resource, resp.StatusCode))
	case resp.StatusCode >= 500:
		return failPtr(fetcher.StatusTransient, fmt.Errorf("%s returned %d", resource, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return failPtr(fetcher.StatusInvalid, fmt.Errorf("%s returned unexpected %d", resource, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return failPtr(fetcher.StatusInvalid, fmt.Errorf("malformed %s response: %w", resource, err))
	}
	return nil
}

func failPtr(status fetcher.Status, err error) *fetcher.Result {
	r := fetcher.Fail(status, err)
	return &r
}

// parseCount converts the API's string-typed counters; missing or
// hidden counters come back as zero.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
