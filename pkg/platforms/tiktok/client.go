package tiktok

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"socialharvest/pkg/config"
	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/models"
	"socialharvest/pkg/normalize"
)

const (
	defaultBaseURL = "https://www.tiktok.com"
	maxPosts       = 10
)

// Client scrapes public TikTok profile pages. TikTok renders profile
// data into data-e2e attributed elements, which is the only stable
// surface without an API key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	log        logger.Logger
}

// NewClient creates a TikTok profile page scraper.
func NewClient(cfg config.TikTokConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    defaultBaseURL,
		userAgent:  cfg.UserAgent,
		log:        log,
	}
}

// Platform returns the platform key.
func (c *Client) Platform() string { return "tiktok" }

// Fetch scrapes one profile page.
func (c *Client) Fetch(ctx context.Context, id models.Identifier) fetcher.Result {
	handle := id.String()
	pageURL := fmt.Sprintf("%s/@%s", c.baseURL, handle)
	logger.LogRequest(c.log, c.Platform(), handle, pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fetcher.Fail(fetcher.StatusInvalid, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fetcher.Fail(fetcher.StatusTransient, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fetcher.Fail(fetcher.StatusNotFound, fmt.Errorf("profile page returned 404 for %s", handle))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		// TikTok answers throttled scrapers with 403 captcha pages
		return fetcher.Fail(fetcher.StatusRateLimited, fmt.Errorf("profile page returned %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return fetcher.Fail(fetcher.StatusTransient, fmt.Errorf("profile page returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return fetcher.Fail(fetcher.StatusInvalid, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fetcher.Fail(fetcher.StatusInvalid, fmt.Errorf("failed to parse profile page: %w", err))
	}

	return c.parseProfile(doc, handle)
}

// parseProfile extracts profile fields from the rendered page. A page
// that loads but carries none of the profile selectors means the
// account does not exist or is private.
func (c *Client) parseProfile(doc *goquery.Document, handle string) fetcher.Result {
	followersText := strings.TrimSpace(doc.Find(`[data-e2e="followers-count"]`).First().Text())
	if followersText == "" {
		return fetcher.Fail(fetcher.StatusNotFound, fmt.Errorf("no profile markup for %s", handle))
	}

	followers, err := normalize.ParseAbbreviatedCount(followersText)
	if err != nil {
		return fetcher.Fail(fetcher.StatusInvalid, fmt.Errorf("bad followers count: %w", err))
	}

	displayName := strings.TrimSpace(doc.Find(`[data-e2e="user-title"]`).First().Text())
	if displayName == "" {
		displayName = strings.TrimSpace(doc.Find(`[data-e2e="user-subtitle"]`).First().Text())
	}
	bio := strings.TrimSpace(doc.Find(`[data-e2e="user-bio"]`).First().Text())
	avatarURL, _ := doc.Find(`[data-e2e="user-avatar"] img`).First().Attr("src")

	posts := c.parsePosts(doc)

	profile := &fetcher.RawProfile{
		ID:            handle, // page exposes no numeric id, the handle is the stable key
		Handle:        handle,
		DisplayName:   displayName,
		Bio:           bio,
		FollowerCount: followers,
		MediaCount:    int64(len(posts)),
		AvatarURL:     avatarURL,
		ProfileURL:    fmt.Sprintf("%s/@%s", defaultBaseURL, handle),
	}

	return fetcher.Ok(profile, posts)
}

// parsePosts extracts up to maxPosts recent videos from the profile
// grid. Only view counts are available on the grid; timestamps are not
// rendered, so the video id (a millisecond epoch prefix) stands in via
// the permalink and posts carry no usable Timestamp. Posts without a
// parseable video link are skipped.
func (c *Client) parsePosts(doc *goquery.Document) []fetcher.RawPost {
	var posts []fetcher.RawPost

	doc.Find(`[data-e2e="user-post-item"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(posts) >= maxPosts {
			return false
		}

		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			return true
		}
		videoID := extractVideoID(href)
		if videoID == "" {
			return true
		}

		viewsText := strings.TrimSpace(s.Find(`[data-e2e="video-views"]`).First().Text())
		views, err := normalize.ParseAbbreviatedCount(viewsText)
		if err != nil {
			views = 0
		}

		caption := strings.TrimSpace(s.Find("a").First().AttrOr("title", ""))
		if caption == "" {
			caption = strings.TrimSpace(s.Find("img").First().AttrOr("alt", ""))
		}

		posts = append(posts, fetcher.RawPost{
			ID:        videoID,
			Caption:   caption,
			ViewCount: views,
			Timestamp: videoTimestamp(videoID),
			Permalink: href,
		})
		return true
	})

	return posts
}

// extractVideoID pulls the numeric id out of a /video/<id> href.
func extractVideoID(href string) string {
	idx := strings.Index(href, "/video/")
	if idx < 0 {
		return ""
	}
	id := href[idx+len("/video/"):]
	if cut := strings.IndexAny(id, "?/"); cut >= 0 {
		id = id[:cut]
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

// videoTimestamp recovers the creation time embedded in the high 32
// bits of a TikTok video id.
func videoTimestamp(videoID string) string {
	var id uint64
	if _, err := fmt.Sscanf(videoID, "%d", &id); err != nil {
		return ""
	}
	seconds := int64(id >> 32)
	if seconds <= 0 {
		return ""
	}
	return time.Unix(seconds, 0).UTC().Format(time.RFC3339)
}
