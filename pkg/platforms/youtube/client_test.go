package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialharvest/pkg/config"
	"socialharvest/pkg/fetcher"
)

func testClient(serverURL string) *Client {
	c := NewClient(config.YouTubeConfig{
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
	}, 10, nil)
	c.baseURL = serverURL
	return c
}

func apiHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/channels":
			assert.Equal(t, "@techreviews", r.URL.Query().Get("forHandle"))
			w.Write([]byte(`{"items": [{
				"id": "UC123",
				"snippet": {
					"title": "Tech Reviews",
					"description": "honest reviews weekly",
					"thumbnails": {"high": {"url": "https://yt.example/avatar.jpg"}}
				},
				"statistics": {"subscriberCount": "250000", "videoCount": "312"},
				"contentDetails": {"relatedPlaylists": {"uploads": "UU123"}}
			}]}`))
		case "/playlistItems":
			assert.Equal(t, "UU123", r.URL.Query().Get("playlistId"))
			w.Write([]byte(`{"items": [
				{"contentDetails": {"videoId": "vid1", "videoPublishedAt": "2024-02-01T10:00:00Z"},
				 "snippet": {"title": "Phone review"}},
				{"contentDetails": {"videoId": "vid2", "videoPublishedAt": "2024-02-08T10:00:00Z"},
				 "snippet": {"title": "Laptop review"}}
			]}`))
		case "/videos":
			assert.Equal(t, "vid1,vid2", r.URL.Query().Get("id"))
			w.Write([]byte(`{"items": [
				{"id": "vid1", "statistics": {"viewCount": "50000", "likeCount": "2000", "commentCount": "150"}},
				{"id": "vid2", "statistics": {"viewCount": "30000", "likeCount": "1200", "commentCount": "90"}}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(apiHandler(t))
	defer server.Close()

	result := testClient(server.URL).Fetch(context.Background(), "techreviews")

	require.Equal(t, fetcher.StatusOk, result.Status)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "UC123", result.Profile.ID)
	assert.Equal(t, "Tech Reviews", result.Profile.DisplayName)
	assert.Equal(t, int64(250000), result.Profile.FollowerCount)
	assert.Equal(t, int64(312), result.Profile.MediaCount)
	assert.Equal(t, "https://www.youtube.com/@techreviews", result.Profile.ProfileURL)

	require.Len(t, result.Posts, 2)
	assert.Equal(t, "vid1", result.Posts[0].ID)
	assert.Equal(t, "Phone review", result.Posts[0].Caption)
	assert.Equal(t, int64(50000), result.Posts[0].ViewCount)
	assert.Equal(t, int64(2000), result.Posts[0].LikeCount)
	assert.Equal(t, "2024-02-01T10:00:00Z", result.Posts[0].Timestamp)
}

func TestFetchNoChannelIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	result := testClient(server.URL).Fetch(context.Background(), "ghost")
	assert.Equal(t, fetcher.StatusNotFound, result.Status)
}

func TestFetchQuotaExceeded(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		result := testClient(server.URL).Fetch(context.Background(), "someone")
		server.Close()

		assert.Equal(t, fetcher.StatusRateLimited, result.Status, "status %d", status)
	}
}

func TestFetchBadKeyIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	result := testClient(server.URL).Fetch(context.Background(), "someone")
	assert.Equal(t, fetcher.StatusInvalid, result.Status)
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	result := testClient(server.URL).Fetch(context.Background(), "someone")
	assert.Equal(t, fetcher.StatusTransient, result.Status)
}

func TestFetchChannelWithoutUploads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/channels", r.URL.Path, "only the channel call is expected")
		w.Write([]byte(`{"items": [{
			"id": "UC999",
			"snippet": {"title": "Empty Channel"},
			"statistics": {"subscriberCount": "100", "videoCount": "0"},
			"contentDetails": {"relatedPlaylists": {"uploads": ""}}
		}]}`))
	}))
	defer server.Close()

	result := testClient(server.URL).Fetch(context.Background(), "emptychannel")

	require.Equal(t, fetcher.StatusOk, result.Status)
	assert.Empty(t, result.Posts)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, int64(123), parseCount("123"))
	assert.Equal(t, int64(0), parseCount(""))
	assert.Equal(t, int64(0), parseCount("hidden"))
}
