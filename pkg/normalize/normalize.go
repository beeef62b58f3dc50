package normalize

import (
	"fmt"
	"time"

	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/models"
)

// timestampLayouts are tried in order when coercing platform
// timestamps. RFC3339 covers the API platforms; the rest are the
// variants observed in scraped payloads.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp coerces a platform timestamp string to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

// DroppedPost describes a post excluded during normalization.
type DroppedPost struct {
	PostID string
	Reason string
}

// Profile converts a raw fetch payload into a ProfileRecord. Pure:
// same input always yields the same output.
func Profile(raw *fetcher.RawProfile, fetchedAt time.Time) models.ProfileRecord {
	return models.ProfileRecord{
		ID:            raw.ID,
		Handle:        raw.Handle,
		DisplayName:   SanitizeDisplayName(raw.DisplayName),
		Bio:           SanitizeBio(raw.Bio),
		FollowerCount: ClampCount(raw.FollowerCount),
		MediaCount:    ClampCount(raw.MediaCount),
		AvatarURL:     raw.AvatarURL,
		ProfileURL:    raw.ProfileURL,
		FetchedAt:     fetchedAt.UTC(),
	}
}

// Posts converts raw posts into PostRecords owned by profileID. A post
// with an unparsable timestamp or an empty id is dropped, never the
// batch; duplicates of a post id within one payload keep the first
// occurrence. The returned slice preserves input order.
func Posts(profileID string, raws []fetcher.RawPost) ([]models.PostRecord, []DroppedPost) {
	records := make([]models.PostRecord, 0, len(raws))
	var dropped []DroppedPost
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		if raw.ID == "" {
			dropped = append(dropped, DroppedPost{Reason: "missing post id"})
			continue
		}
		if seen[raw.ID] {
			dropped = append(dropped, DroppedPost{PostID: raw.ID, Reason: "duplicate post id"})
			continue
		}

		publishedAt, err := ParseTimestamp(raw.Timestamp)
		if err != nil {
			dropped = append(dropped, DroppedPost{PostID: raw.ID, Reason: err.Error()})
			continue
		}

		seen[raw.ID] = true
		records = append(records, models.PostRecord{
			ID:           raw.ID,
			ProfileID:    profileID,
			Caption:      SanitizeCaption(raw.Caption),
			LikeCount:    ClampCount(raw.LikeCount),
			CommentCount: ClampCount(raw.CommentCount),
			ViewCount:    ClampCount(raw.ViewCount),
			PublishedAt:  publishedAt,
			MediaURL:     raw.MediaURL,
			Permalink:    raw.Permalink,
		})
	}

	return records, dropped
}
