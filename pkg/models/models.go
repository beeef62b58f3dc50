package models

import "time"

// Identifier is a cleaned platform account handle. It is produced by
// identifiers.Clean and is always lowercase, trimmed, and free of a
// leading "@".
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// ProfileRecord is one account's attributes at fetch time. A new record
// supersedes the previous one for the same ID on every successful fetch;
// records are never merged.
type ProfileRecord struct {
	ID            string
	Handle        string
	DisplayName   string
	Bio           string
	FollowerCount int64
	MediaCount    int64
	AvatarURL     string
	ProfileURL    string
	FetchedAt     time.Time
}

// PostRecord is one post or media item owned by exactly one ProfileRecord
// via ProfileID.
type PostRecord struct {
	ID           string
	ProfileID    string
	Caption      string
	LikeCount    int64
	CommentCount int64
	ViewCount    int64
	PublishedAt  time.Time
	MediaURL     string
	Permalink    string
}
