package store

import "fmt"

// Platforms the sink knows how to build tables for. Table names embed
// the platform key, so only known keys are allowed into SQL.
var knownPlatforms = map[string]bool{
	"instagram": true,
	"tiktok":    true,
	"youtube":   true,
	"x":         true,
}

func profilesTable(platform string) string {
	return fmt.Sprintf("influencer_%s_profiles", platform)
}

func postsTable(platform string) string {
	return fmt.Sprintf("influencer_%s_posts", platform)
}

func createProfilesSQL(platform string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	profile_id     TEXT PRIMARY KEY,
	handle         TEXT NOT NULL,
	display_name   TEXT NOT NULL DEFAULT '',
	bio            TEXT NOT NULL DEFAULT '',
	follower_count BIGINT NOT NULL DEFAULT 0,
	media_count    BIGINT NOT NULL DEFAULT 0,
	avatar_url     TEXT NOT NULL DEFAULT '',
	profile_url    TEXT NOT NULL DEFAULT '',
	fetched_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`, profilesTable(platform))
}

func createPostsSQL(platform string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	post_id       TEXT PRIMARY KEY,
	profile_id    TEXT NOT NULL REFERENCES %s (profile_id),
	caption       TEXT NOT NULL DEFAULT '',
	like_count    BIGINT NOT NULL DEFAULT 0,
	comment_count BIGINT NOT NULL DEFAULT 0,
	view_count    BIGINT NOT NULL DEFAULT 0,
	published_at  TIMESTAMPTZ NOT NULL,
	media_url     TEXT NOT NULL DEFAULT '',
	permalink     TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`, postsTable(platform), profilesTable(platform))
}

func upsertProfileSQL(platform string) string {
	return fmt.Sprintf(`INSERT INTO %s
	(profile_id, handle, display_name, bio, follower_count, media_count, avatar_url, profile_url, fetched_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (profile_id) DO UPDATE SET
	handle = EXCLUDED.handle,
	display_name = EXCLUDED.display_name,
	bio = EXCLUDED.bio,
	follower_count = EXCLUDED.follower_count,
	media_count = EXCLUDED.media_count,
	avatar_url = EXCLUDED.avatar_url,
	profile_url = EXCLUDED.profile_url,
	fetched_at = EXCLUDED.fetched_at,
	updated_at = now()`, profilesTable(platform))
}

func upsertPostSQL(platform string) string {
	return fmt.Sprintf(`INSERT INTO %s
	(post_id, profile_id, caption, like_count, comment_count, view_count, published_at, media_url, permalink, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (post_id) DO UPDATE SET
	profile_id = EXCLUDED.profile_id,
	caption = EXCLUDED.caption,
	like_count = EXCLUDED.like_count,
	comment_count = EXCLUDED.comment_count,
	view_count = EXCLUDED.view_count,
	published_at = EXCLUDED.published_at,
	media_url = EXCLUDED.media_url,
	permalink = EXCLUDED.permalink,
	updated_at = now()`, postsTable(platform))
}
