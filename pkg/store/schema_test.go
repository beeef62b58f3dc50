package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "influencer_instagram_profiles", profilesTable("instagram"))
	assert.Equal(t, "influencer_tiktok_posts", postsTable("tiktok"))
}

func TestCreateStatementsAreIdempotent(t *testing.T) {
	for platform := range knownPlatforms {
		assert.Contains(t, createProfilesSQL(platform), "CREATE TABLE IF NOT EXISTS")
		assert.Contains(t, createPostsSQL(platform), "CREATE TABLE IF NOT EXISTS")
	}
}

func TestCreatePostsReferencesProfiles(t *testing.T) {
	sql := createPostsSQL("youtube")
	assert.Contains(t, sql, "REFERENCES influencer_youtube_profiles (profile_id)")
}

func TestUpsertProfileShape(t *testing.T) {
	sql := upsertProfileSQL("x")

	assert.Contains(t, sql, "INSERT INTO influencer_x_profiles")
	assert.Contains(t, sql, "ON CONFLICT (profile_id) DO UPDATE SET")

	// Every non-key column is refreshed on conflict
	for _, col := range []string{"handle", "display_name", "bio", "follower_count",
		"media_count", "avatar_url", "profile_url", "fetched_at", "updated_at"} {
		assert.Contains(t, sql, col+" = ", "column %s must be updated on conflict", col)
	}
	assert.NotContains(t, sql, "profile_id = EXCLUDED")
}

func TestUpsertPostShape(t *testing.T) {
	sql := upsertPostSQL("instagram")

	assert.Contains(t, sql, "INSERT INTO influencer_instagram_posts")
	assert.Contains(t, sql, "ON CONFLICT (post_id) DO UPDATE SET")

	for _, col := range []string{"profile_id", "caption", "like_count", "comment_count",
		"view_count", "published_at", "media_url", "permalink", "updated_at"} {
		assert.Contains(t, sql, col+" = ", "column %s must be updated on conflict", col)
	}
	assert.NotContains(t, sql, "post_id = EXCLUDED")
}

func TestUpsertPlaceholderCounts(t *testing.T) {
	// 9 bound parameters each; updated_at comes from now()
	assert.Equal(t, 9, strings.Count(upsertProfileSQL("tiktok"), "$"))
	assert.Equal(t, 9, strings.Count(upsertPostSQL("tiktok"), "$"))
}

func TestKnownPlatforms(t *testing.T) {
	for _, p := range []string{"instagram", "tiktok", "youtube", "x"} {
		assert.True(t, knownPlatforms[p], p)
	}
	assert.False(t, knownPlatforms["myspace"])
}
