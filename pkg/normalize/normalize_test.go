package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialharvest/pkg/fetcher"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "emoji mention and url removed",
			input: "Hello 😀 @friend check http://x.co",
			want:  "Hello check",
		},
		{
			name:  "noise characters become spaces",
			input: "food|travel#life&more/daily",
			want:  "food travel life more daily",
		},
		{
			name:  "www url removed",
			input: "visit www.example.com for more",
			want:  "visit for more",
		},
		{
			name:  "whitespace collapsed and trimmed",
			input: "  too\t\tmany   spaces \n here  ",
			want:  "too many spaces here",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
		{
			name:  "only emoji becomes empty",
			input: "🔥🔥🔥",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.input, 0))
		})
	}
}

func TestSanitizeTextIdempotent(t *testing.T) {
	inputs := []string{
		"Hello 😀 @friend check http://x.co",
		"food|travel#life daily",
		"plain text already clean",
		"  mixed 🎉 www.a.io @b | c  ",
	}
	for _, input := range inputs {
		once := SanitizeText(input, MaxBioLen)
		twice := SanitizeText(once, MaxBioLen)
		assert.Equal(t, once, twice, "sanitize must be idempotent for %q", input)
	}
}

func TestSanitizeTruncation(t *testing.T) {
	long := strings.Repeat("a", MaxBioLen+500)
	got := SanitizeBio(long)
	assert.Len(t, got, MaxBioLen)

	name := strings.Repeat("b", MaxDisplayNameLen+1)
	assert.Len(t, SanitizeDisplayName(name), MaxDisplayNameLen)
}

func TestTruncateDoesNotSplitRunes(t *testing.T) {
	s := strings.Repeat("ü", 10)
	got := Truncate(s, 5)
	assert.Equal(t, strings.Repeat("ü", 5), got)
}

func TestClampCount(t *testing.T) {
	assert.Equal(t, int64(0), ClampCount(-1))
	assert.Equal(t, int64(0), ClampCount(0))
	assert.Equal(t, int64(42), ClampCount(42))
}

func TestParseAbbreviatedCount(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"2.5M", 2_500_000, false},
		{"120k", 120_000, false},
		{"1.2b", 1_200_000_000, false},
		{"1,234", 1234, false},
		{"10k+", 10_000, false},
		{"987", 987, false},
		{"", 0, false},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAbbreviatedCount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2024-03-01T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), got)

	got, err = ParseTimestamp("2024-03-01T12:30:00+0200")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), got)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestProfileNormalization(t *testing.T) {
	fetchedAt := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	raw := &fetcher.RawProfile{
		ID:            "17841400000000000",
		Handle:        "traveler",
		DisplayName:   "World 🌍 Traveler",
		Bio:           "Exploring | sharing @tips www.blog.example",
		FollowerCount: -5,
		MediaCount:    321,
		AvatarURL:     "https://cdn.example/avatar.jpg",
		ProfileURL:    "https://instagram.com/traveler",
	}

	record := Profile(raw, fetchedAt)

	assert.Equal(t, "17841400000000000", record.ID)
	assert.Equal(t, "traveler", record.Handle)
	assert.Equal(t, "World Traveler", record.DisplayName)
	assert.Equal(t, "Exploring sharing", record.Bio)
	assert.Equal(t, int64(0), record.FollowerCount)
	assert.Equal(t, int64(321), record.MediaCount)
	assert.Equal(t, fetchedAt, record.FetchedAt)
}

func TestPostsDropUnparsableTimestamp(t *testing.T) {
	raws := []fetcher.RawPost{
		{ID: "p1", Caption: "first", Timestamp: "2024-03-01T12:00:00Z"},
		{ID: "p2", Caption: "bad time", Timestamp: "not-a-time"},
		{ID: "p3", Caption: "third", Timestamp: "2024-03-02T12:00:00Z"},
	}

	records, dropped := Posts("profile-1", raws)

	require.Len(t, records, 2)
	assert.Equal(t, "p1", records[0].ID)
	assert.Equal(t, "p3", records[1].ID)

	require.Len(t, dropped, 1)
	assert.Equal(t, "p2", dropped[0].PostID)
}

func TestPostsDuplicateIDsKeepFirst(t *testing.T) {
	raws := []fetcher.RawPost{
		{ID: "p1", Caption: "first", LikeCount: 10, Timestamp: "2024-03-01T12:00:00Z"},
		{ID: "p1", Caption: "second copy", LikeCount: 99, Timestamp: "2024-03-01T13:00:00Z"},
	}

	records, dropped := Posts("profile-1", raws)

	require.Len(t, records, 1)
	assert.Equal(t, int64(10), records[0].LikeCount)
	require.Len(t, dropped, 1)
	assert.Equal(t, "duplicate post id", dropped[0].Reason)
}

func TestPostsCountsClamped(t *testing.T) {
	raws := []fetcher.RawPost{
		{ID: "p1", LikeCount: -1, CommentCount: -100, ViewCount: 5, Timestamp: "2024-03-01T12:00:00Z"},
	}

	records, _ := Posts("profile-1", raws)

	require.Len(t, records, 1)
	assert.Equal(t, int64(0), records[0].LikeCount)
	assert.Equal(t, int64(0), records[0].CommentCount)
	assert.Equal(t, int64(5), records[0].ViewCount)
}

func TestPostsEmptyInput(t *testing.T) {
	records, dropped := Posts("profile-1", nil)
	assert.Empty(t, records)
	assert.Empty(t, dropped)
}

func TestPostsOwnership(t *testing.T) {
	raws := []fetcher.RawPost{
		{ID: "p1", Timestamp: "2024-03-01T12:00:00Z"},
	}
	records, _ := Posts("owner-9", raws)
	require.Len(t, records, 1)
	assert.Equal(t, "owner-9", records[0].ProfileID)
}
