package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/identifiers"
	"socialharvest/pkg/models"
)

// mapFetcher serves canned results keyed by identifier.
type mapFetcher struct {
	mu      sync.Mutex
	results map[string]fetcher.Result
}

func (m *mapFetcher) Platform() string { return "instagram" }

func (m *mapFetcher) Fetch(ctx context.Context, id models.Identifier) fetcher.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.results[id.String()]; ok {
		return r
	}
	return fetcher.Fail(fetcher.StatusNotFound, errors.New("unknown"))
}

// memorySink records upserts in memory.
type memorySink struct {
	mu           sync.Mutex
	schemaCalls  int
	profiles     []models.ProfileRecord
	posts        []models.PostRecord
	upsertErr    error
	ensureErr    error
	lastPlatform string
}

func (s *memorySink) EnsureSchema(ctx context.Context, platform string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemaCalls++
	s.lastPlatform = platform
	return s.ensureErr
}

func (s *memorySink) UpsertBatch(ctx context.Context, platform string, profiles []models.ProfileRecord, posts []models.PostRecord) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return 0, 0, s.upsertErr
	}
	s.profiles = append(s.profiles, profiles...)
	s.posts = append(s.posts, posts...)
	return len(profiles), len(posts), nil
}

func okResult(id string, followers int64, posts ...fetcher.RawPost) fetcher.Result {
	return fetcher.Ok(&fetcher.RawProfile{
		ID:            "id-" + id,
		Handle:        id,
		DisplayName:   "Name " + id,
		FollowerCount: followers,
	}, posts)
}

func newTestPipeline(t *testing.T, src identifiers.Source, f fetcher.Fetcher, sink *memorySink) *Pipeline {
	t.Helper()
	p, err := New(Options{
		Source:       src,
		Fetcher:      f,
		Sink:         sink,
		Workers:      2,
		MinFollowers: 50000,
	})
	require.NoError(t, err)
	return p
}

func TestRunHappyPath(t *testing.T) {
	f := &mapFetcher{results: map[string]fetcher.Result{
		"alice": okResult("alice", 120000,
			fetcher.RawPost{ID: "p1", Caption: "hi", Timestamp: "2024-03-01T12:00:00Z"},
			fetcher.RawPost{ID: "p2", Caption: "yo", Timestamp: "2024-03-02T12:00:00Z"},
		),
		"bob": okResult("bob", 80000,
			fetcher.RawPost{ID: "p3", Caption: "hey", Timestamp: "2024-03-03T12:00:00Z"},
		),
	}}
	sink := &memorySink{}
	p := newTestPipeline(t, identifiers.Static{"alice", "bob"}, f, sink)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.ProfilesUpserted)
	assert.Equal(t, 3, summary.PostsUpserted)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "instagram", summary.Platform)

	assert.Equal(t, 1, sink.schemaCalls)
	assert.Equal(t, "instagram", sink.lastPlatform)
	assert.Len(t, sink.profiles, 2)
	assert.Len(t, sink.posts, 3)
}

func TestRunBelowThresholdProducesZeroRows(t *testing.T) {
	f := &mapFetcher{results: map[string]fetcher.Result{
		"small": okResult("small", 100,
			fetcher.RawPost{ID: "p1", Timestamp: "2024-03-01T12:00:00Z"},
		),
	}}
	sink := &memorySink{}
	p := newTestPipeline(t, identifiers.Static{"small"}, f, sink)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.BelowThreshold)
	assert.Equal(t, 0, summary.Fetched)
	assert.Equal(t, 0, summary.Failures())
	assert.Empty(t, sink.profiles)
	assert.Empty(t, sink.posts)
	// Nothing to write, no schema call either
	assert.Equal(t, 0, sink.schemaCalls)
}

func TestRunOutcomeBuckets(t *testing.T) {
	f := &mapFetcher{results: map[string]fetcher.Result{
		"good":      okResult("good", 60000),
		"ghost":     fetcher.Fail(fetcher.StatusNotFound, errors.New("gone")),
		"throttled": fetcher.Fail(fetcher.StatusRateLimited, errors.New("429")),
		"flaky":     fetcher.Fail(fetcher.StatusTransient, errors.New("timeout")),
		"broken":    fetcher.Fail(fetcher.StatusInvalid, errors.New("bad payload")),
	}}
	sink := &memorySink{}
	p := newTestPipeline(t, identifiers.Static{"good", "ghost", "throttled", "flaky", "broken"}, f, sink)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 1, summary.RateLimited)
	assert.Equal(t, 1, summary.TransientFailures)
	assert.Equal(t, 1, summary.Invalid)
	assert.Equal(t, 4, summary.Failures())
}

func TestRunDropsBadPostsNotBatch(t *testing.T) {
	f := &mapFetcher{results: map[string]fetcher.Result{
		"alice": okResult("alice", 120000,
			fetcher.RawPost{ID: "p1", Timestamp: "2024-03-01T12:00:00Z"},
			fetcher.RawPost{ID: "p2", Timestamp: "not-a-time"},
		),
	}}
	sink := &memorySink{}
	p := newTestPipeline(t, identifiers.Static{"alice"}, f, sink)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 1, summary.PostsDropped)
	assert.Equal(t, 1, summary.PostsUpserted)
	require.Len(t, sink.posts, 1)
	assert.Equal(t, "p1", sink.posts[0].ID)
}

func TestRunCleansIdentifiers(t *testing.T) {
	f := &mapFetcher{results: map[string]fetcher.Result{
		"alice": okResult("alice", 120000),
	}}
	sink := &memorySink{}
	p := newTestPipeline(t, identifiers.Static{"  @Alice ", "alice", "ab"}, f, sink)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	// Duplicate and too-short entries dropped before fetch
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Fetched)
}

func TestRunSourceFailureIsFatal(t *testing.T) {
	sink := &memorySink{}
	p := newTestPipeline(t, failingSource{}, &mapFetcher{}, sink)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identifier source failed")
}

func TestRunPersistenceFailureIsFatal(t *testing.T) {
	f := &mapFetcher{results: map[string]fetcher.Result{
		"alice": okResult("alice", 120000),
	}}
	sink := &memorySink{upsertErr: errors.New("connection reset")}
	p := newTestPipeline(t, identifiers.Static{"alice"}, f, sink)

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistence failed")
	assert.Equal(t, 0, summary.ProfilesUpserted)
}

func TestRunEmptySource(t *testing.T) {
	sink := &memorySink{}
	p := newTestPipeline(t, identifiers.Static{}, &mapFetcher{}, sink)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, sink.schemaCalls)
}

type failingSource struct{}

func (failingSource) Identifiers(ctx context.Context) ([]string, error) {
	return nil, errors.New("csv unreadable")
}
