package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"socialharvest/internal/workerpool"
	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/identifiers"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/models"
	"socialharvest/pkg/normalize"
	"socialharvest/pkg/ratelimit"
	"socialharvest/pkg/store"
)

// Options wires one run.
type Options struct {
	Source   identifiers.Source
	Reserved map[string]bool
	// Fetcher should already be wrapped in a Retrier.
	Fetcher      fetcher.Fetcher
	Sink         store.Sink
	Limiter      ratelimit.Limiter
	Workers      int
	MinFollowers int64
	Logger       logger.Logger
}

// Pipeline runs fetch, normalize and persist for one platform batch.
// Fetches run concurrently; normalization and persistence start only
// after every fetch has settled.
type Pipeline struct {
	opts Options
	log  logger.Logger
}

// New validates options and builds a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("identifier source is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if opts.Workers < 2 {
		opts.Workers = 2
	}
	if opts.Workers > 20 {
		opts.Workers = 20
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Pipeline{opts: opts, log: log}, nil
}

// Run executes one batch. A source or sink failure is fatal and
// returns an error alongside the partial summary; per-identifier fetch
// failures only land in the summary counters.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	platform := p.opts.Fetcher.Platform()

	summary := &Summary{
		RunID:    xid.New().String(),
		Platform: platform,
	}
	log := p.log.WithFields(map[string]interface{}{
		"run_id":   summary.RunID,
		"platform": platform,
	})

	raw, err := p.opts.Source.Identifiers(ctx)
	if err != nil {
		return summary, fmt.Errorf("identifier source failed: %w", err)
	}

	cleaned := identifiers.Clean(raw, p.opts.Reserved)
	summary.Processed = len(cleaned)
	log.InfoWithFields("run starting", map[string]interface{}{
		"raw_identifiers": len(raw),
		"cleaned":         len(cleaned),
	})

	if len(cleaned) == 0 {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	results := p.fetchAll(ctx, cleaned, log)
	if err := ctx.Err(); err != nil {
		summary.Duration = time.Since(start)
		return summary, fmt.Errorf("run cancelled: %w", err)
	}

	profiles, posts := p.collect(results, summary, log)

	if len(profiles) > 0 {
		if err := p.opts.Sink.EnsureSchema(ctx, platform); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("schema setup failed: %w", err)
		}
		profilesUpserted, postsUpserted, err := p.opts.Sink.UpsertBatch(ctx, platform, profiles, posts)
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("persistence failed: %w", err)
		}
		summary.ProfilesUpserted = profilesUpserted
		summary.PostsUpserted = postsUpserted
	}

	summary.Duration = time.Since(start)
	log.InfoWithFields("run finished", summary.Fields())
	return summary, nil
}

// fetchAll runs the fetch stage over the worker pool and gathers every
// result before returning. The single collector loop is the only
// reader of the result channel.
func (p *Pipeline) fetchAll(ctx context.Context, handles []string, log logger.Logger) []workerpool.FetchResult {
	pool := workerpool.New(ctx, p.opts.Workers, p.opts.Fetcher, p.opts.Limiter, log)
	pool.Start()

	go func() {
		for _, h := range handles {
			if err := pool.Submit(workerpool.FetchJob{Identifier: models.Identifier(h)}); err != nil {
				break
			}
		}
		pool.Stop()
	}()

	results := make([]workerpool.FetchResult, 0, len(handles))
	for r := range pool.Results() {
		results = append(results, r)
	}
	return results
}

// collect applies the threshold filter and normalizes the surviving
// payloads. Below-threshold profiles produce zero rows.
func (p *Pipeline) collect(results []workerpool.FetchResult, summary *Summary, log logger.Logger) ([]models.ProfileRecord, []models.PostRecord) {
	fetchedAt := time.Now().UTC()
	var profiles []models.ProfileRecord
	var posts []models.PostRecord

	for _, r := range results {
		id := r.Job.Identifier.String()

		switch r.Result.Status {
		case fetcher.StatusOk:
			if r.Result.Profile.FollowerCount < p.opts.MinFollowers {
				summary.BelowThreshold++
				log.DebugWithFields("profile below threshold", map[string]interface{}{
					"identifier": id,
					"followers":  r.Result.Profile.FollowerCount,
				})
				continue
			}

			profile := normalize.Profile(r.Result.Profile, fetchedAt)
			records, dropped := normalize.Posts(profile.ID, r.Result.Posts)
			for _, d := range dropped {
				logger.LogDroppedPost(log, id, d.PostID, d.Reason)
			}
			summary.PostsDropped += len(dropped)
			summary.Fetched++
			profiles = append(profiles, profile)
			posts = append(posts, records...)

		case fetcher.StatusNotFound:
			summary.NotFound++
		case fetcher.StatusInvalid:
			summary.Invalid++
		case fetcher.StatusRateLimited:
			summary.RateLimited++
			log.WithField("identifier", id).Warn("abandoned after rate limit retries")
		case fetcher.StatusTransient:
			summary.TransientFailures++
			log.WithField("identifier", id).WithError(r.Result.Err).Warn("abandoned after transient retries")
		}
	}

	return profiles, posts
}
