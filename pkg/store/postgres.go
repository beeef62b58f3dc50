package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"socialharvest/pkg/config"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/models"
)

// Sink persists one run's normalized records.
type Sink interface {
	// EnsureSchema creates the platform's tables if they do not
	// exist. Idempotent, safe to run before every batch.
	EnsureSchema(ctx context.Context, platform string) error
	// UpsertBatch writes profiles and posts in a single transaction.
	// On any failure the whole batch rolls back and nothing counts.
	UpsertBatch(ctx context.Context, platform string, profiles []models.ProfileRecord, posts []models.PostRecord) (profilesUpserted, postsUpserted int, err error)
}

// Postgres is the production Sink, one pool per process.
type Postgres struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// NewPostgres connects a pool using the configured DSN.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*Postgres, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &Postgres{pool: pool, log: log}, nil
}

// Pool exposes the underlying pool for identifier queries.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// EnsureSchema creates the per-platform tables, profiles before posts
// for the foreign key.
func (p *Postgres) EnsureSchema(ctx context.Context, platform string) error {
	if !knownPlatforms[platform] {
		return fmt.Errorf("unknown platform: %s", platform)
	}

	if _, err := p.pool.Exec(ctx, createProfilesSQL(platform)); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}
	if _, err := p.pool.Exec(ctx, createPostsSQL(platform)); err != nil {
		return fmt.Errorf("failed to create posts table: %w", err)
	}

	p.log.WithField("platform", platform).Debug("schema ensured")
	return nil
}

// UpsertBatch writes one run's records in a single transaction,
// profiles first so post foreign keys resolve. Re-running the same
// batch is a no-op beyond refreshed timestamps.
func (p *Postgres) UpsertBatch(ctx context.Context, platform string, profiles []models.ProfileRecord, posts []models.PostRecord) (int, int, error) {
	if !knownPlatforms[platform] {
		return 0, 0, fmt.Errorf("unknown platform: %s", platform)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	profileSQL := upsertProfileSQL(platform)
	for _, pr := range profiles {
		_, err := tx.Exec(ctx, profileSQL,
			pr.ID, pr.Handle, pr.DisplayName, pr.Bio,
			pr.FollowerCount, pr.MediaCount,
			pr.AvatarURL, pr.ProfileURL, pr.FetchedAt)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert profile %s: %w", pr.ID, err)
		}
	}

	postSQL := upsertPostSQL(platform)
	for _, po := range posts {
		_, err := tx.Exec(ctx, postSQL,
			po.ID, po.ProfileID, po.Caption,
			po.LikeCount, po.CommentCount, po.ViewCount,
			po.PublishedAt, po.MediaURL, po.Permalink)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert post %s: %w", po.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	p.log.WithFields(map[string]interface{}{
		"platform": platform,
		"profiles": len(profiles),
		"posts":    len(posts),
	}).Info("batch persisted")

	return len(profiles), len(posts), nil
}
