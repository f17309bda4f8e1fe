package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MrHbogart/NousNews-Backend/internal/domain"
)

// seedSelectColumns lists columns for SELECT queries on crawl_seeds.
const seedSelectColumns = `id, url, config_id, is_active, last_fetched_at,
	last_error, created_at, updated_at`

// SeedRepository handles database operations for crawl seeds.
type SeedRepository struct {
	db *sqlx.DB
}

// NewSeedRepository creates a new seed repository.
func NewSeedRepository(db *sqlx.DB) *SeedRepository {
	return &SeedRepository{db: db}
}

// ListActive returns active seeds bound to the given config or to no config,
// ordered by URL. This is the set the engine schedules each step.
func (r *SeedRepository) ListActive(ctx context.Context, configID string) ([]*domain.CrawlSeed, error) {
	query := `
		SELECT ` + seedSelectColumns + `
		FROM crawl_seeds
		WHERE is_active = TRUE
		  AND (config_id IS NULL OR config_id = $1)
		ORDER BY url ASC
	`

	var seeds []*domain.CrawlSeed
	if err := r.db.SelectContext(ctx, &seeds, query, configID); err != nil {
		return nil, fmt.Errorf("failed to list active seeds: %w", err)
	}

	if seeds == nil {
		seeds = []*domain.CrawlSeed{}
	}

	return seeds, nil
}

// List returns all seeds ordered by URL.
func (r *SeedRepository) List(ctx context.Context) ([]*domain.CrawlSeed, error) {
	query := `SELECT ` + seedSelectColumns + ` FROM crawl_seeds ORDER BY url ASC`

	var seeds []*domain.CrawlSeed
	if err := r.db.SelectContext(ctx, &seeds, query); err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}

	if seeds == nil {
		seeds = []*domain.CrawlSeed{}
	}

	return seeds, nil
}

// Create inserts a new seed. The URL must be unique.
func (r *SeedRepository) Create(ctx context.Context, url string, configID *string) (*domain.CrawlSeed, error) {
	query := `
		INSERT INTO crawl_seeds (id, url, config_id, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING ` + seedSelectColumns

	var seed domain.CrawlSeed
	if err := r.db.GetContext(ctx, &seed, query, uuid.NewString(), url, configID); err != nil {
		return nil, fmt.Errorf("failed to create seed: %w", err)
	}

	return &seed, nil
}

// GetOrCreate returns the seed with the given URL, creating it when absent.
// Reports whether a new row was created.
func (r *SeedRepository) GetOrCreate(ctx context.Context, url string, configID *string) (*domain.CrawlSeed, bool, error) {
	query := `
		INSERT INTO crawl_seeds (id, url, config_id, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (url) DO UPDATE SET updated_at = NOW()
		RETURNING ` + seedSelectColumns + `, (xmax = 0) AS inserted`

	row := struct {
		domain.CrawlSeed
		Inserted bool `db:"inserted"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, uuid.NewString(), url, configID); err != nil {
		return nil, false, fmt.Errorf("failed to get or create seed: %w", err)
	}

	return &row.CrawlSeed, row.Inserted, nil
}

// MarkFetched records a successful fetch on the seed and clears its error.
func (r *SeedRepository) MarkFetched(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE crawl_seeds
		SET last_fetched_at = $1, last_error = '', updated_at = NOW()
		WHERE id = $2
	`

	result, execErr := r.db.ExecContext(ctx, query, at, id)
	return execRequireRows(result, execErr, fmt.Errorf("seed not found: %s", id))
}

// Deactivate records a failed fetch and deactivates the seed. A seed whose
// first queue item fails never participates in later steps of the run.
func (r *SeedRepository) Deactivate(ctx context.Context, id, lastError string, at time.Time) error {
	query := `
		UPDATE crawl_seeds
		SET last_fetched_at = $1, last_error = $2, is_active = FALSE, updated_at = NOW()
		WHERE id = $3
	`

	result, execErr := r.db.ExecContext(ctx, query, at, lastError, id)
	return execRequireRows(result, execErr, fmt.Errorf("seed not found: %s", id))
}

// SetActive flips the active flag on a seed.
func (r *SeedRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE crawl_seeds SET is_active = $1, updated_at = NOW() WHERE id = $2`

	result, execErr := r.db.ExecContext(ctx, query, active, id)
	return execRequireRows(result, execErr, fmt.Errorf("seed not found: %s", id))
}

// DeactivateAllExcept deactivates every active seed whose URL is not in keep.
// Used by the seeds CLI to reconcile against the default seed set.
func (r *SeedRepository) DeactivateAllExcept(ctx context.Context, keep []string) (int, error) {
	query := `
		UPDATE crawl_seeds
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active = TRUE AND NOT (url = ANY($1))
	`

	result, err := r.db.ExecContext(ctx, query, pq.Array(keep))
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate seeds: %w", err)
	}

	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return 0, affectedErr
	}

	return int(n), nil
}
