package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MrHbogart/NousNews-Backend/internal/domain"
)

// ErrRunNotFound is returned when a run lookup matches no row.
var ErrRunNotFound = errors.New("crawl run not found")

// runSelectColumns lists columns for SELECT queries on crawl_runs.
const runSelectColumns = `id, status, objective, use_llm_filtering, started_at,
	ended_at, pages_processed, articles_created, queued_urls, last_error`

// RunRepository handles database operations for crawl runs.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateParams contains optional fields for a new run.
type CreateParams struct {
	Objective       string
	UseLLMFiltering bool
}

// Create inserts a new run in the running state.
func (r *RunRepository) Create(ctx context.Context, params CreateParams) (*domain.CrawlRun, error) {
	query := `
		INSERT INTO crawl_runs (id, status, objective, use_llm_filtering, started_at)
		VALUES ($1, 'running', $2, $3, NOW())
		RETURNING ` + runSelectColumns

	var run domain.CrawlRun
	err := r.db.GetContext(ctx, &run, query, uuid.NewString(), params.Objective, params.UseLLMFiltering)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return &run, nil
}

// GetByID returns the run with the given ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.CrawlRun, error) {
	query := `SELECT ` + runSelectColumns + ` FROM crawl_runs WHERE id = $1`

	var run domain.CrawlRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// Latest returns the most recently started run, or nil when none exist.
func (r *RunRepository) Latest(ctx context.Context) (*domain.CrawlRun, error) {
	query := `SELECT ` + runSelectColumns + ` FROM crawl_runs ORDER BY started_at DESC LIMIT 1`

	var run domain.CrawlRun
	if err := r.db.GetContext(ctx, &run, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return &run, nil
}

// SetRunning flips a resumed run back to the running state and clears its error.
func (r *RunRepository) SetRunning(ctx context.Context, id string) error {
	query := `UPDATE crawl_runs SET status = 'running', last_error = '' WHERE id = $1`

	result, execErr := r.db.ExecContext(ctx, query, id)
	return execRequireRows(result, execErr, fmt.Errorf("run not found: %s", id))
}

// SaveResult writes the final state of a run: status, error, counters, end time.
func (r *RunRepository) SaveResult(ctx context.Context, run *domain.CrawlRun) error {
	query := `
		UPDATE crawl_runs
		SET status = $1,
			last_error = $2,
			pages_processed = $3,
			articles_created = $4,
			queued_urls = $5,
			ended_at = $6
		WHERE id = $7
	`

	result, execErr := r.db.ExecContext(
		ctx, query,
		run.Status, run.LastError, run.PagesProcessed,
		run.ArticlesCreated, run.QueuedURLs, run.EndedAt, run.ID,
	)
	return execRequireRows(result, execErr, fmt.Errorf("run not found: %s", run.ID))
}
