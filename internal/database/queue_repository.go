package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MrHbogart/NousNews-Backend/internal/domain"
)

// ErrNoItemAvailable is returned when a claim finds no pending queue items.
// Callers should check with errors.Is().
var ErrNoItemAvailable = errors.New("no pending item available in queue")

// queueSelectColumns lists columns for SELECT queries on crawl_queue_items.
const queueSelectColumns = `id, url, seed_id, seed_url, depth, status,
	discovered_at, last_attempt_at, attempts, last_error`

// QueueRepository handles database operations for the crawl frontier.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// EnqueueParams contains the parameters for enqueueing a URL.
type EnqueueParams struct {
	URL     string
	SeedID  *string
	SeedURL string
	Depth   int
}

// EnqueueIfAbsent inserts a pending queue item unless the URL is already
// queued in any state. Reports whether a new row was created.
func (r *QueueRepository) EnqueueIfAbsent(ctx context.Context, params EnqueueParams) (bool, error) {
	query := `
		INSERT INTO crawl_queue_items (id, url, seed_id, seed_url, depth, status, discovered_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', NOW())
		ON CONFLICT (url) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx, query,
		uuid.NewString(), params.URL, params.SeedID, params.SeedURL, params.Depth,
	)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue URL: %w", err)
	}

	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return false, affectedErr
	}

	return n > 0, nil
}

// ClaimNextForSeed atomically claims the oldest pending item belonging to the
// given seed: items referencing the seed row, or orphaned items retaining its
// seed URL. Returns ErrNoItemAvailable when the seed has nothing pending.
func (r *QueueRepository) ClaimNextForSeed(ctx context.Context, seed *domain.CrawlSeed) (*domain.CrawlQueueItem, error) {
	query := `
		SELECT ` + queueSelectColumns + `
		FROM crawl_queue_items
		WHERE status = 'pending'
		  AND (seed_id = $1 OR (seed_id IS NULL AND seed_url = $2))
		ORDER BY discovered_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	return r.claimOne(ctx, query, seed.ID, seed.URL)
}

// ClaimNextAny atomically claims the oldest pending item regardless of seed,
// excluding the given item IDs. Returns ErrNoItemAvailable when drained.
func (r *QueueRepository) ClaimNextAny(ctx context.Context, excludeIDs []string) (*domain.CrawlQueueItem, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}

	query := `
		SELECT ` + queueSelectColumns + `
		FROM crawl_queue_items
		WHERE status = 'pending'
		  AND id <> ALL($1)
		ORDER BY discovered_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	return r.claimOne(ctx, query, pq.Array(excludeIDs))
}

// claimOne runs a single-item claim inside a transaction: select with a row
// lock, flip to in_progress, bump attempts, commit. Skip-locked semantics
// guarantee no two concurrent claimers observe the same row as claimable.
func (r *QueueRepository) claimOne(ctx context.Context, query string, args ...any) (*domain.CrawlQueueItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var item domain.CrawlQueueItem
	if selectErr := tx.GetContext(ctx, &item, query, args...); selectErr != nil {
		if errors.Is(selectErr, sql.ErrNoRows) {
			return nil, ErrNoItemAvailable
		}
		return nil, fmt.Errorf("failed to select claimable item: %w", selectErr)
	}

	now := time.Now().UTC()
	updateQuery := `
		UPDATE crawl_queue_items
		SET status = 'in_progress', attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2
	`
	if _, updateErr := tx.ExecContext(ctx, updateQuery, now, item.ID); updateErr != nil {
		return nil, fmt.Errorf("failed to update claimed item status: %w", updateErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, fmt.Errorf("failed to commit claim transaction: %w", commitErr)
	}

	item.Status = domain.QueueStatusInProgress
	item.Attempts++
	item.LastAttemptAt = &now
	return &item, nil
}

// MarkDone marks a queue item as done and clears its error.
func (r *QueueRepository) MarkDone(ctx context.Context, id string) error {
	query := `UPDATE crawl_queue_items SET status = 'done', last_error = '' WHERE id = $1`

	result, execErr := r.db.ExecContext(ctx, query, id)
	return execRequireRows(result, execErr, fmt.Errorf("queue item not found: %s", id))
}

// MarkFailed marks a queue item as failed with the given reason.
func (r *QueueRepository) MarkFailed(ctx context.Context, id, lastError string) error {
	query := `UPDATE crawl_queue_items SET status = 'failed', last_error = $1 WHERE id = $2`

	result, execErr := r.db.ExecContext(ctx, query, lastError, id)
	return execRequireRows(result, execErr, fmt.Errorf("queue item not found: %s", id))
}

// HasPending reports whether any queue item is pending.
func (r *QueueRepository) HasPending(ctx context.Context) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM crawl_queue_items WHERE status = 'pending')`

	if err := r.db.GetContext(ctx, &exists, query); err != nil {
		return false, fmt.Errorf("failed to check pending items: %w", err)
	}

	return exists, nil
}

// CountsByStatus returns queue item totals grouped by status.
func (r *QueueRepository) CountsByStatus(ctx context.Context) (*domain.QueueCounts, error) {
	query := `SELECT status, COUNT(*) FROM crawl_queue_items GROUP BY status`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue counts: %w", err)
	}
	defer rows.Close()

	counts := &domain.QueueCounts{}
	for rows.Next() {
		var status string
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan queue count row: %w", scanErr)
		}
		assignQueueCount(counts, status, count)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate queue counts: %w", rowsErr)
	}

	return counts, nil
}

// assignQueueCount assigns a count to the appropriate QueueCounts field by status.
func assignQueueCount(counts *domain.QueueCounts, status string, count int) {
	switch status {
	case domain.QueueStatusPending:
		counts.Pending = count
	case domain.QueueStatusInProgress:
		counts.InProgress = count
	case domain.QueueStatusDone:
		counts.Done = count
	case domain.QueueStatusFailed:
		counts.Failed = count
	}
}
