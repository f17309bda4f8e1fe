// Package crawler implements the crawl engine: a single-worker scheduler
// that drains the persistent frontier in seed-balanced batches, extracts
// articles via LLM or heuristics, and feeds discovered URLs back into the
// queue.
package crawler

import (
	"context"
	"time"

	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
)

// SeedStore is the engine's view of the seed table.
type SeedStore interface {
	ListActive(ctx context.Context, configID string) ([]*domain.CrawlSeed, error)
	MarkFetched(ctx context.Context, id string, at time.Time) error
	Deactivate(ctx context.Context, id, lastError string, at time.Time) error
}

// QueueStore is the engine's view of the frontier.
type QueueStore interface {
	EnqueueIfAbsent(ctx context.Context, params database.EnqueueParams) (bool, error)
	ClaimNextForSeed(ctx context.Context, seed *domain.CrawlSeed) (*domain.CrawlQueueItem, error)
	ClaimNextAny(ctx context.Context, excludeIDs []string) (*domain.CrawlQueueItem, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, lastError string) error
	HasPending(ctx context.Context) (bool, error)
}

// RunStore is the engine's view of the run table.
type RunStore interface {
	Create(ctx context.Context, params database.CreateParams) (*domain.CrawlRun, error)
	SetRunning(ctx context.Context, id string) error
	SaveResult(ctx context.Context, run *domain.CrawlRun) error
}

// ArticleStore is the engine's view of article storage.
type ArticleStore interface {
	Upsert(ctx context.Context, params database.UpsertParams) (bool, error)
}

// Fetcher issues the outbound page requests.
type Fetcher interface {
	Get(ctx context.Context, url string) (int, []byte, error)
	Close()
}
