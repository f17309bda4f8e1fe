package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/MrHbogart/NousNews-Backend/internal/content"
	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
	"github.com/MrHbogart/NousNews-Backend/internal/llm"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// errClipChars bounds error text stored on runs, queue items, and seeds.
const errClipChars = 2000

// Engine executes one crawl run to completion or fatal error. An engine is
// single-use: construct a fresh one per run.
type Engine struct {
	cfg       *domain.CrawlerConfig
	seeds     SeedStore
	queue     QueueStore
	runs      RunStore
	articles  ArticleStore
	fetch     Fetcher
	extractor llm.Extractor
	log       logger.Interface

	rng   *rand.Rand
	now   func() time.Time
	sleep func(time.Duration)
}

// EngineOptions wires an engine. Rand, Now, and Sleep default to the real
// thing; tests inject their own for determinism.
type EngineOptions struct {
	Config    *domain.CrawlerConfig
	Seeds     SeedStore
	Queue     QueueStore
	Runs      RunStore
	Articles  ArticleStore
	Fetcher   Fetcher
	Extractor llm.Extractor
	Logger    logger.Interface

	Rand  *rand.Rand
	Now   func() time.Time
	Sleep func(time.Duration)
}

// NewEngine creates a crawl engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOp()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // shuffle order, not security
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	return &Engine{
		cfg:       opts.Config,
		seeds:     opts.Seeds,
		queue:     opts.Queue,
		runs:      opts.Runs,
		articles:  opts.Articles,
		fetch:     opts.Fetcher,
		extractor: opts.Extractor,
		log:       opts.Logger.WithComponent("crawler"),
		rng:       opts.Rand,
		now:       opts.Now,
		sleep:     opts.Sleep,
	}
}

// Run executes a crawl run. A nil existing run creates a fresh one; a
// resumed run is flipped back to running first. The final state (counters,
// status, ended_at) is always persisted, and the fetch client is always
// closed, whether the run succeeds or fails.
func (e *Engine) Run(ctx context.Context, existing *domain.CrawlRun) (*domain.CrawlRun, error) {
	run := existing
	if run == nil {
		created, err := e.runs.Create(ctx, database.CreateParams{UseLLMFiltering: true})
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		run = created
	} else if run.Status != domain.RunStatusRunning {
		if err := e.runs.SetRunning(ctx, run.ID); err != nil {
			return run, err
		}
		run.Status = domain.RunStatusRunning
		run.LastError = ""
	}

	e.log.Info("starting crawl run", "run_id", run.ID, "objective", run.Objective)

	runErr := e.execute(ctx, run)

	endedAt := e.now().UTC()
	run.EndedAt = &endedAt
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.LastError = content.Truncate(runErr.Error(), errClipChars)
		e.log.Error("crawl run failed", "run_id", run.ID, "error", runErr.Error())
	} else {
		run.Status = domain.RunStatusDone
		run.LastError = ""
		e.log.Info("crawl run finished",
			"run_id", run.ID,
			"pages_processed", run.PagesProcessed,
			"articles_created", run.ArticlesCreated,
			"queued_urls", run.QueuedURLs)
	}

	if saveErr := e.runs.SaveResult(ctx, run); saveErr != nil {
		e.log.Error("failed to save run result", "run_id", run.ID, "error", saveErr.Error())
		if runErr == nil {
			runErr = saveErr
		}
	}

	e.fetch.Close()
	return run, runErr
}

// execute seeds the queue when empty, then loops steps until the frontier
// drains or the step budget is exhausted.
func (e *Engine) execute(ctx context.Context, run *domain.CrawlRun) error {
	if err := e.ensureSeedQueue(ctx); err != nil {
		return err
	}

	delay := time.Duration(e.cfg.RequestDelaySeconds * float64(time.Second))
	if delay < 0 {
		delay = 0
	}

	steps := 0
	for e.cfg.MaxPagesPerRun <= 0 || steps < e.cfg.MaxPagesPerRun {
		// Re-read each step: failed fetches deactivate seeds mid-run.
		seeds, err := e.seeds.ListActive(ctx, e.cfg.ID)
		if err != nil {
			return err
		}

		targetBatchSize := len(seeds)
		if targetBatchSize < 1 {
			targetBatchSize = 1
		}

		batch, claimErr := e.claimBatch(ctx, seeds, targetBatchSize)
		if claimErr != nil {
			return claimErr
		}
		if len(batch) == 0 {
			e.log.Info("frontier drained", "run_id", run.ID, "steps", steps)
			break
		}

		if stepErr := e.processBatch(ctx, run, batch); stepErr != nil {
			return stepErr
		}

		run.PagesProcessed += len(batch)
		steps++
		e.sleep(delay)
	}

	return nil
}

// ensureSeedQueue enqueues every active seed at depth 0 when the frontier
// has nothing pending.
func (e *Engine) ensureSeedQueue(ctx context.Context) error {
	pending, err := e.queue.HasPending(ctx)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}

	seeds, err := e.seeds.ListActive(ctx, e.cfg.ID)
	if err != nil {
		return err
	}

	for _, seed := range seeds {
		seedID := seed.ID
		created, enqueueErr := e.queue.EnqueueIfAbsent(ctx, database.EnqueueParams{
			URL:     seed.URL,
			SeedID:  &seedID,
			SeedURL: seed.URL,
			Depth:   0,
		})
		if enqueueErr != nil {
			return enqueueErr
		}
		if created {
			e.log.Debug("seeded queue", "url", seed.URL)
		}
	}

	return nil
}

// claimBatch claims up to targetSize pending items: first one per seed in
// seed order, then oldest-pending from any seed until the target is met or
// the frontier is drained.
func (e *Engine) claimBatch(ctx context.Context, seeds []*domain.CrawlSeed, targetSize int) ([]*domain.CrawlQueueItem, error) {
	var batch []*domain.CrawlQueueItem
	var claimedIDs []string

	for _, seed := range seeds {
		if len(batch) >= targetSize {
			break
		}
		item, err := e.queue.ClaimNextForSeed(ctx, seed)
		if errors.Is(err, database.ErrNoItemAvailable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, item)
		claimedIDs = append(claimedIDs, item.ID)
	}

	for len(batch) < targetSize {
		item, err := e.queue.ClaimNextAny(ctx, claimedIDs)
		if errors.Is(err, database.ErrNoItemAvailable) {
			break
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, item)
		claimedIDs = append(claimedIDs, item.ID)
	}

	return batch, nil
}
