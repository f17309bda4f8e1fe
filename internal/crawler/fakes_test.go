package crawler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
	"github.com/MrHbogart/NousNews-Backend/internal/llm"
)

// fakeQueue is an in-memory frontier. The mutex stands in for the row
// locking the real repository gets from Postgres.
type fakeQueue struct {
	mu    sync.Mutex
	items []*domain.CrawlQueueItem
	clock int64
}

func (q *fakeQueue) EnqueueIfAbsent(_ context.Context, params database.EnqueueParams) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range q.items {
		if item.URL == params.URL {
			return false, nil
		}
	}

	q.clock++
	q.items = append(q.items, &domain.CrawlQueueItem{
		ID:           fmt.Sprintf("item-%d", len(q.items)+1),
		URL:          params.URL,
		SeedID:       params.SeedID,
		SeedURL:      params.SeedURL,
		Depth:        params.Depth,
		Status:       domain.QueueStatusPending,
		DiscoveredAt: time.Unix(q.clock, 0),
	})
	return true, nil
}

func (q *fakeQueue) ClaimNextForSeed(_ context.Context, seed *domain.CrawlSeed) (*domain.CrawlQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	match := func(item *domain.CrawlQueueItem) bool {
		if item.SeedID != nil {
			return *item.SeedID == seed.ID
		}
		return item.SeedURL == seed.URL
	}
	return q.claimLocked(match, nil)
}

func (q *fakeQueue) ClaimNextAny(_ context.Context, excludeIDs []string) (*domain.CrawlQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	return q.claimLocked(func(*domain.CrawlQueueItem) bool { return true }, excluded)
}

// claimLocked claims the oldest pending item passing match. Callers hold the
// mutex.
func (q *fakeQueue) claimLocked(match func(*domain.CrawlQueueItem) bool, excluded map[string]struct{}) (*domain.CrawlQueueItem, error) {
	var oldest *domain.CrawlQueueItem
	for _, item := range q.items {
		if item.Status != domain.QueueStatusPending || !match(item) {
			continue
		}
		if _, skip := excluded[item.ID]; skip {
			continue
		}
		if oldest == nil || item.DiscoveredAt.Before(oldest.DiscoveredAt) {
			oldest = item
		}
	}
	if oldest == nil {
		return nil, database.ErrNoItemAvailable
	}

	now := time.Now().UTC()
	oldest.Status = domain.QueueStatusInProgress
	oldest.Attempts++
	oldest.LastAttemptAt = &now

	claimed := *oldest
	return &claimed, nil
}

func (q *fakeQueue) MarkDone(_ context.Context, id string) error {
	return q.setStatus(id, domain.QueueStatusDone, "")
}

func (q *fakeQueue) MarkFailed(_ context.Context, id, lastError string) error {
	return q.setStatus(id, domain.QueueStatusFailed, lastError)
}

func (q *fakeQueue) setStatus(id, status, lastError string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range q.items {
		if item.ID == id {
			item.Status = status
			item.LastError = lastError
			return nil
		}
	}
	return fmt.Errorf("queue item not found: %s", id)
}

func (q *fakeQueue) HasPending(_ context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range q.items {
		if item.Status == domain.QueueStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (q *fakeQueue) CountsByStatus(_ context.Context) (*domain.QueueCounts, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := &domain.QueueCounts{}
	for _, item := range q.items {
		switch item.Status {
		case domain.QueueStatusPending:
			counts.Pending++
		case domain.QueueStatusInProgress:
			counts.InProgress++
		case domain.QueueStatusDone:
			counts.Done++
		case domain.QueueStatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

func (q *fakeQueue) byURL(url string) *domain.CrawlQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range q.items {
		if item.URL == url {
			return item
		}
	}
	return nil
}

// fakeSeeds is an in-memory seed table.
type fakeSeeds struct {
	mu    sync.Mutex
	seeds []*domain.CrawlSeed
}

func (s *fakeSeeds) ListActive(_ context.Context, configID string) ([]*domain.CrawlSeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*domain.CrawlSeed
	for _, seed := range s.seeds {
		if !seed.IsActive {
			continue
		}
		if seed.ConfigID != nil && *seed.ConfigID != configID {
			continue
		}
		copied := *seed
		active = append(active, &copied)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].URL < active[j].URL })
	return active, nil
}

func (s *fakeSeeds) MarkFetched(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(seed *domain.CrawlSeed) {
		seed.LastFetchedAt = &at
		seed.LastError = ""
	})
}

func (s *fakeSeeds) Deactivate(_ context.Context, id, lastError string, at time.Time) error {
	return s.update(id, func(seed *domain.CrawlSeed) {
		seed.LastFetchedAt = &at
		seed.LastError = lastError
		seed.IsActive = false
	})
}

func (s *fakeSeeds) update(id string, apply func(*domain.CrawlSeed)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seed := range s.seeds {
		if seed.ID == id {
			apply(seed)
			return nil
		}
	}
	return fmt.Errorf("seed not found: %s", id)
}

func (s *fakeSeeds) byID(id string) *domain.CrawlSeed {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seed := range s.seeds {
		if seed.ID == id {
			return seed
		}
	}
	return nil
}

// fakeRuns records run mutations.
type fakeRuns struct {
	mu      sync.Mutex
	created int
	saved   *domain.CrawlRun
}

func (r *fakeRuns) Create(_ context.Context, params database.CreateParams) (*domain.CrawlRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.created++
	return &domain.CrawlRun{
		ID:              fmt.Sprintf("run-%d", r.created),
		Status:          domain.RunStatusRunning,
		Objective:       params.Objective,
		UseLLMFiltering: params.UseLLMFiltering,
		StartedAt:       time.Now().UTC(),
	}, nil
}

func (r *fakeRuns) SetRunning(_ context.Context, _ string) error { return nil }

func (r *fakeRuns) SaveResult(_ context.Context, run *domain.CrawlRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *run
	r.saved = &copied
	return nil
}

// fakeArticles stores upserts by URL.
type fakeArticles struct {
	mu      sync.Mutex
	rows    map[string]database.UpsertParams
	upserts int
}

func (a *fakeArticles) Upsert(_ context.Context, params database.UpsertParams) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rows == nil {
		a.rows = make(map[string]database.UpsertParams)
	}
	_, exists := a.rows[params.URL]
	a.rows[params.URL] = params
	a.upserts++
	return !exists, nil
}

// fetchResponse is one canned fetch result.
type fetchResponse struct {
	body string
	err  error
}

// fakeFetcher serves canned responses by URL. Unknown URLs fail.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fetchResponse
	closed    bool
}

func (f *fakeFetcher) Get(_ context.Context, url string) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resp, known := f.responses[url]
	if !known {
		return 404, nil, fmt.Errorf("http_404")
	}
	if resp.err != nil {
		return 500, nil, resp.err
	}
	return 200, []byte(resp.body), nil
}

func (f *fakeFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// fakeExtractor returns a fixed result and records prompts.
type fakeExtractor struct {
	mu      sync.Mutex
	enabled bool
	result  *llm.Result
	prompts []string
}

func (e *fakeExtractor) Enabled() bool { return e.enabled }

func (e *fakeExtractor) Extract(_ context.Context, prompt string) *llm.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.prompts = append(e.prompts, prompt)
	return e.result
}
