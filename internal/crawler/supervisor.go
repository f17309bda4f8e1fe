package crawler

import (
	"context"
	"sync"

	"github.com/MrHbogart/NousNews-Backend/internal/content"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
	"github.com/MrHbogart/NousNews-Backend/internal/metrics"
)

// EngineFactory builds a fresh engine for one run. The factory re-reads the
// crawler config so each run sees the latest settings.
type EngineFactory func(ctx context.Context) (*Engine, error)

// RunReader is the supervisor's read-only view of runs.
type RunReader interface {
	GetByID(ctx context.Context, id string) (*domain.CrawlRun, error)
	Latest(ctx context.Context) (*domain.CrawlRun, error)
}

// QueueCounter reports frontier totals per status.
type QueueCounter interface {
	CountsByStatus(ctx context.Context) (*domain.QueueCounts, error)
}

// Supervisor enforces the single-run policy: at most one background worker
// executes the engine at a time.
type Supervisor struct {
	factory EngineFactory
	runs    RunReader
	queue   QueueCounter
	log     logger.Interface

	mu      sync.Mutex
	running bool
	lastErr string
	done    chan struct{}
}

// NewSupervisor creates a run supervisor.
func NewSupervisor(factory EngineFactory, runs RunReader, queue QueueCounter, log logger.Interface) *Supervisor {
	return &Supervisor{
		factory: factory,
		runs:    runs,
		queue:   queue,
		log:     log.WithComponent("supervisor"),
	}
}

// StartAsync spawns a background worker for the given run, or a fresh run
// when runID is empty. Reports false without starting anything when a worker
// is already alive.
func (s *Supervisor) StartAsync(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}

	s.running = true
	s.lastErr = ""
	s.done = make(chan struct{})
	metrics.RunsStarted.Inc()

	go s.work(runID, s.done)
	return true
}

// Running reports whether a worker is currently alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the current worker exits. No-op when idle.
func (s *Supervisor) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// work is the body of the background worker. Any failure lands in lastErr;
// the running flag always clears on exit.
func (s *Supervisor) work(runID string, done chan struct{}) {
	ctx := context.Background()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	engine, err := s.factory(ctx)
	if err != nil {
		s.setLastError(err.Error())
		s.log.Error("failed to construct engine", "error", err.Error())
		return
	}

	var existing *domain.CrawlRun
	if runID != "" {
		existing, err = s.runs.GetByID(ctx, runID)
		if err != nil {
			s.setLastError(err.Error())
			s.log.Error("failed to load run", "run_id", runID, "error", err.Error())
			return
		}
	}

	if _, runErr := engine.Run(ctx, existing); runErr != nil {
		s.setLastError(runErr.Error())
	}
}

// setLastError records a clipped failure message.
func (s *Supervisor) setLastError(message string) {
	s.mu.Lock()
	s.lastErr = content.Truncate(message, errClipChars)
	s.mu.Unlock()
}

// LiveStatus is the operator-facing snapshot served by the status endpoint.
type LiveStatus struct {
	Running   bool                `json:"running"`
	LastError string              `json:"last_error"`
	LastRun   *domain.CrawlRun    `json:"last_run,omitempty"`
	Queue     *domain.QueueCounts `json:"queue"`
}

// LiveStatus reports the running flag, the last worker error, the most
// recent run, and frontier totals.
func (s *Supervisor) LiveStatus(ctx context.Context) (*LiveStatus, error) {
	s.mu.Lock()
	status := &LiveStatus{Running: s.running, LastError: s.lastErr}
	s.mu.Unlock()

	lastRun, err := s.runs.Latest(ctx)
	if err != nil {
		return nil, err
	}
	status.LastRun = lastRun

	counts, err := s.queue.CountsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	status.Queue = counts

	return status, nil
}
