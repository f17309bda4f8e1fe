package database_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
)

// queueColumns lists the columns returned by queue SELECT queries.
var queueColumns = []string{
	"id", "url", "seed_id", "seed_url", "depth", "status",
	"discovered_at", "last_attempt_at", "attempts", "last_error",
}

// anyTime matches any time.Time argument.
type anyTime struct{}

func (anyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}

func newQueueRepo(t *testing.T) (*database.QueueRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewQueueRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestQueueRepository_EnqueueIfAbsent_New(t *testing.T) {
	repo, mock, cleanup := newQueueRepo(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO crawl_queue_items").
		WithArgs(sqlmock.AnyArg(), "https://example.com/a", nil, "https://example.com/", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.EnqueueIfAbsent(context.Background(), database.EnqueueParams{
		URL:     "https://example.com/a",
		SeedURL: "https://example.com/",
		Depth:   1,
	})
	if err != nil {
		t.Fatalf("EnqueueIfAbsent() error = %v", err)
	}
	if !created {
		t.Error("EnqueueIfAbsent() created = false, want true")
	}

	expectationsMet(t, mock)
}

func TestQueueRepository_EnqueueIfAbsent_Duplicate(t *testing.T) {
	repo, mock, cleanup := newQueueRepo(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO crawl_queue_items").
		WithArgs(sqlmock.AnyArg(), "https://example.com/a", nil, "https://example.com/", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.EnqueueIfAbsent(context.Background(), database.EnqueueParams{
		URL:     "https://example.com/a",
		SeedURL: "https://example.com/",
		Depth:   1,
	})
	if err != nil {
		t.Fatalf("EnqueueIfAbsent() error = %v", err)
	}
	if created {
		t.Error("EnqueueIfAbsent() created = true, want false for duplicate URL")
	}

	expectationsMet(t, mock)
}

func TestQueueRepository_ClaimNextForSeed(t *testing.T) {
	repo, mock, cleanup := newQueueRepo(t)
	defer cleanup()

	seedID := "seed-1"
	discoveredAt := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM crawl_queue_items").
		WithArgs(seedID, "https://example.com/").
		WillReturnRows(sqlmock.NewRows(queueColumns).AddRow(
			"item-1", "https://example.com/", seedID, "https://example.com/", 0,
			"pending", discoveredAt, nil, 0, "",
		))
	mock.ExpectExec("UPDATE crawl_queue_items").
		WithArgs(anyTime{}, "item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	seed := &domain.CrawlSeed{ID: seedID, URL: "https://example.com/"}
	item, err := repo.ClaimNextForSeed(context.Background(), seed)
	if err != nil {
		t.Fatalf("ClaimNextForSeed() error = %v", err)
	}

	if item.Status != domain.QueueStatusInProgress {
		t.Errorf("claimed item status = %q, want %q", item.Status, domain.QueueStatusInProgress)
	}
	if item.Attempts != 1 {
		t.Errorf("claimed item attempts = %d, want 1", item.Attempts)
	}
	if item.LastAttemptAt == nil {
		t.Error("claimed item LastAttemptAt = nil, want set")
	}

	expectationsMet(t, mock)
}

func TestQueueRepository_ClaimNextForSeed_Empty(t *testing.T) {
	repo, mock, cleanup := newQueueRepo(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM crawl_queue_items").
		WithArgs("seed-1", "https://example.com/").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	seed := &domain.CrawlSeed{ID: "seed-1", URL: "https://example.com/"}
	_, err := repo.ClaimNextForSeed(context.Background(), seed)
	if !errors.Is(err, database.ErrNoItemAvailable) {
		t.Fatalf("ClaimNextForSeed() error = %v, want ErrNoItemAvailable", err)
	}

	expectationsMet(t, mock)
}

func TestQueueRepository_ClaimNextAny_ExcludesClaimed(t *testing.T) {
	repo, mock, cleanup := newQueueRepo(t)
	defer cleanup()

	discoveredAt := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM crawl_queue_items").
		WithArgs(pq.Array([]string{"item-1"})).
		WillReturnRows(sqlmock.NewRows(queueColumns).AddRow(
			"item-2", "https://other.com/x", nil, "https://other.com/", 2,
			"pending", discoveredAt, nil, 1, "boom",
		))
	mock.ExpectExec("UPDATE crawl_queue_items").
		WithArgs(anyTime{}, "item-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item, err := repo.ClaimNextAny(context.Background(), []string{"item-1"})
	if err != nil {
		t.Fatalf("ClaimNextAny() error = %v", err)
	}
	if item.ID != "item-2" {
		t.Errorf("claimed item ID = %q, want item-2", item.ID)
	}
	if item.Attempts != 2 {
		t.Errorf("claimed item attempts = %d, want 2", item.Attempts)
	}

	expectationsMet(t, mock)
}

func TestQueueRepository_MarkDone(t *testing.T) {
	repo, mock, cleanup := newQueueRepo(t)
	defer cleanup()

	mock.ExpectExec("UPDATE crawl_queue_items").
		WithArgs("item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkDone(context.Background(), "item-1"); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestQueueRepository_MarkFailed_NotFound(t *testing.T) {
	repo, mock, cleanup := newQueueRepo(t)
	defer cleanup()

	mock.ExpectExec("UPDATE crawl_queue_items").
		WithArgs("nope", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkFailed(context.Background(), "missing", "nope"); err == nil {
		t.Fatal("MarkFailed() error = nil, want not-found error")
	}

	expectationsMet(t, mock)
}

func TestQueueRepository_CountsByStatus(t *testing.T) {
	repo, mock, cleanup := newQueueRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("in_progress", 1).
			AddRow("done", 7).
			AddRow("failed", 2))

	counts, err := repo.CountsByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountsByStatus() error = %v", err)
	}

	want := domain.QueueCounts{Pending: 3, InProgress: 1, Done: 7, Failed: 2}
	if *counts != want {
		t.Errorf("CountsByStatus() = %+v, want %+v", *counts, want)
	}

	expectationsMet(t, mock)
}
