package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MrHbogart/NousNews-Backend/internal/database"
)

// seedColumns lists the columns returned by seed SELECT queries.
var seedColumns = []string{
	"id", "url", "config_id", "is_active", "last_fetched_at",
	"last_error", "created_at", "updated_at",
}

func newSeedRepo(t *testing.T) (*database.SeedRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewSeedRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestSeedRepository_ListActive(t *testing.T) {
	repo, mock, cleanup := newSeedRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM crawl_seeds").
		WithArgs("cfg-1").
		WillReturnRows(sqlmock.NewRows(seedColumns).
			AddRow("seed-1", "https://a.example/", "cfg-1", true, nil, "", now, now).
			AddRow("seed-2", "https://b.example/", nil, true, nil, "", now, now))

	seeds, err := repo.ListActive(context.Background(), "cfg-1")
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("ListActive() returned %d seeds, want 2", len(seeds))
	}
	if seeds[0].URL != "https://a.example/" {
		t.Errorf("first seed URL = %q, want https://a.example/", seeds[0].URL)
	}

	expectationsMet(t, mock)
}

func TestSeedRepository_ListActive_Empty(t *testing.T) {
	repo, mock, cleanup := newSeedRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM crawl_seeds").
		WithArgs("cfg-1").
		WillReturnRows(sqlmock.NewRows(seedColumns))

	seeds, err := repo.ListActive(context.Background(), "cfg-1")
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if seeds == nil {
		t.Error("ListActive() = nil, want empty slice")
	}

	expectationsMet(t, mock)
}

func TestSeedRepository_GetOrCreate_Inserted(t *testing.T) {
	repo, mock, cleanup := newSeedRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	columns := append(append([]string{}, seedColumns...), "inserted")
	mock.ExpectQuery("INSERT INTO crawl_seeds").
		WithArgs(sqlmock.AnyArg(), "https://a.example/", nil).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("seed-1", "https://a.example/", nil, true, nil, "", now, now, true))

	seed, created, err := repo.GetOrCreate(context.Background(), "https://a.example/", nil)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !created {
		t.Error("GetOrCreate() created = false, want true")
	}
	if seed.ID != "seed-1" {
		t.Errorf("seed ID = %q, want seed-1", seed.ID)
	}

	expectationsMet(t, mock)
}

func TestSeedRepository_Deactivate(t *testing.T) {
	repo, mock, cleanup := newSeedRepo(t)
	defer cleanup()

	at := time.Now().UTC()
	mock.ExpectExec("UPDATE crawl_seeds").
		WithArgs(at, "http_500", "seed-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Deactivate(context.Background(), "seed-1", "http_500", at); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestSeedRepository_DeactivateAllExcept(t *testing.T) {
	repo, mock, cleanup := newSeedRepo(t)
	defer cleanup()

	keep := []string{"https://a.example/", "https://b.example/"}
	mock.ExpectExec("UPDATE crawl_seeds").
		WithArgs(pq.Array(keep)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeactivateAllExcept(context.Background(), keep)
	if err != nil {
		t.Fatalf("DeactivateAllExcept() error = %v", err)
	}
	if n != 3 {
		t.Errorf("DeactivateAllExcept() = %d, want 3", n)
	}

	expectationsMet(t, mock)
}
