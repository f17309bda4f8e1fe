package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MrHbogart/NousNews-Backend/internal/domain"
)

// ExportHeader is the column order of the CSV export.
var ExportHeader = []string{"published_at", "fetched_at", "source", "url", "title", "body", "language"}

// ArticleRepository handles database operations for stored articles.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// UpsertParams contains the fields written on an article upsert.
type UpsertParams struct {
	URL         string
	Source      string
	PublishedAt time.Time
	FetchedAt   time.Time
	Title       string
	Body        string
	Language    string
}

// Upsert inserts or overwrites the article with the given URL. Reports
// whether a new row was created; updates of existing rows report false.
func (r *ArticleRepository) Upsert(ctx context.Context, params UpsertParams) (bool, error) {
	// xmax = 0 only holds for freshly inserted rows, distinguishing
	// insert from conflict-update without a second round-trip.
	query := `
		INSERT INTO articles (id, url, source, published_at, fetched_at, title, body, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url) DO UPDATE SET
			source = EXCLUDED.source,
			published_at = EXCLUDED.published_at,
			fetched_at = EXCLUDED.fetched_at,
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			language = EXCLUDED.language,
			updated_at = NOW()
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.GetContext(
		ctx, &inserted, query,
		uuid.NewString(), params.URL, params.Source, params.PublishedAt,
		params.FetchedAt, params.Title, params.Body, params.Language,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert article: %w", err)
	}

	return inserted, nil
}

// GetByURL returns the article with the given URL.
func (r *ArticleRepository) GetByURL(ctx context.Context, url string) (*domain.Article, error) {
	query := `
		SELECT id, url, source, published_at, fetched_at, title, body, language, created_at, updated_at
		FROM articles
		WHERE url = $1
	`

	var article domain.Article
	if err := r.db.GetContext(ctx, &article, query, url); err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return &article, nil
}

// ExportCSV streams all articles ordered by publish time (newest first) to
// the writer, header included. Returns the number of data rows written.
func (r *ArticleRepository) ExportCSV(ctx context.Context, w *csv.Writer) (int, error) {
	query := `
		SELECT published_at, fetched_at, source, url, title, body, language
		FROM articles
		ORDER BY published_at DESC
	`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to query articles for export: %w", err)
	}
	defer rows.Close()

	if writeErr := w.Write(ExportHeader); writeErr != nil {
		return 0, fmt.Errorf("failed to write export header: %w", writeErr)
	}

	count := 0
	for rows.Next() {
		var publishedAt, fetchedAt time.Time
		var source, url, title, body, language string
		if scanErr := rows.Scan(&publishedAt, &fetchedAt, &source, &url, &title, &body, &language); scanErr != nil {
			return count, fmt.Errorf("failed to scan article row: %w", scanErr)
		}

		record := []string{
			publishedAt.UTC().Format(time.RFC3339),
			fetchedAt.UTC().Format(time.RFC3339),
			source, url, title, body, language,
		}
		if writeErr := w.Write(record); writeErr != nil {
			return count, fmt.Errorf("failed to write export row: %w", writeErr)
		}
		count++
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return count, fmt.Errorf("failed to iterate export rows: %w", rowsErr)
	}

	w.Flush()
	return count, w.Error()
}
