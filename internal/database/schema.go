package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements bootstraps the crawler tables. Formal migration tooling
// is handled by the deployment layer; this keeps a fresh database usable.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS crawler_configs (
		id UUID PRIMARY KEY,
		llm_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		llm_provider TEXT NOT NULL DEFAULT 'openai',
		llm_model TEXT NOT NULL DEFAULT 'gpt-4o-mini',
		llm_base_url TEXT NOT NULL DEFAULT '',
		llm_api_key TEXT NOT NULL DEFAULT '',
		llm_temperature DOUBLE PRECISION NOT NULL DEFAULT 0.1,
		llm_max_output_tokens INTEGER NOT NULL DEFAULT 1400,
		max_context_chars INTEGER NOT NULL DEFAULT 12000,
		max_next_urls INTEGER NOT NULL DEFAULT 10,
		max_articles INTEGER NOT NULL DEFAULT 20,
		max_article_chars INTEGER NOT NULL DEFAULT 2000,
		max_pages_per_run INTEGER NOT NULL DEFAULT 50,
		max_depth INTEGER NOT NULL DEFAULT 3,
		request_delay_seconds DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		user_agent TEXT NOT NULL DEFAULT '',
		allow_external_domains BOOLEAN NOT NULL DEFAULT FALSE,
		prompt_template TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS crawl_seeds (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		config_id UUID REFERENCES crawler_configs(id) ON DELETE SET NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_fetched_at TIMESTAMPTZ,
		last_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS crawl_queue_items (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		seed_id UUID REFERENCES crawl_seeds(id) ON DELETE SET NULL,
		seed_url TEXT NOT NULL DEFAULT '',
		depth INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		discovered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_attempt_at TIMESTAMPTZ,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_status_discovered
		ON crawl_queue_items (status, discovered_at)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_seed_url_status
		ON crawl_queue_items (seed_url, status)`,
	`CREATE TABLE IF NOT EXISTS crawl_runs (
		id UUID PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'running',
		objective TEXT NOT NULL DEFAULT '',
		use_llm_filtering BOOLEAN NOT NULL DEFAULT TRUE,
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		ended_at TIMESTAMPTZ,
		pages_processed INTEGER NOT NULL DEFAULT 0,
		articles_created INTEGER NOT NULL DEFAULT 0,
		queued_urls INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles (published_at)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles (source)`,
}

// EnsureSchema creates the crawler tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
