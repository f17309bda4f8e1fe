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

// configSelectColumns lists columns for SELECT queries on crawler_configs.
const configSelectColumns = `id, llm_enabled, llm_provider, llm_model, llm_base_url,
	llm_api_key, llm_temperature, llm_max_output_tokens, max_context_chars,
	max_next_urls, max_articles, max_article_chars, max_pages_per_run, max_depth,
	request_delay_seconds, user_agent, allow_external_domains, prompt_template,
	created_at, updated_at`

// ConfigRepository handles database operations for the singleton crawler config.
type ConfigRepository struct {
	db *sqlx.DB
}

// NewConfigRepository creates a new config repository.
func NewConfigRepository(db *sqlx.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Get returns the crawler config, creating the defaults row on first access.
func (r *ConfigRepository) Get(ctx context.Context) (*domain.CrawlerConfig, error) {
	query := `SELECT ` + configSelectColumns + ` FROM crawler_configs ORDER BY created_at ASC LIMIT 1`

	var cfg domain.CrawlerConfig
	err := r.db.GetContext(ctx, &cfg, query)
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get crawler config: %w", err)
	}

	return r.create(ctx)
}

// create inserts the defaults row.
func (r *ConfigRepository) create(ctx context.Context) (*domain.CrawlerConfig, error) {
	defaults := domain.NewCrawlerConfig()

	query := `
		INSERT INTO crawler_configs (
			id, llm_enabled, llm_provider, llm_model, llm_base_url, llm_api_key,
			llm_temperature, llm_max_output_tokens, max_context_chars, max_next_urls,
			max_articles, max_article_chars, max_pages_per_run, max_depth,
			request_delay_seconds, user_agent, allow_external_domains, prompt_template
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + configSelectColumns

	var cfg domain.CrawlerConfig
	err := r.db.GetContext(
		ctx, &cfg, query,
		uuid.NewString(), defaults.LLMEnabled, defaults.LLMProvider, defaults.LLMModel,
		defaults.LLMBaseURL, defaults.LLMAPIKey, defaults.LLMTemperature,
		defaults.LLMMaxOutputTokens, defaults.MaxContextChars, defaults.MaxNextURLs,
		defaults.MaxArticles, defaults.MaxArticleChars, defaults.MaxPagesPerRun,
		defaults.MaxDepth, defaults.RequestDelaySeconds, defaults.UserAgent,
		defaults.AllowExternalDomains, defaults.PromptTemplate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawler config: %w", err)
	}

	return &cfg, nil
}

// Update writes the full config row. Partial merges happen in the handler
// layer, which loads the current row, overlays the request, and saves.
func (r *ConfigRepository) Update(ctx context.Context, cfg *domain.CrawlerConfig) error {
	query := `
		UPDATE crawler_configs
		SET llm_enabled = $1,
			llm_provider = $2,
			llm_model = $3,
			llm_base_url = $4,
			llm_api_key = $5,
			llm_temperature = $6,
			llm_max_output_tokens = $7,
			max_context_chars = $8,
			max_next_urls = $9,
			max_articles = $10,
			max_article_chars = $11,
			max_pages_per_run = $12,
			max_depth = $13,
			request_delay_seconds = $14,
			user_agent = $15,
			allow_external_domains = $16,
			prompt_template = $17,
			updated_at = NOW()
		WHERE id = $18
	`

	result, execErr := r.db.ExecContext(
		ctx, query,
		cfg.LLMEnabled, cfg.LLMProvider, cfg.LLMModel, cfg.LLMBaseURL, cfg.LLMAPIKey,
		cfg.LLMTemperature, cfg.LLMMaxOutputTokens, cfg.MaxContextChars, cfg.MaxNextURLs,
		cfg.MaxArticles, cfg.MaxArticleChars, cfg.MaxPagesPerRun, cfg.MaxDepth,
		cfg.RequestDelaySeconds, cfg.UserAgent, cfg.AllowExternalDomains,
		cfg.PromptTemplate, cfg.ID,
	)
	return execRequireRows(result, execErr, fmt.Errorf("crawler config not found: %s", cfg.ID))
}
