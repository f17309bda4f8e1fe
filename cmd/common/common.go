// Package common provides the shared bootstrap used by all CLI commands:
// configuration, logging, the database connection, and repository wiring.
package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/MrHbogart/NousNews-Backend/internal/config"
	"github.com/MrHbogart/NousNews-Backend/internal/crawler"
	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/fetcher"
	"github.com/MrHbogart/NousNews-Backend/internal/llm"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// App bundles everything a command needs after bootstrap.
type App struct {
	Config *config.Config
	Logger logger.Interface
	DB     *sqlx.DB

	Queue    *database.QueueRepository
	Seeds    *database.SeedRepository
	Runs     *database.RunRepository
	Articles *database.ArticleRepository
	Configs  *database.ConfigRepository
}

// Bootstrap loads configuration, builds the logger, connects to Postgres,
// and ensures the schema exists.
func Bootstrap(ctx context.Context, cfgFile string) (*App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Queue:    database.NewQueueRepository(db),
		Seeds:    database.NewSeedRepository(db),
		Runs:     database.NewRunRepository(db),
		Articles: database.NewArticleRepository(db),
		Configs:  database.NewConfigRepository(db),
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// EngineFactory returns a factory that builds a fresh engine per run,
// re-reading the crawler config so runs pick up live setting changes.
func (a *App) EngineFactory() crawler.EngineFactory {
	return func(ctx context.Context) (*crawler.Engine, error) {
		crawlCfg, err := a.Configs.Get(ctx)
		if err != nil {
			return nil, err
		}

		return crawler.NewEngine(crawler.EngineOptions{
			Config:    crawlCfg,
			Seeds:     a.Seeds,
			Queue:     a.Queue,
			Runs:      a.Runs,
			Articles:  a.Articles,
			Fetcher:   fetcher.NewClient(crawlCfg.UserAgent, a.Config.Crawler.FetchTimeout),
			Extractor: llm.NewClient(crawlCfg, a.Config.Crawler.LLMTimeout, a.Logger),
			Logger:    a.Logger,
		}), nil
	}
}

// Supervisor builds the singleton run supervisor backed by this app.
func (a *App) Supervisor() *crawler.Supervisor {
	return crawler.NewSupervisor(a.EngineFactory(), a.Runs, a.Queue, a.Logger)
}
