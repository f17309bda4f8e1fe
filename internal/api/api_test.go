package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrHbogart/NousNews-Backend/internal/api"
	"github.com/MrHbogart/NousNews-Backend/internal/crawler"
	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// stubRunReader serves a canned latest run to the supervisor.
type stubRunReader struct {
	latest *domain.CrawlRun
}

func (r *stubRunReader) GetByID(_ context.Context, _ string) (*domain.CrawlRun, error) {
	return nil, errors.New("crawl run not found")
}

func (r *stubRunReader) Latest(_ context.Context) (*domain.CrawlRun, error) {
	return r.latest, nil
}

// stubQueueCounter serves fixed frontier totals.
type stubQueueCounter struct {
	counts domain.QueueCounts
}

func (q *stubQueueCounter) CountsByStatus(_ context.Context) (*domain.QueueCounts, error) {
	counts := q.counts
	return &counts, nil
}

// testRouter builds the router over sqlmock-backed repositories and a
// supervisor whose engine factory fails fast (no test starts a real run
// unless it injects its own supervisor).
func testRouter(t *testing.T, apiToken string) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")

	factory := func(ctx context.Context) (*crawler.Engine, error) {
		return nil, errors.New("no engine in tests")
	}
	supervisor := crawler.NewSupervisor(factory, &stubRunReader{}, &stubQueueCounter{}, logger.NewNoOp())

	router := api.SetupRouter(api.Handlers{
		Supervisor: supervisor,
		Configs:    database.NewConfigRepository(db),
		Seeds:      database.NewSeedRepository(db),
		Articles:   database.NewArticleRepository(db),
		Logger:     logger.NewNoOp(),
	}, apiToken)

	return router, mock, func() { mockDB.Close() }
}

func TestRouter_Health(t *testing.T) {
	router, _, cleanup := testRouter(t, "secret")
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AuthRequired(t *testing.T) {
	router, _, cleanup := testRouter(t, "secret")
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/crawler/status", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AuthAcceptsBearerAndHeaderToken(t *testing.T) {
	router, _, cleanup := testRouter(t, "secret")
	defer cleanup()

	bearer := httptest.NewRequest(http.MethodGet, "/api/v1/crawler/status", nil)
	bearer.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, bearer)
	assert.Equal(t, http.StatusOK, w.Code)

	header := httptest.NewRequest(http.MethodGet, "/api/v1/crawler/status", nil)
	header.Header.Set("X-Crawler-Token", "secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, header)
	assert.Equal(t, http.StatusOK, w.Code)

	wrong := httptest.NewRequest(http.MethodGet, "/api/v1/crawler/status", nil)
	wrong.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, wrong)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_NoTokenDisablesAuth(t *testing.T) {
	router, _, cleanup := testRouter(t, "")
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/crawler/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCrawlHandler_Status(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	lastRun := &domain.CrawlRun{ID: "run-9", Status: domain.RunStatusDone, StartedAt: time.Now().UTC()}
	supervisor := crawler.NewSupervisor(
		func(ctx context.Context) (*crawler.Engine, error) { return nil, errors.New("unused") },
		&stubRunReader{latest: lastRun},
		&stubQueueCounter{counts: domain.QueueCounts{Pending: 2, Done: 5}},
		logger.NewNoOp(),
	)

	router := api.SetupRouter(api.Handlers{
		Supervisor: supervisor,
		Configs:    database.NewConfigRepository(db),
		Seeds:      database.NewSeedRepository(db),
		Articles:   database.NewArticleRepository(db),
		Logger:     logger.NewNoOp(),
	}, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/crawler/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status crawler.LiveStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Running)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "run-9", status.LastRun.ID)
	require.NotNil(t, status.Queue)
	assert.Equal(t, 2, status.Queue.Pending)
}

func TestCrawlHandler_RunConflict(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	release := make(chan struct{})
	supervisor := crawler.NewSupervisor(
		func(ctx context.Context) (*crawler.Engine, error) {
			<-release
			return nil, errors.New("released")
		},
		&stubRunReader{},
		&stubQueueCounter{},
		logger.NewNoOp(),
	)

	router := api.SetupRouter(api.Handlers{
		Supervisor: supervisor,
		Configs:    database.NewConfigRepository(db),
		Seeds:      database.NewSeedRepository(db),
		Articles:   database.NewArticleRepository(db),
		Logger:     logger.NewNoOp(),
	}, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/crawler/run", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status":"started"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/crawler/run", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"status":"already_running"}`, w.Body.String())

	close(release)
	supervisor.Wait()
}

// configColumns mirrors the crawler_configs SELECT column order.
var configColumns = []string{
	"id", "llm_enabled", "llm_provider", "llm_model", "llm_base_url",
	"llm_api_key", "llm_temperature", "llm_max_output_tokens", "max_context_chars",
	"max_next_urls", "max_articles", "max_article_chars", "max_pages_per_run", "max_depth",
	"request_delay_seconds", "user_agent", "allow_external_domains", "prompt_template",
	"created_at", "updated_at",
}

func defaultConfigRow() *sqlmock.Rows {
	defaults := domain.NewCrawlerConfig()
	now := time.Now().UTC()
	return sqlmock.NewRows(configColumns).AddRow(
		"cfg-1", defaults.LLMEnabled, defaults.LLMProvider, defaults.LLMModel,
		defaults.LLMBaseURL, defaults.LLMAPIKey, defaults.LLMTemperature,
		defaults.LLMMaxOutputTokens, defaults.MaxContextChars, defaults.MaxNextURLs,
		defaults.MaxArticles, defaults.MaxArticleChars, defaults.MaxPagesPerRun,
		defaults.MaxDepth, defaults.RequestDelaySeconds, defaults.UserAgent,
		defaults.AllowExternalDomains, defaults.PromptTemplate, now, now,
	)
}

func TestConfigHandler_Get(t *testing.T) {
	router, mock, cleanup := testRouter(t, "")
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM crawler_configs").WillReturnRows(defaultConfigRow())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/crawler/config", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var cfg domain.CrawlerConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, "cfg-1", cfg.ID)
	assert.Equal(t, domain.DefaultMaxArticles, cfg.MaxArticles)
}

func TestConfigHandler_Update_PartialMerge(t *testing.T) {
	router, mock, cleanup := testRouter(t, "")
	defer cleanup()

	defaults := domain.NewCrawlerConfig()

	mock.ExpectQuery("SELECT (.+) FROM crawler_configs").WillReturnRows(defaultConfigRow())
	mock.ExpectExec("UPDATE crawler_configs").
		WithArgs(
			defaults.LLMEnabled, defaults.LLMProvider, defaults.LLMModel,
			defaults.LLMBaseURL, defaults.LLMAPIKey, defaults.LLMTemperature,
			defaults.LLMMaxOutputTokens, defaults.MaxContextChars, defaults.MaxNextURLs,
			5, // the single field the request changes
			defaults.MaxArticleChars, defaults.MaxPagesPerRun, defaults.MaxDepth,
			defaults.RequestDelaySeconds, defaults.UserAgent,
			defaults.AllowExternalDomains, defaults.PromptTemplate, "cfg-1",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := strings.NewReader(`{"max_articles": 5}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/crawler/config", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg domain.CrawlerConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, 5, cfg.MaxArticles)
	assert.Equal(t, defaults.MaxDepth, cfg.MaxDepth, "unset fields keep their values")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedsHandler_Create_InvalidURL(t *testing.T) {
	router, _, cleanup := testRouter(t, "")
	defer cleanup()

	body := strings.NewReader(`{"url": "not-a-url"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/seeds", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSeedsHandler_List(t *testing.T) {
	router, mock, cleanup := testRouter(t, "")
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM crawl_seeds").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "url", "config_id", "is_active", "last_fetched_at",
			"last_error", "created_at", "updated_at",
		}).AddRow("seed-1", "https://example.com/", nil, true, nil, "", now, now))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/seeds", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Seeds []domain.CrawlSeed `json:"seeds"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Total)
	require.Len(t, payload.Seeds, 1)
	assert.Equal(t, "https://example.com/", payload.Seeds[0].URL)
}

func TestExportHandler_CSV(t *testing.T) {
	router, mock, cleanup := testRouter(t, "")
	defer cleanup()

	published := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM articles").
		WillReturnRows(sqlmock.NewRows(
			[]string{"published_at", "fetched_at", "source", "url", "title", "body", "language"},
		).AddRow(published, published, "example.com", "https://example.com/a", "Title", "Body", ""))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/articles/export", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "1", w.Header().Get("X-Exported-Rows"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(database.ExportHeader, ","), lines[0])
}
