package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// ConfigHandler handles crawler configuration requests.
type ConfigHandler struct {
	repo *database.ConfigRepository
	log  logger.Interface
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(repo *database.ConfigRepository, log logger.Interface) *ConfigHandler {
	return &ConfigHandler{repo: repo, log: log}
}

// Get handles GET /api/v1/crawler/config
func (h *ConfigHandler) Get(c *gin.Context) {
	cfg, err := h.repo.Get(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to retrieve crawler config")
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// updateConfigRequest carries the partial-merge PUT body. Absent fields keep
// their current values.
type updateConfigRequest struct {
	LLMEnabled         *bool    `json:"llm_enabled"`
	LLMProvider        *string  `json:"llm_provider"`
	LLMModel           *string  `json:"llm_model"`
	LLMBaseURL         *string  `json:"llm_base_url"`
	LLMAPIKey          *string  `json:"llm_api_key"`
	LLMTemperature     *float64 `json:"llm_temperature"`
	LLMMaxOutputTokens *int     `json:"llm_max_output_tokens"`

	MaxContextChars *int `json:"max_context_chars"`
	MaxNextURLs     *int `json:"max_next_urls"`
	MaxArticles     *int `json:"max_articles"`
	MaxArticleChars *int `json:"max_article_chars"`
	MaxPagesPerRun  *int `json:"max_pages_per_run"`
	MaxDepth        *int `json:"max_depth"`

	RequestDelaySeconds  *float64 `json:"request_delay_seconds"`
	UserAgent            *string  `json:"user_agent"`
	AllowExternalDomains *bool    `json:"allow_external_domains"`

	PromptTemplate *string `json:"prompt_template"`
}

// Update handles PUT /api/v1/crawler/config
func (h *ConfigHandler) Update(c *gin.Context) {
	var req updateConfigRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondBadRequest(c, "Invalid request: "+bindErr.Error())
		return
	}

	cfg, err := h.repo.Get(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to retrieve crawler config")
		return
	}

	applyConfigUpdate(cfg, &req)

	if updateErr := h.repo.Update(c.Request.Context(), cfg); updateErr != nil {
		respondInternalError(c, "Failed to update crawler config")
		return
	}

	h.log.Info("crawler config updated", "config_id", cfg.ID)
	c.JSON(http.StatusOK, cfg)
}

// applyConfigUpdate merges the set fields of req into cfg.
func applyConfigUpdate(cfg *domain.CrawlerConfig, req *updateConfigRequest) {
	if req.LLMEnabled != nil {
		cfg.LLMEnabled = *req.LLMEnabled
	}
	if req.LLMProvider != nil {
		cfg.LLMProvider = *req.LLMProvider
	}
	if req.LLMModel != nil {
		cfg.LLMModel = *req.LLMModel
	}
	if req.LLMBaseURL != nil {
		cfg.LLMBaseURL = *req.LLMBaseURL
	}
	if req.LLMAPIKey != nil {
		cfg.LLMAPIKey = *req.LLMAPIKey
	}
	if req.LLMTemperature != nil {
		cfg.LLMTemperature = *req.LLMTemperature
	}
	if req.LLMMaxOutputTokens != nil {
		cfg.LLMMaxOutputTokens = *req.LLMMaxOutputTokens
	}
	if req.MaxContextChars != nil {
		cfg.MaxContextChars = *req.MaxContextChars
	}
	if req.MaxNextURLs != nil {
		cfg.MaxNextURLs = *req.MaxNextURLs
	}
	if req.MaxArticles != nil {
		cfg.MaxArticles = *req.MaxArticles
	}
	if req.MaxArticleChars != nil {
		cfg.MaxArticleChars = *req.MaxArticleChars
	}
	if req.MaxPagesPerRun != nil {
		cfg.MaxPagesPerRun = *req.MaxPagesPerRun
	}
	if req.MaxDepth != nil {
		cfg.MaxDepth = *req.MaxDepth
	}
	if req.RequestDelaySeconds != nil {
		cfg.RequestDelaySeconds = *req.RequestDelaySeconds
	}
	if req.UserAgent != nil {
		cfg.UserAgent = *req.UserAgent
	}
	if req.AllowExternalDomains != nil {
		cfg.AllowExternalDomains = *req.AllowExternalDomains
	}
	if req.PromptTemplate != nil {
		cfg.PromptTemplate = *req.PromptTemplate
	}
}
