package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// SeedsHandler handles crawl seed requests.
type SeedsHandler struct {
	repo *database.SeedRepository
	log  logger.Interface
}

// NewSeedsHandler creates a new seeds handler.
func NewSeedsHandler(repo *database.SeedRepository, log logger.Interface) *SeedsHandler {
	return &SeedsHandler{repo: repo, log: log}
}

// List handles GET /api/v1/seeds
func (h *SeedsHandler) List(c *gin.Context) {
	seeds, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to list seeds")
		return
	}

	c.JSON(http.StatusOK, gin.H{"seeds": seeds, "total": len(seeds)})
}

// createSeedRequest represents the JSON body for POST /api/v1/seeds.
type createSeedRequest struct {
	URL      string  `binding:"required" json:"url"`
	ConfigID *string `json:"config_id"`
}

// Create handles POST /api/v1/seeds
func (h *SeedsHandler) Create(c *gin.Context) {
	var req createSeedRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondBadRequest(c, "Invalid request: "+bindErr.Error())
		return
	}

	parsed, parseErr := url.Parse(req.URL)
	if parseErr != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		respondBadRequest(c, "Seed URL must be absolute http(s)")
		return
	}

	seed, createErr := h.repo.Create(c.Request.Context(), req.URL, req.ConfigID)
	if createErr != nil {
		var pqErr *pq.Error
		if errors.As(createErr, &pqErr) && string(pqErr.Code) == uniqueViolation {
			c.JSON(http.StatusConflict, gin.H{"error": "Seed URL already exists"})
			return
		}
		respondInternalError(c, "Failed to create seed")
		return
	}

	h.log.Info("seed created", "url", seed.URL)
	c.JSON(http.StatusCreated, seed)
}
