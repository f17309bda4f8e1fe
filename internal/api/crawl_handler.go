package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrHbogart/NousNews-Backend/internal/crawler"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// CrawlHandler handles run control and status requests.
type CrawlHandler struct {
	supervisor *crawler.Supervisor
	log        logger.Interface
}

// NewCrawlHandler creates a new crawl handler.
func NewCrawlHandler(supervisor *crawler.Supervisor, log logger.Interface) *CrawlHandler {
	return &CrawlHandler{supervisor: supervisor, log: log}
}

// Status handles GET /api/v1/crawler/status
func (h *CrawlHandler) Status(c *gin.Context) {
	status, err := h.supervisor.LiveStatus(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to retrieve crawler status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// Run handles POST /api/v1/crawler/run. Starting is idempotent: a second
// request while a run is active reports the conflict without side effects.
func (h *CrawlHandler) Run(c *gin.Context) {
	if !h.supervisor.StartAsync("") {
		c.JSON(http.StatusConflict, gin.H{"status": "already_running"})
		return
	}

	h.log.Info("crawl run started via API")
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}
