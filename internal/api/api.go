// Package api implements the HTTP control surface for the crawler: run
// control, configuration, seed management, and the article export.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrHbogart/NousNews-Backend/internal/crawler"
	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

const readHeaderTimeout = 10 * time.Second

// Handlers bundles the dependencies of the HTTP layer.
type Handlers struct {
	Supervisor *crawler.Supervisor
	Configs    *database.ConfigRepository
	Seeds      *database.SeedRepository
	Articles   *database.ArticleRepository
	Logger     logger.Interface
}

// SetupRouter creates the Gin router with all routes. Every route under
// /api/v1 requires the API token when one is configured; /health and
// /metrics are public.
func SetupRouter(h Handlers, apiToken string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(h.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	crawlHandler := NewCrawlHandler(h.Supervisor, h.Logger)
	configHandler := NewConfigHandler(h.Configs, h.Logger)
	seedsHandler := NewSeedsHandler(h.Seeds, h.Logger)
	exportHandler := NewExportHandler(h.Articles, h.Logger)

	v1 := router.Group("/api/v1")
	v1.Use(tokenAuthMiddleware(apiToken))
	{
		v1.GET("/crawler/status", crawlHandler.Status)
		v1.POST("/crawler/run", crawlHandler.Run)
		v1.GET("/crawler/config", configHandler.Get)
		v1.PUT("/crawler/config", configHandler.Update)
		v1.GET("/seeds", seedsHandler.List)
		v1.POST("/seeds", seedsHandler.Create)
		v1.GET("/articles/export", exportHandler.CSV)
	}

	return router
}

// NewServer wraps the router in an http.Server bound to addr.
func NewServer(addr string, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// tokenAuthMiddleware checks the request token against the configured one.
// An empty configured token disables auth entirely.
func tokenAuthMiddleware(apiToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiToken == "" {
			c.Next()
			return
		}

		if requestToken(c) != apiToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API token"})
			return
		}

		c.Next()
	}
}

// requestToken extracts the token from the Authorization bearer header or
// the X-Crawler-Token header.
func requestToken(c *gin.Context) string {
	authorization := c.GetHeader("Authorization")
	if token, found := strings.CutPrefix(authorization, "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(c.GetHeader("X-Crawler-Token"))
}

// loggingMiddleware logs each request with status and latency.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
