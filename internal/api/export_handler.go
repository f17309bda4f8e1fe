package api

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// ExportHandler streams the article archive as CSV.
type ExportHandler struct {
	repo *database.ArticleRepository
	log  logger.Interface
}

// NewExportHandler creates a new export handler.
func NewExportHandler(repo *database.ArticleRepository, log logger.Interface) *ExportHandler {
	return &ExportHandler{repo: repo, log: log}
}

// CSV handles GET /api/v1/articles/export. The export is buffered so the
// row count can be reported in a header before the body.
func (h *ExportHandler) CSV(c *gin.Context) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	count, err := h.repo.ExportCSV(c.Request.Context(), writer)
	if err != nil {
		respondInternalError(c, "Failed to export articles")
		return
	}

	h.log.Info("articles exported", "rows", count)

	c.Header("Content-Disposition", `attachment; filename="articles.csv"`)
	c.Header("X-Exported-Rows", strconv.Itoa(count))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
