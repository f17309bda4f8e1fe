package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondBadRequest sends a 400 with an error message.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// respondInternalError sends a 500 with an error message.
func respondInternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
