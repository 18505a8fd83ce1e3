package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IndexMessage is the liveness text served on GET /.
const IndexMessage = "Telegram Bot is running!"

// Index handles GET /
func Index(c *gin.Context) {
	c.String(http.StatusOK, IndexMessage)
}

// Health handles GET /health
func Health(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
