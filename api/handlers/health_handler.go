package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	downloads DownloadService
	updates   UpdateService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(downloads DownloadService, updates UpdateService) *HealthHandler {
	return &HealthHandler{
		downloads: downloads,
		updates:   updates,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Download struct {
		Running bool `json:"running"`
	} `json:"download"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Download.Running = h.downloads.Running()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready. The service is ready once yt-dlp is installed.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.updates.CheckDependencies(c.Request.Context()).YTDLP {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "yt-dlp not installed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
