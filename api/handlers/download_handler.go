package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/soundclip-go/internal/domain"
)

// DownloadHandler handles download and job history requests
type DownloadHandler struct {
	downloads DownloadService
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(downloads DownloadService) *DownloadHandler {
	return &DownloadHandler{downloads: downloads}
}

// DownloadRequest represents a download request body
type DownloadRequest struct {
	URL         string `json:"url" binding:"required"`
	AudioFormat string `json:"audio_format"`
	Playlist    bool   `json:"playlist"`
	SavePath    string `json:"save_path"`
}

// StartDownload handles POST /api/v1/download
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.downloads.Start(domain.DownloadRequest{
		URL:         req.URL,
		AudioFormat: req.AudioFormat,
		Playlist:    req.Playlist,
		SavePath:    req.SavePath,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// CancelDownload handles POST /api/v1/download/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	cancelled := h.downloads.Cancel()
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

// GetStatus handles GET /api/v1/download/status
func (h *DownloadHandler) GetStatus(c *gin.Context) {
	job, err := h.downloads.Status()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"running": h.downloads.Running(),
		"job":     job,
	})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *DownloadHandler) GetJob(c *gin.Context) {
	job, err := h.downloads.GetJob(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobs handles GET /api/v1/jobs
func (h *DownloadHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	status := domain.JobStatus(c.Query("status"))

	jobs, err := h.downloads.ListJobs(status, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

// GetStats handles GET /api/v1/jobs/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.downloads.GetStats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
