package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UpdateHandler handles tool version and install requests
type UpdateHandler struct {
	updates UpdateService
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(updates UpdateService) *UpdateHandler {
	return &UpdateHandler{updates: updates}
}

// UpdateRequest represents an optional yt-dlp update request body.
// The binary always comes from the release feed; URL is only decoded so a
// caller supplying one gets a clear rejection instead of a silent ignore.
type UpdateRequest struct {
	URL        string `json:"url"`
	SelfUpdate bool   `json:"self_update"`
}

// GetDependencies handles GET /api/v1/dependencies
func (h *UpdateHandler) GetDependencies(c *gin.Context) {
	c.JSON(http.StatusOK, h.updates.CheckDependencies(c.Request.Context()))
}

// GetYTDLPVersion handles GET /api/v1/ytdlp/version
func (h *UpdateHandler) GetYTDLPVersion(c *gin.Context) {
	comparison, err := h.updates.CheckYTDLPUpdate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// UpdateYTDLP handles POST /api/v1/ytdlp/update
func (h *UpdateHandler) UpdateYTDLP(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.URL != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "download URLs come from the release feed and cannot be set"})
		return
	}

	if req.SelfUpdate {
		if err := h.updates.SelfUpdateYTDLP(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": true})
		return
	}

	version, err := h.updates.UpdateYTDLP(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"updated": true,
		"version": version,
	})
}

// GetFFmpeg handles GET /api/v1/ffmpeg
func (h *UpdateHandler) GetFFmpeg(c *gin.Context) {
	c.JSON(http.StatusOK, h.updates.CheckFFmpeg(c.Request.Context()))
}

// InstallFFmpeg handles POST /api/v1/ffmpeg/install
func (h *UpdateHandler) InstallFFmpeg(c *gin.Context) {
	info, err := h.updates.InstallFFmpeg(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
