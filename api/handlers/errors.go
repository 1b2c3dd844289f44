package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/soundclip-go/internal/domain"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrJobInProgress), errors.Is(err, domain.ErrUpdateInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPrerequisiteMissing), errors.Is(err, domain.ErrNotInstalled):
		return http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrNetwork),
		errors.Is(err, domain.ErrDecode),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrIncompleteArchive):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the user-facing message for err
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": domain.UserMessage(err)})
}
