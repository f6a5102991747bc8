package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

// respondError maps domain sentinel errors onto HTTP status codes.
// Unknown errors are masked as 500 to keep internals off the wire.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyTitle),
		errors.Is(err, entity.ErrEmptyContent),
		errors.Is(err, entity.ErrInvalidSpec),
		errors.Is(err, entity.ErrEmptyZone),
		errors.Is(err, entity.ErrEmptyRecipients),
		errors.Is(err, entity.ErrScheduleTimePast),
		errors.Is(err, entity.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrNotificationNotFound),
		errors.Is(err, entity.ErrMessageNotFound),
		errors.Is(err, entity.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
