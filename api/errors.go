package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/gin-gonic/gin"
)

// handleError writes the JSON error response for err. Unknown errors are
// logged and reported as 500 without their text.
func handleError(c *gin.Context, log *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrTransportNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrBookingExpired),
		errors.Is(err, domain.ErrResourceInUse),
		errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
