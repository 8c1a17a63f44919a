package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"transit-delay-api/logging"
	"transit-delay-api/services"
)

// respondError maps service errors onto statuses. Anything unrecognised is
// an internal failure and its detail stays in the log.
func respondError(c *gin.Context, err error) {
	status, kind, msg := http.StatusInternalServerError, "internal", "internal server error"

	switch {
	case errors.Is(err, services.ErrServiceUnavailable):
		status, kind, msg = http.StatusInternalServerError, "service_unavailable", err.Error()
	case errors.Is(err, services.ErrInvalidModel):
		status, kind, msg = http.StatusBadRequest, "invalid_model", err.Error()
	case errors.Is(err, services.ErrNotFound):
		status, kind, msg = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, services.ErrInvalidOutcome):
		status, kind, msg = http.StatusBadRequest, "validation", err.Error()
	case errors.Is(err, services.ErrNoRecords):
		status, kind, msg = http.StatusBadRequest, "no_records", err.Error()
	default:
		logging.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}

	c.JSON(status, gin.H{"error": msg, "type": kind})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "type": "validation"})
}
