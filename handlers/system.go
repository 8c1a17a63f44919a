package handlers

import (
	"context"
	"net/http"
	"time"

	"transit-delay-api/services"

	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

var endpoints = []string{
	"GET /",
	"GET /health",
	"GET /models",
	"GET /metrics",
	"POST /predict",
	"GET /history",
	"GET /history/:id",
	"PUT /history/:id",
	"POST /history/export/csv",
	"DELETE /history/cleanup",
	"GET /comparison",
	"GET /comparison/:model_name",
	"GET /analytics/temporal",
	"GET /analytics/weather",
	"GET /analytics/events",
	"GET /analytics/transport",
	"GET /analytics/overview",
	"POST /auth/register",
	"POST /auth/login",
	"GET /ws/predictions",
}

type SystemHandler struct {
	registry *services.Registry
	store    *services.PredictionStore
}

func NewSystemHandler(registry *services.Registry, store *services.PredictionStore) *SystemHandler {
	return &SystemHandler{registry: registry, store: store}
}

func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Transit Delay Prediction API",
		"version":   version,
		"status":    "active",
		"endpoints": endpoints,
	})
}

// Health reports degraded rather than failing so probes can tell a missing
// model from a dead process.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.store.Ping(ctx); err != nil {
		dbStatus = "unreachable"
	}

	status := "healthy"
	if h.registry.Len() == 0 || dbStatus != "ok" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"model_loaded": h.registry.Len() > 0,
		"models":       h.registry.Names(),
		"database":     dbStatus,
		"timestamp":    time.Now().UTC(),
	})
}

func (h *SystemHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":          h.registry.Info(),
		"default":         h.registry.DefaultName(),
		"feature_columns": h.registry.Schema().Columns(),
	})
}
