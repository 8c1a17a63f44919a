package handlers

import (
	"net/http"
	"time"

	"transit-delay-api/models"
	"transit-delay-api/services"

	"github.com/gin-gonic/gin"
)

type ComparisonHandler struct {
	store    *services.PredictionStore
	registry *services.Registry
}

func NewComparisonHandler(store *services.PredictionStore, registry *services.Registry) *ComparisonHandler {
	return &ComparisonHandler{store: store, registry: registry}
}

func (h *ComparisonHandler) All(c *gin.Context) {
	ctx := c.Request.Context()

	cmp, err := h.store.Comparison(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.store.StatisticsByModel(ctx, "")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comparison": cmp,
		"statistics": stats,
		"timestamp":  time.Now().UTC(),
	})
}

// ByModel returns zeroed statistics for a loaded model that has never
// predicted.
func (h *ComparisonHandler) ByModel(c *gin.Context) {
	name := c.Param("model_name")
	if !h.registry.Has(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown model: " + name, "type": "invalid_model"})
		return
	}

	stats, err := h.store.StatisticsByModel(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	s, ok := stats[name]
	if !ok {
		s = models.ModelStatistics{ModelUsed: name}
	}
	c.JSON(http.StatusOK, s)
}
