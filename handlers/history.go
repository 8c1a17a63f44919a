package handlers

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"transit-delay-api/logging"
	"transit-delay-api/models"
	"transit-delay-api/services"

	"github.com/gin-gonic/gin"
)

const defaultCleanupDays = 30

type HistoryHandler struct {
	store     *services.PredictionStore
	cache     *services.CacheService
	exportDir string
}

func NewHistoryHandler(store *services.PredictionStore, cache *services.CacheService, exportDir string) *HistoryHandler {
	return &HistoryHandler{store: store, cache: cache, exportDir: exportDir}
}

type HistoryResponse struct {
	Total       int64                     `json:"total"`
	Limit       int                       `json:"limit"`
	Offset      int                       `json:"offset"`
	Predictions []models.PredictionRecord `json:"predictions"`
}

func (h *HistoryHandler) List(c *gin.Context) {
	p := ParsePagination(c)
	filter := models.HistoryFilter{
		Model:         c.Query("model_filter"),
		TransportType: c.Query("transport_filter"),
		Day:           c.Query("day_filter"),
	}

	records, total, err := h.store.List(c.Request.Context(), p.Limit, p.Offset, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{Total: total, Limit: p.Limit, Offset: p.Offset, Predictions: records})
}

func (h *HistoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if rec, hit := h.cache.GetRecord(ctx, id); hit {
		c.JSON(http.StatusOK, rec)
		return
	}

	rec, err := h.store.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cache.SetRecord(ctx, rec)
	c.JSON(http.StatusOK, rec)
}

// UpdateOutcome records ground truth. actual_risk is derived from the delay
// when omitted.
func (h *HistoryHandler) UpdateOutcome(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	delay, err := strconv.ParseFloat(c.Query("actual_delay"), 64)
	if err != nil {
		badRequest(c, "actual_delay must be a number")
		return
	}
	if math.IsNaN(delay) || math.IsInf(delay, 0) {
		badRequest(c, "actual_delay must be a finite number")
		return
	}
	risk := c.Query("actual_risk")
	if risk == "" {
		risk = string(services.RiskLevelFor(delay))
	}

	rec, err := h.store.RecordActualOutcome(c.Request.Context(), id, delay, risk)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cache.InvalidateRecord(c.Request.Context(), id)

	c.JSON(http.StatusOK, gin.H{
		"message":    "prediction updated",
		"prediction": rec,
	})
}

func (h *HistoryHandler) Export(c *gin.Context) {
	if err := os.MkdirAll(h.exportDir, 0o755); err != nil {
		respondError(c, fmt.Errorf("create export dir: %w", err))
		return
	}
	filename := fmt.Sprintf("predictions_export_%d.csv", time.Now().Unix())
	path := filepath.Join(h.exportDir, filename)

	count, err := h.store.ExportAll(c.Request.Context(), path)
	if err != nil {
		respondError(c, err)
		return
	}
	logging.Info().Str("file", path).Int("count", count).Msg("history exported")

	c.JSON(http.StatusOK, gin.H{
		"message":  "export complete",
		"filename": filename,
		"count":    count,
	})
}

func (h *HistoryHandler) Cleanup(c *gin.Context) {
	days := defaultCleanupDays
	if raw := c.Query("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			badRequest(c, "days must be a non-negative integer")
			return
		}
		days = d
	}

	deleted, err := h.store.PruneOlderThan(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted, "days": days})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
