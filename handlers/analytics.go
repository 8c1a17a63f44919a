package handlers

import (
	"net/http"

	"transit-delay-api/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics *services.Analytics
}

func NewAnalyticsHandler(a *services.Analytics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: a}
}

func (h *AnalyticsHandler) Temporal(c *gin.Context) {
	data, err := h.analytics.Temporal(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"temporal_data": data})
}

func (h *AnalyticsHandler) Weather(c *gin.Context) {
	data, err := h.analytics.Weather(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weather_data": data})
}

func (h *AnalyticsHandler) Events(c *gin.Context) {
	data, err := h.analytics.Events(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event_data": data})
}

func (h *AnalyticsHandler) Transport(c *gin.Context) {
	data, err := h.analytics.Transport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transport_data": data})
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	data, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"overview_data": data})
}
