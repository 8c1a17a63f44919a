package handlers

import (
	"slices"

	"transit-delay-api/config"
	"transit-delay-api/middleware"
	"transit-delay-api/models"
	"transit-delay-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Config      *config.Config
	Registry    *services.Registry
	Store       *services.PredictionStore
	Predictions *services.PredictionService
	Analytics   *services.Analytics
	Cache       *services.CacheService
	Auth        *services.AuthService
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.SetupCORS(d.Config.CORS))

	system := NewSystemHandler(d.Registry, d.Store)
	r.GET("/", system.Root)
	r.GET("/health", system.Health)
	r.GET("/models", system.Models)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := NewAuthHandler(d.Auth)
	r.POST("/auth/register", auth.Register)
	r.POST("/auth/login", auth.Login)

	pred := NewPredictionHandler(d.Predictions)
	r.POST("/predict", middleware.RateLimit(d.Config.RateLimit.RPS, d.Config.RateLimit.Burst), pred.Predict)

	// Mutating history endpoints are operator-only when auth is enforced.
	var guard []gin.HandlerFunc
	if d.Config.JWT.Required {
		guard = []gin.HandlerFunc{middleware.RequireAuth(d.Auth), middleware.RequireRole(models.RoleOperator)}
	}
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clone(guard), h)
	}

	hist := NewHistoryHandler(d.Store, d.Cache, d.Config.Export.Dir)
	history := r.Group("/history")
	{
		history.GET("", hist.List)
		history.POST("/export/csv", guarded(hist.Export)...)
		history.DELETE("/cleanup", guarded(hist.Cleanup)...)
		history.GET("/:id", hist.Get)
		history.PUT("/:id", guarded(hist.UpdateOutcome)...)
	}

	cmp := NewComparisonHandler(d.Store, d.Registry)
	r.GET("/comparison", cmp.All)
	r.GET("/comparison/:model_name", cmp.ByModel)

	an := NewAnalyticsHandler(d.Analytics)
	analytics := r.Group("/analytics")
	{
		analytics.GET("/temporal", an.Temporal)
		analytics.GET("/weather", an.Weather)
		analytics.GET("/events", an.Events)
		analytics.GET("/transport", an.Transport)
		analytics.GET("/overview", an.Overview)
	}

	r.GET("/ws/predictions", PredictionFeed(d.Cache, d.Auth, d.Config.JWT.Required))

	return r
}
