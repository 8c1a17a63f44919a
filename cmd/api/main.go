package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transit-delay-api/config"
	"transit-delay-api/database"
	"transit-delay-api/handlers"
	"transit-delay-api/logging"
	"transit-delay-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	db, err := database.Open(pool)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}
	if err := database.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}

	registry, err := services.LoadRegistry(services.LoadOptions{
		Dir:           cfg.Models.Dir,
		DefaultModel:  cfg.Models.DefaultModel,
		Remote:        cfg.Models.Remote,
		RemoteTimeout: cfg.Models.RemoteTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load models")
	}
	if registry.Len() == 0 {
		logging.Warn().Str("dir", cfg.Models.Dir).Msg("no models loaded, predictions will fail until restart")
	}

	// Redis is optional: without it the record cache and live feed are off.
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, continuing without cache")
	}
	defer cache.Close()

	store := services.NewPredictionStore(db, cfg.Database.Timeout)
	authService := services.NewAuthService(db, cfg.JWT)

	router := handlers.SetupRouter(handlers.Deps{
		Config:      cfg,
		Registry:    registry,
		Store:       store,
		Predictions: services.NewPredictionService(registry, services.NewRiskClassifier(nil), store, cache),
		Analytics:   services.NewAnalytics(registry, nil),
		Cache:       cache,
		Auth:        authService,
	})

	if cfg.MQTT.URL != "" {
		listener := services.NewOutcomeListener(cfg.MQTT, store, cache)
		if err := listener.Start(ctx); err != nil {
			logging.Error().Err(err).Msg("outcome listener not started")
		} else {
			defer listener.Stop()
		}
	}

	if cfg.Retention.Days > 0 {
		go services.RunRetention(ctx, store, cfg.Retention.Days, cfg.Retention.Interval)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", server.Addr).Strs("models", registry.Names()).Msg("transit delay api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
