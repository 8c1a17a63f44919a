package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_predictions_served_total",
		Help: "Total number of predictions returned, by model.",
	}, []string{"model"})
	predictionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_predictions_failed_total",
		Help: "Total number of failed prediction requests, by reason.",
	}, []string{"reason"})
	predictionsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transit_predictions_published_total",
		Help: "Total number of prediction events published to Redis.",
	})
	inferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transit_inference_duration_seconds",
		Help:    "Duration of a single model inference.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5},
	}, []string{"model"})
	outcomesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_outcomes_total",
		Help: "Ground-truth outcome messages, by result.",
	}, []string{"result"})
	recordsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transit_records_pruned_total",
		Help: "Total number of prediction records removed by retention.",
	})
	remoteBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transit_remote_model_breaker_state",
		Help: "Remote model circuit breaker state (0=closed, 1=half-open, 2=open).",
	}, []string{"model"})
)
