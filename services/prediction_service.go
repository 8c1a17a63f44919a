package services

import (
	"context"
	"fmt"
	"time"

	"transit-delay-api/logging"
	"transit-delay-api/models"
)

// PredictionService runs one request through encode, infer, classify and
// persist.
type PredictionService struct {
	registry   *Registry
	classifier *RiskClassifier
	store      *PredictionStore
	events     *CacheService
}

func NewPredictionService(registry *Registry, classifier *RiskClassifier, store *PredictionStore, events *CacheService) *PredictionService {
	return &PredictionService{registry: registry, classifier: classifier, store: store, events: events}
}

// Predict fails with ErrServiceUnavailable when no model is loaded. A
// requested model that is not loaded silently falls back to the default.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	if s.registry.Len() == 0 {
		predictionsFailed.WithLabelValues("unavailable").Inc()
		return nil, ErrServiceUnavailable
	}
	name, model, err := s.registry.Resolve(req.ModelType)
	if err != nil {
		predictionsFailed.WithLabelValues("invalid_model").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidModel, req.ModelType)
	}
	if req.ModelType != "" && name != req.ModelType {
		logging.Debug().Str("requested", req.ModelType).Str("model", name).Msg("model fallback")
	}

	start := time.Now()
	raw, err := model.Predict(ctx, Encode(req, s.registry.Schema()))
	inferenceDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		predictionsFailed.WithLabelValues("inference").Inc()
		return nil, fmt.Errorf("inference with %s: %w", name, err)
	}

	delay := round(raw, 1)
	risk, probability := s.classifier.Classify(delay)

	rec := &models.PredictionRecord{
		TransportType:        req.TransportType,
		Line:                 req.Line,
		Hour:                 req.Hour,
		Day:                  req.Day,
		Weather:              req.Weather,
		Event:                req.Event,
		ModelUsed:            name,
		PredictedDelay:       delay,
		PredictedRisk:        string(risk),
		PredictedProbability: probability,
	}
	id, err := s.store.Save(ctx, rec)
	if err != nil {
		predictionsFailed.WithLabelValues("store").Inc()
		return nil, err
	}
	predictionsServed.WithLabelValues(name).Inc()

	if err := s.events.Publish(ctx, PredictionChannel, rec); err != nil {
		logging.Warn().Err(err).Uint("id", id).Msg("failed to publish prediction event")
	} else if s.events.Available() {
		predictionsPublished.Inc()
	}

	return &models.PredictionResult{
		Delay:        delay,
		Risk:         risk,
		Probability:  probability,
		ModelUsed:    name,
		Unit:         "minutes",
		PredictionID: id,
		Timestamp:    rec.Timestamp,
		Input:        req,
	}, nil
}
