package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"transit-delay-api/config"
	"transit-delay-api/logging"
	"transit-delay-api/models"
)

// OutcomeRecorder is the part of the store the listener writes to.
type OutcomeRecorder interface {
	RecordActualOutcome(ctx context.Context, id uint, delay float64, risk string) (*models.PredictionRecord, error)
}

// OutcomeMessage reports what actually happened on a predicted trip.
type OutcomeMessage struct {
	PredictionID uint     `json:"prediction_id"`
	ActualDelay  *float64 `json:"actual_delay"`
	ActualRisk   string   `json:"actual_risk,omitempty"`
}

// OutcomeListener feeds ground truth from MQTT into the prediction store.
type OutcomeListener struct {
	cfg    config.MQTTConfig
	store  OutcomeRecorder
	cache  *CacheService
	client mqtt.Client
	log    zerolog.Logger
}

func NewOutcomeListener(cfg config.MQTTConfig, store OutcomeRecorder, cache *CacheService) *OutcomeListener {
	return &OutcomeListener{
		cfg:   cfg,
		store: store,
		cache: cache,
		log:   logging.With().Str("component", "outcome_listener").Str("topic", cfg.OutcomeTopic).Logger(),
	}
}

// Start connects and subscribes. Messages are handled until Stop.
func (l *OutcomeListener) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(l.cfg.URL)
	opts.SetClientID("transit-delay-api-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		l.handleMessage(ctx, msg.Payload())
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(l.cfg.OutcomeTopic, 1, nil)
		token.Wait()
		if err := token.Error(); err != nil {
			l.log.Error().Err(err).Msg("mqtt subscribe failed")
			return
		}
		l.log.Info().Msg("subscribed to outcome topic")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		l.log.Warn().Err(err).Msg("mqtt connection lost")
	}

	l.client = mqtt.NewClient(opts)
	token := l.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect to %s: timed out", l.cfg.URL)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", l.cfg.URL, err)
	}
	return nil
}

func (l *OutcomeListener) Stop() {
	if l.client != nil {
		l.client.Disconnect(250)
	}
}

// handleMessage never fails the subscription: bad messages are logged and
// counted.
func (l *OutcomeListener) handleMessage(ctx context.Context, payload []byte) {
	var msg OutcomeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		outcomesRecorded.WithLabelValues("invalid").Inc()
		l.log.Warn().Err(err).Msg("invalid outcome payload")
		return
	}
	if msg.PredictionID == 0 || msg.ActualDelay == nil {
		outcomesRecorded.WithLabelValues("invalid").Inc()
		l.log.Warn().Msg("outcome payload missing prediction_id or actual_delay")
		return
	}

	risk := msg.ActualRisk
	if risk == "" {
		risk = string(RiskLevelFor(*msg.ActualDelay))
	}

	_, err := l.store.RecordActualOutcome(ctx, msg.PredictionID, *msg.ActualDelay, risk)
	switch {
	case errors.Is(err, ErrNotFound):
		outcomesRecorded.WithLabelValues("unknown_id").Inc()
		l.log.Warn().Uint("id", msg.PredictionID).Msg("outcome for unknown prediction")
		return
	case errors.Is(err, ErrInvalidOutcome):
		outcomesRecorded.WithLabelValues("invalid").Inc()
		l.log.Warn().Uint("id", msg.PredictionID).Msg("outcome delay is not finite")
		return
	case err != nil:
		outcomesRecorded.WithLabelValues("failed").Inc()
		l.log.Error().Err(err).Uint("id", msg.PredictionID).Msg("failed to record outcome")
		return
	}

	l.cache.InvalidateRecord(ctx, msg.PredictionID)
	outcomesRecorded.WithLabelValues("recorded").Inc()
	l.log.Debug().Uint("id", msg.PredictionID).Float64("actual_delay", *msg.ActualDelay).Msg("outcome recorded")
}
