package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"transit-delay-api/config"
	"transit-delay-api/logging"
	"transit-delay-api/models"

	"github.com/redis/go-redis/v9"
)

const (
	// PredictionChannel carries every persisted prediction as JSON.
	PredictionChannel = "transit:predictions"
	recordTTL         = 60 * time.Second
)

// CacheService wraps redis for the record cache and prediction events.
// A nil client turns every call into a no-op, so redis is optional.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(cfg config.RedisConfig) (*CacheService, error) {
	if !cfg.Enabled {
		return &CacheService{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client}, nil
		}
		logging.Warn().Err(lastErr).Int("attempt", i+1).Msg("redis ping failed")
		time.Sleep(2 * time.Second)
	}

	client.Close()
	return &CacheService{}, fmt.Errorf("redis ping failed after 5 attempts: %w", lastErr)
}

// NewCacheServiceWithClient uses an existing client, which may be nil.
func NewCacheServiceWithClient(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) Available() bool {
	return s != nil && s.client != nil
}

// Get decodes key into dest and reports whether it was present.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Available() {
		return false, nil
	}
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Delete(ctx context.Context, key string) error {
	if !s.Available() {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

func RecordKey(id uint) string {
	return fmt.Sprintf("prediction:%d", id)
}

func (s *CacheService) GetRecord(ctx context.Context, id uint) (*models.PredictionRecord, bool) {
	var rec models.PredictionRecord
	ok, err := s.Get(ctx, RecordKey(id), &rec)
	if err != nil {
		logging.Warn().Err(err).Uint("id", id).Msg("record cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &rec, true
}

func (s *CacheService) SetRecord(ctx context.Context, rec *models.PredictionRecord) {
	if err := s.Set(ctx, RecordKey(rec.ID), rec, recordTTL); err != nil {
		logging.Warn().Err(err).Uint("id", rec.ID).Msg("record cache write failed")
	}
}

func (s *CacheService) InvalidateRecord(ctx context.Context, id uint) {
	if err := s.Delete(ctx, RecordKey(id)); err != nil {
		logging.Warn().Err(err).Uint("id", id).Msg("record cache invalidation failed")
	}
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// Subscribe returns nil when redis is not configured.
func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if !s.Available() {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Ping(ctx context.Context) error {
	if !s.Available() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

func (s *CacheService) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}
