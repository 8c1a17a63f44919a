package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"transit-delay-api/logging"
)

const remoteFailureThreshold = 5

type remoteRequest struct {
	Features map[string]float64 `json:"features"`
}

type remoteResponse struct {
	Prediction *float64 `json:"prediction"`
}

// RemoteModel calls an HTTP inference endpoint. After consecutive failures
// the breaker opens and calls fail fast until the open timeout elapses.
type RemoteModel struct {
	name    string
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[float64]
}

func NewRemoteModel(name, url string, timeout time.Duration) *RemoteModel {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	m := &RemoteModel{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
	m.breaker = gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "remote-model-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		// A caller hanging up says nothing about the endpoint's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= remoteFailureThreshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			remoteBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("model", name).Str("from", from.String()).Str("to", to.String()).
				Msg("remote model circuit breaker state changed")
		},
	})
	return m
}

func (m *RemoteModel) Predict(ctx context.Context, fv FeatureVector) (float64, error) {
	v, err := m.breaker.Execute(func() (float64, error) {
		return m.call(ctx, fv)
	})
	if err != nil {
		return 0, fmt.Errorf("remote model %s: %w", m.name, err)
	}
	return v, nil
}

func (m *RemoteModel) call(ctx context.Context, fv FeatureVector) (float64, error) {
	body, err := json.Marshal(remoteRequest{Features: fv.Map()})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if out.Prediction == nil {
		return 0, fmt.Errorf("response has no prediction")
	}
	return *out.Prediction, nil
}
