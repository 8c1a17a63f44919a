package services

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"transit-delay-api/models"
)

// Sample counts per bucket.
const (
	temporalSamples  = 10
	weatherSamples   = 20
	eventSamples     = 25
	transportSamples = 30
	overviewSamples  = 50
)

// modelAccuracy is a static figure shown on the overview until accuracy is
// computed from verified outcomes.
const modelAccuracy = 89.2

type weighted[T any] struct {
	value  T
	weight float64
}

var (
	temporalWeather = []weighted[models.Weather]{
		{models.WeatherSun, 0.6}, {models.WeatherRain, 0.3}, {models.WeatherNormal, 0.1},
	}
	temporalEvent = []weighted[models.EventFlag]{
		{models.EventNo, 0.85}, {models.EventYes, 0.15},
	}
	sampleWeather = []weighted[models.Weather]{
		{models.WeatherSun, 0.7}, {models.WeatherRain, 0.2}, {models.WeatherNormal, 0.1},
	}
	sampleEvent = []weighted[models.EventFlag]{
		{models.EventNo, 0.9}, {models.EventYes, 0.1},
	}
)

var weatherBuckets = []struct {
	condition models.Weather
	frequency int
	color     string
}{
	{models.WeatherSun, 65, "#10B981"},
	{models.WeatherRain, 25, "#3B82F6"},
	{models.WeatherSnow, 5, "#6B7280"},
	{models.WeatherStorm, 5, "#EF4444"},
}

var eventBuckets = []struct {
	name      string
	flag      models.EventFlag
	frequency int
	color     string
}{
	{"Normal day", models.EventNo, 85, "#10B981"},
	{"Major event", models.EventYes, 15, "#F59E0B"},
}

var transportBuckets = []struct {
	transport models.TransportType
	share     int
	color     string
}{
	{models.TransportBus, 45, "#3B82F6"},
	{models.TransportMetro, 35, "#8B5CF6"},
	{models.TransportTrain, 20, "#10B981"},
}

// Analytics builds illustrative reports by running synthetic requests
// through the registry's default model. Every call draws fresh samples, so
// results differ between calls unless a deterministic Rand is injected.
type Analytics struct {
	registry *Registry
	rng      Rand
	now      func() time.Time
}

func NewAnalytics(registry *Registry, rng Rand) *Analytics {
	if rng == nil {
		rng = DefaultRand
	}
	return &Analytics{registry: registry, rng: rng, now: time.Now}
}

func (a *Analytics) Temporal(ctx context.Context) ([]models.TemporalPoint, error) {
	model, err := a.model()
	if err != nil {
		return nil, err
	}

	points := make([]models.TemporalPoint, 0, 15)
	for hour := 6; hour <= 20; hour++ {
		delays := make([]float64, 0, temporalSamples)
		volumes := make([]float64, 0, temporalSamples)
		for i := 0; i < temporalSamples; i++ {
			req := a.request(temporalWeather, temporalEvent)
			req.Hour = hour
			volumes = append(volumes, float64(a.volume(hour)))

			d, err := a.infer(ctx, model, req)
			if err != nil {
				return nil, err
			}
			delays = append(delays, d)
		}

		delay := round(stat.Mean(delays, nil), 1)
		points = append(points, models.TemporalPoint{
			Hour:        fmt.Sprintf("%dh", hour),
			Delay:       delay,
			Volume:      int(stat.Mean(volumes, nil)),
			Punctuality: round(max(0, 100-2*delay), 1),
		})
	}
	return points, nil
}

func (a *Analytics) Weather(ctx context.Context) ([]models.WeatherImpact, error) {
	model, err := a.model()
	if err != nil {
		return nil, err
	}

	out := make([]models.WeatherImpact, 0, len(weatherBuckets))
	for _, b := range weatherBuckets {
		delay, err := a.bucketMean(ctx, model, weatherSamples, func(req *models.PredictionRequest) {
			req.Weather = string(b.condition)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, models.WeatherImpact{
			Condition: string(b.condition),
			Delay:     delay,
			Frequency: b.frequency,
			Color:     b.color,
		})
	}
	return out, nil
}

func (a *Analytics) Events(ctx context.Context) ([]models.EventImpact, error) {
	model, err := a.model()
	if err != nil {
		return nil, err
	}

	out := make([]models.EventImpact, 0, len(eventBuckets))
	for _, b := range eventBuckets {
		delay, err := a.bucketMean(ctx, model, eventSamples, func(req *models.PredictionRequest) {
			req.Event = string(b.flag)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, models.EventImpact{
			Type:      b.name,
			Delay:     delay,
			Frequency: b.frequency,
			Color:     b.color,
		})
	}
	return out, nil
}

func (a *Analytics) Transport(ctx context.Context) ([]models.TransportShare, error) {
	model, err := a.model()
	if err != nil {
		return nil, err
	}

	out := make([]models.TransportShare, 0, len(transportBuckets))
	for _, b := range transportBuckets {
		delay, err := a.bucketMean(ctx, model, transportSamples, func(req *models.PredictionRequest) {
			req.TransportType = string(b.transport)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, models.TransportShare{
			Name:     string(b.transport),
			Value:    b.share,
			AvgDelay: delay,
			Color:    b.color,
		})
	}
	return out, nil
}

func (a *Analytics) Overview(ctx context.Context) (*models.Overview, error) {
	model, err := a.model()
	if err != nil {
		return nil, err
	}

	delays := make([]float64, 0, overviewSamples)
	for i := 0; i < overviewSamples; i++ {
		d, err := a.infer(ctx, model, a.request(sampleWeather, sampleEvent))
		if err != nil {
			return nil, err
		}
		delays = append(delays, d)
	}

	avg := round(stat.Mean(delays, nil), 1)
	return &models.Overview{
		TotalPredictions: len(delays),
		AvgDelay:         avg,
		MaxDelay:         round(floats.Max(delays), 1),
		MinDelay:         round(floats.Min(delays), 1),
		PunctualityRate:  round(100-2*avg, 1),
		ModelAccuracy:    modelAccuracy,
		LastUpdated:      a.now().UTC(),
	}, nil
}

func (a *Analytics) model() (Model, error) {
	_, m, err := a.registry.Resolve("")
	return m, err
}

// bucketMean draws n requests with the shared weather/event weights, applies
// the bucket's fixed field and returns the rounded mean delay.
func (a *Analytics) bucketMean(ctx context.Context, model Model, n int, fix func(*models.PredictionRequest)) (float64, error) {
	delays := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		req := a.request(sampleWeather, sampleEvent)
		fix(&req)
		d, err := a.infer(ctx, model, req)
		if err != nil {
			return 0, err
		}
		delays = append(delays, d)
	}
	return round(stat.Mean(delays, nil), 1), nil
}

func (a *Analytics) infer(ctx context.Context, model Model, req models.PredictionRequest) (float64, error) {
	d, err := model.Predict(ctx, Encode(req, a.registry.Schema()))
	if err != nil {
		return 0, fmt.Errorf("analytics inference: %w", err)
	}
	return d, nil
}

// request draws one synthetic weekday trip between 06:00 and 21:59.
func (a *Analytics) request(weather []weighted[models.Weather], event []weighted[models.EventFlag]) models.PredictionRequest {
	return models.PredictionRequest{
		TransportType: string(uniform(a.rng, models.TransportTypes)),
		Line:          string(uniform(a.rng, models.Lines)),
		Hour:          6 + a.rng.IntN(16),
		Day:           uniform(a.rng, models.Weekdays),
		Weather:       string(pick(a.rng, weather)),
		Event:         string(pick(a.rng, event)),
	}
}

// volume simulates passenger volume: peak 7-9 and 17-19, quiet at 6 and 20.
func (a *Analytics) volume(hour int) int {
	switch {
	case (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19):
		return 400 + a.rng.IntN(400)
	case hour == 6 || hour == 20:
		return 100 + a.rng.IntN(200)
	default:
		return 200 + a.rng.IntN(300)
	}
}

func uniform[T any](rng Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}

func pick[T any](rng Rand, choices []weighted[T]) T {
	u := rng.Float64()
	var acc float64
	for _, c := range choices {
		acc += c.weight
		if u < acc {
			return c.value
		}
	}
	return choices[len(choices)-1].value
}
