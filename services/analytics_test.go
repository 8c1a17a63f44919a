package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"transit-delay-api/models"
)

func newTestAnalytics(t *testing.T, m Model, rng Rand) *Analytics {
	t.Helper()
	reg := NewRegistry(defaultSchema(t), "")
	reg.Register(FallbackModelName, KindTreeEnsemble, m, nil)
	return NewAnalytics(reg, rng)
}

func TestAnalyticsRequireModel(t *testing.T) {
	a := NewAnalytics(NewRegistry(defaultSchema(t), ""), nil)
	ctx := context.Background()

	checks := map[string]func() error{
		"temporal":  func() error { _, err := a.Temporal(ctx); return err },
		"weather":   func() error { _, err := a.Weather(ctx); return err },
		"events":    func() error { _, err := a.Events(ctx); return err },
		"transport": func() error { _, err := a.Transport(ctx); return err },
		"overview":  func() error { _, err := a.Overview(ctx); return err },
	}
	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			if err := fn(); !errors.Is(err, ErrServiceUnavailable) {
				t.Errorf("err = %v, want ErrServiceUnavailable", err)
			}
		})
	}
}

func TestAnalyticsTemporal(t *testing.T) {
	a := newTestAnalytics(t, columnModel(ColumnHour), rand.New(rand.NewPCG(7, 7)))

	points, err := a.Temporal(context.Background())
	if err != nil {
		t.Fatalf("Temporal: %v", err)
	}
	if len(points) != 15 {
		t.Fatalf("len = %d, want 15", len(points))
	}
	if points[0].Hour != "6h" || points[14].Hour != "20h" {
		t.Errorf("hours = %s..%s", points[0].Hour, points[14].Hour)
	}

	for i, p := range points {
		hour := 6 + i
		if p.Delay != float64(hour) {
			t.Errorf("%s delay = %v, want %d", p.Hour, p.Delay, hour)
		}
		if want := round(max(0, 100-2*float64(hour)), 1); p.Punctuality != want {
			t.Errorf("%s punctuality = %v, want %v", p.Hour, p.Punctuality, want)
		}

		lo, hi := 200, 500
		switch {
		case (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19):
			lo, hi = 400, 800
		case hour == 6 || hour == 20:
			lo, hi = 100, 300
		}
		if p.Volume < lo || p.Volume >= hi {
			t.Errorf("%s volume = %d, want [%d, %d)", p.Hour, p.Volume, lo, hi)
		}
	}
}

func TestAnalyticsPunctualityFloorsAtZero(t *testing.T) {
	a := newTestAnalytics(t, constModel(70), nil)

	points, err := a.Temporal(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range points {
		if p.Punctuality != 0 {
			t.Errorf("%s punctuality = %v, want 0", p.Hour, p.Punctuality)
		}
	}
}

func TestAnalyticsWeather(t *testing.T) {
	a := newTestAnalytics(t, columnModel(ColumnIncidentCause), fixedRand{f: 0.5})

	impacts, err := a.Weather(context.Background())
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}

	want := []models.WeatherImpact{
		{Condition: "Sun", Delay: 1, Frequency: 65, Color: "#10B981"},
		{Condition: "Rain", Delay: 2, Frequency: 25, Color: "#3B82F6"},
		{Condition: "Snow", Delay: 1, Frequency: 5, Color: "#6B7280"},
		{Condition: "Storm", Delay: 1, Frequency: 5, Color: "#EF4444"},
	}
	if len(impacts) != len(want) {
		t.Fatalf("len = %d", len(impacts))
	}
	for i := range want {
		if impacts[i] != want[i] {
			t.Errorf("impacts[%d] = %+v, want %+v", i, impacts[i], want[i])
		}
	}
}

func TestAnalyticsEvents(t *testing.T) {
	// Float64 0.95 draws Normal weather and a Yes event unless forced.
	a := newTestAnalytics(t, columnModel(ColumnIncidentCause), fixedRand{f: 0.95})

	impacts, err := a.Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(impacts) != 2 {
		t.Fatalf("len = %d", len(impacts))
	}
	if impacts[0].Type != "Normal day" || impacts[0].Delay != 1 || impacts[0].Frequency != 85 {
		t.Errorf("normal day = %+v", impacts[0])
	}
	if impacts[1].Type != "Major event" || impacts[1].Delay != 3 || impacts[1].Color != "#F59E0B" {
		t.Errorf("major event = %+v", impacts[1])
	}
}

func TestAnalyticsTransport(t *testing.T) {
	a := newTestAnalytics(t, columnModel(ColumnTransportType), nil)

	shares, err := a.Transport(context.Background())
	if err != nil {
		t.Fatalf("Transport: %v", err)
	}

	want := []models.TransportShare{
		{Name: "Bus", Value: 45, AvgDelay: 0, Color: "#3B82F6"},
		{Name: "Metro", Value: 35, AvgDelay: 1, Color: "#8B5CF6"},
		{Name: "Train", Value: 20, AvgDelay: 2, Color: "#10B981"},
	}
	for i := range want {
		if shares[i] != want[i] {
			t.Errorf("shares[%d] = %+v, want %+v", i, shares[i], want[i])
		}
	}
}

func TestAnalyticsOverview(t *testing.T) {
	a := newTestAnalytics(t, columnModel(ColumnHour), rand.New(rand.NewPCG(3, 4)))
	fixed := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	o, err := a.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.TotalPredictions != 50 {
		t.Errorf("TotalPredictions = %d", o.TotalPredictions)
	}
	if o.MinDelay < 6 || o.MaxDelay > 21 || o.MinDelay > o.AvgDelay || o.AvgDelay > o.MaxDelay {
		t.Errorf("delays min=%v avg=%v max=%v", o.MinDelay, o.AvgDelay, o.MaxDelay)
	}
	if o.PunctualityRate != round(100-2*o.AvgDelay, 1) {
		t.Errorf("PunctualityRate = %v for avg %v", o.PunctualityRate, o.AvgDelay)
	}
	if o.ModelAccuracy != 89.2 {
		t.Errorf("ModelAccuracy = %v", o.ModelAccuracy)
	}
	if !o.LastUpdated.Equal(fixed) {
		t.Errorf("LastUpdated = %v", o.LastUpdated)
	}
}

func TestPickWeighted(t *testing.T) {
	tests := []struct {
		u    float64
		want models.Weather
	}{
		{0, models.WeatherSun},
		{0.69, models.WeatherSun},
		{0.7, models.WeatherRain},
		{0.89, models.WeatherRain},
		{0.95, models.WeatherNormal},
		{0.999, models.WeatherNormal},
	}
	for _, tt := range tests {
		if got := pick(fixedRand{f: tt.u}, sampleWeather); got != tt.want {
			t.Errorf("pick(%v) = %s, want %s", tt.u, got, tt.want)
		}
	}
}

// countingModel tallies calls by the value of one feature column.
type countingModel struct {
	column string
	mu     sync.Mutex
	calls  map[float64]int
	total  int
}

func newCountingModel(column string) *countingModel {
	return &countingModel{column: column, calls: make(map[float64]int)}
}

func (m *countingModel) Predict(_ context.Context, fv FeatureVector) (float64, error) {
	v, _ := fv.Get(m.column)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[v]++
	m.total++
	return 3, nil
}

func TestAnalyticsSampleCounts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		column  string
		run     func(a *Analytics) error
		buckets int
		each    int
	}{
		{"temporal", ColumnHour, func(a *Analytics) error { _, err := a.Temporal(ctx); return err }, 15, 10},
		{"transport", ColumnTransportType, func(a *Analytics) error { _, err := a.Transport(ctx); return err }, 3, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newCountingModel(tt.column)
			if err := tt.run(newTestAnalytics(t, m, rand.New(rand.NewPCG(3, 9)))); err != nil {
				t.Fatal(err)
			}
			if len(m.calls) != tt.buckets {
				t.Errorf("saw %d buckets, want %d: %v", len(m.calls), tt.buckets, m.calls)
			}
			for v, n := range m.calls {
				if n != tt.each {
					t.Errorf("bucket %v drew %d samples, want %d", v, n, tt.each)
				}
			}
		})
	}

	totals := []struct {
		name string
		run  func(a *Analytics) error
		want int
	}{
		{"weather", func(a *Analytics) error { _, err := a.Weather(ctx); return err }, 4 * 20},
		{"events", func(a *Analytics) error { _, err := a.Events(ctx); return err }, 2 * 25},
		{"overview", func(a *Analytics) error { _, err := a.Overview(ctx); return err }, 50},
	}
	for _, tt := range totals {
		t.Run(tt.name, func(t *testing.T) {
			m := newCountingModel(ColumnHour)
			if err := tt.run(newTestAnalytics(t, m, nil)); err != nil {
				t.Fatal(err)
			}
			if m.total != tt.want {
				t.Errorf("model called %d times, want %d", m.total, tt.want)
			}
		})
	}
}
