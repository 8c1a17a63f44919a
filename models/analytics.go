package models

import "time"

type TemporalPoint struct {
	Hour        string  `json:"hour"`
	Delay       float64 `json:"delay"`
	Volume      int     `json:"volume"`
	Punctuality float64 `json:"punctuality"`
}

type WeatherImpact struct {
	Condition string  `json:"condition"`
	Delay     float64 `json:"delay"`
	Frequency int     `json:"frequency"`
	Color     string  `json:"color"`
}

type EventImpact struct {
	Type      string  `json:"type"`
	Delay     float64 `json:"delay"`
	Frequency int     `json:"frequency"`
	Color     string  `json:"color"`
}

type TransportShare struct {
	Name     string  `json:"name"`
	Value    int     `json:"value"`
	AvgDelay float64 `json:"avg_delay"`
	Color    string  `json:"color"`
}

type Overview struct {
	TotalPredictions int       `json:"total_predictions"`
	AvgDelay         float64   `json:"avg_delay"`
	MaxDelay         float64   `json:"max_delay"`
	MinDelay         float64   `json:"min_delay"`
	PunctualityRate  float64   `json:"punctuality_rate"`
	ModelAccuracy    float64   `json:"model_accuracy"`
	LastUpdated      time.Time `json:"last_updated"`
}
