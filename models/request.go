package models

import "strings"

// PredictionRequest carries the trip attributes of a delay query. Values are
// kept exactly as received; categorical fields are interpreted through the
// enum types below, which map unknown values to their default variant.
type PredictionRequest struct {
	TransportType string `json:"TransportType"`
	Line          string `json:"Line"`
	Hour          int    `json:"Hour"`
	Day           string `json:"Day"`
	Weather       string `json:"Weather"`
	Event         string `json:"Event"`
	ModelType     string `json:"model_type,omitempty"`
}

type TransportType string

const (
	TransportBus   TransportType = "Bus"
	TransportMetro TransportType = "Metro"
	TransportTrain TransportType = "Train"
)

// TransportTypes is the canonical enumeration order.
var TransportTypes = []TransportType{TransportBus, TransportMetro, TransportTrain}

var transportCodes = map[TransportType]int{
	TransportBus:   0,
	TransportMetro: 1,
	TransportTrain: 2,
}

// Code returns the training-time label encoding. Unknown values encode as Bus (0).
func (t TransportType) Code() int {
	return transportCodes[t]
}

type Line string

// Lines is the canonical enumeration order.
var Lines = []Line{"Line1", "Line2", "Line3", "Line4", "Line5"}

// Code returns the training-time label encoding. Unknown values encode as Line1 (0).
func (l Line) Code() int {
	for i, known := range Lines {
		if l == known {
			return i
		}
	}
	return 0
}

type Weather string

const (
	WeatherSun    Weather = "Sun"
	WeatherRain   Weather = "Rain"
	WeatherNormal Weather = "Normal"
	WeatherSnow   Weather = "Snow"
	WeatherStorm  Weather = "Storm"
)

// IsRain reports whether the condition is rain. "Pluie" is accepted because
// the training data was labelled in French.
func (w Weather) IsRain() bool {
	return strings.EqualFold(string(w), string(WeatherRain)) || strings.EqualFold(string(w), "Pluie")
}

type EventFlag string

const (
	EventYes EventFlag = "Yes"
	EventNo  EventFlag = "No"
)

// IsYes reports whether a planned event is flagged. Anything but yes/oui is no.
func (e EventFlag) IsYes() bool {
	return strings.EqualFold(string(e), string(EventYes)) || strings.EqualFold(string(e), "Oui")
}

// Weekdays are the days drawn for synthetic analytics samples.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// RiskLevel is the coarse three-tier delay classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskLevels is ordered from lowest to highest tier.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}
