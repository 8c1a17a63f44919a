package models

import (
	"strconv"
	"time"
)

// PredictionRecord is one persisted prediction. Actual* fields stay nil until
// ground truth is recorded for the trip.
type PredictionRecord struct {
	ID                   uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TransportType        string    `gorm:"column:transport_type;not null;index" json:"transport_type"`
	Line                 string    `gorm:"column:line;not null" json:"line"`
	Hour                 int       `gorm:"column:hour;not null" json:"hour"`
	Day                  string    `gorm:"column:day;not null;index" json:"day"`
	Weather              string    `gorm:"column:weather;not null" json:"weather"`
	Event                string    `gorm:"column:event;not null" json:"event"`
	ModelUsed            string    `gorm:"column:model_used;not null;index" json:"model_used"`
	PredictedDelay       float64   `gorm:"column:predicted_delay;not null" json:"predicted_delay"`
	PredictedRisk        string    `gorm:"column:predicted_risk;not null" json:"predicted_risk"`
	PredictedProbability float64   `gorm:"column:predicted_probability;not null" json:"predicted_probability"`
	ActualDelay          *float64  `gorm:"column:actual_delay" json:"actual_delay"`
	ActualRisk           *string   `gorm:"column:actual_risk" json:"actual_risk"`
	Timestamp            time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`
}

func (PredictionRecord) TableName() string { return "predictions" }

// ExportHeader lists the CSV columns in the same order as ExportRow.
var ExportHeader = []string{
	"id", "transport_type", "line", "hour", "day", "weather", "event",
	"model_used", "predicted_delay", "predicted_risk", "predicted_probability",
	"actual_delay", "actual_risk", "timestamp",
}

// HistoryFilter holds the optional equality filters for history listings.
// Empty fields do not filter.
type HistoryFilter struct {
	Model         string
	TransportType string
	Day           string
}

// PredictionResult is what a caller gets back from a single prediction.
type PredictionResult struct {
	Delay        float64           `json:"delay"`
	Risk         RiskLevel         `json:"risk"`
	Probability  float64           `json:"probability"`
	ModelUsed    string            `json:"model_used"`
	Unit         string            `json:"unit"`
	PredictionID uint              `json:"prediction_id"`
	Timestamp    time.Time         `json:"timestamp"`
	Input        PredictionRequest `json:"input"`
}

// ExportRow renders the record in ExportHeader order. Nil actuals become
// empty cells.
func (r PredictionRecord) ExportRow() []string {
	actualDelay := ""
	if r.ActualDelay != nil {
		actualDelay = strconv.FormatFloat(*r.ActualDelay, 'f', -1, 64)
	}
	actualRisk := ""
	if r.ActualRisk != nil {
		actualRisk = *r.ActualRisk
	}
	return []string{
		strconv.FormatUint(uint64(r.ID), 10),
		r.TransportType,
		r.Line,
		strconv.Itoa(r.Hour),
		r.Day,
		r.Weather,
		r.Event,
		r.ModelUsed,
		strconv.FormatFloat(r.PredictedDelay, 'f', -1, 64),
		r.PredictedRisk,
		strconv.FormatFloat(r.PredictedProbability, 'f', -1, 64),
		actualDelay,
		actualRisk,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
