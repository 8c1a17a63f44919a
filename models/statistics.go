package models

import "time"

// ModelStatistics is derived from the predictions table on every call.
type ModelStatistics struct {
	ModelUsed           string  `json:"model_used"`
	TotalPredictions    int64   `json:"total_predictions"`
	AvgPredictedDelay   float64 `json:"avg_predicted_delay"`
	MinPredictedDelay   float64 `json:"min_predicted_delay"`
	MaxPredictedDelay   float64 `json:"max_predicted_delay"`
	AvgConfidence       float64 `json:"avg_confidence"`
	VerifiedPredictions int64   `json:"verified_predictions"`
}

type ModelUsage struct {
	UsageCount int64   `json:"usage_count"`
	AvgDelay   float64 `json:"avg_delay"`
}

type RiskBreakdown struct {
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// ModelComparison combines per-model usage with a per-(model, risk) breakdown.
type ModelComparison struct {
	Statistics   map[string]ModelUsage               `json:"statistics"`
	RiskAnalysis map[string]map[string]RiskBreakdown `json:"risk_analysis"`
	Timestamp    time.Time                           `json:"timestamp"`
}
