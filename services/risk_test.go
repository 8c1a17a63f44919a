package services

import (
	"math/rand/v2"
	"testing"

	"transit-delay-api/models"
)

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		delay float64
		want  models.RiskLevel
	}{
		{-3, models.RiskLow},
		{0, models.RiskLow},
		{4.9, models.RiskLow},
		{5.0, models.RiskMedium},
		{14.9, models.RiskMedium},
		{15.0, models.RiskHigh},
		{42, models.RiskHigh},
	}
	for _, tt := range tests {
		if got := RiskLevelFor(tt.delay); got != tt.want {
			t.Errorf("RiskLevelFor(%v) = %s, want %s", tt.delay, got, tt.want)
		}
	}
}

func TestClassifyProbabilityBands(t *testing.T) {
	c := NewRiskClassifier(rand.New(rand.NewPCG(1, 2)))

	bands := map[models.RiskLevel][2]float64{
		models.RiskLow:    {15, 25},
		models.RiskMedium: {45, 65},
		models.RiskHigh:   {75, 90},
	}
	for _, delay := range []float64{1, 4.9, 5, 10, 14.9, 15, 30} {
		for i := 0; i < 200; i++ {
			level, p := c.Classify(delay)
			if level != RiskLevelFor(delay) {
				t.Fatalf("Classify(%v) level = %s", delay, level)
			}
			b := bands[level]
			// Rounding to one decimal may reach the open upper bound.
			if p < b[0] || p > b[1] {
				t.Fatalf("Classify(%v) probability %v outside [%v, %v]", delay, p, b[0], b[1])
			}
			if p != round(p, 1) {
				t.Fatalf("probability %v not rounded to one decimal", p)
			}
		}
	}
}

func TestClassifyDeterministicRand(t *testing.T) {
	c := NewRiskClassifier(fixedRand{f: 0.5})

	tests := []struct {
		delay float64
		want  float64
	}{
		{2, 20},
		{8, 55},
		{20, 82.5},
	}
	for _, tt := range tests {
		if _, p := c.Classify(tt.delay); p != tt.want {
			t.Errorf("Classify(%v) probability = %v, want %v", tt.delay, p, tt.want)
		}
	}
}
