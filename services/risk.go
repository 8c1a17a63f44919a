package services

import (
	"math"
	"math/rand/v2"

	"transit-delay-api/models"
)

// Rand is the randomness used for simulated confidence and synthetic
// analytics samples. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// DefaultRand draws from the runtime's concurrency-safe global source.
var DefaultRand Rand = globalRand{}

// RiskLevelFor tiers a delay in minutes: <5 Low, <15 Medium, else High.
func RiskLevelFor(delay float64) models.RiskLevel {
	switch {
	case delay < 5:
		return models.RiskLow
	case delay < 15:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

type probabilityBand struct{ low, width float64 }

var probabilityBands = map[models.RiskLevel]probabilityBand{
	models.RiskLow:    {low: 15, width: 10},
	models.RiskMedium: {low: 45, width: 20},
	models.RiskHigh:   {low: 75, width: 15},
}

// RiskClassifier pairs the deterministic tier with a simulated confidence
// drawn uniformly inside the tier's band. The probability is not reproducible
// across calls.
type RiskClassifier struct {
	rng Rand
}

func NewRiskClassifier(rng Rand) *RiskClassifier {
	if rng == nil {
		rng = DefaultRand
	}
	return &RiskClassifier{rng: rng}
}

func (c *RiskClassifier) Classify(delay float64) (models.RiskLevel, float64) {
	level := RiskLevelFor(delay)
	band := probabilityBands[level]
	return level, round(band.low+c.rng.Float64()*band.width, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
