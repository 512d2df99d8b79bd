package domain

import "math"

// Water score component domains and weights.
const (
	levelDomainMin = 4.0
	levelDomainMax = 20.0
	levelWeight    = 0.35

	rainDomainMin = 500.0
	rainDomainMax = 1500.0
	rainWeight    = 0.25

	depletionDomainMin = 0.0
	depletionDomainMax = 10.0
	depletionWeight    = 0.30

	phDevDomainMin = 0.0
	phDevDomainMax = 1.5
	phWeight       = 0.10
)

// Status display colors.
const (
	colorSafe     = "#2e7d32"
	colorWarning  = "#f9a825"
	colorCritical = "#c62828"
)

// Normalize clamps value to [min,max] and rescales it linearly to [0,100].
// With invert it returns the reflection 100−x, so both endpoints flip.
// A degenerate domain (min == max) returns the midpoint 50; callers are
// expected to pass real domains, this is the documented defensive policy.
func Normalize(value, min, max float64, invert bool) float64 {
	if min == max {
		return 50
	}
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	x := (value - min) / (max - min) * 100
	if invert {
		return 100 - x
	}
	return x
}

// WaterScore computes the composite 0–100 sustainability indicator for one
// observation. Weights and domains are documented in the package comment.
func WaterScore(obs Observation) int {
	score := levelWeight*Normalize(obs.GroundwaterLevel, levelDomainMin, levelDomainMax, true) +
		rainWeight*Normalize(obs.Rainfall, rainDomainMin, rainDomainMax, false) +
		depletionWeight*Normalize(obs.DepletionRate, depletionDomainMin, depletionDomainMax, true) +
		phWeight*Normalize(math.Abs(obs.PH-7.0), phDevDomainMin, phDevDomainMax, true)

	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// ScoreStatus buckets a water score: ≥70 Safe, ≥40 Warning, else Critical.
// The second return is the fixed display color for the bucket.
func ScoreStatus(score int) (status, color string) {
	switch {
	case score >= 70:
		return StatusSafe, colorSafe
	case score >= 40:
		return StatusWarning, colorWarning
	default:
		return StatusCritical, colorCritical
	}
}

// WQI buckets water quality by deviation of pH from neutral 7.0.
func WQI(ph float64) IndexValue {
	switch dev := math.Abs(ph - 7.0); {
	case dev <= 0.5:
		return IndexValue{Index: "Excellent", Value: 95}
	case dev <= 1.0:
		return IndexValue{Index: "Good", Value: 75}
	case dev <= 1.5:
		return IndexValue{Index: "Fair", Value: 55}
	default:
		return IndexValue{Index: "Poor", Value: 30}
	}
}

// DepletionIndex buckets the groundwater depletion rate (percent per year).
func DepletionIndex(rate float64) IndexValue {
	switch {
	case rate <= 2:
		return IndexValue{Index: "Sustainable", Value: 90}
	case rate <= 4:
		return IndexValue{Index: "Moderate", Value: 65}
	case rate <= 6:
		return IndexValue{Index: "Concerning", Value: 40}
	default:
		return IndexValue{Index: "Critical", Value: 15}
	}
}

// SustainabilityScore blends rainfall, depletion and pH deviation into a
// single rounded 0–100 indicator (0.4 / 0.35 / 0.25 weights).
func SustainabilityScore(obs Observation) int {
	score := 0.4*Normalize(obs.Rainfall, rainDomainMin, rainDomainMax, false) +
		0.35*Normalize(obs.DepletionRate, depletionDomainMin, depletionDomainMax, true) +
		0.25*Normalize(math.Abs(obs.PH-7.0), phDevDomainMin, phDevDomainMax, true)
	return int(math.Round(score))
}

// Enrich derives every score and index for one observation.
func Enrich(obs Observation) EnrichedObservation {
	score := WaterScore(obs)
	status, color := ScoreStatus(score)
	return EnrichedObservation{
		Observation:         obs,
		WaterScore:          score,
		Status:              status,
		StatusColor:         color,
		WQI:                 WQI(obs.PH),
		DepletionIndex:      DepletionIndex(obs.DepletionRate),
		SustainabilityScore: SustainabilityScore(obs),
	}
}

// EnrichSeries enriches each observation of an ascending series in order.
func EnrichSeries(series []Observation) []EnrichedObservation {
	enriched := make([]EnrichedObservation, len(series))
	for i, obs := range series {
		enriched[i] = Enrich(obs)
	}
	return enriched
}
