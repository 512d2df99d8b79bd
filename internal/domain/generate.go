package domain

import "math"

// DefaultSeriesYears is the width of a synthetic series, base year included.
const DefaultSeriesYears = 6

// Scarcity classification thresholds (depletion %/yr, rainfall mm).
const (
	scarcitySevereDepletion   = 6.0
	scarcityHighDepletion     = 5.0
	scarcityModerateDepletion = 3.0
	scarcityLowRainfall       = 750.0
)

// Per-metric drift (per year of offset) and noise (scaled by variation)
// coefficients, with floor/ceiling clamps. Later years drift toward worse
// conditions: depletion and level rise, rainfall falls.
const (
	depletionDrift = 0.15
	depletionNoise = 2.0
	depletionFloor = 0.5

	rainfallDrift = -12.0
	rainfallNoise = 300.0
	rainfallFloor = 400.0

	levelDrift = 0.3
	levelNoise = 4.0
	levelFloor = 3.0

	consumptionDrift = 9.0
	consumptionNoise = 120.0
	consumptionFloor = 50.0

	phNoise = 0.8
	phFloor = 6.0
	phCeil  = 9.0

	agriDrift = 0.4
	agriNoise = 12.0

	industrialDrift = 0.2
	industrialNoise = 8.0

	householdDrift = 0.1
	householdNoise = 6.0

	perCapitaDrift = 1.5
	perCapitaNoise = 40.0
	perCapitaFloor = 40.0

	usageShareCeil = 100.0
)

// TargetYears returns n consecutive years ending at baseYear, ascending.
// The observed base year anchors the series; earlier years are synthesized.
func TargetYears(baseYear, n int) []int {
	if n < 1 {
		n = 1
	}
	years := make([]int, n)
	for i := range years {
		years[i] = baseYear - (n - 1) + i
	}
	return years
}

// GenerateSeries expands one observed base record into a full multi-year
// series, one Observation per target year, ordered ascending. The base year
// passes through unmodified; every other year is synthesized from the base
// via the deterministic name-hash variation, so two calls with an identical
// base produce byte-identical output.
func GenerateSeries(base Observation, years []int) []Observation {
	seed := absHash(NameHash(base.Location))

	series := make([]Observation, 0, len(years))
	for _, year := range years {
		if year == base.Year {
			series = append(series, base)
			continue
		}
		series = append(series, synthesize(base, seed, year))
	}
	return series
}

// synthesize derives one non-base year from the base observation.
func synthesize(base Observation, seed int64, year int) Observation {
	offset := float64(year - base.Year)
	v := variation(seed, year)

	depletion := floorClamp(base.DepletionRate+depletionDrift*offset+depletionNoise*v, depletionFloor)
	rainfall := floorClamp(base.Rainfall+rainfallDrift*offset+rainfallNoise*v, rainfallFloor)

	return Observation{
		Location:          base.Location,
		Year:              year,
		Consumption:       round2(floorClamp(base.Consumption+consumptionDrift*offset+consumptionNoise*v, consumptionFloor)),
		PerCapitaUsage:    round2(floorClamp(base.PerCapitaUsage+perCapitaDrift*offset+perCapitaNoise*v, perCapitaFloor)),
		AgriculturalUsage: round2(rangeClamp(base.AgriculturalUsage+agriDrift*offset+agriNoise*v, 0, usageShareCeil)),
		IndustrialUsage:   round2(rangeClamp(base.IndustrialUsage+industrialDrift*offset+industrialNoise*v, 0, usageShareCeil)),
		HouseholdUsage:    round2(rangeClamp(base.HouseholdUsage+householdDrift*offset+householdNoise*v, 0, usageShareCeil)),
		Rainfall:          round2(rainfall),
		DepletionRate:     round2(depletion),
		ScarcityLevel:     ClassifyScarcity(depletion, rainfall),
		PH:                round2(rangeClamp(base.PH+phNoise*v, phFloor, phCeil)),
		GroundwaterLevel:  round2(floorClamp(base.GroundwaterLevel+levelDrift*offset+levelNoise*v, levelFloor)),
	}
}

// variation maps (seed, year) onto [−0.25, 0.25]:
// ((seed + year) mod 100 − 50) / 200, clamped.
func variation(seed int64, year int) float64 {
	v := float64((seed+int64(year))%100-50) / 200
	return rangeClamp(v, -0.25, 0.25)
}

// ClassifyScarcity derives the categorical scarcity level from depletion
// rate and rainfall using the fixed thresholds. Extreme is never produced
// here; it only enters through ingestion of real records.
func ClassifyScarcity(depletionRate, rainfall float64) string {
	switch {
	case depletionRate >= scarcitySevereDepletion:
		return ScarcitySevere
	case depletionRate >= scarcityHighDepletion:
		return ScarcityHigh
	case depletionRate >= scarcityModerateDepletion:
		if rainfall < scarcityLowRainfall {
			return ScarcityHigh
		}
		return ScarcityModerate
	default:
		return ScarcityLow
	}
}

func floorClamp(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}

func rangeClamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
