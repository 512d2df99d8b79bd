package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Threshold constants for stateless alerts on the latest observation.
const (
	LevelWarnThreshold     = 12.0 // metres
	LevelCritThreshold     = 15.0
	DepletionWarnThreshold = 5.0 // percent per year
	DepletionCritThreshold = 7.0
	RainfallWarnThreshold  = 700.0 // millimetres
	RainfallCritThreshold  = 600.0
	PHMinThreshold         = 6.5
	PHMaxThreshold         = 8.0
	ConsumptionThreshold   = 500.0 // megalitres
)

// maxNamedOffenders caps how many locations a district alert names before
// collapsing the rest into a remainder count.
const maxNamedOffenders = 3

// ThresholdAlerts evaluates the fixed numeric thresholds against a single
// latest observation. Stateless: no history is consulted.
func ThresholdAlerts(obs EnrichedObservation) []Alert {
	now := clock.Now()
	var alerts []Alert

	add := func(severity, category, title, message string, value, threshold float64, recommendation string) {
		alerts = append(alerts, Alert{
			Type:           severity,
			Category:       category,
			Title:          title,
			Message:        message,
			Value:          value,
			Threshold:      threshold,
			Recommendation: recommendation,
			Timestamp:      now,
		})
	}

	switch {
	case obs.GroundwaterLevel >= LevelCritThreshold:
		add(AlertCritical, CategoryWaterLevel, "Water table critically deep",
			fmt.Sprintf("%s: groundwater at %.2f m, beyond the %.0f m critical mark", obs.Location, obs.GroundwaterLevel, LevelCritThreshold),
			obs.GroundwaterLevel, LevelCritThreshold,
			"Restrict new borewell permits and begin managed aquifer recharge immediately.")
	case obs.GroundwaterLevel >= LevelWarnThreshold:
		add(AlertWarning, CategoryWaterLevel, "Water table deepening",
			fmt.Sprintf("%s: groundwater at %.2f m, past the %.0f m warning mark", obs.Location, obs.GroundwaterLevel, LevelWarnThreshold),
			obs.GroundwaterLevel, LevelWarnThreshold,
			"Audit high-volume extraction points before the next dry season.")
	}

	switch {
	case obs.DepletionRate >= DepletionCritThreshold:
		add(AlertCritical, CategoryDepletion, "Critical depletion rate",
			fmt.Sprintf("%s: aquifer depleting at %.2f%%/yr, above the %.0f%% critical mark", obs.Location, obs.DepletionRate, DepletionCritThreshold),
			obs.DepletionRate, DepletionCritThreshold,
			"Enforce extraction caps; current draw is not recoverable by natural recharge.")
	case obs.DepletionRate >= DepletionWarnThreshold:
		add(AlertWarning, CategoryDepletion, "Elevated depletion rate",
			fmt.Sprintf("%s: aquifer depleting at %.2f%%/yr, above the %.0f%% warning mark", obs.Location, obs.DepletionRate, DepletionWarnThreshold),
			obs.DepletionRate, DepletionWarnThreshold,
			"Promote drip irrigation and review industrial water allocations.")
	}

	switch {
	case obs.Rainfall <= RainfallCritThreshold:
		add(AlertCritical, CategoryRainfall, "Severe rainfall deficit",
			fmt.Sprintf("%s: annual rainfall %.1f mm, at or below the %.0f mm critical mark", obs.Location, obs.Rainfall, RainfallCritThreshold),
			obs.Rainfall, RainfallCritThreshold,
			"Activate drought contingency supply and prioritize recharge structures.")
	case obs.Rainfall <= RainfallWarnThreshold:
		add(AlertWarning, CategoryRainfall, "Low rainfall",
			fmt.Sprintf("%s: annual rainfall %.1f mm, at or below the %.0f mm warning mark", obs.Location, obs.Rainfall, RainfallWarnThreshold),
			obs.Rainfall, RainfallWarnThreshold,
			"Expand rainwater harvesting before the next monsoon.")
	}

	if obs.PH < PHMinThreshold || obs.PH > PHMaxThreshold {
		threshold := PHMinThreshold
		if obs.PH > PHMaxThreshold {
			threshold = PHMaxThreshold
		}
		add(AlertWarning, CategoryPH, "Water quality outside safe pH band",
			fmt.Sprintf("%s: pH %.2f outside the safe band %.1f–%.1f", obs.Location, obs.PH, PHMinThreshold, PHMaxThreshold),
			obs.PH, threshold,
			"Sample for contamination sources and retest within 30 days.")
	}

	if obs.Consumption >= ConsumptionThreshold {
		add(AlertWarning, CategoryConsumption, "High consumption",
			fmt.Sprintf("%s: consumption %.0f Ml/yr, at or above the %.0f Ml watch level", obs.Location, obs.Consumption, ConsumptionThreshold),
			obs.Consumption, ConsumptionThreshold,
			"Introduce metered usage tiers for bulk consumers.")
	}

	switch obs.ScarcityLevel {
	case ScarcityExtreme:
		add(AlertCritical, CategoryScarcity, "Extreme water scarcity",
			fmt.Sprintf("%s classified as Extreme scarcity", obs.Location),
			0, 0,
			"Trigger emergency supply measures and inter-district water transfer.")
	case ScarcitySevere:
		add(AlertWarning, CategoryScarcity, "Severe water scarcity",
			fmt.Sprintf("%s classified as Severe scarcity", obs.Location),
			0, 0,
			"Prepare scarcity mitigation plan and notify the district collector.")
	}

	return alerts
}

// DistrictAlerts evaluates the latest-per-location set as one aggregate:
// status counts plus district means of depletion, rainfall and water level
// against the same thresholds. Alerts name up to three worst offenders by
// score and report the remainder as a count.
func DistrictAlerts(latest []EnrichedObservation) []Alert {
	if len(latest) == 0 {
		return nil
	}
	now := clock.Now()

	var critical, warning []EnrichedObservation
	var sumDepletion, sumRainfall, sumLevel float64
	for _, obs := range latest {
		switch obs.Status {
		case StatusCritical:
			critical = append(critical, obs)
		case StatusWarning:
			warning = append(warning, obs)
		}
		sumDepletion += obs.DepletionRate
		sumRainfall += obs.Rainfall
		sumLevel += obs.GroundwaterLevel
	}
	n := float64(len(latest))

	var alerts []Alert

	if len(critical) > 0 {
		alerts = append(alerts, Alert{
			Type:           AlertCritical,
			Category:       CategoryDistrict,
			Title:          "Locations in critical condition",
			Message:        fmt.Sprintf("%d of %d locations are Critical: %s", len(critical), len(latest), worstOffenders(critical)),
			Value:          float64(len(critical)),
			Threshold:      1,
			Recommendation: "Convene the district water board; critical locations need immediate intervention.",
			Timestamp:      now,
		})
	}
	if len(warning) > 0 {
		alerts = append(alerts, Alert{
			Type:           AlertWarning,
			Category:       CategoryDistrict,
			Title:          "Locations in warning condition",
			Message:        fmt.Sprintf("%d of %d locations are in Warning: %s", len(warning), len(latest), worstOffenders(warning)),
			Value:          float64(len(warning)),
			Threshold:      1,
			Recommendation: "Schedule follow-up measurements for the listed locations this quarter.",
			Timestamp:      now,
		})
	}

	if avg := round2(sumDepletion / n); avg >= DepletionWarnThreshold {
		severity := AlertWarning
		if avg >= DepletionCritThreshold {
			severity = AlertCritical
		}
		alerts = append(alerts, Alert{
			Type:           severity,
			Category:       CategoryDistrict,
			Title:          "District-wide depletion elevated",
			Message:        fmt.Sprintf("mean depletion rate %.2f%%/yr across %d locations", avg, len(latest)),
			Value:          avg,
			Threshold:      DepletionWarnThreshold,
			Recommendation: "Region-scale extraction pressure; review the district abstraction policy.",
			Timestamp:      now,
		})
	}

	if avg := round1(sumRainfall / n); avg <= RainfallWarnThreshold {
		severity := AlertWarning
		if avg <= RainfallCritThreshold {
			severity = AlertCritical
		}
		alerts = append(alerts, Alert{
			Type:           severity,
			Category:       CategoryDistrict,
			Title:          "District-wide rainfall deficit",
			Message:        fmt.Sprintf("mean annual rainfall %.1f mm across %d locations", avg, len(latest)),
			Value:          avg,
			Threshold:      RainfallWarnThreshold,
			Recommendation: "Coordinate recharge structures across blocks rather than per village.",
			Timestamp:      now,
		})
	}

	if avg := round2(sumLevel / n); avg >= LevelWarnThreshold {
		severity := AlertWarning
		if avg >= LevelCritThreshold {
			severity = AlertCritical
		}
		alerts = append(alerts, Alert{
			Type:           severity,
			Category:       CategoryDistrict,
			Title:          "District water table deep",
			Message:        fmt.Sprintf("mean groundwater level %.2f m across %d locations", avg, len(latest)),
			Value:          avg,
			Threshold:      LevelWarnThreshold,
			Recommendation: "Publish district-wide drilling depth advisories.",
			Timestamp:      now,
		})
	}

	return alerts
}

// worstOffenders lists up to three locations ordered worst-first by score,
// appending a remainder count for the rest.
func worstOffenders(group []EnrichedObservation) string {
	sorted := make([]EnrichedObservation, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].WaterScore < sorted[j].WaterScore })

	names := make([]string, 0, maxNamedOffenders)
	for i := 0; i < len(sorted) && i < maxNamedOffenders; i++ {
		names = append(names, sorted[i].Location)
	}
	out := strings.Join(names, ", ")
	if rest := len(sorted) - maxNamedOffenders; rest > 0 {
		out += fmt.Sprintf(" and %d more", rest)
	}
	return out
}
