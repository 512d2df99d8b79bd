package domain

import (
	"fmt"
	"math"
)

// Metric names used in yearly-change maps and district change-rate averages.
const (
	MetricGroundwaterLevel = "groundwater_level"
	MetricRainfall         = "rainfall"
	MetricDepletionRate    = "depletion_rate"
	MetricConsumption      = "consumption"
)

// trendScoreDelta is the score movement beyond which a location counts as
// improving or declining rather than stable.
const trendScoreDelta = 3

// minRunPoints is the minimum chronological depth for run detection, and
// also the run length that fires a sustained-trend alert.
const minRunPoints = 3

// healthDropThreshold is the first-half vs second-half mean score drop that
// fires the overall-health alert.
const healthDropThreshold = 10.0

// YearlyChange holds the percent change of each tracked metric between two
// consecutive years of one location's series.
type YearlyChange struct {
	FromYear int                `json:"from_year"`
	ToYear   int                `json:"to_year"`
	Changes  map[string]float64 `json:"changes"`
}

// YearlyChanges computes year-over-year percent change per metric for each
// consecutive pair of an ascending series: (curr−prev)/|prev|·100 rounded
// to one decimal. A zero previous value yields 0%, never Inf or NaN.
func YearlyChanges(series []Observation) []YearlyChange {
	if len(series) < 2 {
		return nil
	}

	changes := make([]YearlyChange, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev, curr := series[i-1], series[i]
		changes = append(changes, YearlyChange{
			FromYear: prev.Year,
			ToYear:   curr.Year,
			Changes: map[string]float64{
				MetricGroundwaterLevel: changePct(prev.GroundwaterLevel, curr.GroundwaterLevel),
				MetricRainfall:         changePct(prev.Rainfall, curr.Rainfall),
				MetricDepletionRate:    changePct(prev.DepletionRate, curr.DepletionRate),
				MetricConsumption:      changePct(prev.Consumption, curr.Consumption),
			},
		})
	}
	return changes
}

// changePct returns (curr−prev)/|prev|·100 rounded to one decimal, or 0
// when prev is 0.
func changePct(prev, curr float64) float64 {
	if prev == 0 {
		return 0
	}
	return round1((curr - prev) / math.Abs(prev) * 100)
}

// Trend classifies a location from its two most recent scores: a gain of
// more than 3 points is improving, a loss of more than 3 declining, else
// stable. Series with fewer than two points are stable by definition.
func Trend(series []EnrichedObservation) string {
	if len(series) < 2 {
		return TrendStable
	}
	diff := series[len(series)-1].WaterScore - series[len(series)-2].WaterScore
	switch {
	case diff > trendScoreDelta:
		return TrendImproving
	case diff < -trendScoreDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// TrendAlerts detects sustained adverse runs in one location's ascending
// series. It needs at least three chronological points; shorter series
// produce no alerts. A trailing run of ≥3 strictly worsening years fires a
// dedicated alert naming the run length and total magnitude, and a drop of
// more than 10 points between the mean score of the first and second half
// of the series fires an overall-health alert.
func TrendAlerts(location string, series []EnrichedObservation) []Alert {
	if len(series) < minRunPoints {
		return nil
	}
	now := clock.Now()

	levels := make([]float64, len(series))
	depletions := make([]float64, len(series))
	rainfalls := make([]float64, len(series))
	scores := make([]float64, len(series))
	for i, obs := range series {
		levels[i] = obs.GroundwaterLevel
		depletions[i] = obs.DepletionRate
		rainfalls[i] = obs.Rainfall
		scores[i] = float64(obs.WaterScore)
	}

	var alerts []Alert

	if run := trailingRun(levels, func(prev, curr float64) bool { return curr > prev }); run >= minRunPoints {
		magnitude := round2(levels[len(levels)-1] - levels[len(levels)-run])
		alerts = append(alerts, Alert{
			Type:      AlertWarning,
			Category:  CategoryTrend,
			Title:     "Sustained decline in groundwater level",
			Message:   fmt.Sprintf("%s: water table deepened %.2f m over %d consecutive years", location, magnitude, run),
			Value:     float64(run),
			Threshold: minRunPoints,
			Recommendation: "Commission a recharge assessment; sustained deepening indicates extraction " +
				"outpacing natural replenishment.",
			Timestamp: now,
		})
	}

	if run := trailingRun(depletions, func(prev, curr float64) bool { return curr > prev }); run >= minRunPoints {
		magnitude := round2(depletions[len(depletions)-1] - depletions[len(depletions)-run])
		alerts = append(alerts, Alert{
			Type:           AlertWarning,
			Category:       CategoryTrend,
			Title:          "Depletion rate rising",
			Message:        fmt.Sprintf("%s: depletion rate climbed %.2f%% over %d consecutive years", location, magnitude, run),
			Value:          float64(run),
			Threshold:      minRunPoints,
			Recommendation: "Review extraction permits and irrigation schedules for the affected blocks.",
			Timestamp:      now,
		})
	}

	if run := trailingRun(rainfalls, func(prev, curr float64) bool { return curr < prev }); run >= minRunPoints {
		magnitude := round1(rainfalls[len(rainfalls)-run] - rainfalls[len(rainfalls)-1])
		alerts = append(alerts, Alert{
			Type:           AlertInfo,
			Category:       CategoryTrend,
			Title:          "Rainfall declining",
			Message:        fmt.Sprintf("%s: annual rainfall fell %.1f mm over %d consecutive years", location, magnitude, run),
			Value:          float64(run),
			Threshold:      minRunPoints,
			Recommendation: "Plan rainwater harvesting capacity for a drier regime.",
			Timestamp:      now,
		})
	}

	firstMean := mean(scores[:len(scores)/2])
	secondMean := mean(scores[len(scores)/2:])
	if drop := firstMean - secondMean; drop > healthDropThreshold {
		alerts = append(alerts, Alert{
			Type:           AlertWarning,
			Category:       CategoryTrend,
			Title:          "Overall health declining",
			Message:        fmt.Sprintf("%s: mean water score dropped %.1f points between the first and second half of the record", location, round1(drop)),
			Value:          round1(drop),
			Threshold:      healthDropThreshold,
			Recommendation: "Escalate the location for district-level intervention planning.",
			Timestamp:      now,
		})
	}

	return alerts
}

// trailingRun counts the chronological points in the run satisfying cmp
// that ends at the last element. Three strictly increasing years (two
// qualifying steps) report a run of 3.
func trailingRun(values []float64, cmp func(prev, curr float64) bool) int {
	steps := 0
	for i := len(values) - 1; i > 0; i-- {
		if !cmp(values[i-1], values[i]) {
			break
		}
		steps++
	}
	if steps == 0 {
		return 0
	}
	return steps + 1
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
