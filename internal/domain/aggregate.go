package domain

import (
	"sort"
	"strings"
)

// maxSuggestions caps search results.
const maxSuggestions = 10

// districtTrendRatio is the majority heuristic for the district verdict:
// one direction must outnumber the other by more than this factor.
const districtTrendRatio = 1.5

// heatmapIntensityFloor keeps even Safe locations faintly visible.
const heatmapIntensityFloor = 0.1

// DistrictStats aggregates the latest-per-location set.
type DistrictStats struct {
	TotalLocations      int     `json:"total_locations"`
	SafeCount           int     `json:"safe_count"`
	WarningCount        int     `json:"warning_count"`
	CriticalCount       int     `json:"critical_count"`
	AvgGroundwaterLevel float64 `json:"avg_groundwater_level"`
	AvgRainfall         float64 `json:"avg_rainfall"`
	AvgDepletionRate    float64 `json:"avg_depletion_rate"`
}

// ExtendedStats adds leaderboards, the trend histogram, the district trend
// verdict and mean latest change rates to the basic statistics.
type ExtendedStats struct {
	DistrictStats

	Best              []Ranking          `json:"best"`
	Worst             []Ranking          `json:"worst"`
	TrendDistribution map[string]int     `json:"trend_distribution"`
	DistrictTrend     string             `json:"district_trend"`
	AvgChangeRates    map[string]float64 `json:"avg_change_rates"`
}

// LatestPerLocation reduces a full observation set to the max-year record
// per location, sorted by location name for deterministic output.
func LatestPerLocation(observations []Observation) []Observation {
	byLocation := make(map[string]Observation)
	for _, obs := range observations {
		if cur, ok := byLocation[obs.Location]; !ok || obs.Year > cur.Year {
			byLocation[obs.Location] = obs
		}
	}

	latest := make([]Observation, 0, len(byLocation))
	for _, obs := range byLocation {
		latest = append(latest, obs)
	}
	sort.Slice(latest, func(i, j int) bool { return latest[i].Location < latest[j].Location })
	return latest
}

// BuildRankings scores the latest records, sorts them stably by descending
// water score and assigns ranks 1..N with no gaps. trends maps location to
// its trend verdict; unknown locations rank as stable.
func BuildRankings(latest []EnrichedObservation, trends map[string]string) []Ranking {
	rankings := make([]Ranking, 0, len(latest))
	for _, obs := range latest {
		trend, ok := trends[obs.Location]
		if !ok {
			trend = TrendStable
		}
		rankings = append(rankings, Ranking{
			Location: obs.Location,
			Score:    obs.WaterScore,
			Status:   obs.Status,
			Trend:    trend,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool { return rankings[i].Score > rankings[j].Score })
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings
}

// BuildDistrictStats computes status counts and metric means over the
// latest-per-location set.
func BuildDistrictStats(latest []EnrichedObservation) DistrictStats {
	stats := DistrictStats{TotalLocations: len(latest)}
	if len(latest) == 0 {
		return stats
	}

	var sumLevel, sumRainfall, sumDepletion float64
	for _, obs := range latest {
		switch obs.Status {
		case StatusSafe:
			stats.SafeCount++
		case StatusWarning:
			stats.WarningCount++
		default:
			stats.CriticalCount++
		}
		sumLevel += obs.GroundwaterLevel
		sumRainfall += obs.Rainfall
		sumDepletion += obs.DepletionRate
	}

	n := float64(len(latest))
	stats.AvgGroundwaterLevel = round2(sumLevel / n)
	stats.AvgRainfall = round1(sumRainfall / n)
	stats.AvgDepletionRate = round2(sumDepletion / n)
	return stats
}

// BuildExtendedStats layers leaderboards, the trend histogram and verdict,
// and district mean change rates on top of the basic statistics.
// changeRates maps metric name to the mean of each location's most recent
// year-over-year percent change.
func BuildExtendedStats(latest []EnrichedObservation, trends map[string]string, changeRates map[string]float64) ExtendedStats {
	rankings := BuildRankings(latest, trends)

	distribution := map[string]int{TrendImproving: 0, TrendStable: 0, TrendDeclining: 0}
	for _, r := range rankings {
		distribution[r.Trend]++
	}

	return ExtendedStats{
		DistrictStats:     BuildDistrictStats(latest),
		Best:              headRankings(rankings, 5),
		Worst:             tailRankings(rankings, 5),
		TrendDistribution: distribution,
		DistrictTrend:     districtTrend(distribution[TrendImproving], distribution[TrendDeclining]),
		AvgChangeRates:    changeRates,
	}
}

// districtTrend applies the 1.5× majority heuristic between improving and
// declining counts; anything short of a clear majority is stable.
func districtTrend(improving, declining int) string {
	switch {
	case declining == 0 && improving > 0:
		return TrendImproving
	case improving == 0 && declining > 0:
		return TrendDeclining
	case float64(improving) > districtTrendRatio*float64(declining):
		return TrendImproving
	case float64(declining) > districtTrendRatio*float64(improving):
		return TrendDeclining
	default:
		return TrendStable
	}
}

func headRankings(rankings []Ranking, n int) []Ranking {
	if len(rankings) < n {
		n = len(rankings)
	}
	out := make([]Ranking, n)
	copy(out, rankings[:n])
	return out
}

// tailRankings returns the bottom n, worst first.
func tailRankings(rankings []Ranking, n int) []Ranking {
	if len(rankings) < n {
		n = len(rankings)
	}
	out := make([]Ranking, 0, n)
	for i := len(rankings) - 1; i >= len(rankings)-n; i-- {
		out = append(out, rankings[i])
	}
	return out
}

// BuildHeatmap projects the latest records onto map points. Locations
// missing from the coordinate index fall back to the deterministic
// name-hash placement, so the projection never drops a site.
func BuildHeatmap(latest []EnrichedObservation, locations map[string]Location) []HeatmapPoint {
	points := make([]HeatmapPoint, 0, len(latest))
	for _, obs := range latest {
		lat, lng := FallbackCoordinates(obs.Location)
		if loc, ok := locations[obs.Location]; ok && (loc.Latitude != 0 || loc.Longitude != 0) {
			lat, lng = loc.Latitude, loc.Longitude
		}

		intensity := (100 - float64(obs.WaterScore)) / 100
		if intensity < heatmapIntensityFloor {
			intensity = heatmapIntensityFloor
		}
		points = append(points, HeatmapPoint{
			Location:  obs.Location,
			Lat:       lat,
			Lng:       lng,
			Intensity: round2(intensity),
			Status:    obs.Status,
		})
	}
	return points
}

// SearchSuggestions matches query as a case-insensitive substring of the
// location name over the latest set, capped at ten results, each enriched
// with the location's latest score, status and trend. An empty query
// returns nothing.
func SearchSuggestions(query string, latest []EnrichedObservation, locations map[string]Location, trends map[string]string) []Suggestion {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var suggestions []Suggestion
	for _, obs := range latest {
		if !strings.Contains(strings.ToLower(obs.Location), query) {
			continue
		}
		trend, ok := trends[obs.Location]
		if !ok {
			trend = TrendStable
		}
		s := Suggestion{
			Location: obs.Location,
			Score:    obs.WaterScore,
			Status:   obs.Status,
			Trend:    trend,
		}
		if loc, ok := locations[obs.Location]; ok {
			s.District = loc.District
			s.State = loc.State
		}
		suggestions = append(suggestions, s)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}
