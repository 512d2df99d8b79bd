package domain

import "time"

// Scarcity levels, ordered from least to most severe.
const (
	ScarcityLow      = "Low"
	ScarcityModerate = "Moderate"
	ScarcityHigh     = "High"
	ScarcitySevere   = "Severe"
	ScarcityExtreme  = "Extreme"
)

// Status buckets for the composite water score.
const (
	StatusSafe     = "Safe"
	StatusWarning  = "Warning"
	StatusCritical = "Critical"
)

// Alert severities.
const (
	AlertCritical = "critical"
	AlertWarning  = "warning"
	AlertInfo     = "info"
)

// Trend verdicts for a location (and for a whole district).
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Observation is one (location, year) groundwater measurement record.
type Observation struct {
	Location          string  `json:"location"`
	Year              int     `json:"year"`
	Consumption       float64 `json:"consumption"`
	PerCapitaUsage    float64 `json:"per_capita_usage"`
	AgriculturalUsage float64 `json:"agricultural_usage"`
	IndustrialUsage   float64 `json:"industrial_usage"`
	HouseholdUsage    float64 `json:"household_usage"`
	Rainfall          float64 `json:"rainfall"`
	DepletionRate     float64 `json:"depletion_rate"`
	ScarcityLevel     string  `json:"scarcity_level"`
	PH                float64 `json:"ph"`
	GroundwaterLevel  float64 `json:"groundwater_level"`
}

// IndexValue is a tiered classification with its fixed tier value.
type IndexValue struct {
	Index string `json:"index"`
	Value int    `json:"value"`
}

// EnrichedObservation is an Observation plus all derived scores and indices.
type EnrichedObservation struct {
	Observation

	WaterScore          int        `json:"water_score"`
	Status              string     `json:"status"`
	StatusColor         string     `json:"status_color"`
	WQI                 IndexValue `json:"wqi"`
	DepletionIndex      IndexValue `json:"depletion_index"`
	SustainabilityScore int        `json:"sustainability_score"`
}

// Location is a monitored site. Created on first sighting of a name.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	District  string  `json:"district"`
	State     string  `json:"state"`
}

// Alert is a single actionable finding for a location or a district.
type Alert struct {
	Type           string    `json:"type"` // critical, warning, info
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Value          float64   `json:"value"`
	Threshold      float64   `json:"threshold"`
	Recommendation string    `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"`
}

// Alert categories.
const (
	CategoryWaterLevel  = "water_level"
	CategoryDepletion   = "depletion"
	CategoryRainfall    = "rainfall"
	CategoryPH          = "ph"
	CategoryConsumption = "consumption"
	CategoryScarcity    = "scarcity"
	CategoryTrend       = "trend"
	CategoryDistrict    = "district"
)

// Ranking is one row of the district leaderboard.
type Ranking struct {
	Location string `json:"location"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
	Trend    string `json:"trend"`
	Rank     int    `json:"rank"`
}

// HeatmapPoint projects a location's latest state onto map coordinates.
// Intensity grows as the score worsens: max(0.1, (100−score)/100).
type HeatmapPoint struct {
	Location  string  `json:"location"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
	Status    string  `json:"status"`
}

// Suggestion is one search result, enriched with the location's latest state.
type Suggestion struct {
	Location string `json:"location"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
	Trend    string `json:"trend"`
}
