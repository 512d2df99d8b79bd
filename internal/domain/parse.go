package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawRecord is the flat, string-typed observation row produced by CSV
// ingestion and by upstream collectors publishing to Kafka. Every field
// arrives as text; parsing applies the documented defaults.
type RawRecord struct {
	Location          string `json:"Location"`
	Year              string `json:"Year"`
	Consumption       string `json:"Consumption"`
	PerCapitaUsage    string `json:"PerCapitaUsage"`
	AgriculturalUsage string `json:"AgriculturalUsage"`
	IndustrialUsage   string `json:"IndustrialUsage"`
	HouseholdUsage    string `json:"HouseholdUsage"`
	Rainfall          string `json:"Rainfall"`
	DepletionRate     string `json:"DepletionRate"`
	ScarcityLevel     string `json:"ScarcityLevel"`
	PH                string `json:"PH"`
	GroundwaterLevel  string `json:"GroundwaterLevel"`
	District          string `json:"District"`
	State             string `json:"State"`
	Latitude          string `json:"Latitude"`
	Longitude         string `json:"Longitude"`
}

// RawEvent represents an unprocessed message from the ingestion source.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseRawEvent deserializes a RawEvent's value into an Observation and its
// Location record. It expects the flat JSON encoding of a RawRecord.
func ParseRawEvent(raw RawEvent) (Observation, Location, error) {
	var rec RawRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Observation{}, Location{}, fmt.Errorf("parse raw event: %w", err)
	}
	return ParseRawRecord(rec)
}

// ParseRawRecord converts a string-typed row into an Observation plus its
// Location. Location name and a plausible year are required; numeric fields
// default to zero, pH to neutral 7.0, and a missing scarcity level is
// classified from depletion rate and rainfall. Missing coordinates fall
// back to the deterministic name-hash placement.
func ParseRawRecord(rec RawRecord) (Observation, Location, error) {
	name := strings.TrimSpace(rec.Location)
	if name == "" {
		return Observation{}, Location{}, fmt.Errorf("parse raw record: missing location name")
	}

	year, err := strconv.Atoi(strings.TrimSpace(rec.Year))
	if err != nil || year < 1900 || year > 2200 {
		return Observation{}, Location{}, fmt.Errorf("parse raw record for %q: invalid year %q", name, rec.Year)
	}

	obs := Observation{
		Location:          name,
		Year:              year,
		Consumption:       parseFloatOrZero(rec.Consumption),
		PerCapitaUsage:    parseFloatOrZero(rec.PerCapitaUsage),
		AgriculturalUsage: parseFloatOrZero(rec.AgriculturalUsage),
		IndustrialUsage:   parseFloatOrZero(rec.IndustrialUsage),
		HouseholdUsage:    parseFloatOrZero(rec.HouseholdUsage),
		Rainfall:          parseFloatOrZero(rec.Rainfall),
		DepletionRate:     parseFloatOrZero(rec.DepletionRate),
		ScarcityLevel:     normalizeScarcity(rec.ScarcityLevel),
		PH:                parsePH(rec.PH),
		GroundwaterLevel:  parseFloatOrZero(rec.GroundwaterLevel),
	}
	if obs.ScarcityLevel == "" {
		obs.ScarcityLevel = ClassifyScarcity(obs.DepletionRate, obs.Rainfall)
	}

	loc := Location{
		Name:      name,
		District:  strings.TrimSpace(rec.District),
		State:     strings.TrimSpace(rec.State),
		Latitude:  parseFloatOrZero(rec.Latitude),
		Longitude: parseFloatOrZero(rec.Longitude),
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		loc.Latitude, loc.Longitude = FallbackCoordinates(name)
	}

	return obs, loc, nil
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parsePH returns neutral 7.0 for missing or unparseable pH readings.
func parsePH(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 7.0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 7.0
	}
	return v
}

// normalizeScarcity accepts the five known levels case-insensitively and
// maps anything else to empty so the caller reclassifies.
func normalizeScarcity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ScarcityLow
	case "moderate":
		return ScarcityModerate
	case "high":
		return ScarcityHigh
	case "severe":
		return ScarcitySevere
	case "extreme":
		return ScarcityExtreme
	default:
		return ""
	}
}
