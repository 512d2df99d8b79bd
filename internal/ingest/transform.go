package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
)

// ObservationTransformer implements Transformer using the domain parsing and
// scoring functions with optional geocoding enrichment.
type ObservationTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates an ObservationTransformer. Pass a nil geocoder to
// disable geocoding enrichment.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *ObservationTransformer {
	return &ObservationTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *ObservationTransformer) Transform(ctx context.Context, raw domain.RawEvent) (Record, error) {
	var rec domain.RawRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Record{}, fmt.Errorf("decode raw event: %w", err)
	}
	return t.TransformRecord(ctx, rec)
}

// TransformRecord parses and scores one raw row. CSV seeding and the upload
// endpoint call this directly, bypassing the event envelope.
func (t *ObservationTransformer) TransformRecord(ctx context.Context, rec domain.RawRecord) (Record, error) {
	obs, loc, err := domain.ParseRawRecord(rec)
	if err != nil {
		return Record{}, err
	}

	hadCoords := parsedNonZero(rec.Latitude) || parsedNonZero(rec.Longitude)
	loc = t.geocode(ctx, loc, hadCoords)

	return Record{
		Observation: domain.Enrich(obs),
		Location:    loc,
	}, nil
}

// geocode fills in what the row left out: coordinates when only a name was
// given, district and state when only coordinates were. Failures degrade to
// the parsed values, which already carry deterministic fallback coordinates.
func (t *ObservationTransformer) geocode(ctx context.Context, loc domain.Location, hadCoords bool) domain.Location {
	if t.geocoder == nil {
		return loc
	}

	if !hadCoords {
		result, err := t.geocoder.ForwardGeocode(ctx, loc.Name, loc.State)
		if err != nil {
			t.logger.Warn("forward geocoding failed", "location", loc.Name, "error", err)
			return loc
		}
		if result.Lat != 0 || result.Lng != 0 {
			loc.Latitude = result.Lat
			loc.Longitude = result.Lng
		}
		return loc
	}

	if loc.District == "" || loc.State == "" {
		result, err := t.geocoder.ReverseGeocode(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			t.logger.Warn("reverse geocoding failed",
				"location", loc.Name, "lat", loc.Latitude, "lng", loc.Longitude, "error", err)
			return loc
		}
		if loc.District == "" {
			loc.District = result.PlaceName
		}
		if loc.State == "" {
			loc.State = result.FormattedAddress
		}
	}
	return loc
}

func parsedNonZero(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && v != 0
}
