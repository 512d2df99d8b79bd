package ingest

import (
	"context"
	"log/slog"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
	"github.com/hydrowatch/groundwater-insight/internal/observability"
	"github.com/hydrowatch/groundwater-insight/internal/store"
)

// StoreLoader loads transformed records into the in-memory store. A location
// that arrives with a single observation and no prior history is treated as
// a base reading and expanded into a deterministic historical series;
// locations with real multi-year data are stored as-is.
type StoreLoader struct {
	store       *store.Store
	seriesYears int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewStoreLoader creates a StoreLoader synthesizing seriesYears of history
// per newly seen location.
func NewStoreLoader(s *store.Store, seriesYears int, logger *slog.Logger, metrics *observability.Metrics) *StoreLoader {
	return &StoreLoader{
		store:       s,
		seriesYears: seriesYears,
		logger:      logger,
		metrics:     metrics,
	}
}

func (l *StoreLoader) LoadBatch(_ context.Context, records []Record) error {
	perLocation := make(map[string]int, len(records))
	hadHistory := make(map[string]bool, len(records))
	observations := make([]domain.Observation, 0, len(records))

	for _, rec := range records {
		obs := rec.Observation.Observation
		if _, seen := perLocation[obs.Location]; !seen {
			hadHistory[obs.Location] = len(l.store.SeriesFor(obs.Location)) > 0
		}
		perLocation[obs.Location]++
		observations = append(observations, obs)
		l.store.UpsertLocation(rec.Location)
	}

	l.store.UpsertObservations(observations)
	inserted := len(observations)

	// Expand base readings into history. Only locations that arrived with a
	// single year and had none stored before qualify, so real multi-year
	// data is never mixed with synthetic rows.
	var synthesized int
	if l.seriesYears > 1 {
		for _, rec := range records {
			base := rec.Observation.Observation
			if perLocation[base.Location] != 1 || hadHistory[base.Location] {
				continue
			}
			series := domain.GenerateSeries(base, domain.TargetYears(base.Year, l.seriesYears))
			l.store.UpsertObservations(series[:len(series)-1])
			synthesized += len(series) - 1
		}
	}

	l.metrics.ObservationsIngested.Add(float64(inserted))
	l.metrics.SeriesSynthesized.Add(float64(synthesized))
	if synthesized > 0 {
		l.logger.Debug("synthesized historical series",
			"records", len(records), "synthesized", synthesized)
	}
	return nil
}
