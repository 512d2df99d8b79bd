package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
	"github.com/hydrowatch/groundwater-insight/internal/ingest"
)

// locationSummary is the list-view projection: the scored latest observation
// plus where the site sits on the map.
type locationSummary struct {
	domain.EnrichedObservation
	Trend string          `json:"trend"`
	Site  domain.Location `json:"site"`
}

// locationDetail is the single-site projection with the full scored series.
type locationDetail struct {
	Site   domain.Location              `json:"site"`
	Latest domain.EnrichedObservation   `json:"latest"`
	Trend  string                       `json:"trend"`
	Series []domain.EnrichedObservation `json:"series"`
}

func (s *Server) handleLocations(w http.ResponseWriter, _ *http.Request) {
	result := s.cached("locations", func() any {
		latest := s.latestEnriched()
		trends := s.trendsFor(latest)
		locations := s.store.Locations()

		summaries := make([]locationSummary, 0, len(latest))
		for _, obs := range latest {
			summaries = append(summaries, locationSummary{
				EnrichedObservation: obs,
				Trend:               trends[obs.Location],
				Site:                locations[obs.Location],
			})
		}
		return summaries
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLocationDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	series := s.store.SeriesFor(name)
	if len(series) == 0 {
		writeError(w, http.StatusNotFound, "unknown location: "+name)
		return
	}

	enriched := domain.EnrichSeries(series)
	site, _ := s.store.Location(name)
	writeJSON(w, http.StatusOK, locationDetail{
		Site:   site,
		Latest: enriched[len(enriched)-1],
		Trend:  domain.Trend(enriched),
		Series: enriched,
	})
}

func (s *Server) handleLocationTrends(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	series := s.store.SeriesFor(name)
	if len(series) == 0 {
		writeError(w, http.StatusNotFound, "unknown location: "+name)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"location":       name,
		"trend":          domain.Trend(domain.EnrichSeries(series)),
		"yearly_changes": domain.YearlyChanges(series),
	})
}

func (s *Server) handleLocationAlerts(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	series := s.store.SeriesFor(name)
	if len(series) == 0 {
		writeError(w, http.StatusNotFound, "unknown location: "+name)
		return
	}

	enriched := domain.EnrichSeries(series)
	alerts := domain.ThresholdAlerts(enriched[len(enriched)-1])
	alerts = append(alerts, domain.TrendAlerts(name, enriched)...)
	writeJSON(w, http.StatusOK, map[string]any{
		"location": name,
		"alerts":   alerts,
	})
}

func (s *Server) handleLocationForecast(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	series := s.store.SeriesFor(name)
	if len(series) == 0 {
		writeError(w, http.StatusNotFound, "unknown location: "+name)
		return
	}

	years := s.forecastYears
	if param := r.URL.Query().Get("years"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid years parameter: "+param)
			return
		}
		years = parsed
	}

	predictions, err := domain.Forecast(series, years)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientHistory) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("forecast failed", "location", name, "error", err)
		writeError(w, http.StatusInternalServerError, "forecast failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"location":    name,
		"predictions": predictions,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	result := s.cached("alerts", func() any {
		latest := s.latestEnriched()

		var alerts []domain.Alert
		for _, obs := range latest {
			alerts = append(alerts, domain.ThresholdAlerts(obs)...)
			series := domain.EnrichSeries(s.store.SeriesFor(obs.Location))
			alerts = append(alerts, domain.TrendAlerts(obs.Location, series)...)
		}
		alerts = append(alerts, domain.DistrictAlerts(latest)...)
		if alerts == nil {
			alerts = []domain.Alert{}
		}
		return alerts
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRankings(w http.ResponseWriter, _ *http.Request) {
	result := s.cached("rankings", func() any {
		latest := s.latestEnriched()
		return domain.BuildRankings(latest, s.trendsFor(latest))
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDistrictStats(w http.ResponseWriter, _ *http.Request) {
	result := s.cached("district_stats", func() any {
		latest := s.latestEnriched()
		return domain.BuildExtendedStats(latest, s.trendsFor(latest), s.avgChangeRates(latest))
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, _ *http.Request) {
	result := s.cached("heatmap", func() any {
		return domain.BuildHeatmap(s.latestEnriched(), s.store.Locations())
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	latest := s.latestEnriched()
	suggestions := domain.SearchSuggestions(query, latest, s.store.Locations(), s.trendsFor(latest))
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// handleUpload ingests a CSV body through the same transform-load path as
// the streaming pipeline. The store's mutation hook invalidates cached
// aggregates, so subsequent reads see the new data immediately.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	loaded, err := ingest.Seed(r.Context(), r.Body, s.transformer, s.loader, s.batchSize, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"loaded": loaded})
}

// latestEnriched scores the most recent observation of every location.
func (s *Server) latestEnriched() []domain.EnrichedObservation {
	return domain.EnrichSeries(domain.LatestPerLocation(s.store.Observations()))
}

// trendsFor computes the trend verdict per location from its full series.
func (s *Server) trendsFor(latest []domain.EnrichedObservation) map[string]string {
	trends := make(map[string]string, len(latest))
	for _, obs := range latest {
		series := domain.EnrichSeries(s.store.SeriesFor(obs.Location))
		trends[obs.Location] = domain.Trend(series)
	}
	return trends
}

// avgChangeRates averages each location's most recent year-over-year percent
// change per metric across the district.
func (s *Server) avgChangeRates(latest []domain.EnrichedObservation) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, obs := range latest {
		changes := domain.YearlyChanges(s.store.SeriesFor(obs.Location))
		if len(changes) == 0 {
			continue
		}
		for metric, pct := range changes[len(changes)-1].Changes {
			sums[metric] += pct
			counts[metric]++
		}
	}

	rates := make(map[string]float64, len(sums))
	for metric, sum := range sums {
		rates[metric] = math.Round(sum/float64(counts[metric])*10) / 10
	}
	return rates
}
