// Package store owns the in-memory observation and location collections.
// The engine in internal/domain is pure; all collection state lives here,
// guarded by a single mutex so mutations serialize against reads. Every
// mutation fires the registered hooks synchronously, which is how cached
// aggregates get invalidated before any reader can observe stale results.
package store

import (
	"sort"
	"sync"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
)

type observationKey struct {
	location string
	year     int
}

// Store is the injected data context for the analytics engine.
type Store struct {
	mu           sync.RWMutex
	observations map[observationKey]domain.Observation
	locations    map[string]domain.Location
	onMutate     []func()
}

// New creates an empty store.
func New() *Store {
	return &Store{
		observations: make(map[observationKey]domain.Observation),
		locations:    make(map[string]domain.Location),
	}
}

// OnMutate registers a hook invoked synchronously, under the write lock,
// after every mutation. Used to invalidate derived caches.
func (s *Store) OnMutate(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = append(s.onMutate, hook)
}

// UpsertObservations inserts or replaces observations keyed by
// (location, year). Re-ingesting the same key replaces the record.
func (s *Store) UpsertObservations(observations []domain.Observation) {
	if len(observations) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, obs := range observations {
		s.observations[observationKey{location: obs.Location, year: obs.Year}] = obs
	}
	s.notifyLocked()
}

// UpsertLocation inserts a location on first sighting of its name and
// replaces it afterwards.
func (s *Store) UpsertLocation(loc domain.Location) {
	if loc.Name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locations[loc.Name] = loc
	s.notifyLocked()
}

// HasLocation reports whether a location name has been seen.
func (s *Store) HasLocation(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.locations[name]
	return ok
}

// HasObservation reports whether a (location, year) record exists.
func (s *Store) HasObservation(location string, year int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.observations[observationKey{location: location, year: year}]
	return ok
}

// Observations returns a snapshot of every observation, sorted by location
// name then ascending year.
func (s *Store) Observations() []domain.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Observation, 0, len(s.observations))
	for _, obs := range s.observations {
		out = append(out, obs)
	}
	sortObservations(out)
	return out
}

// SeriesFor returns one location's observations ascending by year, or nil
// when the location is unknown.
func (s *Store) SeriesFor(location string) []domain.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var series []domain.Observation
	for key, obs := range s.observations {
		if key.location == location {
			series = append(series, obs)
		}
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	return series
}

// Locations returns a name-indexed snapshot of every known location.
func (s *Store) Locations() map[string]domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Location, len(s.locations))
	for name, loc := range s.locations {
		out[name] = loc
	}
	return out
}

// Location returns a single location record by name.
func (s *Store) Location(name string) (domain.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[name]
	return loc, ok
}

// Counts returns the number of stored observations and locations.
func (s *Store) Counts() (observations, locations int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observations), len(s.locations)
}

func (s *Store) notifyLocked() {
	for _, hook := range s.onMutate {
		hook()
	}
}

func sortObservations(observations []domain.Observation) {
	sort.Slice(observations, func(i, j int) bool {
		if observations[i].Location != observations[j].Location {
			return observations[i].Location < observations[j].Location
		}
		return observations[i].Year < observations[j].Year
	})
}
