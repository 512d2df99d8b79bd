package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
	"github.com/hydrowatch/groundwater-insight/internal/ingest"
	"github.com/hydrowatch/groundwater-insight/internal/observability"
	"github.com/hydrowatch/groundwater-insight/internal/store"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// Block until cancellation to simulate waiting for messages.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type failingLoader struct {
	err error
}

func (f *failingLoader) LoadBatch(context.Context, []ingest.Record) error {
	return f.err
}

type capturingLoader struct {
	loaded []ingest.Record
}

func (c *capturingLoader) LoadBatch(_ context.Context, records []ingest.Record) error {
	c.loaded = append(c.loaded, records...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "Anantapur", 2023)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := ingest.NewTransformer(nil, slog.Default())
	ldr := &capturingLoader{}

	p := ingest.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "Anantapur", ldr.loaded[0].Observation.Location)
	assert.NotZero(t, ldr.loaded[0].Observation.WaterScore)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	tfm := ingest.NewTransformer(nil, slog.Default())
	ldr := &capturingLoader{}

	p := ingest.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SkipsBadRecords(t *testing.T) {
	committed := map[string]bool{}
	bad := domain.RawEvent{Value: []byte("not json"), Offset: 1}
	bad.Commit = func(context.Context) error { committed["bad"] = true; return nil }
	good := makeRawEvent(t, "Bellary", 2023)
	good.Commit = func(context.Context) error { committed["good"] = true; return nil }

	ext := &mockExtractor{batches: [][]domain.RawEvent{{bad, good}}}
	tfm := ingest.NewTransformer(nil, slog.Default())
	ldr := &capturingLoader{}

	p := ingest.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "Bellary", ldr.loaded[0].Observation.Location)

	// Bad records are committed so they are not re-consumed forever.
	assert.True(t, committed["bad"])
	assert.True(t, committed["good"])
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, "Anantapur", 2023)
	raw.Commit = func(context.Context) error { committed = true; return nil }

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := ingest.NewTransformer(nil, slog.Default())
	ldr := &failingLoader{err: errors.New("sink unavailable")}

	p := ingest.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.False(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestMultiLoader(t *testing.T) {
	first := &capturingLoader{}
	second := &capturingLoader{}
	ml := ingest.MultiLoader{first, second}

	rec := ingest.Record{Observation: domain.Enrich(domain.Observation{Location: "Anantapur", Year: 2023, PH: 7})}
	require.NoError(t, ml.LoadBatch(context.Background(), []ingest.Record{rec}))
	assert.Len(t, first.loaded, 1)
	assert.Len(t, second.loaded, 1)

	failing := ingest.MultiLoader{&failingLoader{err: errors.New("down")}, second}
	assert.Error(t, failing.LoadBatch(context.Background(), []ingest.Record{rec}))
	assert.Len(t, second.loaded, 1, "loader after the failure must not run")
}

func TestStoreLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("base reading expands into history", func(t *testing.T) {
		s := store.New()
		ldr := ingest.NewStoreLoader(s, 6, slog.Default(), newTestMetrics())

		rec := record("Anantapur", 2023, 9.5)
		require.NoError(t, ldr.LoadBatch(ctx, []ingest.Record{rec}))

		series := s.SeriesFor("Anantapur")
		require.Len(t, series, 6)
		assert.Equal(t, 2018, series[0].Year)
		assert.Equal(t, rec.Observation.Observation, series[5], "base year passes through unmodified")
		assert.True(t, s.HasLocation("Anantapur"))
	})

	t.Run("multi-year batch is stored verbatim", func(t *testing.T) {
		s := store.New()
		ldr := ingest.NewStoreLoader(s, 6, slog.Default(), newTestMetrics())

		batch := []ingest.Record{
			record("Bellary", 2021, 10),
			record("Bellary", 2022, 11),
			record("Bellary", 2023, 12),
		}
		require.NoError(t, ldr.LoadBatch(ctx, batch))

		series := s.SeriesFor("Bellary")
		require.Len(t, series, 3, "no synthetic rows for real history")
	})

	t.Run("known location upserts without re-expanding", func(t *testing.T) {
		s := store.New()
		ldr := ingest.NewStoreLoader(s, 6, slog.Default(), newTestMetrics())

		require.NoError(t, ldr.LoadBatch(ctx, []ingest.Record{record("Anantapur", 2023, 9.5)}))
		require.NoError(t, ldr.LoadBatch(ctx, []ingest.Record{record("Anantapur", 2024, 10.1)}))

		series := s.SeriesFor("Anantapur")
		require.Len(t, series, 7)
		assert.Equal(t, 2024, series[6].Year)
	})
}

// --- helpers ---

func makeRawEvent(t *testing.T, location string, year int) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.RawRecord{
		Location:         location,
		Year:             strconv.Itoa(year),
		Rainfall:         "820",
		DepletionRate:    "3.4",
		PH:               "7.2",
		GroundwaterLevel: "9.5",
		District:         "Anantapur",
		State:            "Andhra Pradesh",
	})
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(location), Value: data}
}

func record(location string, year int, level float64) ingest.Record {
	obs := domain.Observation{
		Location:         location,
		Year:             year,
		Rainfall:         820,
		DepletionRate:    3.4,
		ScarcityLevel:    domain.ScarcityModerate,
		PH:               7.2,
		GroundwaterLevel: level,
	}
	return ingest.Record{
		Observation: domain.Enrich(obs),
		Location:    domain.Location{Name: location, District: "Anantapur", State: "Andhra Pradesh"},
	}
}
