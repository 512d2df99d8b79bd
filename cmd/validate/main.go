// Command validate performs end-to-end integrity checks across the mock
// data fixtures: seed CSV rows, the raw JSON fixture, and the enriched JSON
// fixture. It verifies parse correctness, regeneration determinism, scoring
// invariants, and forecast sanity.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/seed/groundwater.csv \
//	  -raw-json data/mock/groundwater_raw.json \
//	  -enriched-json data/mock/groundwater_enriched.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
	"github.com/hydrowatch/groundwater-insight/internal/ingest"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the seed CSV file")
	rawJSON := flag.String("raw-json", "", "path to the raw JSON fixture")
	enrichedJSON := flag.String("enriched-json", "", "path to the enriched JSON fixture")
	years := flag.Int("years", domain.DefaultSeriesYears, "series depth used when the fixtures were generated")
	flag.Parse()

	if *csvPath == "" || *rawJSON == "" || *enrichedJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *rawJSON, *enrichedJSON, *years); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, rawJSONPath, enrichedJSONPath string, years int) int {
	// Fix the clock to match genmock so regenerated output is comparable.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Groundwater Data Integrity Validation ===")
	fmt.Println()

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open seed CSV: %v\n", err)
		return 1
	}
	seedRows, err := ingest.ReadRecords(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read seed CSV: %v\n", err)
		return 1
	}

	rawRows, err := loadJSON[domain.RawRecord](rawJSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	enriched, err := loadJSON[domain.EnrichedObservation](enrichedJSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load enriched JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSourceParity(seedRows, rawRows),
		validateRegeneration(rawRows, enriched, years),
		validateScoringInvariants(enriched),
		validateForecasts(enriched),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d seed CSV, %d raw JSON, %d enriched JSON\n",
		len(seedRows), len(rawRows), len(enriched))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Source Parity ──
// The raw JSON fixture must be the seed CSV row for row.

func validateSourceParity(seed, raw []domain.RawRecord) *phase {
	p := &phase{name: "Phase 1: Source Parity (CSV vs raw JSON)"}

	if len(seed) != len(raw) {
		p.errorf("seed has %d rows, raw fixture has %d", len(seed), len(raw))
		return p
	}
	for i := range seed {
		if seed[i] != raw[i] {
			p.errorf("row %d: seed and raw fixture differ (location %q vs %q)",
				i+2, seed[i].Location, raw[i].Location)
		}
	}
	return p
}

// ── Phase 2: Regeneration ──
// Re-running parse, synthesis and scoring on the raw rows must reproduce
// the enriched fixture exactly; the whole pipeline is deterministic.

func validateRegeneration(raw []domain.RawRecord, enriched []domain.EnrichedObservation, years int) *phase {
	p := &phase{name: "Phase 2: Regeneration (determinism)"}

	var regenerated []domain.EnrichedObservation
	for i, row := range raw {
		obs, _, err := domain.ParseRawRecord(row)
		if err != nil {
			p.errorf("raw row %d: %v", i+2, err)
			continue
		}
		series := domain.GenerateSeries(obs, domain.TargetYears(obs.Year, years))
		regenerated = append(regenerated, domain.EnrichSeries(series)...)
	}

	if len(regenerated) != len(enriched) {
		p.errorf("regenerated %d observations, fixture has %d", len(regenerated), len(enriched))
		return p
	}
	for i := range regenerated {
		if regenerated[i] != enriched[i] {
			p.errorf("observation %d (%s %d): regenerated output differs from fixture",
				i, enriched[i].Location, enriched[i].Year)
		}
	}
	return p
}

// ── Phase 3: Scoring Invariants ──

var (
	validStatuses = map[string]string{
		domain.StatusSafe:     "#2e7d32",
		domain.StatusWarning:  "#f9a825",
		domain.StatusCritical: "#c62828",
	}
	validScarcities = map[string]bool{
		domain.ScarcityLow: true, domain.ScarcityModerate: true, domain.ScarcityHigh: true,
		domain.ScarcitySevere: true, domain.ScarcityExtreme: true,
	}
)

func validateScoringInvariants(enriched []domain.EnrichedObservation) *phase {
	p := &phase{name: "Phase 3: Scoring Invariants"}

	for i := range enriched {
		checkObservation(p, i, &enriched[i])
	}
	checkSeriesShape(p, enriched)
	return p
}

func checkObservation(p *phase, i int, e *domain.EnrichedObservation) {
	pf := func(format string, args ...any) {
		p.errorf("observation %d (%s %d): "+format, append([]any{i, e.Location, e.Year}, args...)...)
	}

	if e.WaterScore < 0 || e.WaterScore > 100 {
		pf("water score %d out of [0,100]", e.WaterScore)
	}
	color, ok := validStatuses[e.Status]
	if !ok {
		pf("status %q not in {Safe, Warning, Critical}", e.Status)
	} else if e.StatusColor != color {
		pf("status %q carries color %q, expected %q", e.Status, e.StatusColor, color)
	}
	if !validScarcities[e.ScarcityLevel] {
		pf("scarcity level %q invalid", e.ScarcityLevel)
	}
	if e.PH < 0 || e.PH > 14 {
		pf("pH %.2f out of [0,14]", e.PH)
	}
	if e.GroundwaterLevel < 0 || e.Rainfall < 0 || e.DepletionRate < 0 {
		pf("negative metric: level=%.2f rainfall=%.2f depletion=%.2f",
			e.GroundwaterLevel, e.Rainfall, e.DepletionRate)
	}
	if e.SustainabilityScore < 0 || e.SustainabilityScore > 100 {
		pf("sustainability score %d out of [0,100]", e.SustainabilityScore)
	}
}

// checkSeriesShape verifies each location's years are consecutive with no
// duplicates.
func checkSeriesShape(p *phase, enriched []domain.EnrichedObservation) {
	byLocation := groupByLocation(enriched)
	for name, series := range byLocation {
		for i := 1; i < len(series); i++ {
			if series[i].Year != series[i-1].Year+1 {
				p.errorf("%s: years %d and %d are not consecutive", name, series[i-1].Year, series[i].Year)
			}
		}
	}
}

// ── Phase 4: Forecast Sanity ──

func validateForecasts(enriched []domain.EnrichedObservation) *phase {
	p := &phase{name: "Phase 4: Forecast Sanity"}

	for name, series := range groupByLocation(enriched) {
		plain := make([]domain.Observation, len(series))
		for i := range series {
			plain[i] = series[i].Observation
		}

		predictions, err := domain.Forecast(plain, domain.DefaultForecastYears)
		if err != nil {
			p.errorf("%s: forecast failed: %v", name, err)
			continue
		}

		lastYear := plain[len(plain)-1].Year
		for i, pred := range predictions {
			if pred.Year != lastYear+i+1 {
				p.errorf("%s: prediction %d has year %d, expected %d", name, i, pred.Year, lastYear+i+1)
			}
			checkInterval(p, name, pred.Year, "groundwater_level", pred.GroundwaterLevel)
			checkInterval(p, name, pred.Year, "rainfall", pred.Rainfall)
			checkInterval(p, name, pred.Year, "depletion_rate", pred.DepletionRate)
		}
	}
	return p
}

func checkInterval(p *phase, name string, year int, metric string, iv domain.PredictionInterval) {
	if iv.Lower > iv.Value || iv.Value > iv.Upper {
		p.errorf("%s %d: %s interval violated: lower=%.2f value=%.2f upper=%.2f",
			name, year, metric, iv.Lower, iv.Value, iv.Upper)
	}
	if iv.Lower < 0 {
		p.errorf("%s %d: %s lower bound %.2f below zero", name, year, metric, iv.Lower)
	}
}

// ── Helpers ──

func groupByLocation(enriched []domain.EnrichedObservation) map[string][]domain.EnrichedObservation {
	byLocation := map[string][]domain.EnrichedObservation{}
	for _, obs := range enriched {
		byLocation[obs.Location] = append(byLocation[obs.Location], obs)
	}
	for _, series := range byLocation {
		sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	}
	return byLocation
}
