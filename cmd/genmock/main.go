// Command genmock reads a groundwater seed CSV and generates JSON fixtures
// for the test suites: the raw rows as ingested, and the fully synthesized,
// scored series produced by the actual domain package, so fixture output
// matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/seed/groundwater.csv \
//	  -raw-out data/mock/groundwater_raw.json \
//	  -enriched-out data/mock/groundwater_enriched.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
	"github.com/hydrowatch/groundwater-insight/internal/ingest"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "path to the seed CSV file")
	rawOut := flag.String("raw-out", "", "output path for the raw JSON fixture")
	enrichedOut := flag.String("enriched-out", "", "output path for the enriched JSON fixture")
	years := flag.Int("years", domain.DefaultSeriesYears, "synthesized series depth per location")
	flag.Parse()

	if *csvPath == "" || *rawOut == "" || *enrichedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -raw-out, -enriched-out")
	}

	// Fix the clock so alert timestamps in fixtures are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open seed csv: %w", err)
	}
	defer f.Close()

	rows, err := ingest.ReadRecords(f)
	if err != nil {
		return err
	}
	log.Printf("read %d seed rows", len(rows))

	var enriched []domain.EnrichedObservation //nolint:prealloc // size depends on CSV contents
	for i, row := range rows {
		obs, _, err := domain.ParseRawRecord(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		series := domain.GenerateSeries(obs, domain.TargetYears(obs.Year, *years))
		enriched = append(enriched, domain.EnrichSeries(series)...)
	}

	if err := writeJSON(*rawOut, rows); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s", *rawOut)

	if err := writeJSON(*enrichedOut, enriched); err != nil {
		return fmt.Errorf("writing enriched fixture: %w", err)
	}
	log.Printf("wrote enriched fixture: %s", *enrichedOut)

	printStats(enriched)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(enriched []domain.EnrichedObservation) {
	statusCounts := map[string]int{}
	scarcityCounts := map[string]int{}
	trendByLocation := map[string][]domain.EnrichedObservation{}

	minScore, maxScore := 101, -1
	for _, obs := range enriched {
		statusCounts[obs.Status]++
		scarcityCounts[obs.ScarcityLevel]++
		trendByLocation[obs.Location] = append(trendByLocation[obs.Location], obs)
		if obs.WaterScore < minScore {
			minScore = obs.WaterScore
		}
		if obs.WaterScore > maxScore {
			maxScore = obs.WaterScore
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total observations: %d across %d locations\n", len(enriched), len(trendByLocation))
	fmt.Printf("Score range: %d..%d\n", minScore, maxScore)
	fmt.Printf("By status: safe=%d, warning=%d, critical=%d\n",
		statusCounts[domain.StatusSafe], statusCounts[domain.StatusWarning], statusCounts[domain.StatusCritical])
	fmt.Printf("By scarcity: low=%d, moderate=%d, high=%d, severe=%d, extreme=%d\n",
		scarcityCounts[domain.ScarcityLow], scarcityCounts[domain.ScarcityModerate],
		scarcityCounts[domain.ScarcityHigh], scarcityCounts[domain.ScarcitySevere],
		scarcityCounts[domain.ScarcityExtreme])

	printTrendBreakdown(trendByLocation)
}

func printTrendBreakdown(byLocation map[string][]domain.EnrichedObservation) {
	names := make([]string, 0, len(byLocation))
	for name := range byLocation {
		names = append(names, name)
	}
	sort.Strings(names)

	trendCounts := map[string]int{}
	for _, name := range names {
		series := byLocation[name]
		sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
		trendCounts[domain.Trend(series)]++
	}
	fmt.Printf("Trends: improving=%d, stable=%d, declining=%d\n",
		trendCounts[domain.TrendImproving], trendCounts[domain.TrendStable], trendCounts[domain.TrendDeclining])

	// First location's series, handy for spot checks.
	if len(names) > 0 {
		series := byLocation[names[0]]
		fmt.Printf("\nFirst location (%s):\n", names[0])
		for _, obs := range series {
			fmt.Printf("  %d: level=%.2f rainfall=%.2f depletion=%.2f score=%d status=%s\n",
				obs.Year, obs.GroundwaterLevel, obs.Rainfall, obs.DepletionRate, obs.WaterScore, obs.Status)
		}
	}
}
