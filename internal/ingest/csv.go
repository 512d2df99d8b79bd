package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
)

// ReadRecords parses CSV rows into raw records. The first row must be a
// header; columns are matched by name after lowercasing and stripping
// spaces and underscores, so "Groundwater Level", "groundwater_level" and
// "GroundwaterLevel" all resolve to the same field. Unknown columns are
// ignored and missing ones yield empty strings for the parser to default.
func ReadRecords(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[canonicalColumn(col)] = i
	}
	if _, ok := index["location"]; !ok {
		if i, ok := index["name"]; ok {
			index["location"] = i
		}
	}

	var records []domain.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(records)+2, err)
		}

		field := func(names ...string) string {
			for _, name := range names {
				if i, ok := index[name]; ok && i < len(row) {
					return strings.TrimSpace(row[i])
				}
			}
			return ""
		}

		records = append(records, domain.RawRecord{
			Location:          field("location"),
			Year:              field("year"),
			Consumption:       field("consumption"),
			PerCapitaUsage:    field("percapitausage"),
			AgriculturalUsage: field("agriculturalusage"),
			IndustrialUsage:   field("industrialusage"),
			HouseholdUsage:    field("householdusage"),
			Rainfall:          field("rainfall"),
			DepletionRate:     field("depletionrate"),
			ScarcityLevel:     field("scarcitylevel"),
			PH:                field("ph", "phlevel"),
			GroundwaterLevel:  field("groundwaterlevel", "waterlevel"),
			District:          field("district"),
			State:             field("state"),
			Latitude:          field("latitude", "lat"),
			Longitude:         field("longitude", "lng", "lon"),
		})
	}
	return records, nil
}

func canonicalColumn(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "_", "")
}
