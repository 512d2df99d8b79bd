package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hydrowatch/groundwater-insight/internal/domain"
)

// RecordTransformer converts an already-decoded raw row into a record.
type RecordTransformer interface {
	TransformRecord(ctx context.Context, rec domain.RawRecord) (Record, error)
}

// Seed reads a CSV stream, transforms every row, and loads the results in
// batches. Rows that fail to parse are logged and skipped. It returns the
// number of rows loaded.
func Seed(ctx context.Context, r io.Reader, t RecordTransformer, l BatchLoader, batchSize int, logger *slog.Logger) (int, error) {
	rows, err := ReadRecords(r)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}

	loaded := 0
	batch := make([]Record, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.LoadBatch(ctx, batch); err != nil {
			return fmt.Errorf("seed: load batch: %w", err)
		}
		loaded += len(batch)
		batch = batch[:0]
		return nil
	}

	for i, row := range rows {
		rec, err := t.TransformRecord(ctx, row)
		if err != nil {
			logger.Warn("seed row skipped", "row", i+2, "error", err)
			continue
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return loaded, err
			}
		}
	}
	if err := flush(); err != nil {
		return loaded, err
	}

	logger.Info("seed complete", "rows", len(rows), "loaded", loaded)
	return loaded, nil
}
