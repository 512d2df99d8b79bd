package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hydrowatch/groundwater-insight/internal/config"
	"github.com/hydrowatch/groundwater-insight/internal/ingest"
)

// Writer publishes scored observations to the sink topic.
// It implements ingest.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes a batch of records in a single
// WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, records []ingest.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record's scored observation into a Kafka
// message keyed by location so per-site ordering is preserved.
func serializeToMessage(rec ingest.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec.Observation)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Observation.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "year", Value: []byte(strconv.Itoa(rec.Observation.Year))},
			{Key: "status", Value: []byte(rec.Observation.Status)},
		},
	}, nil
}
