// Package kafka adapts segmentio/kafka-go to the ingestion pipeline: a
// consumer-group Reader implements ingest.BatchExtractor and a Writer
// publishes scored observations to the sink topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hydrowatch/groundwater-insight/internal/config"
	"github.com/hydrowatch/groundwater-insight/internal/domain"
)

// Reader consumes raw observation events from the source topic as part of a
// consumer group. Offsets are committed explicitly through each event's
// Commit callback, after the batch has been loaded.
type Reader struct {
	reader    *kafkago.Reader
	logger    *slog.Logger
	fillDelay time.Duration
}

// NewReader creates a consumer-group reader for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaSourceTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // explicit commits only
	})
	return &Reader{reader: r, logger: logger, fillDelay: cfg.BatchFlushInterval}
}

// ExtractBatch blocks for the first available message, then keeps filling
// the batch until batchSize is reached or fillDelay passes without another
// message arriving.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}

	batch := []domain.RawEvent{r.mapMessage(first)}

	for len(batch) < batchSize {
		fillCtx, cancel := context.WithTimeout(ctx, r.fillDelay)
		msg, err := r.reader.FetchMessage(fillCtx)
		cancel()
		if err != nil {
			// A fill timeout just means the batch is as full as it gets.
			if ctx.Err() != nil {
				return batch, nil
			}
			break
		}
		batch = append(batch, r.mapMessage(msg))
	}
	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func (r *Reader) mapMessage(msg kafkago.Message) domain.RawEvent {
	raw := mapMessageToRawEvent(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

// mapMessageToRawEvent converts a Kafka message into the transport-neutral
// raw event consumed by the pipeline.
func mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
