//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/hydrowatch/groundwater-insight/internal/adapter/kafka"
	"github.com/hydrowatch/groundwater-insight/internal/config"
	"github.com/hydrowatch/groundwater-insight/internal/domain"
	"github.com/hydrowatch/groundwater-insight/internal/ingest"
	"github.com/hydrowatch/groundwater-insight/internal/observability"
	"github.com/hydrowatch/groundwater-insight/internal/store"
)

const (
	testSourceTopic = "test-raw-readings"
	testSinkTopic   = "test-enriched-observations"
)

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.6.1",
		tckafka.WithClusterID("groundwater-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(broker, groupSuffix string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-%s-%d", groupSuffix, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

// rawReading builds a raw record the way a state water board publishes them:
// every field a string, coordinates optional.
func rawReading(location string, year int, level, rainfall, depletion float64) domain.RawRecord {
	return domain.RawRecord{
		Location:         location,
		Year:             strconv.Itoa(year),
		GroundwaterLevel: strconv.FormatFloat(level, 'f', 2, 64),
		Rainfall:         strconv.FormatFloat(rainfall, 'f', 1, 64),
		DepletionRate:    strconv.FormatFloat(depletion, 'f', 2, 64),
		PH:               "7.1",
		Consumption:      "92000",
		District:         location,
		State:            "Andhra Pradesh",
	}
}

// scoredMessage holds a deserialized message read from the sink topic.
type scoredMessage struct {
	Observation domain.EnrichedObservation
	Key         string
	Headers     map[string]string
}

// readScored reads a single message from the sink consumer and deserializes it.
func readScored(ctx context.Context, t *testing.T, consumer *kafkago.Reader) scoredMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var obs domain.EnrichedObservation
	require.NoError(t, json.Unmarshal(msg.Value, &obs), "unmarshal sink message")

	return scoredMessage{Observation: obs, Key: string(msg.Key), Headers: headers}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) correctly round-trip a reading through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "reader")

	record := rawReading("Anantapur", 2023, 6.2, 710, 1.1)
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	require.NoError(t, raw.Commit(ctx))

	// Transform and publish via kafka.Writer.
	transformer := ingest.NewTransformer(nil, discardLogger())
	rec, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []ingest.Record{rec}))

	sm := readScored(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "Anantapur", sm.Key)
	assert.Equal(t, "2023", sm.Headers["year"])
	assert.Equal(t, sm.Observation.Status, sm.Headers["status"])

	assert.Equal(t, "Anantapur", sm.Observation.Location)
	assert.Equal(t, 2023, sm.Observation.Year)
	assert.Equal(t, 6.2, sm.Observation.GroundwaterLevel)
	assert.GreaterOrEqual(t, sm.Observation.WaterScore, 0)
	assert.LessOrEqual(t, sm.Observation.WaterScore, 100)
	assert.NotEmpty(t, sm.Observation.Status)
}

// TestIngestEndToEnd wires the full pipeline (Reader, Transformer, StoreLoader
// and Writer) with real Kafka and verifies readings land in the store and on
// the sink topic, scored.
func TestIngestEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "pipeline")

	// Three years each for two districts, one base reading for a third.
	records := []domain.RawRecord{
		rawReading("Anantapur", 2021, 7.4, 680, 1.3),
		rawReading("Anantapur", 2022, 7.1, 705, 1.2),
		rawReading("Anantapur", 2023, 6.8, 720, 1.1),
		rawReading("Bellary", 2021, 13.0, 640, 4.8),
		rawReading("Bellary", 2022, 14.2, 615, 5.2),
		rawReading("Bellary", 2023, 15.1, 595, 5.6),
		rawReading("Chittoor", 2023, 8.9, 760, 1.8),
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(fmt.Sprintf("reading-%d", i)),
			Value: payload,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	dataStore := store.New()
	loader := ingest.MultiLoader{
		ingest.NewStoreLoader(dataStore, domain.DefaultSeriesYears, discardLogger(), metrics),
		writer,
	}
	transformer := ingest.NewTransformer(nil, discardLogger())
	p := ingest.New(reader, transformer, loader, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make([]scoredMessage, 0, len(records))
	for len(received) < len(records) {
		received = append(received, readScored(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	require.Len(t, received, len(records))
	perLocation := map[string]int{}
	for _, sm := range received {
		perLocation[sm.Observation.Location]++
		assert.NotEmpty(t, sm.Headers["year"], "missing year header")
		assert.NotEmpty(t, sm.Headers["status"], "missing status header")
		assert.GreaterOrEqual(t, sm.Observation.WaterScore, 0)
		assert.LessOrEqual(t, sm.Observation.WaterScore, 100)
		assert.NotEmpty(t, sm.Observation.ScarcityLevel)
	}
	assert.Equal(t, 3, perLocation["Anantapur"])
	assert.Equal(t, 3, perLocation["Bellary"])
	assert.Equal(t, 1, perLocation["Chittoor"])

	// Multi-year batches are stored verbatim.
	assert.Len(t, dataStore.SeriesFor("Anantapur"), 3)
	assert.Len(t, dataStore.SeriesFor("Bellary"), 3)

	// A lone base reading is expanded into a full synthesized series.
	assert.Len(t, dataStore.SeriesFor("Chittoor"), domain.DefaultSeriesYears)

	// Spot-check a known reading made it through with its values intact.
	var foundBellary bool
	for _, sm := range received {
		if sm.Observation.Location != "Bellary" || sm.Observation.Year != 2023 {
			continue
		}
		foundBellary = true
		assert.Equal(t, 15.1, sm.Observation.GroundwaterLevel)
		assert.Equal(t, 595.0, sm.Observation.Rainfall)
		assert.Equal(t, 5.6, sm.Observation.DepletionRate)
		break
	}
	assert.True(t, foundBellary, "expected to find Bellary 2023 reading on sink topic")
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "poison")

	validPayload, err := json.Marshal(rawReading("Anantapur", 2023, 6.2, 710, 1.1))
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: validPayload},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := ingest.NewTransformer(nil, discardLogger())
	p := ingest.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid message should appear on the sink topic.
	consumer := sinkConsumer(t, broker)
	sm := readScored(ctx, t, consumer)
	assert.Equal(t, "Anantapur", sm.Observation.Location)
	assert.Equal(t, 2023, sm.Observation.Year)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
