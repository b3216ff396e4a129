//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velodata/bike-count-etl/internal/adapter/frcal"
	"github.com/velodata/bike-count-etl/internal/adapter/kafka"
	"github.com/velodata/bike-count-etl/internal/config"
	"github.com/velodata/bike-count-etl/internal/domain"
	"github.com/velodata/bike-count-etl/internal/observability"
	"github.com/velodata/bike-count-etl/internal/pipeline"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// featureMessage holds a deserialized message read from the sink topic.
type featureMessage struct {
	Row     domain.FeatureRow
	Key     string
	Headers map[string]string
}

func testConfig(broker string, group string) *config.Config {
	cfg := &config.Config{}
	cfg.Kafka.Brokers = broker
	cfg.Kafka.SourceTopic = testSourceTopic
	cfg.Kafka.SinkTopic = testSinkTopic
	cfg.Kafka.GroupID = group
	cfg.Batch.FlushInterval = 5 * time.Second
	return cfg
}

func testTransformer(ctx context.Context, t *testing.T, clean bool) *pipeline.FeatureTransformer {
	t.Helper()

	calendar := frcal.NewCachedCalendar(frcal.NewCalendar())
	school, err := calendar.SchoolHolidays(ctx, domain.ZoneC, 2020, 2021)
	require.NoError(t, err)
	public, err := calendar.PublicHolidays(ctx, 2020, 2021)
	require.NoError(t, err)
	curfew, err := domain.NewCurfewClassifier(domain.DefaultCurfewWindows)
	require.NoError(t, err)

	encoder := domain.NewFeatureEncoder(school, public, curfew)
	return pipeline.NewTransformer(encoder, clean, discardLogger())
}

// readFeature reads a single message from the sink consumer and deserializes it.
func readFeature(ctx context.Context, t *testing.T, consumer *kafkago.Reader) featureMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var row domain.FeatureRow
	require.NoError(t, json.Unmarshal(msg.Value, &row), "unmarshal sink message")

	return featureMessage{
		Row:     row,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) round-trip a row through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-reader-%d", time.Now().UnixNano()))

	// Publish one raw observation to the source topic.
	record := mockRawRows()[0]
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(record.CounterName),
		Value: payload,
	}))

	// Extract via kafka.Reader. Retry because the consumer group may need
	// time to rebalance before partitions are assigned.
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
	assert.Equal(t, []byte(record.CounterName), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	require.NoError(t, raw.Commit(ctx))

	// Transform and load via kafka.Writer.
	transformer := testTransformer(ctx, t, false)
	result, err := transformer.TransformDataset(ctx, []domain.RawEvent{raw})
	require.NoError(t, err)
	require.Len(t, result.Outputs, 1)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, result.Outputs))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	fm := readFeature(ctx, t, consumer)
	assert.Equal(t, record.CounterName, fm.Key)
	assert.Equal(t, record.CounterName, fm.Headers["counter_name"])
	_, err = time.Parse(time.RFC3339, fm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, record.CounterName, fm.Row.CounterName)
	assert.Equal(t, "Fall", fm.Row.Season)
	assert.Equal(t, 2020, fm.Row.Year)
}

// TestPipelineEndToEnd wires the full pipeline with real Kafka and verifies
// feature encoding plus dead-period cleaning across the whole dataset.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()))

	records := mockRawRows()
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(records))
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(rec.CounterName),
			Value: payload,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	transformer := testTransformer(ctx, t, true)
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	// 8 raw rows, 3 of them form a dead counter-day: 5 feature rows expected.
	const wantRows = 5
	received := make([]featureMessage, 0, wantRows)
	for len(received) < wantRows {
		received = append(received, readFeature(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	counters := map[string]int{}
	for _, fm := range received {
		counters[fm.Row.CounterName]++

		assert.NotEmpty(t, fm.Headers["counter_name"], "missing counter_name header")
		assert.Contains(t, fm.Headers, "processed_at", "missing processed_at header")
		assert.Equal(t, "Fall", fm.Row.Season)
		assert.Equal(t, 1, fm.Row.SchoolHoliday, "October 2020 falls in the Toussaint break")
		assert.Equal(t, domain.RainLight, fm.Row.RainCategory)
		assert.Equal(t, 1, fm.Row.HighWind)
	}
	assert.Equal(t, 3, counters["28 boulevard Diderot E-O"], "dead day removed")
	assert.Equal(t, 2, counters["Totem 73 boulevard de Sébastopol S-N"])

	// Spot-check the curfew row: 22:00 on 2020-10-20 falls inside the
	// 21:00–06:00 window; 17:00 the same day does not.
	var found22, found17 bool
	for _, fm := range received {
		if fm.Row.CounterName != "28 boulevard Diderot E-O" {
			continue
		}
		switch {
		case fm.Row.SinHour < -0.49 && fm.Row.SinHour > -0.51:
			// sin(2π·22/24) ≈ -0.5 identifies the 22:00 row.
			found22 = true
			assert.Equal(t, 1, fm.Row.Curfew)
			assert.Equal(t, 0, fm.Row.IsPeak)
		case fm.Row.CosHour < -0.25 && fm.Row.CosHour > -0.27:
			// cos(2π·17/24) ≈ -0.26 identifies the 17:00 row.
			found17 = true
			assert.Equal(t, 0, fm.Row.Curfew)
			assert.Equal(t, 1, fm.Row.IsPeak)
		}
	}
	assert.True(t, found22, "expected the 22:00 curfew row")
	assert.True(t, found17, "expected the 17:00 peak row")
}

// TestPipelinePoisonPill verifies that an invalid message is skipped and the
// pipeline continues processing valid messages.
func TestPipelinePoisonPill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-poison-%d", time.Now().UnixNano()))

	record := mockRawRows()[0]
	validPayload, err := json.Marshal(record)
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

	transformer := testTransformer(ctx, t, true)
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	fm := readFeature(ctx, t, consumer)
	assert.Equal(t, record.CounterName, fm.Row.CounterName)

	// No second message should arrive: the poison pill was skipped.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
