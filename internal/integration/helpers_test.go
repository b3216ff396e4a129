//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/velodata/bike-count-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("bike-etl-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic on the broker's controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// mockRawRows is a small deterministic dataset: one counter with a live day
// and a fully dead day, plus a second counter that stays live.
func mockRawRows() []domain.RawRecord {
	rows := make([]domain.RawRecord, 0, 12)

	add := func(counter, ts string, count float64) {
		rows = append(rows, domain.RawRecord{
			Date:         ts,
			DateX:        ts,
			CounterName:  counter,
			LogBikeCount: count,
			T:            285.15,
			RR1:          1.2,
			FF:           6.1,
		})
	}

	// Live day during the October 2020 curfew.
	add("28 boulevard Diderot E-O", "2020-10-20T08:00:00Z", 3.2)
	add("28 boulevard Diderot E-O", "2020-10-20T17:00:00Z", 3.8)
	add("28 boulevard Diderot E-O", "2020-10-20T22:00:00Z", 0.7)

	// Dead day: every reading is zero.
	add("28 boulevard Diderot E-O", "2020-10-21T08:00:00Z", 0)
	add("28 boulevard Diderot E-O", "2020-10-21T12:00:00Z", 0)
	add("28 boulevard Diderot E-O", "2020-10-21T17:00:00Z", 0)

	// Second counter, both days live.
	add("Totem 73 boulevard de Sébastopol S-N", "2020-10-20T08:00:00Z", 4.1)
	add("Totem 73 boulevard de Sébastopol S-N", "2020-10-21T08:00:00Z", 4.4)

	return rows
}
