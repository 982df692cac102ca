//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/forma-etl/internal/adapter/kafka"
	"github.com/couchcryptid/forma-etl/internal/codec"
	"github.com/couchcryptid/forma-etl/internal/config"
	"github.com/couchcryptid/forma-etl/internal/domain"
	"github.com/couchcryptid/forma-etl/internal/mockdata"
	"github.com/couchcryptid/forma-etl/internal/observability"
	"github.com/couchcryptid/forma-etl/internal/pipeline"
	"github.com/couchcryptid/forma-etl/internal/temporal"
	"github.com/couchcryptid/forma-etl/internal/trend"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("forma-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

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
	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchSize:          10,
		BatchFlushInterval: 2 * time.Second,
	}
}

func smallMockOptions() mockdata.Options {
	opts := mockdata.DefaultOptions()
	opts.Cols, opts.Rows = 8, 4
	return opts
}

func testParams(t *testing.T, opts mockdata.Options) domain.Params {
	t.Helper()
	cal := temporal.New()
	start, err := cal.PeriodToDate(opts.TRes, 160)
	require.NoError(t, err)
	end, err := cal.PeriodToDate(opts.TRes, 163)
	require.NoError(t, err)
	return domain.Params{
		EstStart:     start,
		EstEnd:       end,
		TRes:         opts.TRes,
		Neighbors:    1,
		WindowDims:   []int{8},
		LongBlock:    12,
		Window:       4,
		MissingValue: opts.Missing,
	}
}

func publish(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	defer producer.Close()
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
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

// TestPipelineEndToEnd publishes encoded mock bundles, runs the full pipeline
// against Kafka and checks every pixel record arrives on the sink topic.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	c, err := codec.New()
	require.NoError(t, err)
	defer c.Close()

	opts := smallMockOptions()
	tiles := [][2]int{{28, 8}, {29, 8}}
	var msgs []kafkago.Message
	for _, tile := range tiles {
		o := opts
		o.TileH, o.TileV = tile[0], tile[1]
		b, err := mockdata.Generate(o)
		require.NoError(t, err)
		data, err := c.Encode(b)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(fmt.Sprintf("%d:%d", tile[0], tile[1])), Value: data})
	}
	publish(ctx, t, broker, msgs...)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	params := testParams(t, opts)
	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(c, params, temporal.New(), trend.New(opts.Missing), discardLogger(), metrics)
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, cfg.BatchSize)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	want := len(tiles) * opts.Cols * opts.Rows * 4
	keys := map[string]int{}
	for range want {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		keys[string(msg.Key)]++
		assert.Len(t, strings.Split(string(msg.Value), "\t"), domain.OutputFieldCount)

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		_, err = strconv.Atoi(headers["period"])
		assert.NoError(t, err, "period header")
		_, err = time.Parse(time.RFC3339, headers["processed_at"])
		assert.NoError(t, err, "processed_at header")
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	for _, tile := range tiles {
		for period := 160; period <= 163; period++ {
			assert.Equal(t, opts.Cols*opts.Rows, keys[domain.RecordKey(tile[0], tile[1], period)])
		}
	}
	assert.Equal(t, int64(2), p.Stats().Bundles)
}

// TestPipelineTransformError verifies that an undecodable bundle is skipped
// and the pipeline keeps processing valid bundles.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	c, err := codec.New()
	require.NoError(t, err)
	defer c.Close()

	opts := smallMockOptions()
	opts.Cols, opts.Rows = 4, 1
	b, err := mockdata.Generate(opts)
	require.NoError(t, err)
	data, err := c.Encode(b)
	require.NoError(t, err)

	publish(ctx, t, broker,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-a-bundle")},
		kafkago.Message{Key: []byte("28:8"), Value: data},
	)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	params := testParams(t, opts)
	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(c, params, temporal.New(), trend.New(opts.Missing), discardLogger(), metrics)
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, cfg.BatchSize)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	for range 4 * 4 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(msg.Key), "28:8:"))
	}

	// Verify nothing else arrives.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no further messages on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, int64(1), p.Stats().Failed)
}
