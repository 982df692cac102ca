package kafka

import (
	"context"
	"log/slog"
	"slices"

	"github.com/couchcryptid/forma-etl/internal/config"
	"github.com/couchcryptid/forma-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces pixel records to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Records
// are keyed by tile and period, so hashing keeps a period's records on one
// partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Compression:  kafkago.Zstd,
		BatchSize:    cfg.BatchSize * 100,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the records of one or more tiles in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msgs[i] = serializeToMessage(events[i])
	}
	w.logger.Debug("writing records", "count", len(msgs), "topic", w.writer.Topic)
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts an output event into a Kafka message. Headers
// are sorted by name so messages are reproducible.
func serializeToMessage(event domain.OutputEvent) kafkago.Message {
	names := make([]string, 0, len(event.Headers))
	for k := range event.Headers {
		names = append(names, k)
	}
	slices.Sort(names)

	headers := make([]kafkago.Header, len(names))
	for i, k := range names {
		headers[i] = kafkago.Header{Key: k, Value: []byte(event.Headers[k])}
	}
	return kafkago.Message{
		Key:     event.Key,
		Value:   event.Value,
		Headers: headers,
	}
}
