package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/water-testing-etl/internal/config"
	"github.com/couchcryptid/water-testing-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Message headers set on every derived result.
const (
	HeaderBalance     = "balance"
	HeaderSource      = "source"
	HeaderProcessedAt = "processed_at"
)

// Writer produces messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes test results to the sink topic in a
// single WriteMessages call. Results are keyed by ID, so retests of the same
// result land on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.TestResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d results: %w", len(msgs), err)
	}
	w.logger.Debug("loaded batch", "size", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a TestResult into a Kafka message.
func serializeToMessage(result domain.TestResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize test result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderBalance, Value: []byte(result.Derived.Balance)},
			{Key: HeaderSource, Value: []byte(result.Source.Name)},
			{Key: HeaderProcessedAt, Value: []byte(result.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
