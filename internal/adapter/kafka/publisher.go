package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-watch/internal/config"
	"github.com/couchcryptid/quake-watch/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces alert transitions to a Kafka topic.
// It implements watcher.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured alert topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAlertTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes a single transition.
func (p *Publisher) Publish(ctx context.Context, t domain.AlertTransition) error {
	msg, err := serializeToMessage(t)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert transition: %w", err)
	}
	p.logger.Debug("alert transition published", "id", t.ID, "state", t.State)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AlertTransition into a Kafka message keyed by
// alert state, so transitions for one state stay ordered on one partition.
func serializeToMessage(t domain.AlertTransition) (kafkago.Message, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert transition: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(t.State),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(t.State)},
			{Key: "occurred_at", Value: []byte(t.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
