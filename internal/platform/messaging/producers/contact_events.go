package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/lifesync-ledger/internal/config"
)

// ContactEventProducer writes contact events to the contact events topic.
// Writes are synchronous so the outbox only marks a message processed once the broker has it.
type ContactEventProducer struct {
	logger *slog.Logger
	writer messageWriter
	topic  string
}

// NewContactEventProducer creates the producer and ensures the topic exists
func NewContactEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ContactEventProducer, error) {
	if cfg.ContactEventsTopic == "" {
		return nil, fmt.Errorf("kafka contact events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for contact event producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(ctx, conn, newTopicSpec(cfg.ContactEventsTopic, cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists for contact event producer: %w", cfg.ContactEventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ContactEventsTopic,
		Balancer:     &kafka.Hash{}, // Events of one contact stay on one partition, in order
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &ContactEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ContactEventsTopic,
	}, nil
}

// Publish marshals event to JSON and writes it under the contact id. A json.RawMessage is written as is.
func (p *ContactEventProducer) Publish(ctx context.Context, contactID string, event interface{}) error {
	key := contactID
	jsonValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for contact event producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish contact event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via contact event producer: %w", p.topic, err)
	}

	p.logger.Debug("Published contact event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ContactEventProducer) Close() error {
	p.logger.Info("Closing contact event Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close contact event kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
