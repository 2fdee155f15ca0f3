package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// ContactEventPublisher writes contact events keyed by contact id, so the events of one contact
// land on one partition in the order they were published
type ContactEventPublisher interface {
	Publish(ctx context.Context, contactID string, event interface{}) error
	Close() error
}

// DeadLetterPublisher parks messages the activity processor cannot record
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// messageWriter is the part of kafka.Writer the producers use
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// topicAdmin is the part of kafka.Conn needed to create a missing topic
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

var (
	_ messageWriter = (*kafka.Writer)(nil)
	_ topicAdmin    = (*kafka.Conn)(nil)
)
