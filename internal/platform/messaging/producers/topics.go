package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/lifesync-ledger/internal/config"
)

// topicReadBackoff paces partition reads against a broker that may still be starting
var topicReadBackoff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 4 * time.Second
	return backoff.WithMaxRetries(b, 4)
}

type topicSpec struct {
	name              string
	partitions        int
	replicationFactor int
}

func newTopicSpec(name string, cfg *config.KafkaConfig) topicSpec {
	spec := topicSpec{name: name, partitions: cfg.NumPartitions, replicationFactor: cfg.ReplicationFactor}
	if spec.partitions <= 0 {
		spec.partitions = 1
	}
	if spec.replicationFactor <= 0 {
		spec.replicationFactor = 1
	}
	return spec
}

// ensureTopic creates the topic unless the broker already reports partitions for it.
// An unknown topic is created right away; other read failures are retried first.
func ensureTopic(ctx context.Context, admin topicAdmin, spec topicSpec, logger *slog.Logger) error {
	var partitions []kafka.Partition
	attempt := 0
	readErr := backoff.Retry(func() error {
		attempt++
		p, err := admin.ReadPartitions(spec.name)
		if errors.Is(err, kafka.UnknownTopicOrPartition) {
			return backoff.Permanent(err)
		}
		if err != nil {
			logger.Warn("Failed to read topic partitions", "topic", spec.name, "attempt", attempt, "error", err)
			return err
		}
		partitions = p
		return nil
	}, backoff.WithContext(topicReadBackoff(), ctx))

	if readErr == nil && len(partitions) > 0 {
		logger.Info("Kafka topic exists", "topic", spec.name, "partitions", len(partitions))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("gave up checking kafka topic %s: %w", spec.name, err)
	}

	logger.Info("Creating Kafka topic", "topic", spec.name, "partitions", spec.partitions, "replication_factor", spec.replicationFactor, "last_read_error", readErr)
	err := admin.CreateTopics(kafka.TopicConfig{
		Topic:             spec.name,
		NumPartitions:     spec.partitions,
		ReplicationFactor: spec.replicationFactor,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create kafka topic %s: %w", spec.name, err)
	}
	return nil
}
