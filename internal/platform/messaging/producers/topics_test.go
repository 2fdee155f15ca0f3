package producers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifesync-ledger/internal/config"
)

type fakeTopicAdmin struct {
	readErrs   []error
	partitions []kafka.Partition
	createErr  error
	reads      int
	created    []kafka.TopicConfig
}

func (f *fakeTopicAdmin) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	f.reads++
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		return nil, err
	}
	return f.partitions, nil
}

func (f *fakeTopicAdmin) CreateTopics(topics ...kafka.TopicConfig) error {
	f.created = append(f.created, topics...)
	return f.createErr
}

func withImmediateRetries(t *testing.T) {
	t.Helper()
	original := topicReadBackoff
	topicReadBackoff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2) }
	t.Cleanup(func() { topicReadBackoff = original })
}

func TestEnsureTopic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	spec := topicSpec{name: "contact-events", partitions: 3, replicationFactor: 1}

	t.Run("ExistingTopicIsLeftAlone", func(t *testing.T) {
		withImmediateRetries(t)
		admin := &fakeTopicAdmin{partitions: []kafka.Partition{{Topic: "contact-events", ID: 0}}}

		require.NoError(t, ensureTopic(context.Background(), admin, spec, logger))
		assert.Equal(t, 1, admin.reads)
		assert.Empty(t, admin.created)
	})

	t.Run("UnknownTopicCreatedWithoutRetrying", func(t *testing.T) {
		withImmediateRetries(t)
		admin := &fakeTopicAdmin{readErrs: []error{kafka.UnknownTopicOrPartition}}

		require.NoError(t, ensureTopic(context.Background(), admin, spec, logger))
		assert.Equal(t, 1, admin.reads)
		require.Len(t, admin.created, 1)
		assert.Equal(t, kafka.TopicConfig{Topic: "contact-events", NumPartitions: 3, ReplicationFactor: 1}, admin.created[0])
	})

	t.Run("TransientReadErrorsRetried", func(t *testing.T) {
		withImmediateRetries(t)
		admin := &fakeTopicAdmin{
			readErrs:   []error{errors.New("broker not ready")},
			partitions: []kafka.Partition{{Topic: "contact-events", ID: 0}},
		}

		require.NoError(t, ensureTopic(context.Background(), admin, spec, logger))
		assert.Equal(t, 2, admin.reads)
		assert.Empty(t, admin.created)
	})

	t.Run("CreatesAfterRetriesRunOut", func(t *testing.T) {
		withImmediateRetries(t)
		down := errors.New("broker not ready")
		admin := &fakeTopicAdmin{readErrs: []error{down, down, down}}

		require.NoError(t, ensureTopic(context.Background(), admin, spec, logger))
		assert.Equal(t, 3, admin.reads)
		assert.Len(t, admin.created, 1)
	})

	t.Run("ConcurrentCreationTolerated", func(t *testing.T) {
		withImmediateRetries(t)
		admin := &fakeTopicAdmin{createErr: kafka.TopicAlreadyExists}

		assert.NoError(t, ensureTopic(context.Background(), admin, spec, logger))
	})

	t.Run("CreateFailure", func(t *testing.T) {
		withImmediateRetries(t)
		admin := &fakeTopicAdmin{createErr: errors.New("not authorized")}

		err := ensureTopic(context.Background(), admin, spec, logger)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create kafka topic contact-events")
	})

	t.Run("CancelledContext", func(t *testing.T) {
		withImmediateRetries(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		admin := &fakeTopicAdmin{readErrs: []error{errors.New("broker not ready")}}

		err := ensureTopic(ctx, admin, spec, logger)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, admin.created)
	})
}

func TestNewTopicSpec_Defaults(t *testing.T) {
	spec := newTopicSpec("dlq", &config.KafkaConfig{})
	assert.Equal(t, topicSpec{name: "dlq", partitions: 1, replicationFactor: 1}, spec)

	spec = newTopicSpec("events", &config.KafkaConfig{NumPartitions: 6, ReplicationFactor: 3})
	assert.Equal(t, topicSpec{name: "events", partitions: 6, replicationFactor: 3}, spec)
}
