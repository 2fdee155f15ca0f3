package consumers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifesync-ledger/internal/config"
)

// fakeReader serves queued messages, then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetchErrs []error
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestNewKafkaConsumer(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := &config.KafkaConfig{
		Brokers:            "localhost:9092",
		ContactEventsTopic: "test-topic",
		ConsumerGroup:      "test-group",
		MinBytes:           1024,
		MaxBytes:           10240,
		MaxWait:            time.Second,
	}

	consumer := NewKafkaConsumer(context.Background(), logger, cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader, "Kafka reader should be initialized")
	assert.Equal(t, logger, consumer.logger)
	require.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Run(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("CommitsOnlyHandledMessages", func(t *testing.T) {
		reader := &fakeReader{
			fetchErrs: []error{errors.New("broker unavailable")},
			queue: []kafka.Message{
				{Offset: 1, Key: []byte("a"), Value: []byte("ok")},
				{Offset: 2, Key: []byte("b"), Value: []byte("fail")},
				{Offset: 3, Key: []byte("c"), Value: []byte("ok")},
			},
		}
		consumer := &KafkaConsumer{reader: reader, logger: logger, retryBackoff: time.Millisecond}

		var mu sync.Mutex
		var seen []string
		handler := func(_ context.Context, key, value []byte) error {
			mu.Lock()
			seen = append(seen, string(key))
			mu.Unlock()
			if string(value) == "fail" {
				return errors.New("handler failed")
			}
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, consumer.Subscribe(ctx, "topic", "group", handler))

		assert.Eventually(t, func() bool {
			return len(reader.committedOffsets()) == 2
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []int64{1, 3}, reader.committedOffsets())

		mu.Lock()
		assert.Equal(t, []string{"a", "b", "c"}, seen)
		mu.Unlock()
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader, logger: logger, retryBackoff: time.Millisecond}
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			consumer.run(ctx, func(context.Context, []byte, []byte) error { return nil })
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("consumer did not stop after cancellation")
		}
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{
			reader: nil,
			logger: logger,
		}
		err := consumer.Close()
		require.NoError(t, err, "Close should return nil if reader is nil")
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader, logger: logger}
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
