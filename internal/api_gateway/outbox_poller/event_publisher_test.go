package outbox_poller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lifesync-ledger/internal/domain/outbox"
)

func TestEventPublisher_PublishEvent(t *testing.T) {
	t.Run("PublishesKeyedByContactAndMarksProcessed", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockContactEventPublisher)
		publisher := NewEventPublisher(newTestLogger(), newTestConfig(), repo, producer)
		msg := newTestMessage("contact-1", 0)

		producer.On("Publish", mock.Anything, "contact-1", msg.Payload).Return(nil).Once()
		repo.On("UpdateStatus", mock.Anything, msg.ID, outbox.StatusProcessed).Return(nil).Once()

		err := publisher.PublishEvent(context.Background(), msg)

		require.NoError(t, err)
		producer.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("RetriesTransientFailure", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockContactEventPublisher)
		publisher := NewEventPublisher(newTestLogger(), newTestConfig(), repo, producer)
		msg := newTestMessage("contact-1", 0)

		producer.On("Publish", mock.Anything, "contact-1", msg.Payload).Return(errors.New("leader not available")).Once()
		producer.On("Publish", mock.Anything, "contact-1", msg.Payload).Return(nil).Once()
		repo.On("UpdateStatus", mock.Anything, msg.ID, outbox.StatusProcessed).Return(nil).Once()

		err := publisher.PublishEvent(context.Background(), msg)

		require.NoError(t, err)
		producer.AssertNumberOfCalls(t, "Publish", 2)
		repo.AssertExpectations(t)
	})

	t.Run("GivesUpAfterBackoffBudget", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockContactEventPublisher)
		publisher := NewEventPublisher(newTestLogger(), newTestConfig(), repo, producer)
		msg := newTestMessage("contact-1", 0)

		producer.On("Publish", mock.Anything, "contact-1", msg.Payload).Return(errors.New("broker down"))

		err := publisher.PublishEvent(context.Background(), msg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker down")
		assert.NotErrorIs(t, err, ErrUndecodablePayload)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UndecodablePayloadFailsImmediately", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockContactEventPublisher)
		publisher := NewEventPublisher(newTestLogger(), newTestConfig(), repo, producer)
		msg := &outbox.Message{ID: "evt-bad", ContactID: "contact-1", Payload: json.RawMessage(`{"event_id":`)}

		repo.On("UpdateStatus", mock.Anything, "evt-bad", outbox.StatusFailedToPublish).Return(nil).Once()

		err := publisher.PublishEvent(context.Background(), msg)

		assert.ErrorIs(t, err, ErrUndecodablePayload)
		producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("MarkProcessedFails", func(t *testing.T) {
		repo := new(MockOutboxRepo)
		producer := new(MockContactEventPublisher)
		publisher := NewEventPublisher(newTestLogger(), newTestConfig(), repo, producer)
		msg := newTestMessage("contact-1", 0)

		producer.On("Publish", mock.Anything, "contact-1", msg.Payload).Return(nil).Once()
		repo.On("UpdateStatus", mock.Anything, msg.ID, outbox.StatusProcessed).Return(errors.New("mongo down")).Once()

		err := publisher.PublishEvent(context.Background(), msg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mark outbox as PROCESSED")
	})
}
