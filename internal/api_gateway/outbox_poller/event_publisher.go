package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lifesync-ledger/internal/config"
	"github.com/lifesync-ledger/internal/domain/outbox"
	"github.com/lifesync-ledger/internal/platform/messaging/producers"
)

// ErrUndecodablePayload marks an outbox message whose payload is not a contact event.
// Such a message is failed immediately instead of being retried.
var ErrUndecodablePayload = errors.New("outbox payload is not a contact event")

// EventPublisher relays one outbox message to the contact events topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher on top of a Kafka producer
type EventPublisherImpl struct {
	outboxRepo     outbox.Repository
	publisher      producers.ContactEventPublisher
	logger         *slog.Logger
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	logger *slog.Logger,
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher producers.ContactEventPublisher,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo:     outboxRepo,
		publisher:      publisher,
		logger:         logger,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
}

// PublishEvent writes the message keyed by contact id, retrying with exponential backoff,
// and marks it PROCESSED once the broker has acknowledged it.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to decode contact event from outbox payload",
			"outbox_id", message.ID, "contact_id", message.ContactID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after decode error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("%w: outbox %s: %v", ErrUndecodablePayload, message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialBackoff
	b.MaxInterval = p.maxBackoff
	b.MaxElapsedTime = p.maxBackoff

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		publishErr := p.publisher.Publish(ctx, message.ContactID, message.Payload)
		if publishErr != nil {
			logger.Warn("Publish attempt failed",
				"outbox_id", message.ID, "event_type", message.EventType, "attempt", attempt, "error", publishErr,
			)
		}
		return publishErr
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("failed to publish outbox message %s after %d attempts: %w", message.ID, attempt, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "contact_id", message.ContactID, "error", err,
		)
		return fmt.Errorf("event %s published, but failed to mark outbox as PROCESSED: %w", message.ID, err)
	}

	logger.Info("Contact event published",
		"outbox_id", message.ID, "contact_id", message.ContactID, "event_type", message.EventType,
	)
	return nil
}
