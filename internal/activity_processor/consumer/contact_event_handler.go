package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lifesync-ledger/internal/activity_processor/service"
	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/platform/messaging/producers"
	"github.com/lifesync-ledger/internal/platform/metrics"
)

// ContactEventHandler handles contact events consumed from Kafka
type ContactEventHandler struct {
	recordingService service.RecordingService
	producer         producers.DeadLetterPublisher
	metrics          *metrics.Metrics
	logger           *slog.Logger
}

// NewContactEventHandler creates a new handler
func NewContactEventHandler(
	logger *slog.Logger,
	recordingService service.RecordingService,
	producer producers.DeadLetterPublisher,
	m *metrics.Metrics,
) *ContactEventHandler {
	return &ContactEventHandler{
		recordingService: recordingService,
		producer:         producer,
		metrics:          m,
		logger:           logger,
	}
}

// HandleMessage records one event. Messages that can never be recorded are moved to the DLQ
// and acknowledged; a failed write is returned so the offset is not committed.
func (h *ContactEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event activity.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal contact event from Kafka message", err)
	}
	if err := event.Validate(); err != nil {
		return h.deadLetter(ctx, key, value, "Invalid contact event", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Debug("Received contact event",
		"event_id", event.EventID,
		"event_type", event.Type,
		"contact_id", event.ContactID,
	)

	if err := h.recordingService.RecordEvent(ctx, &event); err != nil {
		return fmt.Errorf("recording event %s failed: %w", event.EventID, err)
	}
	return nil
}

func (h *ContactEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	h.logger.Error(reason,
		"error", cause,
		"message_key", string(key),
	)

	if h.producer != nil {
		dlqReason := fmt.Sprintf("%s: %s", reason, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			h.metrics.ObserveActivity(service.ResultDeadLettered)
			h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
			return nil
		}
	}
	// Allow Kafka redelivery
	return fmt.Errorf("%s: %w", reason, cause)
}
