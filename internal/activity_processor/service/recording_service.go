package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/platform/metrics"
)

// Activity results reported to metrics
const (
	ResultInserted     = "inserted"
	ResultDuplicate    = "duplicate"
	ResultError        = "error"
	ResultDeadLettered = "dead_lettered"
)

// RecordingServiceImpl writes events to the activity repository. Redelivered events are
// recognised by their id and acknowledged without a second row.
type RecordingServiceImpl struct {
	repo    activity.Repository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRecordingService creates a new recording service; m may be nil
func NewRecordingService(logger *slog.Logger, repo activity.Repository, m *metrics.Metrics) RecordingService {
	return &RecordingServiceImpl{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// RecordEvent stores the event once
func (s *RecordingServiceImpl) RecordEvent(ctx context.Context, event *activity.Event) error {
	logger := s.logger.With("event_id", event.EventID, "contact_id", event.ContactID)
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}

	inserted, err := s.repo.Record(ctx, event)
	if err != nil {
		s.metrics.ObserveActivity(ResultError)
		logger.Error("Failed to record contact event", "event_type", event.Type, "error", err)
		return fmt.Errorf("failed to record event %s: %w", event.EventID, err)
	}

	if !inserted {
		s.metrics.ObserveActivity(ResultDuplicate)
		logger.Info("Contact event already recorded, skipping", "event_type", event.Type)
		return nil
	}

	s.metrics.ObserveActivity(ResultInserted)
	logger.Info("Contact event recorded", "event_type", event.Type, "version", event.Version)
	return nil
}
