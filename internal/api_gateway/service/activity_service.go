package service

import (
	"context"
	"log/slog"

	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/domain/contact"
)

// ActivityServiceImpl implements the ActivityService interface
type ActivityServiceImpl struct {
	contacts contact.Repository
	activity activity.Repository
	logger   *slog.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(logger *slog.Logger, contacts contact.Repository, activityRepo activity.Repository) ActivityService {
	return &ActivityServiceImpl{
		contacts: contacts,
		activity: activityRepo,
		logger:   logger,
	}
}

// ListActivity checks that the contact belongs to the owner before reading its log, so foreign and
// unknown contacts are both reported as not found
func (s *ActivityServiceImpl) ListActivity(ctx context.Context, ownerID, contactID string, page, perPage int) ([]*activity.Event, int64, error) {
	if _, err := s.contacts.GetByID(ctx, ownerID, contactID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage

	events, err := s.activity.ListByContact(ctx, ownerID, contactID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to list contact activity", "contact_id", contactID, "error", err)
		return nil, 0, err
	}

	total, err := s.activity.CountByContact(ctx, ownerID, contactID)
	if err != nil {
		s.logger.Error("Failed to count contact activity", "contact_id", contactID, "error", err)
		return nil, 0, err
	}

	return events, total, nil
}
