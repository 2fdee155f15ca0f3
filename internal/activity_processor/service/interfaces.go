package service

import (
	"context"

	"github.com/lifesync-ledger/internal/domain/activity"
)

// RecordingService projects contact events into the activity log
type RecordingService interface {
	RecordEvent(ctx context.Context, event *activity.Event) error
}
