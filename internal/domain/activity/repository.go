package activity

import (
	"context"
)

// Repository stores the append-only activity log of contact events
type Repository interface {
	// Record inserts the event unless one with the same id exists; inserted reports which happened
	Record(ctx context.Context, event *Event) (inserted bool, err error)
	ListByContact(ctx context.Context, ownerID, contactID string, limit, offset int) ([]*Event, error)
	CountByContact(ctx context.Context, ownerID, contactID string) (int64, error)
}
