package outbox

import (
	"context"
)

// Repository manages transactional outbox message persistence.
// Create joins the transaction carried by ctx when there is one.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	IncrementAttempts(ctx context.Context, id string) error
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID string
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + e.ID
}

// Is implements the errors.Is interface for ErrMessageNotFound
func (e ErrMessageNotFound) Is(target error) bool {
	t, ok := target.(ErrMessageNotFound)
	if !ok {
		return false
	}
	if t.ID == "" {
		return true
	}
	return e.ID == t.ID
}
