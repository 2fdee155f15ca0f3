package outbox

import (
	"encoding/json"
	"time"

	"github.com/lifesync-ledger/internal/domain/activity"
)

// Status defines message publishing states
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a contact event until it has been published to the broker
type Message struct {
	ID            string             `json:"id" bson:"_id"` // Same as the event id
	ContactID     string             `json:"contact_id" bson:"contact_id"`
	OwnerID       string             `json:"owner_id" bson:"owner_id"`
	EventType     activity.EventType `json:"event_type" bson:"event_type"`
	Payload       json.RawMessage    `json:"payload" bson:"payload"`
	Status        Status             `json:"status" bson:"status"`
	Attempts      int                `json:"attempts" bson:"attempts"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	LastAttemptAt *time.Time         `json:"last_attempt_at,omitempty" bson:"last_attempt_at,omitempty"`
}

func NewMessage(event *activity.Event) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        event.EventID,
		ContactID: event.ContactID,
		OwnerID:   event.OwnerID,
		EventType: event.Type,
		Payload:   payload,
		Status:    StatusPending,
		Attempts:  0,
		CreatedAt: event.OccurredAt,
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = StatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = StatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// Event extracts the contact event from the payload
func (m *Message) Event() (*activity.Event, error) {
	var event activity.Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
