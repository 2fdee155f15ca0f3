package activity

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lifesync-ledger/internal/domain/contact"
	"github.com/lifesync-ledger/internal/domain/money"
)

var (
	ErrMissingEventID   = errors.New("event id is required")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingContactID = errors.New("contact id is required")
	ErrMissingOwnerID   = errors.New("owner id is required")
)

// EventType names a change to a contact's ledger
type EventType string

const (
	EventContactCreated     EventType = "contact.created"
	EventContactUpdated     EventType = "contact.updated"
	EventContactDeleted     EventType = "contact.deleted"
	EventTransactionAdded   EventType = "transaction.added"
	EventTransactionEdited  EventType = "transaction.edited"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventContactSettled     EventType = "contact.settled"
)

// Valid reports whether t is a known event type
func (t EventType) Valid() bool {
	switch t {
	case EventContactCreated, EventContactUpdated, EventContactDeleted,
		EventTransactionAdded, EventTransactionEdited, EventTransactionDeleted, EventContactSettled:
		return true
	}
	return false
}

// Event is published after every committed mutation of a contact and recorded in the activity log
type Event struct {
	EventID        string              `json:"event_id"`
	Type           EventType           `json:"event_type"`
	OwnerID        string              `json:"owner_id"`
	ContactID      string              `json:"contact_id"`
	ContactName    string              `json:"contact_name"`
	TransactionID  string              `json:"transaction_id,omitempty"`
	Direction      contact.Direction   `json:"direction,omitempty"`
	Kind           contact.Kind        `json:"type,omitempty"`
	Amount         *money.Amount       `json:"amount,omitempty"`
	CurrentBalance money.Amount        `json:"current_balance"`
	BalanceType    contact.BalanceType `json:"balance_type"`
	Version        int64               `json:"version"`
	CorrelationID  string              `json:"correlation_id,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

// NewEvent snapshots the contact state after a mutation. txn is nil for contact-level events.
func NewEvent(eventType EventType, c *contact.Contact, txn *contact.Transaction, correlationID string, now time.Time) *Event {
	e := &Event{
		EventID:        ulid.Make().String(),
		Type:           eventType,
		OwnerID:        c.OwnerID,
		ContactID:      c.ID,
		ContactName:    c.Name,
		CurrentBalance: c.CurrentBalance,
		BalanceType:    c.BalanceType,
		Version:        c.Version,
		CorrelationID:  correlationID,
		OccurredAt:     now.UTC(),
	}
	if txn != nil {
		amount := txn.Amount
		e.TransactionID = txn.ID
		e.Direction = txn.Direction
		e.Kind = txn.Kind
		e.Amount = &amount
	}
	return e
}

// Validate checks the fields a consumer needs before recording the event
func (e *Event) Validate() error {
	if e.EventID == "" {
		return ErrMissingEventID
	}
	if !e.Type.Valid() {
		return ErrUnknownEventType
	}
	if e.ContactID == "" {
		return ErrMissingContactID
	}
	if e.OwnerID == "" {
		return ErrMissingOwnerID
	}
	return nil
}
