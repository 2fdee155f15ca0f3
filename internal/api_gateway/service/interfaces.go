package service

import (
	"context"

	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/domain/contact"
)

// TxRunner runs fn atomically. Repository calls made with the ctx passed to fn join the transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ContactService defines the ledger operations exposed to the API. Every call is scoped to ownerID;
// contacts of other owners are reported as contact.ErrContactNotFound.
type ContactService interface {
	// CreateContact validates input and stores the new contact with its computed balance.
	// In lenient mode invalid initial transactions are skipped and returned as violations.
	CreateContact(ctx context.Context, ownerID string, input contact.ContactInput, lenient bool) (*contact.Contact, []contact.FieldViolation, error)

	ListContacts(ctx context.Context, ownerID string, filter contact.ListFilter) ([]*contact.Contact, error)
	GetContact(ctx context.Context, ownerID, contactID string) (*contact.Contact, error)
	UpdateContact(ctx context.Context, ownerID, contactID string, patch contact.ContactPatch) (*contact.Contact, error)
	DeleteContact(ctx context.Context, ownerID, contactID string) error

	AddTransaction(ctx context.Context, ownerID, contactID string, in contact.TransactionInput) (*contact.Contact, error)
	EditTransaction(ctx context.Context, ownerID, contactID, transactionID string, patch contact.TransactionPatch) (*contact.Contact, error)
	DeleteTransaction(ctx context.Context, ownerID, contactID, transactionID string) (*contact.Contact, error)

	// SettleContact appends the closing transaction.
	// Returns contact.ErrAlreadySettled when nothing is outstanding.
	SettleContact(ctx context.Context, ownerID, contactID string) (*contact.Contact, error)

	GetSummary(ctx context.Context, ownerID, contactID string) (contact.Summary, error)
	GetStats(ctx context.Context, ownerID string) (contact.Stats, error)
}

// ActivityService reads the activity log projected by the activity processor
type ActivityService interface {
	// ListActivity returns one page of a contact's events, newest first, and the total number of events
	ListActivity(ctx context.Context, ownerID, contactID string, page, perPage int) ([]*activity.Event, int64, error)
}
