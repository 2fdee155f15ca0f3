package contact

import (
	"context"
)

// ListFilter narrows a contact listing. Zero values mean no filtering.
type ListFilter struct {
	Search      string // case-insensitive substring of the name
	BalanceType BalanceType
}

// Repository defines contact persistence operations. Every lookup is scoped to an owner;
// a contact that belongs to someone else is reported as ErrContactNotFound.
type Repository interface {
	Create(ctx context.Context, contact *Contact) error
	GetByID(ctx context.Context, ownerID, contactID string) (*Contact, error)
	List(ctx context.Context, ownerID string, filter ListFilter) ([]*Contact, error)

	// Update replaces the stored document only if its version still equals expectedVersion
	Update(ctx context.Context, contact *Contact, expectedVersion int64) error
	Delete(ctx context.Context, ownerID, contactID string) error
	BalanceGroups(ctx context.Context, ownerID string) ([]BalanceGroup, error)

	// Scan walks every stored contact across owners, stopping at the first error returned by fn
	Scan(ctx context.Context, fn func(*Contact) error) error
}

// LegacyRepository reads loan documents in the single-axis format
type LegacyRepository interface {
	Scan(ctx context.Context, fn func(LegacyLoan) error) error
}
