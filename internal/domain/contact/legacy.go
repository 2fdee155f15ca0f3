package contact

import (
	"fmt"
	"strings"
	"time"

	"github.com/lifesync-ledger/internal/domain/money"
)

// Legacy transaction types used by single-axis loan documents
const (
	LegacyCredit = "credit"
	LegacyDebit  = "debit"
)

// LegacyLoan is a loan document in the older single-axis format, where
// credit increases what the owner owes and debit pays it back.
type LegacyLoan struct {
	ID           string
	OwnerID      string
	PersonName   string
	PhoneNumber  string
	Relationship string
	Transactions []LegacyTransaction
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LegacyTransaction is one entry of a legacy loan. Amounts were stored as floating point.
type LegacyTransaction struct {
	Type        string
	Amount      float64
	Description string
	Note        string
	Date        time.Time
}

// FromLegacy converts a legacy loan into a contact on the two-axis scheme.
// The contact keeps the legacy id, so converting the same loan twice yields the same contact id.
func FromLegacy(l LegacyLoan, now time.Time) (*Contact, error) {
	var violations []FieldViolation

	name := normalizeName(l.PersonName)
	if name == "" {
		violations = append(violations, FieldViolation{Field: "personName", Message: "person name is required"})
	}

	transactions := make([]Transaction, 0, len(l.Transactions))
	for i, lt := range l.Transactions {
		field := fmt.Sprintf("transactions[%d].", i)

		var kind Kind
		switch strings.ToLower(strings.TrimSpace(lt.Type)) {
		case LegacyCredit:
			kind = KindCredit
		case LegacyDebit:
			kind = KindReturn
		default:
			violations = append(violations, FieldViolation{Field: field + "type", Message: "type must be 'credit' or 'debit'"})
			continue
		}

		amount, err := money.FromFloat(lt.Amount)
		if err != nil {
			violations = append(violations, FieldViolation{Field: field + "amount", Message: err.Error()})
			continue
		}

		note := lt.Note
		if note == "" {
			note = lt.Description
		}
		date := lt.Date
		if date.IsZero() {
			date = l.CreatedAt
		}

		transactions = append(transactions, Transaction{
			ID:        NewTransactionID(),
			Date:      date,
			Kind:      kind,
			Direction: DirectionBorrowed,
			Amount:    amount,
			Note:      strings.TrimSpace(note),
		})
	}
	if len(violations) == 0 {
		violations = checkBalance("transactions", transactions)
	}
	if len(violations) > 0 {
		return nil, NewValidationError(violations...)
	}

	relationship := Relationship(strings.ToLower(strings.TrimSpace(l.Relationship)))
	if !relationship.Valid() {
		relationship = RelationshipOther
	}

	created := l.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := l.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	c := &Contact{
		ID:           l.ID,
		OwnerID:      l.OwnerID,
		Name:         name,
		Phone:        strings.TrimSpace(l.PhoneNumber),
		Relationship: relationship,
		Transactions: transactions,
		Version:      1,
		CreatedAt:    created,
		UpdatedAt:    updated,
	}
	c.Recompute()
	return c, nil
}
