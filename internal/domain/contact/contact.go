package contact

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/lifesync-ledger/internal/domain/money"
)

// Direction says who handed over the money in a transaction
type Direction string

const (
	DirectionBorrowed Direction = "borrowed" // the owner took money from the counterparty
	DirectionLent     Direction = "lent"     // the owner gave money to the counterparty
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionBorrowed || d == DirectionLent
}

// Kind says whether a transaction grows or repays the debt in its direction
type Kind string

const (
	KindCredit Kind = "credit"
	KindReturn Kind = "return"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindCredit || k == KindReturn
}

// BalanceType classifies the sign of a contact's net balance
type BalanceType string

const (
	BalanceOwe     BalanceType = "owe"     // the owner has to pay the counterparty
	BalanceOwed    BalanceType = "owed"    // the counterparty has to pay the owner
	BalanceSettled BalanceType = "settled" // nothing outstanding
)

// ParseBalanceType maps a status filter to a balance type. "pending" is accepted as an alias for owe.
func ParseBalanceType(s string) (BalanceType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(BalanceOwe), "pending":
		return BalanceOwe, true
	case string(BalanceOwed):
		return BalanceOwed, true
	case string(BalanceSettled):
		return BalanceSettled, true
	}
	return "", false
}

// Relationship is an optional tag describing the counterparty
type Relationship string

const (
	RelationshipFamily    Relationship = "family"
	RelationshipFriend    Relationship = "friend"
	RelationshipColleague Relationship = "colleague"
	RelationshipRelative  Relationship = "relative"
	RelationshipOther     Relationship = "other"
)

// Valid reports whether r is empty or one of the known tags
func (r Relationship) Valid() bool {
	switch r {
	case "", RelationshipFamily, RelationshipFriend, RelationshipColleague, RelationshipRelative, RelationshipOther:
		return true
	}
	return false
}

// Transaction is one entry of a contact's ledger
type Transaction struct {
	ID        string       `json:"id" bson:"id"`
	Date      time.Time    `json:"date" bson:"date"`
	Kind      Kind         `json:"type" bson:"type"`
	Direction Direction    `json:"direction" bson:"direction"`
	Amount    money.Amount `json:"amount" bson:"amount"` // Stored in minor units
	Note      string       `json:"note" bson:"note"`
}

// Contact is a counterparty together with the ledger of everything exchanged with them.
// CurrentBalance, BalanceType and IsSettled are derived from Transactions and are only
// ever written by Recompute.
type Contact struct {
	ID             string        `json:"id" bson:"_id"`
	OwnerID        string        `json:"owner_id" bson:"owner_id"`
	Name           string        `json:"name" bson:"name"`
	Phone          string        `json:"phone,omitempty" bson:"phone"`
	Email          string        `json:"email,omitempty" bson:"email"`
	Relationship   Relationship  `json:"relationship,omitempty" bson:"relationship"`
	Transactions   []Transaction `json:"transactions" bson:"transactions"`
	CurrentBalance money.Amount  `json:"current_balance" bson:"current_balance"`
	BalanceType    BalanceType   `json:"balance_type" bson:"balance_type"`
	IsSettled      bool          `json:"is_settled" bson:"is_settled"`
	Version        int64         `json:"version" bson:"version"` // For optimistic locking
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
}

// ContactInput carries the fields accepted when a contact is created
type ContactInput struct {
	Name         string
	Phone        string
	Email        string
	Relationship string
	Transactions []TransactionInput
}

// ContactPatch carries the editable contact fields; nil means unchanged
type ContactPatch struct {
	Name         *string
	Phone        *string
	Email        *string
	Relationship *string
}

// NewContactID returns a fresh contact identifier
func NewContactID() string {
	return uuid.New().String()
}

// NewTransactionID returns a lexically sortable transaction identifier
func NewTransactionID() string {
	return ulid.Make().String()
}

// NewContact validates input and builds a contact with its balance computed.
//
// In strict mode any invalid initial transaction fails the whole call with a ValidationError listing
// every violation, including those of the contact fields. In lenient mode invalid transactions are
// dropped and reported through the returned violations.
func NewContact(ownerID string, input ContactInput, lenient bool, now time.Time) (*Contact, []FieldViolation, error) {
	name, relationship, violations := input.parseFields()

	var skipped []FieldViolation
	transactions := make([]Transaction, 0, len(input.Transactions))
	for i, in := range input.Transactions {
		txn, txnViolations := in.build(transactionField(i), now)
		if len(txnViolations) > 0 {
			if lenient {
				skipped = append(skipped, txnViolations...)
				continue
			}
			violations = append(violations, txnViolations...)
			continue
		}
		transactions = append(transactions, txn)
	}
	if len(violations) == 0 {
		violations = checkBalance("transactions", transactions)
	}
	if len(violations) > 0 {
		return nil, nil, NewValidationError(violations...)
	}

	c := &Contact{
		ID:           NewContactID(),
		OwnerID:      ownerID,
		Name:         name,
		Phone:        strings.TrimSpace(input.Phone),
		Email:        strings.TrimSpace(input.Email),
		Relationship: relationship,
		Transactions: transactions,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.Recompute()

	return c, skipped, nil
}

// Validate reports every violation of the contact fields and, in strict mode, of the initial transactions
func (in ContactInput) Validate(lenient bool) []FieldViolation {
	_, _, violations := in.parseFields()
	if lenient {
		return violations
	}
	for i, t := range in.Transactions {
		violations = append(violations, t.Validate(transactionField(i))...)
	}
	return violations
}

func (in ContactInput) parseFields() (string, Relationship, []FieldViolation) {
	var violations []FieldViolation

	name := normalizeName(in.Name)
	if name == "" {
		violations = append(violations, FieldViolation{Field: "name", Message: "name is required"})
	}
	relationship, v := parseRelationship(in.Relationship)
	violations = append(violations, v...)
	return name, relationship, violations
}

// Validate reports every violation of the patch
func (p ContactPatch) Validate() []FieldViolation {
	_, _, violations := p.parse(Contact{})
	return violations
}

func (p ContactPatch) parse(current Contact) (string, Relationship, []FieldViolation) {
	var violations []FieldViolation

	name := current.Name
	if p.Name != nil {
		name = normalizeName(*p.Name)
		if name == "" {
			violations = append(violations, FieldViolation{Field: "name", Message: "name cannot be empty"})
		}
	}
	relationship := current.Relationship
	if p.Relationship != nil {
		var v []FieldViolation
		relationship, v = parseRelationship(*p.Relationship)
		violations = append(violations, v...)
	}
	return name, relationship, violations
}

func parseRelationship(s string) (Relationship, []FieldViolation) {
	r := Relationship(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", []FieldViolation{{Field: "relationship", Message: "relationship must be one of family, friend, colleague, relative, other"}}
	}
	return r, nil
}

// Update applies a patch to the descriptive fields of the contact
func (c *Contact) Update(patch ContactPatch, now time.Time) error {
	name, relationship, violations := patch.parse(*c)
	if len(violations) > 0 {
		return NewValidationError(violations...)
	}

	c.Name = name
	c.Relationship = relationship
	if patch.Phone != nil {
		c.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Email != nil {
		c.Email = strings.TrimSpace(*patch.Email)
	}
	c.UpdatedAt = now
	return nil
}

// normalizeName trims whitespace and any leading backslashes some clients prepend
func normalizeName(name string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(name), `\`))
}
