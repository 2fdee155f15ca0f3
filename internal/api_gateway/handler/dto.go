package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/domain/contact"
	"github.com/lifesync-ledger/internal/domain/money"
)

// TransactionRequest represents a transaction sent by the client. Every field is checked by the ledger
// so that all violations are reported together.
type TransactionRequest struct {
	Type      string           `json:"type"`
	Direction string           `json:"direction"`
	Amount    *decimal.Decimal `json:"amount"`
	Note      string           `json:"note"`
	Date      *time.Time       `json:"date"`
}

// CreateContactRequest represents a request to create a contact. Initial transactions are not
// validated here: in lenient mode invalid ones are skipped instead of rejected.
type CreateContactRequest struct {
	Name         string               `json:"name" binding:"max=100"`
	Phone        string               `json:"phone" binding:"omitempty,max=32"`
	Email        string               `json:"email" binding:"omitempty,email"`
	Relationship string               `json:"relationship" binding:"omitempty,max=32"`
	Transactions []TransactionRequest `json:"transactions"`
}

// UpdateContactRequest represents a partial contact update; absent fields are left unchanged
type UpdateContactRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=100"`
	Phone        *string `json:"phone" binding:"omitempty,max=32"`
	Email        *string `json:"email" binding:"omitempty,email|len=0"`
	Relationship *string `json:"relationship" binding:"omitempty,max=32"`
}

// EditTransactionRequest represents a partial transaction update
type EditTransactionRequest struct {
	Type      *string          `json:"type"`
	Direction *string          `json:"direction"`
	Amount    *decimal.Decimal `json:"amount"`
	Note      *string          `json:"note"`
	Date      *time.Time       `json:"date"`
}

// ListContactsQuery represents the filters of the contact listing
type ListContactsQuery struct {
	Search string `form:"search" binding:"max=100"`
	Status string `form:"status"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Direction string       `json:"direction"`
	Amount    money.Amount `json:"amount"`
	Note      string       `json:"note,omitempty"`
	Date      string       `json:"date"`
}

// ContactResponse represents a contact with its derived balance in API responses
type ContactResponse struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Phone          string                `json:"phone,omitempty"`
	Email          string                `json:"email,omitempty"`
	Relationship   string                `json:"relationship,omitempty"`
	Transactions   []TransactionResponse `json:"transactions"`
	CurrentBalance money.Amount          `json:"current_balance"`
	BalanceType    string                `json:"balance_type"`
	IsSettled      bool                  `json:"is_settled"`
	Version        int64                 `json:"version"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

// CreateContactResponse adds the initial transactions skipped in lenient mode
type CreateContactResponse struct {
	ContactResponse
	SkippedTransactions []contact.FieldViolation `json:"skipped_transactions,omitempty"`
}

// ActivityResponse represents one entry of a contact's activity log
type ActivityResponse struct {
	EventID        string        `json:"event_id"`
	EventType      string        `json:"event_type"`
	TransactionID  string        `json:"transaction_id,omitempty"`
	Direction      string        `json:"direction,omitempty"`
	Type           string        `json:"type,omitempty"`
	Amount         *money.Amount `json:"amount,omitempty"`
	CurrentBalance money.Amount  `json:"current_balance"`
	BalanceType    string        `json:"balance_type"`
	OccurredAt     string        `json:"occurred_at"`
}

func (r TransactionRequest) toInput() contact.TransactionInput {
	return contact.TransactionInput{
		Type:      r.Type,
		Direction: r.Direction,
		Amount:    r.Amount,
		Note:      r.Note,
		Date:      r.Date,
	}
}

func (r CreateContactRequest) toInput() contact.ContactInput {
	txns := make([]contact.TransactionInput, 0, len(r.Transactions))
	for _, t := range r.Transactions {
		txns = append(txns, t.toInput())
	}
	return contact.ContactInput{
		Name:         r.Name,
		Phone:        r.Phone,
		Email:        r.Email,
		Relationship: r.Relationship,
		Transactions: txns,
	}
}

func (r UpdateContactRequest) toPatch() contact.ContactPatch {
	return contact.ContactPatch{
		Name:         r.Name,
		Phone:        r.Phone,
		Email:        r.Email,
		Relationship: r.Relationship,
	}
}

func (r EditTransactionRequest) toPatch() contact.TransactionPatch {
	return contact.TransactionPatch{
		Type:      r.Type,
		Direction: r.Direction,
		Amount:    r.Amount,
		Note:      r.Note,
		Date:      r.Date,
	}
}

// mapContactToResponse maps a contact to its response DTO
func mapContactToResponse(c *contact.Contact) ContactResponse {
	txns := make([]TransactionResponse, 0, len(c.Transactions))
	for _, t := range c.Transactions {
		txns = append(txns, TransactionResponse{
			ID:        t.ID,
			Type:      string(t.Kind),
			Direction: string(t.Direction),
			Amount:    t.Amount,
			Note:      t.Note,
			Date:      t.Date.UTC().Format(time.RFC3339),
		})
	}

	return ContactResponse{
		ID:             c.ID,
		Name:           c.Name,
		Phone:          c.Phone,
		Email:          c.Email,
		Relationship:   string(c.Relationship),
		Transactions:   txns,
		CurrentBalance: c.CurrentBalance,
		BalanceType:    string(c.BalanceType),
		IsSettled:      c.IsSettled,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// mapEventToResponse maps an activity event to its response DTO
func mapEventToResponse(e *activity.Event) ActivityResponse {
	return ActivityResponse{
		EventID:        e.EventID,
		EventType:      string(e.Type),
		TransactionID:  e.TransactionID,
		Direction:      string(e.Direction),
		Type:           string(e.Kind),
		Amount:         e.Amount,
		CurrentBalance: e.CurrentBalance,
		BalanceType:    string(e.BalanceType),
		OccurredAt:     e.OccurredAt.UTC().Format(time.RFC3339),
	}
}
