package contact

import (
	"strings"
)

// FieldViolation names one invalid input field
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found in a single input
type ValidationError struct {
	Violations []FieldViolation
}

// NewValidationError builds a ValidationError from the given violations
func NewValidationError(violations ...FieldViolation) ValidationError {
	return ValidationError{Violations: violations}
}

func (e ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is implements the errors.Is interface for ValidationError
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	return ok
}

// ErrContactNotFound indicates a missing contact, or one that belongs to another owner
type ErrContactNotFound struct {
	ContactID string
}

func (e ErrContactNotFound) Error() string {
	return "contact not found: " + e.ContactID
}

// Is implements the errors.Is interface for ErrContactNotFound
func (e ErrContactNotFound) Is(target error) bool {
	t, ok := target.(ErrContactNotFound)
	if !ok {
		return false
	}
	// If the target ContactID is empty, consider it a match for any ErrContactNotFound
	if t.ContactID == "" {
		return true
	}
	return e.ContactID == t.ContactID
}

// ErrTransactionNotFound indicates a transaction id that is not part of the contact's ledger
type ErrTransactionNotFound struct {
	ContactID     string
	TransactionID string
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID + " (contact " + e.ContactID + ")"
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == "" {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrAlreadySettled indicates a settle request on a contact with nothing outstanding
type ErrAlreadySettled struct {
	ContactID string
}

func (e ErrAlreadySettled) Error() string {
	return "contact is already settled: " + e.ContactID
}

// Is implements the errors.Is interface for ErrAlreadySettled
func (e ErrAlreadySettled) Is(target error) bool {
	t, ok := target.(ErrAlreadySettled)
	if !ok {
		return false
	}
	if t.ContactID == "" {
		return true
	}
	return e.ContactID == t.ContactID
}

// ErrConflict indicates optimistic lock failure: the contact changed after it was read
type ErrConflict struct {
	ContactID string
}

func (e ErrConflict) Error() string {
	return "concurrent modification detected for contact: " + e.ContactID
}

// Is implements the errors.Is interface for ErrConflict
func (e ErrConflict) Is(target error) bool {
	t, ok := target.(ErrConflict)
	if !ok {
		return false
	}
	if t.ContactID == "" {
		return true
	}
	return e.ContactID == t.ContactID
}

// ErrDuplicateContact indicates a contact id uniqueness violation
type ErrDuplicateContact struct {
	ContactID string
}

func (e ErrDuplicateContact) Error() string {
	return "contact already exists: " + e.ContactID
}

// Is implements the errors.Is interface for ErrDuplicateContact
func (e ErrDuplicateContact) Is(target error) bool {
	t, ok := target.(ErrDuplicateContact)
	if !ok {
		return false
	}
	if t.ContactID == "" {
		return true
	}
	return e.ContactID == t.ContactID
}
