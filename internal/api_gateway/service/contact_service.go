package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/domain/contact"
	"github.com/lifesync-ledger/internal/domain/outbox"
	"github.com/lifesync-ledger/internal/platform/metrics"
	"github.com/lifesync-ledger/internal/platform/reqctx"
)

// ContactServiceImpl implements the ContactService interface
type ContactServiceImpl struct {
	contacts contact.Repository
	outbox   outbox.Repository
	tx       TxRunner
	summary  contact.SummaryOptions
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewContactService creates a new contact service
func NewContactService(
	logger *slog.Logger,
	contacts contact.Repository,
	outboxRepo outbox.Repository,
	tx TxRunner,
	summary contact.SummaryOptions,
	m *metrics.Metrics,
) ContactService {
	return &ContactServiceImpl{
		contacts: contacts,
		outbox:   outboxRepo,
		tx:       tx,
		summary:  summary,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateContact stores a new contact and its creation event in one transaction
func (s *ContactServiceImpl) CreateContact(ctx context.Context, ownerID string, input contact.ContactInput, lenient bool) (*contact.Contact, []contact.FieldViolation, error) {
	now := s.now()
	c, skipped, err := contact.NewContact(ownerID, input, lenient, now)
	if err != nil {
		s.observe(ctx, "create_contact", ownerID, "", err)
		return nil, nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.contacts.Create(ctx, c); err != nil {
			return err
		}
		return s.enqueue(ctx, activity.EventContactCreated, c, nil, now)
	})
	s.observe(ctx, "create_contact", ownerID, c.ID, err)
	if err != nil {
		return nil, nil, err
	}

	if len(skipped) > 0 {
		s.logger.Info("Skipped invalid initial transactions",
			"owner_id", ownerID,
			"contact_id", c.ID,
			"skipped", len(skipped),
		)
	}
	return c, skipped, nil
}

// ListContacts returns the owner's contacts, most recently updated first
func (s *ContactServiceImpl) ListContacts(ctx context.Context, ownerID string, filter contact.ListFilter) ([]*contact.Contact, error) {
	return s.contacts.List(ctx, ownerID, filter)
}

// GetContact fetches one contact of the owner
func (s *ContactServiceImpl) GetContact(ctx context.Context, ownerID, contactID string) (*contact.Contact, error) {
	return s.contacts.GetByID(ctx, ownerID, contactID)
}

// UpdateContact edits the descriptive fields of a contact
func (s *ContactServiceImpl) UpdateContact(ctx context.Context, ownerID, contactID string, patch contact.ContactPatch) (*contact.Contact, error) {
	return s.mutate(ctx, "update_contact", activity.EventContactUpdated, ownerID, contactID,
		func(c *contact.Contact, now time.Time) (*contact.Transaction, error) {
			return nil, c.Update(patch, now)
		})
}

// DeleteContact removes a contact together with its transactions
func (s *ContactServiceImpl) DeleteContact(ctx context.Context, ownerID, contactID string) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.contacts.GetByID(ctx, ownerID, contactID)
		if err != nil {
			return err
		}
		if err := s.contacts.Delete(ctx, ownerID, contactID); err != nil {
			return err
		}
		return s.enqueue(ctx, activity.EventContactDeleted, c, nil, s.now())
	})
	s.observe(ctx, "delete_contact", ownerID, contactID, err)
	return err
}

// AddTransaction appends a transaction and recomputes the balance
func (s *ContactServiceImpl) AddTransaction(ctx context.Context, ownerID, contactID string, in contact.TransactionInput) (*contact.Contact, error) {
	return s.mutate(ctx, "add_transaction", activity.EventTransactionAdded, ownerID, contactID,
		func(c *contact.Contact, now time.Time) (*contact.Transaction, error) {
			txn, err := c.AddTransaction(in, now)
			if err != nil {
				return nil, err
			}
			return &txn, nil
		})
}

// EditTransaction changes one transaction and recomputes the balance
func (s *ContactServiceImpl) EditTransaction(ctx context.Context, ownerID, contactID, transactionID string, patch contact.TransactionPatch) (*contact.Contact, error) {
	return s.mutate(ctx, "edit_transaction", activity.EventTransactionEdited, ownerID, contactID,
		func(c *contact.Contact, now time.Time) (*contact.Transaction, error) {
			txn, err := c.EditTransaction(transactionID, patch, now)
			if err != nil {
				return nil, err
			}
			return &txn, nil
		})
}

// DeleteTransaction removes one transaction and recomputes the balance
func (s *ContactServiceImpl) DeleteTransaction(ctx context.Context, ownerID, contactID, transactionID string) (*contact.Contact, error) {
	return s.mutate(ctx, "delete_transaction", activity.EventTransactionDeleted, ownerID, contactID,
		func(c *contact.Contact, now time.Time) (*contact.Transaction, error) {
			txn, err := c.DeleteTransaction(transactionID, now)
			if err != nil {
				return nil, err
			}
			return &txn, nil
		})
}

// SettleContact appends the transaction that zeroes the balance
func (s *ContactServiceImpl) SettleContact(ctx context.Context, ownerID, contactID string) (*contact.Contact, error) {
	return s.mutate(ctx, "settle_contact", activity.EventContactSettled, ownerID, contactID,
		func(c *contact.Contact, now time.Time) (*contact.Transaction, error) {
			txn, err := c.Settle(now)
			if err != nil {
				return nil, err
			}
			return &txn, nil
		})
}

// GetSummary renders the shareable text summary of a contact
func (s *ContactServiceImpl) GetSummary(ctx context.Context, ownerID, contactID string) (contact.Summary, error) {
	c, err := s.contacts.GetByID(ctx, ownerID, contactID)
	if err != nil {
		return contact.Summary{}, err
	}
	return c.Summary(s.summary), nil
}

// GetStats aggregates the balances of all the owner's contacts
func (s *ContactServiceImpl) GetStats(ctx context.Context, ownerID string) (contact.Stats, error) {
	groups, err := s.contacts.BalanceGroups(ctx, ownerID)
	if err != nil {
		s.logger.Error("Failed to aggregate contact balances", "owner_id", ownerID, "error", err)
		return contact.Stats{}, err
	}
	stats, err := contact.NewStats(groups)
	if err != nil {
		s.logger.Error("Failed to total contact balances", "owner_id", ownerID, "error", err)
		return contact.Stats{}, err
	}
	return stats, nil
}

// mutate runs one read-modify-write of a contact inside a transaction. The contact is read under
// the owner's scope, changed by fn, written back only if nobody else wrote it in between and the
// resulting event is queued in the outbox. Any error leaves the stored contact untouched.
func (s *ContactServiceImpl) mutate(
	ctx context.Context,
	operation string,
	eventType activity.EventType,
	ownerID, contactID string,
	fn func(c *contact.Contact, now time.Time) (*contact.Transaction, error),
) (*contact.Contact, error) {
	var result *contact.Contact

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.contacts.GetByID(ctx, ownerID, contactID)
		if err != nil {
			return err
		}

		now := s.now()
		readVersion := c.Version
		txn, err := fn(c, now)
		if err != nil {
			return err
		}
		if err := s.contacts.Update(ctx, c, readVersion); err != nil {
			return err
		}
		if err := s.enqueue(ctx, eventType, c, txn, now); err != nil {
			return err
		}

		result = c
		return nil
	})
	s.observe(ctx, operation, ownerID, contactID, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ContactServiceImpl) enqueue(ctx context.Context, eventType activity.EventType, c *contact.Contact, txn *contact.Transaction, now time.Time) error {
	event := activity.NewEvent(eventType, c, txn, reqctx.CorrelationID(ctx), now)
	msg, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return s.outbox.Create(ctx, msg)
}

func (s *ContactServiceImpl) observe(ctx context.Context, operation, ownerID, contactID string, err error) {
	s.metrics.ObserveLedgerOperation(operation, err)

	attrs := []any{
		"operation", operation,
		"owner_id", ownerID,
		"contact_id", contactID,
		"correlation_id", reqctx.CorrelationID(ctx),
	}
	switch {
	case err == nil:
		s.logger.Info("Ledger operation applied", attrs...)
	case isClientError(err):
		s.logger.Info("Ledger operation rejected", append(attrs, "reason", err.Error())...)
	default:
		s.logger.Error("Ledger operation failed", append(attrs, "error", err)...)
	}
}

func isClientError(err error) bool {
	return errors.Is(err, contact.ValidationError{}) ||
		errors.Is(err, contact.ErrContactNotFound{}) ||
		errors.Is(err, contact.ErrTransactionNotFound{}) ||
		errors.Is(err, contact.ErrAlreadySettled{}) ||
		errors.Is(err, contact.ErrConflict{}) ||
		errors.Is(err, contact.ErrDuplicateContact{})
}
