// Package postgres provides PostgreSQL implementations of the domain repositories.
// It holds the contact activity log written by the activity processor and read by the API gateway.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lifesync-ledger/internal/domain/activity"
	"github.com/lifesync-ledger/internal/domain/contact"
	"github.com/lifesync-ledger/internal/domain/money"
	"github.com/lifesync-ledger/internal/platform/persistence"
)

// ActivityRepository implements the activity.Repository interface for PostgreSQL
type ActivityRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewActivityRepository creates a new PostgreSQL activity repository
func NewActivityRepository(logger *slog.Logger, db *persistence.PostgresDB) activity.Repository {
	return &ActivityRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Record inserts the event once. Redelivered events hit the primary key and are ignored.
func (r *ActivityRepository) Record(ctx context.Context, e *activity.Event) (bool, error) {
	query := `
		INSERT INTO contact_activity (event_id, owner_id, contact_id, contact_name, event_type, transaction_id,
			direction, kind, amount, current_balance, balance_type, version, correlation_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (event_id) DO NOTHING
	`

	var amount *int64
	if e.Amount != nil {
		v := int64(*e.Amount)
		amount = &v
	}

	tag, err := r.querier.Exec(ctx, query,
		e.EventID,
		e.OwnerID,
		e.ContactID,
		e.ContactName,
		string(e.Type),
		e.TransactionID,
		string(e.Direction),
		string(e.Kind),
		amount,
		int64(e.CurrentBalance),
		string(e.BalanceType),
		e.Version,
		e.CorrelationID,
		e.OccurredAt,
	)
	if err != nil {
		r.logger.Error("Failed to record contact activity", "event_id", e.EventID, "error", err)
		return false, fmt.Errorf("failed to record contact activity: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListByContact returns one page of a contact's activity, newest first
func (r *ActivityRepository) ListByContact(ctx context.Context, ownerID, contactID string, limit, offset int) ([]*activity.Event, error) {
	query := `
		SELECT event_id, owner_id, contact_id, contact_name, event_type, transaction_id,
			direction, kind, amount, current_balance, balance_type, version, correlation_id, occurred_at
		FROM contact_activity
		WHERE owner_id = $1 AND contact_id = $2
		ORDER BY occurred_at DESC, event_id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.querier.Query(ctx, query, ownerID, contactID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list contact activity", "contact_id", contactID, "error", err)
		return nil, fmt.Errorf("failed to list contact activity: %w", err)
	}
	defer rows.Close()

	events := []*activity.Event{}
	for rows.Next() {
		var (
			e                                       activity.Event
			eventType, direction, kind, balanceType string
			amount                                  *int64
			currentBalance                          int64
		)
		if err := rows.Scan(
			&e.EventID,
			&e.OwnerID,
			&e.ContactID,
			&e.ContactName,
			&eventType,
			&e.TransactionID,
			&direction,
			&kind,
			&amount,
			&currentBalance,
			&balanceType,
			&e.Version,
			&e.CorrelationID,
			&e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact activity: %w", err)
		}

		e.Type = activity.EventType(eventType)
		e.Direction = contact.Direction(direction)
		e.Kind = contact.Kind(kind)
		e.BalanceType = contact.BalanceType(balanceType)
		e.CurrentBalance = money.Amount(currentBalance)
		if amount != nil {
			a := money.Amount(*amount)
			e.Amount = &a
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact activity: %w", err)
	}

	return events, nil
}

// CountByContact counts every recorded event of a contact
func (r *ActivityRepository) CountByContact(ctx context.Context, ownerID, contactID string) (int64, error) {
	query := `SELECT COUNT(*) FROM contact_activity WHERE owner_id = $1 AND contact_id = $2`

	var count int64
	if err := r.querier.QueryRow(ctx, query, ownerID, contactID).Scan(&count); err != nil {
		r.logger.Error("Failed to count contact activity", "contact_id", contactID, "error", err)
		return 0, fmt.Errorf("failed to count contact activity: %w", err)
	}
	return count, nil
}
