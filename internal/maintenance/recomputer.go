// Package maintenance holds the offline jobs run by ledgerctl against the contact store.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lifesync-ledger/internal/domain/contact"
)

// RecomputeReport counts what a recompute pass did
type RecomputeReport struct {
	Scanned   int
	Drifted   int
	Rewritten int
	Conflicts int // contacts changed by the API during the pass; that write already recomputed them
}

// Recomputer replays the balance of every stored contact and rewrites the ones whose stored
// derived fields no longer match their transactions. Running it twice rewrites nothing the second time.
type Recomputer struct {
	contacts contact.Repository
	logger   *slog.Logger
	dryRun   bool
}

// NewRecomputer creates a recomputer; in dry-run mode drifted contacts are only reported
func NewRecomputer(logger *slog.Logger, contacts contact.Repository, dryRun bool) *Recomputer {
	return &Recomputer{
		contacts: contacts,
		logger:   logger,
		dryRun:   dryRun,
	}
}

// Run walks the whole store once
func (r *Recomputer) Run(ctx context.Context) (RecomputeReport, error) {
	var report RecomputeReport

	err := r.contacts.Scan(ctx, func(c *contact.Contact) error {
		report.Scanned++

		stored := snapshot(c)
		c.Recompute()
		if snapshot(c) == stored {
			return nil
		}
		report.Drifted++

		logger := r.logger.With("contact_id", c.ID, "owner_id", c.OwnerID)
		logger.Info("Contact balance drifted",
			"stored_balance", stored.balance, "stored_type", stored.balanceType,
			"balance", c.CurrentBalance, "balance_type", c.BalanceType,
		)
		if r.dryRun {
			return nil
		}

		if err := r.contacts.Update(ctx, c, c.Version); err != nil {
			if errors.Is(err, contact.ErrConflict{}) || errors.Is(err, contact.ErrContactNotFound{}) {
				report.Conflicts++
				logger.Warn("Contact changed during recompute, skipping", "error", err)
				return nil
			}
			return fmt.Errorf("failed to rewrite contact %s: %w", c.ID, err)
		}
		report.Rewritten++
		return nil
	})
	if err != nil {
		return report, err
	}

	r.logger.Info("Recompute finished",
		"scanned", report.Scanned,
		"drifted", report.Drifted,
		"rewritten", report.Rewritten,
		"conflicts", report.Conflicts,
		"dry_run", r.dryRun,
	)
	return report, nil
}

type balanceSnapshot struct {
	balance     int64
	balanceType contact.BalanceType
	settled     bool
}

func snapshot(c *contact.Contact) balanceSnapshot {
	return balanceSnapshot{
		balance:     int64(c.CurrentBalance),
		balanceType: c.BalanceType,
		settled:     c.IsSettled,
	}
}
