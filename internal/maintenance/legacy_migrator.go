package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lifesync-ledger/internal/domain/contact"
)

// MigrationReport counts what a legacy migration did
type MigrationReport struct {
	Scanned        int
	Migrated       int
	AlreadyPresent int
	Invalid        int
}

// LegacyMigrator copies single-axis loan documents into the contact store.
// Contacts keep the legacy id, so a second run only reports them as already present.
type LegacyMigrator struct {
	legacy   contact.LegacyRepository
	contacts contact.Repository
	logger   *slog.Logger
	dryRun   bool
	now      func() time.Time
}

// NewLegacyMigrator creates a migrator; in dry-run mode loans are converted but not stored
func NewLegacyMigrator(logger *slog.Logger, legacy contact.LegacyRepository, contacts contact.Repository, dryRun bool) *LegacyMigrator {
	return &LegacyMigrator{
		legacy:   legacy,
		contacts: contacts,
		logger:   logger,
		dryRun:   dryRun,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run converts every legacy loan. Loans that fail validation are logged and skipped.
func (m *LegacyMigrator) Run(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport

	err := m.legacy.Scan(ctx, func(loan contact.LegacyLoan) error {
		report.Scanned++
		logger := m.logger.With("legacy_id", loan.ID, "owner_id", loan.OwnerID)

		c, err := contact.FromLegacy(loan, m.now())
		if err != nil {
			var verr contact.ValidationError
			if errors.As(err, &verr) {
				report.Invalid++
				logger.Warn("Legacy loan is invalid, skipping", "violations", verr.Violations)
				return nil
			}
			return fmt.Errorf("failed to convert legacy loan %s: %w", loan.ID, err)
		}

		if m.dryRun {
			logger.Info("Legacy loan converted", "balance", c.CurrentBalance, "balance_type", c.BalanceType)
			report.Migrated++
			return nil
		}

		if err := m.contacts.Create(ctx, c); err != nil {
			if errors.Is(err, contact.ErrDuplicateContact{}) {
				report.AlreadyPresent++
				logger.Debug("Legacy loan already migrated")
				return nil
			}
			return fmt.Errorf("failed to store migrated contact %s: %w", c.ID, err)
		}
		report.Migrated++
		logger.Info("Legacy loan migrated", "transactions", len(c.Transactions), "balance_type", c.BalanceType)
		return nil
	})
	if err != nil {
		return report, err
	}

	m.logger.Info("Legacy migration finished",
		"scanned", report.Scanned,
		"migrated", report.Migrated,
		"already_present", report.AlreadyPresent,
		"invalid", report.Invalid,
		"dry_run", m.dryRun,
	)
	return report, nil
}
