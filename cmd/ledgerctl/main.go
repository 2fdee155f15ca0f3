package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lifesync-ledger/internal/config"
	"github.com/lifesync-ledger/internal/data/mongo"
	"github.com/lifesync-ledger/internal/logger"
	"github.com/lifesync-ledger/internal/maintenance"
	"github.com/lifesync-ledger/internal/platform/persistence"
)

var dryRun bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "LifeSync ledger maintenance tool",
		Long:          `Offline maintenance jobs that run directly against the contact store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")

	recomputeCmd := &cobra.Command{
		Use:   "recompute",
		Short: "Re-derive the balance of every contact and rewrite drifted ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMongo(cmd.Context(), func(ctx context.Context, log *slog.Logger, cfg *config.Config, db *persistence.MongoDB) error {
				contacts := mongo.NewContactRepository(log, db.Database(), cfg.MongoDB.ContactsCollection)
				report, err := maintenance.NewRecomputer(log, contacts, dryRun).Run(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("scanned=%d drifted=%d rewritten=%d conflicts=%d\n",
					report.Scanned, report.Drifted, report.Rewritten, report.Conflicts)
				return nil
			})
		},
	}

	migrateLegacyCmd := &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Convert single-axis credit/debit loans into contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMongo(cmd.Context(), func(ctx context.Context, log *slog.Logger, cfg *config.Config, db *persistence.MongoDB) error {
				legacy := mongo.NewLegacyRepository(log, db.Database(), cfg.MongoDB.LegacyCollection)
				contacts := mongo.NewContactRepository(log, db.Database(), cfg.MongoDB.ContactsCollection)
				report, err := maintenance.NewLegacyMigrator(log, legacy, contacts, dryRun).Run(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("scanned=%d migrated=%d already_present=%d invalid=%d\n",
					report.Scanned, report.Migrated, report.AlreadyPresent, report.Invalid)
				return nil
			})
		},
	}

	migrateDBCmd := &cobra.Command{
		Use:   "migrate-db",
		Short: "Apply the activity log migrations to PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("ledgerctl")
			if err != nil {
				return err
			}
			migrator, err := persistence.NewMigrator(logger.NewLogger(cfg), cfg.Postgres.URL, cfg.Postgres.MigrationsPath)
			if err != nil {
				return err
			}
			if dryRun {
				version, dirty, err := migrator.Version()
				if err != nil {
					return err
				}
				fmt.Printf("current version=%d dirty=%t; would apply pending migrations from %s\n",
					version, dirty, cfg.Postgres.MigrationsPath)
				return nil
			}
			version, err := migrator.Up()
			if err != nil {
				return err
			}
			fmt.Printf("migrations applied, version=%d\n", version)
			return nil
		},
	}

	rootCmd.AddCommand(recomputeCmd, migrateLegacyCmd, migrateDBCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// withMongo loads configuration, connects to MongoDB and closes the connection after fn returns
func withMongo(ctx context.Context, fn func(ctx context.Context, log *slog.Logger, cfg *config.Config, db *persistence.MongoDB) error) error {
	cfg, err := config.LoadConfig("ledgerctl")
	if err != nil {
		return err
	}
	log := logger.NewLogger(cfg)

	db, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	return fn(ctx, log, cfg, db)
}
