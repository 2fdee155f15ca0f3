package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var (
	ErrEmptyMigrationsPath = errors.New("migrations path cannot be empty")
	ErrEmptyDatabaseURL    = errors.New("database URL cannot be empty")
	ErrDirtySchema         = errors.New("activity schema is dirty; fix the failed migration and force its version")
)

// Migrator applies the activity log schema migrations to PostgreSQL
type Migrator struct {
	logger      *slog.Logger
	databaseURL string
	sourceURL   string
}

// NewMigrator validates its inputs; migrationsPath may be a plain directory or a file:// URL
func NewMigrator(logger *slog.Logger, databaseURL, migrationsPath string) (*Migrator, error) {
	if migrationsPath == "" {
		return nil, ErrEmptyMigrationsPath
	}
	if databaseURL == "" {
		return nil, ErrEmptyDatabaseURL
	}
	return &Migrator{
		logger:      logger,
		databaseURL: databaseURL,
		sourceURL:   migrationSourceURL(migrationsPath),
	}, nil
}

func migrationSourceURL(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}

// Up applies every pending migration and returns the resulting schema version
func (m *Migrator) Up() (uint, error) {
	var version uint
	err := m.with(func(mg *migrate.Migrate) error {
		if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		v, dirty, err := mg.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if dirty {
			return ErrDirtySchema
		}
		version = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	m.logger.Info("Activity schema is up to date", "version", version)
	return version, nil
}

// Version reports the applied schema version without changing anything. A fresh database reports 0.
func (m *Migrator) Version() (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := m.with(func(mg *migrate.Migrate) error {
		var err error
		version, dirty, err = mg.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		return nil
	})
	return version, dirty, err
}

func (m *Migrator) with(fn func(mg *migrate.Migrate) error) error {
	mg, err := migrate.New(m.sourceURL, m.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	fnErr := fn(mg)

	sourceErr, dbErr := mg.Close()
	if fnErr != nil {
		return fnErr
	}
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}
	return nil
}

// RunMigrations brings the activity schema up to date
func RunMigrations(logger *slog.Logger, databaseURL, migrationsPath string) error {
	m, err := NewMigrator(logger, databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	_, err = m.Up()
	return err
}
