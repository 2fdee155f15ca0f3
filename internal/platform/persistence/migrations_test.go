package persistence

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMigrator(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	t.Run("EmptyMigrationsPath", func(t *testing.T) {
		_, err := NewMigrator(logger, "postgres://ledger@localhost/ledger", "")
		assert.ErrorIs(t, err, ErrEmptyMigrationsPath)
	})

	t.Run("EmptyDatabaseURL", func(t *testing.T) {
		_, err := NewMigrator(logger, "", "./migrations/postgres")
		assert.ErrorIs(t, err, ErrEmptyDatabaseURL)
	})

	t.Run("PlainDirectoryBecomesFileURL", func(t *testing.T) {
		m, err := NewMigrator(logger, "postgres://ledger@localhost/ledger", "./migrations/postgres")
		require.NoError(t, err)
		assert.Equal(t, "file://./migrations/postgres", m.sourceURL)
	})

	t.Run("FileURLKept", func(t *testing.T) {
		m, err := NewMigrator(logger, "postgres://ledger@localhost/ledger", "file:///srv/migrations")
		require.NoError(t, err)
		assert.Equal(t, "file:///srv/migrations", m.sourceURL)
	})
}

func TestRunMigrations_InvalidInput(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	assert.ErrorIs(t, RunMigrations(logger, "", "./migrations/postgres"), ErrEmptyDatabaseURL)
}

func TestMigrator_MissingSource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m, err := NewMigrator(logger, "postgres://ledger@localhost/ledger", t.TempDir()+"/absent")
	require.NoError(t, err)

	_, err = m.Up()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create migrate instance")
}
