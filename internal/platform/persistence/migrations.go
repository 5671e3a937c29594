package persistence

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
)

// migrator is the subset of *migrate.Migrate used to bring the schema up to date
type migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

var _ migrator = (*migrate.Migrate)(nil)

// ErrDirtySchema is returned when a previous migration failed halfway and the
// schema needs manual repair before the service can start
var ErrDirtySchema = errors.New("database schema is dirty")

// RunMigrations applies the SQL files under migrationsPath (e.g. migrations/postgres)
// to the bank_accounts database
func RunMigrations(logger *slog.Logger, databaseURL string, migrationsPath string) error {
	if migrationsPath == "" {
		return errors.New("migrations path cannot be empty")
	}
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return applyMigrations(logger, m)
}

func applyMigrations(logger *slog.Logger, m migrator) (err error) {
	defer func() {
		sourceErr, dbErr := m.Close()
		if err != nil {
			return
		}
		if sourceErr != nil {
			err = fmt.Errorf("migration source error: %w", sourceErr)
		} else if dbErr != nil {
			err = fmt.Errorf("migration database error: %w", dbErr)
		}
	}()

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}

	logger.Info("Database schema is up to date",
		"version", version,
		"changed", !errors.Is(upErr, migrate.ErrNoChange),
	)
	return nil
}
