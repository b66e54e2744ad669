package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the ledger schema at dbPath up to date. Failures are
// returned as *Error with Op "migrate".
func RunMigrations(dbPath string) error {
	fail := func(step string, err error) error {
		return &Error{Op: "migrate", Location: dbPath, Err: fmt.Errorf("%s: %w", step, err)}
	}

	// Separate connection; migrate closes the driver it is given.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fail("open database", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fail("sqlite driver", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fail("embedded source", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fail("migrate instance", err)
	}
	defer m.Close()

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		return nil
	case err != nil:
		return fail("apply", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		slog.Info("Ledger schema migrated", "path", dbPath, "version", version, "dirty", dirty)
	}
	return nil
}
