package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// RunMigrations applies every pending up migration found in migrationsPath.
// A dirty version left by a crashed run is forced clean and re-applied.
func RunMigrations(databaseURL string, migrationsPath string) error {
	m, closeFn, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		prev := int(version) - 1
		if prev < 1 {
			prev = -1
		}
		log.Printf("[DB] ⚠️  Schema is dirty at version %d, forcing version %d", version, prev)
		if err := m.Force(prev); err != nil {
			return fmt.Errorf("failed to force migration: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	if v, _, err := m.Version(); err == nil {
		log.Printf("[DB] ✅ Migrations complete, schema version %d", v)
	}
	return nil
}

// RollbackMigration reverts the most recent migration. Used by the
// -migrate-down flag of the api binary.
func RollbackMigration(databaseURL string, migrationsPath string) error {
	m, closeFn, err := newMigrator(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	log.Println("[DB] ↩️  Rolled back one migration")
	return nil
}

func newMigrator(databaseURL, migrationsPath string) (*migrate.Migrate, func(), error) {
	dbConn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	driver, err := postgres.WithInstance(dbConn, &postgres.Config{})
	if err != nil {
		dbConn.Close()
		return nil, nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		dbConn.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, func() { dbConn.Close() }, nil
}
