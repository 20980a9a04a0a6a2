// Package database provides database migration tooling.
package database

import (
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // Postgres driver for migrations
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var fs embed.FS

// migrationsFromSource returns a migration source driver from the embedded migrations.
func migrationsFromSource() source.Driver {
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		panic(err)
	}
	return d
}

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
}

// NewFromConnectionString returns a new migration instance from the given connection string.
// Accepts standard postgres:// connection strings; the scheme is rewritten for the
// migrate pgx/v5 driver.
func NewFromConnectionString(connString string) (Migrator, error) {
	d := migrationsFromSource()
	if strings.HasPrefix(connString, "postgres://") {
		connString = "pgx5://" + strings.TrimPrefix(connString, "postgres://")
	}
	return migrate.NewWithSourceInstance("iofs", d, connString)
}

// GetVersion returns the current migration version for the given connection string.
func GetVersion(connString string) (uint, bool, error) {
	m, err := NewFromConnectionString(connString)
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}
