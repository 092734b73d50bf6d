// Package migrations holds the schema for the MySQL-backed session store and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Files returns the embedded migration files.
func Files() fs.FS {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		// the directory is embedded at compile time.
		panic(err)
	}
	return sub
}

// Up applies every pending migration to the database named by dsn.
// The dsn uses the go-sql-driver/mysql format, e.g. "web:pass@tcp(localhost:3306)/shortlink?parseTime=true".
func Up(dsn string) error {
	source, err := iofs.New(Files(), ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, "mysql://"+dsn)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}

	return nil
}
