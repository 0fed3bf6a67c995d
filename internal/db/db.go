// Package db opens the labelr SQLite database and keeps its schema current.
//
// Two drivers are supported: "sqlite3" (github.com/mattn/go-sqlite3, cgo) and
// "sqlite" (modernc.org/sqlite, pure Go). The schema lives in the embedded
// migrations directory and is applied with golang-migrate; it is the single
// source of truth for production and tests alike.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverCGO is the mattn/go-sqlite3 driver name.
	DriverCGO = "sqlite3"
	// DriverPure is the modernc.org/sqlite driver name.
	DriverPure = "sqlite"
)

// DSN builds the data source name for the driver. Foreign keys are enforced,
// write transactions take the lock at BEGIN, and writers wait on a busy database.
func DSN(driver, path string) (string, error) {
	switch driver {
	case DriverCGO:
		return path + "?_foreign_keys=1&_txlock=immediate&_busy_timeout=5000", nil
	case DriverPure:
		return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate", nil
	}
	return "", fmt.Errorf("unsupported database driver %q (want %s or %s)", driver, DriverCGO, DriverPure)
}

// Open opens the database file at path, creating its directory if needed,
// and applies pending migrations.
func Open(ctx context.Context, driver, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn, err := DSN(driver, path)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; one connection keeps transactions and
	// in-memory databases on the same handle.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(conn, driver); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// OpenInMemory opens a migrated in-memory database. Used by tests.
func OpenInMemory(driver string) (*sql.DB, error) {
	return Open(context.Background(), driver, ":memory:")
}
