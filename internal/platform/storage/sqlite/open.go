// Package sqlite is the default reputation store: a single SQLite file
// holding the 'malware' table, opened through the pure-Go modernc driver.
//
// Usage:
//
//	db, err := sqlite.Open("malware.db", sqlite.WithSchema())
//	repo := sqlite.NewSQLiteRepository(db, 5*time.Second)
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Schema creates the reputation table when missing. The composite primary
// key enforces one record per (domain, uri).
const Schema = `
CREATE TABLE IF NOT EXISTS malware (
	domain TEXT NOT NULL,
	uri    TEXT NOT NULL,
	result TEXT NOT NULL,
	PRIMARY KEY (domain, uri)
)`

type config struct {
	busyTimeout int
	schema      bool
	mkdirAll    bool
}

// Option customises Open behaviour.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 5000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithSchema applies Schema after the pragmas.
func WithSchema() Option { return func(c *config) { c.schema = true } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// Open opens the database at path with WAL pragmas and verifies the connection.
func Open(path string, opts ...Option) (*sql.DB, error) {
	cfg := config{busyTimeout: 5000}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path, cfg.busyTimeout)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if cfg.schema {
		if _, err := db.Exec(Schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec schema: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return db, nil
}
