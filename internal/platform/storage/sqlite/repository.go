package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rgdevment/urlinfo/internal/domain"
	"github.com/rgdevment/urlinfo/internal/service"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const maxRetries = 3

type sqliteRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLiteRepository wraps an open database. Every call is bounded by timeout.
func NewSQLiteRepository(db *sql.DB, timeout time.Duration) service.Repository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &sqliteRepository{
		db:      db,
		timeout: timeout,
	}
}

func (r *sqliteRepository) FindByKey(ctx context.Context, domainName, uri string) ([]*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// rowid order makes the first-inserted duplicate win on legacy tables without a key.
	rows, err := r.db.QueryContext(ctx,
		`SELECT domain, uri, result FROM malware WHERE domain = ? AND uri = ? ORDER BY rowid`,
		domainName, uri)
	if err != nil {
		return nil, unavailable("find", err)
	}
	return scanRecords(rows)
}

func (r *sqliteRepository) ListAll(ctx context.Context) ([]*domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT domain, uri, result FROM malware ORDER BY rowid`)
	if err != nil {
		return nil, unavailable("list", err)
	}
	return scanRecords(rows)
}

func (r *sqliteRepository) Insert(ctx context.Context, rec *domain.Record) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	for i := 0; i < maxRetries; i++ {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO malware (domain, uri, result) VALUES (?, ?, ?)`,
			rec.Domain, rec.URI, rec.Result)
		if err == nil {
			return nil
		}
		if isConstraint(err) {
			return fmt.Errorf("sqlite: %w: %s", domain.ErrDuplicateRecord, rec.URL())
		}
		if !isBusy(err) || i == maxRetries-1 {
			return unavailable("insert", err)
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return unavailable("insert retry", err)
		}
	}
	return unavailable("insert", errors.New("max retries exceeded"))
}

func (r *sqliteRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *sqliteRepository) Close() error {
	return r.db.Close()
}

func scanRecords(rows *sql.Rows) ([]*domain.Record, error) {
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.Domain, &rec.URI, &rec.Result); err != nil {
			return nil, unavailable("scan", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate", err)
	}
	return records, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: sqlite: %s: %w", domain.ErrStoreUnavailable, op, err)
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// isBusy reports whether err is an SQLite BUSY/locked condition worth retrying.
func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_BUSY {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
