package repository

import (
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	openAttempts  = 5
	openRetryWait = time.Second
)

// SQLExecutor represents both sql.DB and sql.Tx
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// DB represents a database that can begin transactions
type DB interface {
	SQLExecutor
	Begin() (*sql.Tx, error)
}

// Ensure sql.DB implements DB interface
var _ DB = (*sql.DB)(nil)

// TxWrapper wraps sql.Tx to implement SQLExecutor
type TxWrapper struct {
	*sql.Tx
}

func (t *TxWrapper) Exec(query string, args ...interface{}) (sql.Result, error) {
	return t.Tx.Exec(query, args...)
}

func (t *TxWrapper) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return t.Tx.Query(query, args...)
}

func (t *TxWrapper) QueryRow(query string, args ...interface{}) *sql.Row {
	return t.Tx.QueryRow(query, args...)
}

// DSN builds the connection string for the store file. WAL keeps
// readers concurrent with the single writer; _txlock=immediate makes
// read-check-write transactions take the write lock up front so the
// busy timeout governs writer contention instead of failing lock
// upgrades. The _pragma form applies each setting on every pooled
// connection, not just the first.
func DSN(path string) string {
	return filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(30000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=cache_size(-2000)" +
		"&_txlock=immediate"
}

// Open opens the embedded store and verifies the handle with a bounded
// retry policy: up to 5 attempts with a fixed 1-second delay. The final
// failure is logged and returned.
func Open(path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		logger.Error("Failed to open store", "path", path, "error", err)
		return nil, err
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(openRetryWait), openAttempts-1)
	if err := backoff.Retry(db.Ping, policy); err != nil {
		db.Close()
		logger.Error("Failed to connect to store after retries",
			"path", path, "attempts", openAttempts, "error", err)
		return nil, err
	}

	return db, nil
}

// isConstraintViolation reports whether err is a primary-key or unique
// constraint failure.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		sqlite3.SQLITE_CONSTRAINT:
		return true
	}
	return false
}

// isBusy reports whether err is a transient lock-contention failure the
// caller may retry.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	primary := se.Code() & 0xff
	return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
}
