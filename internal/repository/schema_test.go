package repository

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestStore initializes a fresh store under t.TempDir and returns
// the unit-of-work Store around it.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	db, err := Initialize(filepath.Join(dir, "store.db"), filepath.Join(dir, "backup"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(db, testLogger())
}

func TestInitializeCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")

	db, err := Initialize(path, filepath.Join(dir, "backup"), testLogger())
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "balance_history", "transactions", "orders", "admin_logs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestInitializeIdempotentWithBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")
	backupDir := filepath.Join(dir, "backup")

	db, err := Initialize(path, backupDir, testLogger())
	require.NoError(t, err)

	// First initialization starts from nothing, so no backup yet.
	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = db.Exec(
		`INSERT INTO users (user_id, username, first_name, balance, joined_date, last_activity, created_at, updated_at)
		 VALUES (1001, 'alice', 'Alice', '50000', ?, ?, ?, ?)`,
		formatTime(time.Now()), formatTime(time.Now()), formatTime(time.Now()), formatTime(time.Now()),
	)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db2, err := Initialize(path, backupDir, testLogger())
	require.NoError(t, err)
	defer db2.Close()

	// Second initialization backs up the existing file and keeps data.
	entries, err = os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^store_\d{8}_\d{6}\.db$`, entries[0].Name())

	var balance string
	err = db2.QueryRow(`SELECT balance FROM users WHERE user_id = 1001`).Scan(&balance)
	require.NoError(t, err)
	assert.Equal(t, "50000", balance)
}

func TestBackupPathFor(t *testing.T) {
	stamp := time.Date(2026, 8, 31, 14, 5, 9, 0, time.UTC)
	got := backupPathFor("data/store.db", "backup", stamp)
	assert.Equal(t, filepath.Join("backup", "store_20260831_140509.db"), got)
}

func TestSchemaRejectsNegativeBalance(t *testing.T) {
	store := openTestStore(t)

	now := formatTime(time.Now())
	_, err := store.executor.Exec(
		`INSERT INTO users (user_id, balance, joined_date, last_activity, created_at, updated_at)
		 VALUES (1, '-5', ?, ?, ?, ?)`,
		now, now, now, now,
	)
	assert.Error(t, err)
}

func TestOpenRetriesExhausted(t *testing.T) {
	// A directory path cannot be opened as a database file.
	dir := t.TempDir()
	start := time.Now()
	db, err := Open(dir, testLogger())
	if err == nil {
		db.Close()
		t.Skip("driver tolerated directory path")
	}
	// 5 attempts with 1s fixed delay means at least 4s of waiting.
	assert.GreaterOrEqual(t, time.Since(start), 4*time.Second)
}

func TestForeignKeysEnforced(t *testing.T) {
	store := openTestStore(t)

	_, err := store.executor.Exec(
		`INSERT INTO balance_history (user_id, old_balance, new_balance, change_amount, transaction_type, created_at)
		 VALUES (999, '0', '10', '10', 'credit', ?)`,
		formatTime(time.Now()),
	)
	assert.Error(t, err, "history row for a missing account must be rejected")
}
