package repository

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const backupStamp = "20060102_150405"

// Monetary columns are TEXT holding exact decimal strings; SQL never
// does arithmetic on them. CHECK casts guard the non-negativity
// invariant at the storage layer as well as in code.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    user_id INTEGER PRIMARY KEY,
    username TEXT,
    first_name TEXT,
    balance TEXT NOT NULL DEFAULT '0' CHECK (CAST(balance AS NUMERIC) >= 0),
    joined_date TEXT NOT NULL,
    last_activity TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'banned', 'suspended')),
    account_data TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS balance_history (
    history_id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    old_balance TEXT NOT NULL,
    new_balance TEXT NOT NULL,
    change_amount TEXT NOT NULL,
    transaction_type TEXT NOT NULL CHECK (transaction_type IN ('credit', 'debit')),
    admin_id INTEGER,
    created_at TEXT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS transactions (
    tx_id TEXT PRIMARY KEY,
    user_id INTEGER NOT NULL,
    amount TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal')),
    payment_method TEXT NOT NULL,
    payment_subtype TEXT,
    payment_number TEXT,
    payment_details TEXT,
    original_amount TEXT,
    original_currency TEXT,
    exchange_rate TEXT,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'rejected', 'expired')),
    reject_reason TEXT,
    admin_id INTEGER,
    created_at TEXT NOT NULL,
    completed_at TEXT,
    FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS orders (
    order_id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    product_type TEXT NOT NULL CHECK (product_type IN ('game', 'app')),
    product_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    price TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'rejected', 'expired')),
    created_at TEXT NOT NULL,
    completed_at TEXT,
    FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS admin_logs (
    log_id INTEGER PRIMARY KEY AUTOINCREMENT,
    admin_id INTEGER NOT NULL,
    action TEXT NOT NULL,
    details TEXT,
    target_user_id INTEGER,
    created_at TEXT NOT NULL,
    FOREIGN KEY (target_user_id) REFERENCES users(user_id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_users_username ON users (username);
CREATE INDEX IF NOT EXISTS idx_users_status ON users (status);
CREATE INDEX IF NOT EXISTS idx_transactions_user_status ON transactions (user_id, status);
CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders (user_id, status);
CREATE INDEX IF NOT EXISTS idx_balance_history_user ON balance_history (user_id);
CREATE INDEX IF NOT EXISTS idx_admin_logs_admin ON admin_logs (admin_id);
`

// Initialize opens the store, backing up any pre-existing file first,
// then applies the schema idempotently. Backup or schema failure is
// fatal to startup and returned to the caller.
func Initialize(path, backupDir string, logger *slog.Logger) (*sql.DB, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		logger.Error("Failed to create backup directory", "dir", backupDir, "error", err)
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		backupPath := backupPathFor(path, backupDir, time.Now())
		if err := copyFile(path, backupPath); err != nil {
			logger.Error("Failed to back up store", "path", path, "backup", backupPath, "error", err)
			return nil, fmt.Errorf("backup store: %w", err)
		}
		logger.Info("Store backed up", "backup", backupPath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat store: %w", err)
	}

	db, err := Open(path, logger)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		logger.Error("Failed to initialize schema", "path", path, "error", err)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("Store initialized", "path", path)
	return db, nil
}

// backupPathFor builds <backupDir>/<name>_<YYYYMMDD_HHMMSS><ext>.
func backupPathFor(path, backupDir string, now time.Time) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(backupDir, fmt.Sprintf("%s_%s%s", name, now.Format(backupStamp), ext))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
