package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
)

// timeFormat is how timestamps are stored; whole-second RFC3339 in UTC
// is fixed-width, so string comparison and chronological order stay
// aligned. Fractional seconds would break that: "10:00:00Z" sorts
// after "10:00:00.5Z".
const timeFormat = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureAccount creates the account on first interaction and refreshes
// the display fields and activity timestamp on subsequent calls.
func (r *accountRepository) EnsureAccount(userID int64, username, firstName string) error {
	query := `
		INSERT INTO users (user_id, username, first_name, balance, joined_date, last_activity, status, created_at, updated_at)
		VALUES (?, ?, ?, '0', ?, ?, 'active', ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_activity = excluded.last_activity,
			updated_at = excluded.updated_at
	`

	now := formatTime(time.Now())
	_, err := r.db.Exec(query, userID, username, firstName, now, now, now, now)
	if err != nil {
		r.logger.Error("Failed to ensure account", "user_id", userID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to ensure account").WithDetails(err.Error())
	}
	return nil
}

func (r *accountRepository) GetAccount(userID int64) (*domain.Account, error) {
	query := `
		SELECT user_id, COALESCE(username, ''), COALESCE(first_name, ''), balance, joined_date,
		       last_activity, status, COALESCE(account_data, ''), created_at, updated_at
		FROM users WHERE user_id = ?
	`

	var account domain.Account
	var balanceStr, joined, activity, created, updated string

	err := r.db.QueryRow(query, userID).Scan(
		&account.UserID,
		&account.Username,
		&account.FirstName,
		&balanceStr,
		&joined,
		&activity,
		&account.Status,
		&account.AccountData,
		&created,
		&updated,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "user_id", userID)
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "user_id", userID, "balance_str", balanceStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	account.Balance = balance
	account.JoinedAt = parseTime(joined)
	account.LastActivity = parseTime(activity)
	account.CreatedAt = parseTime(created)
	account.UpdatedAt = parseTime(updated)
	return &account, nil
}

func (r *accountRepository) UpdateBalance(userID int64, newBalance decimal.Decimal) error {
	query := `
		UPDATE users
		SET balance = ?, updated_at = ?
		WHERE user_id = ?
	`

	result, err := r.db.Exec(query, newBalance.String(), formatTime(time.Now()), userID)
	if err != nil {
		r.logger.Error("Failed to update balance", "user_id", userID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "user_id", userID)
		return errors.ErrAccountNotFound
	}

	return nil
}

// SetStatus applies a guarded status transition. The update is gated on
// the status actually changing; zero rows affected reports false, not
// an error.
func (r *accountRepository) SetStatus(userID int64, status domain.AccountStatus) (bool, error) {
	query := `
		UPDATE users
		SET status = ?, updated_at = ?
		WHERE user_id = ? AND status <> ?
	`

	result, err := r.db.Exec(query, string(status), formatTime(time.Now()), userID, string(status))
	if err != nil {
		r.logger.Error("Failed to set account status", "user_id", userID, "status", status, "error", err)
		return false, errors.NewAppError(errors.InternalError, "failed to set account status").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	return rowsAffected > 0, nil
}

func (r *accountRepository) TouchActivity(userID int64) error {
	query := `UPDATE users SET last_activity = ?, updated_at = ? WHERE user_id = ?`

	now := formatTime(time.Now())
	if _, err := r.db.Exec(query, now, now, userID); err != nil {
		r.logger.Error("Failed to touch activity", "user_id", userID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to touch activity").WithDetails(err.Error())
	}
	return nil
}

func (r *accountRepository) InsertBalanceHistory(entry *domain.BalanceHistoryEntry) error {
	query := `
		INSERT INTO balance_history (user_id, old_balance, new_balance, change_amount, transaction_type, admin_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var adminID interface{}
	if entry.AdminID != nil {
		adminID = *entry.AdminID
	}

	_, err := r.db.Exec(
		query,
		entry.UserID,
		entry.OldBalance.String(),
		entry.NewBalance.String(),
		entry.ChangeAmount.String(),
		string(entry.Kind),
		adminID,
		formatTime(time.Now()),
	)

	if err != nil {
		r.logger.Error("Failed to insert balance history", "user_id", entry.UserID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to insert balance history").WithDetails(err.Error())
	}
	return nil
}

func (r *accountRepository) BalanceHistory(userID int64) ([]domain.BalanceHistoryEntry, error) {
	query := `
		SELECT history_id, user_id, old_balance, new_balance, change_amount, transaction_type, admin_id, created_at
		FROM balance_history
		WHERE user_id = ?
		ORDER BY history_id
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Error("Failed to list balance history", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list balance history").WithDetails(err.Error())
	}
	defer rows.Close()

	var entries []domain.BalanceHistoryEntry
	for rows.Next() {
		var entry domain.BalanceHistoryEntry
		var oldStr, newStr, changeStr, created string
		var adminID sql.NullInt64

		if err := rows.Scan(&entry.HistoryID, &entry.UserID, &oldStr, &newStr, &changeStr, &entry.Kind, &adminID, &created); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan balance history").WithDetails(err.Error())
		}

		if entry.OldBalance, err = decimal.NewFromString(oldStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse old balance").WithDetails(err.Error())
		}
		if entry.NewBalance, err = decimal.NewFromString(newStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse new balance").WithDetails(err.Error())
		}
		if entry.ChangeAmount, err = decimal.NewFromString(changeStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse change amount").WithDetails(err.Error())
		}
		if adminID.Valid {
			id := adminID.Int64
			entry.AdminID = &id
		}
		entry.CreatedAt = parseTime(created)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate balance history").WithDetails(err.Error())
	}
	return entries, nil
}
