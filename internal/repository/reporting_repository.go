package repository

import (
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
)

// reportingRepository serves the read-only aggregate queries. Monetary
// sums are computed with decimal over scanned rows; SQL SUM over the
// text column would coerce to float and lose exactness.
type reportingRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewReportingRepository(db SQLExecutor, logger *slog.Logger) domain.ReportingRepository {
	return &reportingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *reportingRepository) UserStats(userID int64) (*domain.UserStats, error) {
	userQuery := `
		SELECT COALESCE(username, ''), COALESCE(first_name, ''), balance, joined_date, last_activity, status, created_at
		FROM users WHERE user_id = ?
	`

	stats := domain.UserStats{UserID: userID}
	var balanceStr, joined, activity, created string
	var status domain.AccountStatus

	err := r.db.QueryRow(userQuery, userID).Scan(
		&stats.Username,
		&stats.FirstName,
		&balanceStr,
		&joined,
		&activity,
		&status,
		&created,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get user stats", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get user stats").WithDetails(err.Error())
	}

	if stats.CurrentBalance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}
	stats.JoinedAt = parseTime(joined)
	stats.LastActivity = parseTime(activity)
	stats.CreatedAt = parseTime(created)
	stats.IsBanned = status == domain.StatusBanned

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&stats.TotalTransactions); err != nil {
		r.logger.Error("Failed to count transactions", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to count transactions").WithDetails(err.Error())
	}

	deposits, withdrawals, err := r.completedTransactionTotals(userID)
	if err != nil {
		return nil, err
	}
	stats.TotalDeposits = deposits
	stats.TotalWithdrawals = withdrawals

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID).Scan(&stats.TotalOrders); err != nil {
		r.logger.Error("Failed to count orders", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to count orders").WithDetails(err.Error())
	}

	spent, err := r.sumColumn(`SELECT price FROM orders WHERE user_id = ? AND status = 'completed'`, userID)
	if err != nil {
		return nil, err
	}
	stats.TotalSpent = spent

	return &stats, nil
}

func (r *reportingRepository) completedTransactionTotals(userID int64) (deposits, withdrawals decimal.Decimal, err error) {
	rows, err := r.db.Query(
		`SELECT type, amount FROM transactions WHERE user_id = ? AND status = 'completed'`,
		userID,
	)
	if err != nil {
		r.logger.Error("Failed to query transaction totals", "user_id", userID, "error", err)
		return deposits, withdrawals, errors.NewAppError(errors.InternalError, "failed to query transaction totals").WithDetails(err.Error())
	}
	defer rows.Close()

	for rows.Next() {
		var txType domain.TransactionType
		var amountStr string
		if err := rows.Scan(&txType, &amountStr); err != nil {
			return deposits, withdrawals, errors.NewAppError(errors.InternalError, "failed to scan transaction total").WithDetails(err.Error())
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return deposits, withdrawals, errors.NewAppError(errors.InternalError, "failed to parse transaction amount").WithDetails(err.Error())
		}
		switch txType {
		case domain.TypeDeposit:
			deposits = deposits.Add(amount)
		case domain.TypeWithdrawal:
			withdrawals = withdrawals.Add(amount)
		}
	}
	return deposits, withdrawals, rows.Err()
}

// UserIDByUsername resolves a display handle, tolerating a leading @
// and any letter casing.
func (r *reportingRepository) UserIDByUsername(username string) (int64, error) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))

	var userID int64
	err := r.db.QueryRow(`SELECT user_id FROM users WHERE lower(username) = ?`, normalized).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to look up username", "username", normalized, "error", err)
		return 0, errors.NewAppError(errors.InternalError, "failed to look up username").WithDetails(err.Error())
	}
	return userID, nil
}

func (r *reportingRepository) TotalUsers() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		r.logger.Error("Failed to count users", "error", err)
		return 0, errors.NewAppError(errors.InternalError, "failed to count users").WithDetails(err.Error())
	}
	return count, nil
}

func (r *reportingRepository) ActiveUsersLast24h() (int64, error) {
	cutoff := formatTime(time.Now().Add(-24 * time.Hour))

	var count int64
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE last_activity > ? AND status = 'active'`,
		cutoff,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count active users", "error", err)
		return 0, errors.NewAppError(errors.InternalError, "failed to count active users").WithDetails(err.Error())
	}
	return count, nil
}

func (r *reportingRepository) TotalTransactionVolume() (decimal.Decimal, error) {
	return r.sumColumn(`SELECT amount FROM transactions WHERE status = 'completed'`)
}

func (r *reportingRepository) sumColumn(query string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to query monetary sum", "error", err)
		return total, errors.NewAppError(errors.InternalError, "failed to query monetary sum").WithDetails(err.Error())
	}
	defer rows.Close()

	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return total, errors.NewAppError(errors.InternalError, "failed to scan monetary value").WithDetails(err.Error())
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return total, errors.NewAppError(errors.InternalError, "failed to parse monetary value").WithDetails(err.Error())
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}
