package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateTransaction inserts a pending transaction. The tx_id is a
// caller-supplied external id; a primary-key collision surfaces as a
// typed duplicate failure, never a silent overwrite.
func (r *transactionRepository) CreateTransaction(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(tx_id, user_id, amount, type, payment_method, payment_subtype, payment_number, payment_details,
		 original_amount, original_currency, exchange_rate, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		tx.TxID,
		tx.UserID,
		tx.Amount.String(),
		string(tx.Type),
		tx.PaymentMethod,
		nullIfEmpty(tx.PaymentSubtype),
		nullIfEmpty(tx.PaymentNumber),
		nullIfEmpty(tx.PaymentDetails),
		tx.OriginalAmount.String(),
		tx.OriginalCurrency,
		tx.ExchangeRate.String(),
		formatTime(now),
	)

	if err != nil {
		if isConstraintViolation(err) {
			r.logger.Warn("Duplicate transaction id", "tx_id", tx.TxID, "user_id", tx.UserID)
			return errors.ErrDuplicateTransaction
		}
		r.logger.Error("Failed to create transaction",
			"tx_id", tx.TxID,
			"user_id", tx.UserID,
			"amount", tx.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to create transaction").WithDetails(err.Error())
	}

	tx.Status = domain.StatusPending
	tx.CreatedAt = now
	r.logger.Info("Transaction created", "tx_id", tx.TxID, "user_id", tx.UserID, "type", tx.Type)
	return nil
}

func (r *transactionRepository) GetTransaction(txID string) (*domain.Transaction, error) {
	query := `
		SELECT tx_id, user_id, amount, type, payment_method,
		       COALESCE(payment_subtype, ''), COALESCE(payment_number, ''), COALESCE(payment_details, ''),
		       COALESCE(original_amount, '0'), COALESCE(original_currency, ''), COALESCE(exchange_rate, '1'),
		       status, COALESCE(reject_reason, ''), admin_id, created_at, completed_at
		FROM transactions WHERE tx_id = ?
	`

	var tx domain.Transaction
	var amountStr, originalStr, rateStr, created string
	var adminID sql.NullInt64
	var completed sql.NullString

	err := r.db.QueryRow(query, txID).Scan(
		&tx.TxID,
		&tx.UserID,
		&amountStr,
		&tx.Type,
		&tx.PaymentMethod,
		&tx.PaymentSubtype,
		&tx.PaymentNumber,
		&tx.PaymentDetails,
		&originalStr,
		&tx.OriginalCurrency,
		&rateStr,
		&tx.Status,
		&tx.RejectReason,
		&adminID,
		&created,
		&completed,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction", "tx_id", txID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get transaction").WithDetails(err.Error())
	}

	if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
	}
	if tx.OriginalAmount, err = decimal.NewFromString(originalStr); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse original amount").WithDetails(err.Error())
	}
	if tx.ExchangeRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse exchange rate").WithDetails(err.Error())
	}
	if adminID.Valid {
		id := adminID.Int64
		tx.AdminID = &id
	}
	tx.CreatedAt = parseTime(created)
	if completed.Valid {
		t := parseTime(completed.String)
		tx.CompletedAt = &t
	}
	return &tx, nil
}

// MarkCompleted transitions a pending transaction to completed.
// Terminal statuses are final: the WHERE clause guards against
// re-transitioning, and zero rows affected reports false.
func (r *transactionRepository) MarkCompleted(txID string, adminID int64) (bool, error) {
	query := `
		UPDATE transactions
		SET status = 'completed', admin_id = ?, completed_at = ?
		WHERE tx_id = ? AND status = 'pending'
	`

	return r.transition(query, "complete", txID, adminID, formatTime(time.Now()), txID)
}

// MarkRejected transitions a pending transaction to rejected with a
// reason; same pending-only guard as MarkCompleted.
func (r *transactionRepository) MarkRejected(txID string, adminID int64, reason string) (bool, error) {
	query := `
		UPDATE transactions
		SET status = 'rejected', admin_id = ?, reject_reason = ?, completed_at = ?
		WHERE tx_id = ? AND status = 'pending'
	`

	return r.transition(query, "reject", txID, adminID, reason, formatTime(time.Now()), txID)
}

func (r *transactionRepository) transition(query, op, txID string, args ...interface{}) (bool, error) {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		r.logger.Error("Failed to transition transaction", "op", op, "tx_id", txID, "error", err)
		return false, errors.NewAppError(errors.InternalError, "failed to update transaction status").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("Transaction not pending or missing", "op", op, "tx_id", txID)
		return false, nil
	}

	r.logger.Info("Transaction status updated", "op", op, "tx_id", txID)
	return true, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
