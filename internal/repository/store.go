package repository

import (
	"database/sql"
	"log/slog"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
)

// Store provides a unified interface for all repository operations with
// transaction support. It is constructed once at startup and passed by
// reference; there is no hidden global instance.
type Store struct {
	executor SQLExecutor
	logger   *slog.Logger
}

// NewStore creates a new Store instance
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		executor: db,
		logger:   logger,
	}
}

// Account returns an AccountRepository using the current executor
func (s *Store) Account() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.logger)
}

// Transaction returns a TransactionRepository using the current executor
func (s *Store) Transaction() domain.TransactionRepository {
	return NewTransactionRepository(s.executor, s.logger)
}

// Order returns an OrderRepository using the current executor
func (s *Store) Order() domain.OrderRepository {
	return NewOrderRepository(s.executor, s.logger)
}

// AdminLog returns an AdminLogRepository using the current executor
func (s *Store) AdminLog() domain.AdminLogRepository {
	return NewAdminLogRepository(s.executor, s.logger)
}

// Reporting returns a ReportingRepository using the current executor
func (s *Store) Reporting() domain.ReportingRepository {
	return NewReportingRepository(s.executor, s.logger)
}

// WithTransaction executes a function within a database transaction.
// Any error or panic rolls the transaction back; no partial
// application escapes.
func (s *Store) WithTransaction(fn func(*Store) error) error {
	db, ok := s.executor.(*sql.DB)
	if !ok {
		// Nested transactions are not supported; the outer scope owns
		// the transaction.
		return errors.NewAppError(errors.InternalError, "cannot begin transaction from a transactional store")
	}

	tx, err := db.Begin()
	if err != nil {
		if isBusy(err) {
			s.logger.Warn("Store busy beginning transaction", "error", err)
			return errors.ErrStoreBusy.WithDetails(err.Error())
		}
		return errors.NewAppError(errors.InternalError, "failed to begin transaction").WithDetails(err.Error())
	}

	txStore := &Store{
		executor: &TxWrapper{Tx: tx},
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			s.logger.Warn("Store busy committing transaction", "error", err)
			return errors.ErrStoreBusy.WithDetails(err.Error())
		}
		return errors.NewAppError(errors.InternalError, "failed to commit transaction").WithDetails(err.Error())
	}
	return nil
}
