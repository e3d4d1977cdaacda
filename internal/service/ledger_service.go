package service

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
	"store-ledger/internal/repository"
)

// LedgerService owns every balance mutation and record lifecycle
// transition. Each operation runs inside one store transaction; any
// failure rolls the whole unit back, and every money mutation is
// paired with its audit rows in the same unit.
type LedgerService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewLedgerService(store *repository.Store, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// ModifyBalance applies a signed delta to the account balance. The
// read-check-write runs inside a single immediate transaction so two
// concurrent modifications of the same account cannot both read a
// stale balance. A delta that would drive the balance negative rolls
// back with no history or log row.
func (s *LedgerService) ModifyBalance(userID int64, delta decimal.Decimal, adminID int64) error {
	if delta.IsZero() {
		return errors.ErrInvalidAmount
	}

	s.logger.Info("Modifying balance", "user_id", userID, "delta", delta, "admin_id", adminID)

	return s.store.WithTransaction(func(tx *repository.Store) error {
		account, err := tx.Account().GetAccount(userID)
		if err != nil {
			return err
		}

		newBalance := account.Balance.Add(delta)
		if newBalance.IsNegative() {
			s.logger.Warn("Balance modification rejected",
				"user_id", userID, "balance", account.Balance, "delta", delta)
			return errors.ErrInsufficientBalance
		}

		if err := tx.Account().UpdateBalance(userID, newBalance); err != nil {
			return err
		}

		kind := domain.BalanceCredit
		if delta.IsNegative() {
			kind = domain.BalanceDebit
		}

		admin := adminID
		if err := tx.Account().InsertBalanceHistory(&domain.BalanceHistoryEntry{
			UserID:       userID,
			OldBalance:   account.Balance,
			NewBalance:   newBalance,
			ChangeAmount: delta,
			Kind:         kind,
			AdminID:      &admin,
		}); err != nil {
			return err
		}

		target := userID
		return tx.AdminLog().Append(&domain.AdminLogEntry{
			AdminID:      adminID,
			Action:       "modify_balance",
			Details:      fmt.Sprintf("Modified balance by %s", delta),
			TargetUserID: &target,
		})
	})
}

// Ban marks the account banned. Returns false when the account is
// missing or already banned; the audit row is written only when the
// status actually changed.
func (s *LedgerService) Ban(userID, adminID int64) (bool, error) {
	return s.setStatus(userID, adminID, domain.StatusBanned, "ban_user",
		fmt.Sprintf("User %d was banned", userID))
}

// Unban restores the account to active.
func (s *LedgerService) Unban(userID, adminID int64) (bool, error) {
	return s.setStatus(userID, adminID, domain.StatusActive, "unban_user",
		fmt.Sprintf("User %d was unbanned", userID))
}

func (s *LedgerService) setStatus(userID, adminID int64, status domain.AccountStatus, action, details string) (bool, error) {
	var applied bool
	err := s.store.WithTransaction(func(tx *repository.Store) error {
		changed, err := tx.Account().SetStatus(userID, status)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		target := userID
		if err := tx.AdminLog().Append(&domain.AdminLogEntry{
			AdminID:      adminID,
			Action:       action,
			Details:      details,
			TargetUserID: &target,
		}); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		s.logger.Info("Account status changed", "user_id", userID, "status", status, "admin_id", adminID)
	}
	return applied, nil
}

// CreateTransactionRequest carries a deposit or withdrawal request.
// TxID is the external id; when empty a UUID is generated. The
// exchange rate is a caller-supplied snapshot, never fetched here.
type CreateTransactionRequest struct {
	TxID             string
	UserID           int64
	Amount           decimal.Decimal
	Type             domain.TransactionType
	PaymentMethod    string
	PaymentSubtype   string
	PaymentNumber    string
	PaymentDetails   map[string]string
	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	ExchangeRate     decimal.Decimal
}

// CreateTransaction records one pending transaction. A reused external
// id fails with a typed duplicate error and creates no row.
func (s *LedgerService) CreateTransaction(req *CreateTransactionRequest) (*domain.Transaction, error) {
	if req.UserID <= 0 {
		return nil, errors.NewAppError(errors.InvalidInput, "user id must be positive")
	}
	if !req.Amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}
	if req.PaymentMethod == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "payment method is required")
	}

	txType := req.Type
	if txType == "" {
		txType = domain.TypeDeposit
	}
	if txType != domain.TypeDeposit && txType != domain.TypeWithdrawal {
		return nil, errors.NewAppError(errors.InvalidInput, "transaction type must be deposit or withdrawal")
	}

	txID := req.TxID
	if txID == "" {
		txID = uuid.NewString()
	}

	originalAmount := req.OriginalAmount
	if originalAmount.IsZero() {
		originalAmount = req.Amount
	}
	originalCurrency := req.OriginalCurrency
	if originalCurrency == "" {
		originalCurrency = "SYP"
	}
	exchangeRate := req.ExchangeRate
	if exchangeRate.IsZero() {
		exchangeRate = decimal.NewFromInt(1)
	}

	var detailsJSON string
	if len(req.PaymentDetails) > 0 {
		raw, err := json.Marshal(req.PaymentDetails)
		if err != nil {
			return nil, errors.NewAppError(errors.InvalidInput, "payment details are not serializable").WithDetails(err.Error())
		}
		detailsJSON = string(raw)
	}

	transaction := &domain.Transaction{
		TxID:             txID,
		UserID:           req.UserID,
		Amount:           req.Amount,
		Type:             txType,
		PaymentMethod:    req.PaymentMethod,
		PaymentSubtype:   req.PaymentSubtype,
		PaymentNumber:    req.PaymentNumber,
		PaymentDetails:   detailsJSON,
		OriginalAmount:   originalAmount,
		OriginalCurrency: originalCurrency,
		ExchangeRate:     exchangeRate,
	}

	err := s.store.WithTransaction(func(tx *repository.Store) error {
		return tx.Transaction().CreateTransaction(transaction)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// CompleteTransaction moves a pending transaction to completed and, in
// the same atomic unit, applies its balance effect: deposits credit the
// account, withdrawals debit it with the usual insufficient-funds
// rejection. Returns false when the transaction is missing from the
// pending state (terminal statuses are final).
func (s *LedgerService) CompleteTransaction(txID string, adminID int64) (bool, error) {
	var applied bool
	err := s.store.WithTransaction(func(tx *repository.Store) error {
		transaction, err := tx.Transaction().GetTransaction(txID)
		if err != nil {
			return err
		}
		if transaction == nil {
			return errors.ErrTransactionNotFound
		}

		changed, err := tx.Transaction().MarkCompleted(txID, adminID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		delta := transaction.Amount
		if transaction.Type == domain.TypeWithdrawal {
			delta = delta.Neg()
		}

		account, err := tx.Account().GetAccount(transaction.UserID)
		if err != nil {
			return err
		}

		newBalance := account.Balance.Add(delta)
		if newBalance.IsNegative() {
			s.logger.Warn("Withdrawal completion rejected",
				"tx_id", txID, "user_id", transaction.UserID,
				"balance", account.Balance, "amount", transaction.Amount)
			return errors.ErrInsufficientBalance
		}

		if err := tx.Account().UpdateBalance(transaction.UserID, newBalance); err != nil {
			return err
		}

		kind := domain.BalanceCredit
		if delta.IsNegative() {
			kind = domain.BalanceDebit
		}

		admin := adminID
		if err := tx.Account().InsertBalanceHistory(&domain.BalanceHistoryEntry{
			UserID:       transaction.UserID,
			OldBalance:   account.Balance,
			NewBalance:   newBalance,
			ChangeAmount: delta,
			Kind:         kind,
			AdminID:      &admin,
		}); err != nil {
			return err
		}

		target := transaction.UserID
		if err := tx.AdminLog().Append(&domain.AdminLogEntry{
			AdminID:      adminID,
			Action:       "complete_transaction",
			Details:      fmt.Sprintf("Transaction %s completed for %s", txID, transaction.Amount),
			TargetUserID: &target,
		}); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// RejectTransaction moves a pending transaction to rejected with a
// reason. No balance effect.
func (s *LedgerService) RejectTransaction(txID string, adminID int64, reason string) (bool, error) {
	var applied bool
	err := s.store.WithTransaction(func(tx *repository.Store) error {
		transaction, err := tx.Transaction().GetTransaction(txID)
		if err != nil {
			return err
		}
		if transaction == nil {
			return errors.ErrTransactionNotFound
		}

		changed, err := tx.Transaction().MarkRejected(txID, adminID, reason)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		target := transaction.UserID
		if err := tx.AdminLog().Append(&domain.AdminLogEntry{
			AdminID:      adminID,
			Action:       "reject_transaction",
			Details:      fmt.Sprintf("Transaction %s rejected: %s", txID, reason),
			TargetUserID: &target,
		}); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

type CreateOrderRequest struct {
	UserID      int64
	ProductType domain.ProductType
	ProductID   string
	Amount      string
	Price       decimal.Decimal
}

func (s *LedgerService) CreateOrder(req *CreateOrderRequest) (*domain.Order, error) {
	if req.UserID <= 0 {
		return nil, errors.NewAppError(errors.InvalidInput, "user id must be positive")
	}
	if req.ProductType != domain.ProductGame && req.ProductType != domain.ProductApp {
		return nil, errors.NewAppError(errors.InvalidInput, "product type must be game or app")
	}
	if req.ProductID == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "product id is required")
	}
	if !req.Price.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}

	order := &domain.Order{
		UserID:      req.UserID,
		ProductType: req.ProductType,
		ProductID:   req.ProductID,
		Amount:      req.Amount,
		Price:       req.Price,
	}

	err := s.store.WithTransaction(func(tx *repository.Store) error {
		return tx.Order().CreateOrder(order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteOrder and RejectOrder carry the same pending-only guard as
// transaction transitions.
func (s *LedgerService) CompleteOrder(orderID, adminID int64) (bool, error) {
	return s.transitionOrder(orderID, adminID, "complete_order",
		fmt.Sprintf("Order %d was completed", orderID),
		func(tx *repository.Store) (bool, error) {
			return tx.Order().MarkCompleted(orderID, adminID)
		})
}

func (s *LedgerService) RejectOrder(orderID, adminID int64) (bool, error) {
	return s.transitionOrder(orderID, adminID, "reject_order",
		fmt.Sprintf("Order %d was rejected", orderID),
		func(tx *repository.Store) (bool, error) {
			return tx.Order().MarkRejected(orderID, adminID)
		})
}

func (s *LedgerService) transitionOrder(orderID, adminID int64, action, details string, fn func(*repository.Store) (bool, error)) (bool, error) {
	var applied bool
	err := s.store.WithTransaction(func(tx *repository.Store) error {
		order, err := tx.Order().GetOrder(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return errors.ErrOrderNotFound
		}

		changed, err := fn(tx)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		target := order.UserID
		if err := tx.AdminLog().Append(&domain.AdminLogEntry{
			AdminID:      adminID,
			Action:       action,
			Details:      details,
			TargetUserID: &target,
		}); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
