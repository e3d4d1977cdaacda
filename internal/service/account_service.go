package service

import (
	"log/slog"
	"strconv"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
	"store-ledger/internal/repository"
)

type AccountService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewAccountService(store *repository.Store, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger,
	}
}

// EnsureAccount creates the account on first interaction and refreshes
// display fields and activity on later calls, returning the current
// state.
func (s *AccountService) EnsureAccount(userID int64, username, firstName string) (*domain.Account, error) {
	if userID <= 0 {
		return nil, errors.NewAppError(errors.InvalidInput, "user id must be positive")
	}

	if err := s.store.Account().EnsureAccount(userID, username, firstName); err != nil {
		return nil, err
	}
	return s.store.Account().GetAccount(userID)
}

// GetAccount parses and resolves an account id supplied as a string.
func (s *AccountService) GetAccount(userID string) (*domain.Account, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.NewAppError(errors.InvalidInput, "invalid user id")
	}
	return s.store.Account().GetAccount(id)
}

func (s *AccountService) TouchActivity(userID int64) error {
	return s.store.Account().TouchActivity(userID)
}

// BalanceHistory returns the audit trail for one account, oldest
// first.
func (s *AccountService) BalanceHistory(userID int64) ([]domain.BalanceHistoryEntry, error) {
	if _, err := s.store.Account().GetAccount(userID); err != nil {
		return nil, err
	}
	return s.store.Account().BalanceHistory(userID)
}
