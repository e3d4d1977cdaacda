package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of a user account. Accounts are
// never deleted; status transitions model removal.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusBanned    AccountStatus = "banned"
	StatusSuspended AccountStatus = "suspended"
)

type Account struct {
	UserID       int64           `json:"user_id"`
	Username     string          `json:"username"`
	FirstName    string          `json:"first_name"`
	Balance      decimal.Decimal `json:"balance"`
	Status       AccountStatus   `json:"status"`
	JoinedAt     time.Time       `json:"joined_at"`
	LastActivity time.Time       `json:"last_activity"`
	AccountData  string          `json:"account_data,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BalanceKind classifies a balance mutation in the audit trail.
type BalanceKind string

const (
	BalanceCredit BalanceKind = "credit"
	BalanceDebit  BalanceKind = "debit"
)

// BalanceHistoryEntry is an immutable audit row recording a single
// balance mutation. Exactly one entry exists per applied mutation.
type BalanceHistoryEntry struct {
	HistoryID    int64           `json:"history_id"`
	UserID       int64           `json:"user_id"`
	OldBalance   decimal.Decimal `json:"old_balance"`
	NewBalance   decimal.Decimal `json:"new_balance"`
	ChangeAmount decimal.Decimal `json:"change_amount"`
	Kind         BalanceKind     `json:"transaction_type"`
	AdminID      *int64          `json:"admin_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AccountRepository interface {
	EnsureAccount(userID int64, username, firstName string) error
	GetAccount(userID int64) (*Account, error)
	UpdateBalance(userID int64, newBalance decimal.Decimal) error
	SetStatus(userID int64, status AccountStatus) (bool, error)
	TouchActivity(userID int64) error
	InsertBalanceHistory(entry *BalanceHistoryEntry) error
	BalanceHistory(userID int64) ([]BalanceHistoryEntry, error)
}
