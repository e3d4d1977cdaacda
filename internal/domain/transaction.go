package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
)

// LifecycleStatus is shared by transactions and orders. A record is
// created pending and moves to exactly one terminal status; terminal
// statuses are final and guarded in storage.
type LifecycleStatus string

const (
	StatusPending   LifecycleStatus = "pending"
	StatusCompleted LifecycleStatus = "completed"
	StatusRejected  LifecycleStatus = "rejected"
	StatusExpired   LifecycleStatus = "expired"
)

// Transaction is a deposit or withdrawal request. TxID is a
// caller-supplied external id and globally unique.
type Transaction struct {
	TxID             string          `json:"tx_id"`
	UserID           int64           `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Type             TransactionType `json:"type"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentSubtype   string          `json:"payment_subtype,omitempty"`
	PaymentNumber    string          `json:"payment_number,omitempty"`
	PaymentDetails   string          `json:"payment_details,omitempty"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	OriginalCurrency string          `json:"original_currency"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	Status           LifecycleStatus `json:"status"`
	RejectReason     string          `json:"reject_reason,omitempty"`
	AdminID          *int64          `json:"admin_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

type ProductType string

const (
	ProductGame ProductType = "game"
	ProductApp  ProductType = "app"
)

// Order is a product purchase with the same lifecycle shape as a
// Transaction.
type Order struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	ProductType ProductType     `json:"product_type"`
	ProductID   string          `json:"product_id"`
	Amount      string          `json:"amount"`
	Price       decimal.Decimal `json:"price"`
	Status      LifecycleStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// AdminLogEntry is an append-only audit row for a privileged action.
// AdminID is always set; TargetUserID may be nil for account-less
// actions.
type AdminLogEntry struct {
	LogID        int64     `json:"log_id"`
	AdminID      int64     `json:"admin_id"`
	Action       string    `json:"action"`
	Details      string    `json:"details,omitempty"`
	TargetUserID *int64    `json:"target_user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type TransactionRepository interface {
	CreateTransaction(tx *Transaction) error
	GetTransaction(txID string) (*Transaction, error)
	MarkCompleted(txID string, adminID int64) (bool, error)
	MarkRejected(txID string, adminID int64, reason string) (bool, error)
}

type OrderRepository interface {
	CreateOrder(order *Order) error
	GetOrder(orderID int64) (*Order, error)
	MarkCompleted(orderID int64, adminID int64) (bool, error)
	MarkRejected(orderID int64, adminID int64) (bool, error)
}

type AdminLogRepository interface {
	Append(entry *AdminLogEntry) error
	ListForTarget(userID int64) ([]AdminLogEntry, error)
}
