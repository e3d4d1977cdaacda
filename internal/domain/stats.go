package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStats is the full per-user report: live balance plus lifetime
// aggregates over completed transactions and orders.
type UserStats struct {
	UserID            int64           `json:"user_id"`
	Username          string          `json:"username"`
	FirstName         string          `json:"first_name"`
	CurrentBalance    decimal.Decimal `json:"current_balance"`
	JoinedAt          time.Time       `json:"joined_at"`
	LastActivity      time.Time       `json:"last_activity"`
	IsBanned          bool            `json:"is_banned"`
	CreatedAt         time.Time       `json:"created_at"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalDeposits     decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals  decimal.Decimal `json:"total_withdrawals"`
	TotalOrders       int64           `json:"total_orders"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
}

// StoreOverview aggregates store-wide counters for reporting.
type StoreOverview struct {
	TotalUsers        int64           `json:"total_users"`
	ActiveUsersLast24 int64           `json:"active_users_last_24h"`
	CompletedVolume   decimal.Decimal `json:"completed_volume"`
}

type ReportingRepository interface {
	UserStats(userID int64) (*UserStats, error)
	UserIDByUsername(username string) (int64, error)
	TotalUsers() (int64, error)
	ActiveUsersLast24h() (int64, error)
	TotalTransactionVolume() (decimal.Decimal, error)
}
