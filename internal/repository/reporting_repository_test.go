package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-ledger/internal/domain"
	apperrors "store-ledger/internal/errors"
)

func TestUserStatsAggregates(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Account().EnsureAccount(1001, "Alice", "Alice"))
	require.NoError(t, store.Account().UpdateBalance(1001, decimal.RequireFromString("500.25")))

	// Two completed deposits, one completed withdrawal, one pending
	// deposit that must not count toward totals.
	newPendingDeposit(t, store, "d1", 1001, "100.10")
	newPendingDeposit(t, store, "d2", 1001, "200.20")
	newPendingDeposit(t, store, "d3", 1001, "999")
	withdrawal := &domain.Transaction{
		TxID:             "w1",
		UserID:           1001,
		Amount:           decimal.RequireFromString("50.05"),
		Type:             domain.TypeWithdrawal,
		PaymentMethod:    "payeer",
		OriginalAmount:   decimal.RequireFromString("50.05"),
		OriginalCurrency: "USD",
		ExchangeRate:     decimal.RequireFromString("10000"),
	}
	require.NoError(t, store.Transaction().CreateTransaction(withdrawal))

	for _, txID := range []string{"d1", "d2", "w1"} {
		applied, err := store.Transaction().MarkCompleted(txID, 7)
		require.NoError(t, err)
		require.True(t, applied)
	}

	order := &domain.Order{
		UserID:      1001,
		ProductType: domain.ProductGame,
		ProductID:   "pubg-660",
		Amount:      "660 UC",
		Price:       decimal.RequireFromString("75.50"),
	}
	require.NoError(t, store.Order().CreateOrder(order))
	applied, err := store.Order().MarkCompleted(order.OrderID, 7)
	require.NoError(t, err)
	require.True(t, applied)

	stats, err := store.Reporting().UserStats(1001)
	require.NoError(t, err)

	assert.Equal(t, "500.25", stats.CurrentBalance.String())
	assert.Equal(t, int64(4), stats.TotalTransactions)
	assert.Equal(t, "300.3", stats.TotalDeposits.String())
	assert.Equal(t, "50.05", stats.TotalWithdrawals.String())
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.Equal(t, "75.5", stats.TotalSpent.String())
	assert.False(t, stats.IsBanned)
}

func TestUserStatsMissingAccount(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Reporting().UserStats(404)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestUserIDByUsernameNormalizes(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Account().EnsureAccount(1001, "alice", "Alice"))

	for _, handle := range []string{"alice", "@alice", "Alice", " @ALICE "} {
		userID, err := store.Reporting().UserIDByUsername(handle)
		require.NoError(t, err, "handle %q", handle)
		assert.Equal(t, int64(1001), userID)
	}

	_, err := store.Reporting().UserIDByUsername("@nobody")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestStoreWideCounters(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Account().EnsureAccount(1, "a", "A"))
	require.NoError(t, store.Account().EnsureAccount(2, "b", "B"))
	require.NoError(t, store.Account().EnsureAccount(3, "c", "C"))

	// Banned accounts do not count as active.
	_, err := store.Account().SetStatus(3, domain.StatusBanned)
	require.NoError(t, err)

	total, err := store.Reporting().TotalUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	active, err := store.Reporting().ActiveUsersLast24h()
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)
}

func TestTotalTransactionVolumeIsExact(t *testing.T) {
	store := openTestStore(t)

	newPendingDeposit(t, store, "v1", 1, "0.1")
	newPendingDeposit(t, store, "v2", 1, "0.2")
	newPendingDeposit(t, store, "v3", 1, "99")

	for _, txID := range []string{"v1", "v2"} {
		applied, err := store.Transaction().MarkCompleted(txID, 7)
		require.NoError(t, err)
		require.True(t, applied)
	}

	volume, err := store.Reporting().TotalTransactionVolume()
	require.NoError(t, err)
	// Decimal summation in Go: 0.1 + 0.2 is exactly 0.3, and the
	// pending transaction is excluded.
	assert.Equal(t, "0.3", volume.String())
}
