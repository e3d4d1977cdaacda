package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-ledger/internal/domain"
	apperrors "store-ledger/internal/errors"
	"store-ledger/internal/repository"
)

type testEnv struct {
	store     *repository.Store
	accounts  *AccountService
	ledger    *LedgerService
	reporting *ReportingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	db, err := repository.Initialize(filepath.Join(dir, "store.db"), filepath.Join(dir, "backup"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := repository.NewStore(db, logger)
	return &testEnv{
		store:     store,
		accounts:  NewAccountService(store, logger),
		ledger:    NewLedgerService(store, logger),
		reporting: NewReportingService(store, logger),
	}
}

func (e *testEnv) balance(t *testing.T, userID int64) string {
	t.Helper()
	account, err := e.store.Account().GetAccount(userID)
	require.NoError(t, err)
	return account.Balance.String()
}

func (e *testEnv) historyCount(t *testing.T, userID int64) int {
	t.Helper()
	entries, err := e.store.Account().BalanceHistory(userID)
	require.NoError(t, err)
	return len(entries)
}

// Covers the reference scenario: credit applies with an audit row,
// an overdraft is rejected without one, and a deposit lands pending.
func TestLedgerScenario(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1001, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "0", env.balance(t, 1001))

	require.NoError(t, env.ledger.ModifyBalance(1001, decimal.NewFromInt(50000), 1))
	assert.Equal(t, "50000", env.balance(t, 1001))

	entries, err := env.store.Account().BalanceHistory(1001)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.BalanceCredit, entries[0].Kind)
	assert.Equal(t, "0", entries[0].OldBalance.String())
	assert.Equal(t, "50000", entries[0].NewBalance.String())

	err = env.ledger.ModifyBalance(1001, decimal.NewFromInt(-70000), 1)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, "50000", env.balance(t, 1001))
	assert.Equal(t, 1, env.historyCount(t, 1001))

	tx, err := env.ledger.CreateTransaction(&CreateTransactionRequest{
		TxID:          "tx-abc",
		UserID:        1001,
		Amount:        decimal.NewFromInt(20000),
		PaymentMethod: "syriatel",
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-abc", tx.TxID)
	assert.Equal(t, domain.StatusPending, tx.Status)
}

// Final balance must equal the initial balance plus the sum of applied
// deltas, with one history row per applied call.
func TestModifyBalanceConservation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1, "bob", "Bob")
	require.NoError(t, err)

	deltas := []string{"100", "-30", "-200", "55.5", "-0.5", "-1000"}
	expected := decimal.Zero
	applied := 0
	for _, raw := range deltas {
		delta := decimal.RequireFromString(raw)
		err := env.ledger.ModifyBalance(1, delta, 1)
		if expected.Add(delta).IsNegative() {
			assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance, "delta %s", raw)
			continue
		}
		require.NoError(t, err, "delta %s", raw)
		expected = expected.Add(delta)
		applied++
	}

	assert.Equal(t, expected.String(), env.balance(t, 1))
	assert.Equal(t, applied, env.historyCount(t, 1))
}

func TestModifyBalanceMissingAccount(t *testing.T) {
	env := newTestEnv(t)

	err := env.ledger.ModifyBalance(404, decimal.NewFromInt(10), 1)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestModifyBalanceZeroDelta(t *testing.T) {
	env := newTestEnv(t)

	err := env.ledger.ModifyBalance(1, decimal.Zero, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
}

// Two concurrent modifications of the same account must serialize:
// starting from 20, applying +10 and -10 must end at 20, never the 30
// or 10 of a lost update.
func TestConcurrentModifyBalanceSerializes(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1, "bob", "Bob")
	require.NoError(t, err)
	require.NoError(t, env.ledger.ModifyBalance(1, decimal.NewFromInt(20), 1))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, delta := range []int64{10, -10} {
		wg.Add(1)
		go func(d int64) {
			defer wg.Done()
			errs <- env.ledger.ModifyBalance(1, decimal.NewFromInt(d), 1)
		}(delta)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, "20", env.balance(t, 1))
	assert.Equal(t, 3, env.historyCount(t, 1))
}

func TestBanUnbanAuditTrail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1001, "alice", "Alice")
	require.NoError(t, err)

	applied, err := env.ledger.Ban(1001, 7)
	require.NoError(t, err)
	assert.True(t, applied)

	// Banning twice does not apply and writes no extra audit row.
	applied, err = env.ledger.Ban(1001, 7)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = env.ledger.Unban(1001, 7)
	require.NoError(t, err)
	assert.True(t, applied)

	account, err := env.store.Account().GetAccount(1001)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, account.Status)

	logs, err := env.store.AdminLog().ListForTarget(1001)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "ban_user", logs[0].Action)
	assert.Equal(t, "unban_user", logs[1].Action)
}

func TestBanMissingAccount(t *testing.T) {
	env := newTestEnv(t)

	applied, err := env.ledger.Ban(404, 7)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestCompleteDepositCreditsBalance(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1, "bob", "Bob")
	require.NoError(t, err)

	_, err = env.ledger.CreateTransaction(&CreateTransactionRequest{
		TxID:          "dep-1",
		UserID:        1,
		Amount:        decimal.RequireFromString("123.45"),
		PaymentMethod: "syriatel",
	})
	require.NoError(t, err)
	assert.Equal(t, "0", env.balance(t, 1))

	applied, err := env.ledger.CompleteTransaction("dep-1", 7)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "123.45", env.balance(t, 1))
	assert.Equal(t, 1, env.historyCount(t, 1))

	// Second completion does not re-apply the credit.
	applied, err = env.ledger.CompleteTransaction("dep-1", 7)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "123.45", env.balance(t, 1))
	assert.Equal(t, 1, env.historyCount(t, 1))
}

func TestCompleteWithdrawalRequiresFunds(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1, "bob", "Bob")
	require.NoError(t, err)
	require.NoError(t, env.ledger.ModifyBalance(1, decimal.NewFromInt(100), 1))

	_, err = env.ledger.CreateTransaction(&CreateTransactionRequest{
		TxID:          "wd-1",
		UserID:        1,
		Amount:        decimal.NewFromInt(150),
		Type:          domain.TypeWithdrawal,
		PaymentMethod: "payeer",
	})
	require.NoError(t, err)

	_, err = env.ledger.CompleteTransaction("wd-1", 7)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	// The rollback leaves the withdrawal pending and the balance
	// untouched.
	assert.Equal(t, "100", env.balance(t, 1))
	tx, err := env.store.Transaction().GetTransaction("wd-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, tx.Status)
}

func TestRejectTransactionHasNoBalanceEffect(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1, "bob", "Bob")
	require.NoError(t, err)

	_, err = env.ledger.CreateTransaction(&CreateTransactionRequest{
		TxID:          "dep-1",
		UserID:        1,
		Amount:        decimal.NewFromInt(500),
		PaymentMethod: "mtn",
	})
	require.NoError(t, err)

	applied, err := env.ledger.RejectTransaction("dep-1", 7, "unreadable receipt")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "0", env.balance(t, 1))

	// A rejected transaction can never be completed afterwards.
	applied, err = env.ledger.CompleteTransaction("dep-1", 7)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "0", env.balance(t, 1))
}

func TestCompleteTransactionMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.CompleteTransaction("ghost", 7)
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}

func TestCreateTransactionDefaults(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1, "bob", "Bob")
	require.NoError(t, err)

	tx, err := env.ledger.CreateTransaction(&CreateTransactionRequest{
		UserID:        1,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: "syriatel",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tx.TxID, "an external id is generated when omitted")
	assert.Equal(t, domain.TypeDeposit, tx.Type)
	assert.Equal(t, "SYP", tx.OriginalCurrency)
	assert.Equal(t, "100", tx.OriginalAmount.String())
	assert.Equal(t, "1", tx.ExchangeRate.String())
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.CreateTransaction(&CreateTransactionRequest{
		UserID:        1,
		Amount:        decimal.NewFromInt(-5),
		PaymentMethod: "syriatel",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	_, err = env.ledger.CreateTransaction(&CreateTransactionRequest{
		UserID: 1,
		Amount: decimal.NewFromInt(5),
	})
	require.Error(t, err)

	_, err = env.ledger.CreateTransaction(&CreateTransactionRequest{
		UserID:        1,
		Amount:        decimal.NewFromInt(5),
		Type:          "transfer",
		PaymentMethod: "syriatel",
	})
	require.Error(t, err)
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.EnsureAccount(1, "bob", "Bob")
	require.NoError(t, err)

	order, err := env.ledger.CreateOrder(&CreateOrderRequest{
		UserID:      1,
		ProductType: domain.ProductGame,
		ProductID:   "pubg-660",
		Amount:      "660 UC",
		Price:       decimal.RequireFromString("75.50"),
	})
	require.NoError(t, err)
	assert.Greater(t, order.OrderID, int64(0))
	assert.Equal(t, domain.StatusPending, order.Status)

	applied, err := env.ledger.CompleteOrder(order.OrderID, 7)
	require.NoError(t, err)
	assert.True(t, applied)

	// Completed orders cannot be rejected.
	applied, err = env.ledger.RejectOrder(order.OrderID, 7)
	require.NoError(t, err)
	assert.False(t, applied)

	logs, err := env.store.AdminLog().ListForTarget(1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "complete_order", logs[0].Action)
}

func TestRejectOrderMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.RejectOrder(404, 7)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}
