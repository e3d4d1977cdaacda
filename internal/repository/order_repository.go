package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
)

type orderRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewOrderRepository(db SQLExecutor, logger *slog.Logger) domain.OrderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderRepository) CreateOrder(order *domain.Order) error {
	query := `
		INSERT INTO orders (user_id, product_type, product_id, amount, price, status, created_at)
		VALUES (?, ?, ?, ?, ?, 'pending', ?)
	`

	now := time.Now()
	result, err := r.db.Exec(
		query,
		order.UserID,
		string(order.ProductType),
		order.ProductID,
		order.Amount,
		order.Price.String(),
		formatTime(now),
	)

	if err != nil {
		r.logger.Error("Failed to create order",
			"user_id", order.UserID,
			"product_id", order.ProductID,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to create order").WithDetails(err.Error())
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get order id").WithDetails(err.Error())
	}

	order.OrderID = orderID
	order.Status = domain.StatusPending
	order.CreatedAt = now
	r.logger.Info("Order created", "order_id", orderID, "user_id", order.UserID)
	return nil
}

func (r *orderRepository) GetOrder(orderID int64) (*domain.Order, error) {
	query := `
		SELECT order_id, user_id, product_type, product_id, amount, price, status, created_at, completed_at
		FROM orders WHERE order_id = ?
	`

	var order domain.Order
	var priceStr, created string
	var completed sql.NullString

	err := r.db.QueryRow(query, orderID).Scan(
		&order.OrderID,
		&order.UserID,
		&order.ProductType,
		&order.ProductID,
		&order.Amount,
		&priceStr,
		&order.Status,
		&created,
		&completed,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get order", "order_id", orderID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get order").WithDetails(err.Error())
	}

	if order.Price, err = decimal.NewFromString(priceStr); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse price").WithDetails(err.Error())
	}
	order.CreatedAt = parseTime(created)
	if completed.Valid {
		t := parseTime(completed.String)
		order.CompletedAt = &t
	}
	return &order, nil
}

// MarkCompleted and MarkRejected carry the same pending-only guard as
// transaction transitions.
func (r *orderRepository) MarkCompleted(orderID int64, adminID int64) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'completed', completed_at = ?
		WHERE order_id = ? AND status = 'pending'
	`
	return r.transition(query, "complete", orderID, formatTime(time.Now()), orderID)
}

func (r *orderRepository) MarkRejected(orderID int64, adminID int64) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'rejected', completed_at = ?
		WHERE order_id = ? AND status = 'pending'
	`
	return r.transition(query, "reject", orderID, formatTime(time.Now()), orderID)
}

func (r *orderRepository) transition(query, op string, orderID int64, args ...interface{}) (bool, error) {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		r.logger.Error("Failed to transition order", "op", op, "order_id", orderID, "error", err)
		return false, errors.NewAppError(errors.InternalError, "failed to update order status").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("Order not pending or missing", "op", op, "order_id", orderID)
		return false, nil
	}

	r.logger.Info("Order status updated", "op", op, "order_id", orderID)
	return true, nil
}
