package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound      ErrorCode = "account_not_found"
	TransactionNotFound  ErrorCode = "transaction_not_found"
	OrderNotFound        ErrorCode = "order_not_found"
	DuplicateTransaction ErrorCode = "duplicate_transaction"
	InsufficientBalance  ErrorCode = "insufficient_balance"
	InvalidAmount        ErrorCode = "invalid_amount"
	InvalidInput         ErrorCode = "invalid_input"
	NotPermitted         ErrorCode = "not_permitted"
	StoreBusy            ErrorCode = "store_busy"
	InternalError        ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches AppErrors by code so sentinel comparisons survive
// WithDetails copies.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !errors.As(target, &appErr) {
		return false
	}
	return e.Code == appErr.Code
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy carrying the underlying cause, leaving the
// sentinel untouched.
func (e *AppError) WithDetails(details string) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// HTTPStatus maps the error code to the status reported at the
// operation boundary.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound, TransactionNotFound, OrderNotFound:
		return http.StatusNotFound
	case DuplicateTransaction:
		return http.StatusConflict
	case InsufficientBalance, InvalidAmount, InvalidInput:
		return http.StatusUnprocessableEntity
	case NotPermitted:
		return http.StatusForbidden
	case StoreBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrAccountNotFound      = NewAppError(AccountNotFound, "account not found")
	ErrTransactionNotFound  = NewAppError(TransactionNotFound, "transaction not found")
	ErrOrderNotFound        = NewAppError(OrderNotFound, "order not found")
	ErrDuplicateTransaction = NewAppError(DuplicateTransaction, "transaction id already used")
	ErrInsufficientBalance  = NewAppError(InsufficientBalance, "insufficient balance")
	ErrInvalidAmount        = NewAppError(InvalidAmount, "invalid amount")
	ErrNotPermitted         = NewAppError(NotPermitted, "acting user is not an admin")
	ErrStoreBusy            = NewAppError(StoreBusy, "store is busy, retry the request")
)
