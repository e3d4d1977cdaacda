package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	assert.ErrorIs(t, ErrInsufficientBalance, ErrInsufficientBalance)
	assert.ErrorIs(t, NewAppError(InsufficientBalance, "other message"), ErrInsufficientBalance)
	assert.NotErrorIs(t, ErrInsufficientBalance, ErrAccountNotFound)
	assert.NotErrorIs(t, errors.New("plain"), ErrAccountNotFound)
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("applying delta: %w", ErrInsufficientBalance)
	assert.ErrorIs(t, wrapped, ErrInsufficientBalance)

	var appErr *AppError
	assert.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, InsufficientBalance, appErr.Code)
}

func TestWithDetailsLeavesSentinelUntouched(t *testing.T) {
	detailed := ErrStoreBusy.WithDetails("database is locked")

	assert.Equal(t, "database is locked", detailed.Details)
	assert.Empty(t, ErrStoreBusy.Details)
	assert.ErrorIs(t, detailed, ErrStoreBusy)
}

func TestErrorString(t *testing.T) {
	err := NewAppErrorf(InvalidInput, "bad field %q", "amount")
	assert.Equal(t, `invalid_input: bad field "amount"`, err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		AccountNotFound:      http.StatusNotFound,
		TransactionNotFound:  http.StatusNotFound,
		OrderNotFound:        http.StatusNotFound,
		DuplicateTransaction: http.StatusConflict,
		InsufficientBalance:  http.StatusUnprocessableEntity,
		InvalidAmount:        http.StatusUnprocessableEntity,
		InvalidInput:         http.StatusUnprocessableEntity,
		NotPermitted:         http.StatusForbidden,
		StoreBusy:            http.StatusServiceUnavailable,
		InternalError:        http.StatusInternalServerError,
	}

	for code, want := range cases {
		assert.Equal(t, want, NewAppError(code, "x").HTTPStatus(), string(code))
	}
}
