package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
	"store-ledger/internal/service"
	"store-ledger/internal/settings"
)

type TransactionHandler struct {
	ledgerService *service.LedgerService
	settings      *settings.Store
}

func NewTransactionHandler(ledgerService *service.LedgerService, settingsStore *settings.Store) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		settings:      settingsStore,
	}
}

type CreateTransactionRequest struct {
	TxID             string            `json:"tx_id"`
	UserID           int64             `json:"user_id" validate:"required,gt=0"`
	Amount           string            `json:"amount" validate:"required"`
	Type             string            `json:"type" validate:"omitempty,oneof=deposit withdrawal"`
	PaymentMethod    string            `json:"payment_method" validate:"required"`
	PaymentSubtype   string            `json:"payment_subtype"`
	PaymentNumber    string            `json:"payment_number"`
	PaymentDetails   map[string]string `json:"payment_details"`
	OriginalAmount   string            `json:"original_amount"`
	OriginalCurrency string            `json:"original_currency"`
	ExchangeRate     string            `json:"exchange_rate"`
}

type TransactionResponse struct {
	TxID             string `json:"tx_id"`
	UserID           int64  `json:"user_id"`
	Amount           string `json:"amount"`
	Type             string `json:"type"`
	PaymentMethod    string `json:"payment_method"`
	OriginalAmount   string `json:"original_amount"`
	OriginalCurrency string `json:"original_currency"`
	ExchangeRate     string `json:"exchange_rate"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
}

func transactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TxID:             tx.TxID,
		UserID:           tx.UserID,
		Amount:           tx.Amount.String(),
		Type:             string(tx.Type),
		PaymentMethod:    tx.PaymentMethod,
		OriginalAmount:   tx.OriginalAmount.String(),
		OriginalCurrency: tx.OriginalCurrency,
		ExchangeRate:     tx.ExchangeRate.String(),
		Status:           string(tx.Status),
		CreatedAt:        tx.CreatedAt.Format(timeLayout),
	}
}

// Create records a pending deposit or withdrawal. The exchange-rate
// snapshot comes from the request, or from the runtime settings for
// USD/USDT when omitted; the ledger itself never reads settings.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format"))
		return
	}

	svcReq := &service.CreateTransactionRequest{
		TxID:             req.TxID,
		UserID:           req.UserID,
		Amount:           amount,
		Type:             domain.TransactionType(req.Type),
		PaymentMethod:    req.PaymentMethod,
		PaymentSubtype:   req.PaymentSubtype,
		PaymentNumber:    req.PaymentNumber,
		PaymentDetails:   req.PaymentDetails,
		OriginalCurrency: req.OriginalCurrency,
	}

	if req.OriginalAmount != "" {
		if svcReq.OriginalAmount, err = decimal.NewFromString(req.OriginalAmount); err != nil {
			writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid original_amount format"))
			return
		}
	}

	if req.ExchangeRate != "" {
		if svcReq.ExchangeRate, err = decimal.NewFromString(req.ExchangeRate); err != nil {
			writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid exchange_rate format"))
			return
		}
	} else {
		svcReq.ExchangeRate = h.rateFor(req.OriginalCurrency)
	}

	tx, err := h.ledgerService.CreateTransaction(svcReq)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse(tx))
}

func (h *TransactionHandler) rateFor(currency string) decimal.Decimal {
	var key string
	switch currency {
	case "USD":
		key = settings.KeyUSDRate
	case "USDT":
		key = settings.KeyUSDTRate
	default:
		return decimal.Decimal{}
	}

	if rate, ok := h.settings.Decimal(key); ok {
		return rate
	}
	return decimal.Decimal{}
}

func (h *TransactionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["tx_id"]

	var req AdminActionRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	if !requireAdmin(w, h.settings, req.AdminID) {
		return
	}

	applied, err := h.ledgerService.CompleteTransaction(txID, req.AdminID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AppliedResponse{Applied: applied})
}

type RejectTransactionRequest struct {
	AdminID int64  `json:"admin_id" validate:"required,gt=0"`
	Reason  string `json:"reason" validate:"required"`
}

func (h *TransactionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["tx_id"]

	var req RejectTransactionRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	if !requireAdmin(w, h.settings, req.AdminID) {
		return
	}

	applied, err := h.ledgerService.RejectTransaction(txID, req.AdminID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AppliedResponse{Applied: applied})
}
