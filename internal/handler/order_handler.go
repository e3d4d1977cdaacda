package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
	"store-ledger/internal/service"
)

type OrderHandler struct {
	ledgerService *service.LedgerService
	admins        AdminDirectory
}

func NewOrderHandler(ledgerService *service.LedgerService, admins AdminDirectory) *OrderHandler {
	return &OrderHandler{
		ledgerService: ledgerService,
		admins:        admins,
	}
}

type CreateOrderRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	ProductType string `json:"product_type" validate:"required,oneof=game app"`
	ProductID   string `json:"product_id" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Price       string `json:"price" validate:"required"`
}

type OrderResponse struct {
	OrderID     int64  `json:"order_id"`
	UserID      int64  `json:"user_id"`
	ProductType string `json:"product_type"`
	ProductID   string `json:"product_id"`
	Amount      string `json:"amount"`
	Price       string `json:"price"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid price format"))
		return
	}

	order, err := h.ledgerService.CreateOrder(&service.CreateOrderRequest{
		UserID:      req.UserID,
		ProductType: domain.ProductType(req.ProductType),
		ProductID:   req.ProductID,
		Amount:      req.Amount,
		Price:       price,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, OrderResponse{
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		ProductType: string(order.ProductType),
		ProductID:   order.ProductID,
		Amount:      order.Amount,
		Price:       order.Price.String(),
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt.Format(timeLayout),
	})
}

func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledgerService.CompleteOrder)
}

func (h *OrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ledgerService.RejectOrder)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, fn func(orderID, adminID int64) (bool, error)) {
	orderID, appErr := pathID(r, "order_id")
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	var req AdminActionRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	if !requireAdmin(w, h.admins, req.AdminID) {
		return
	}

	applied, err := fn(orderID, req.AdminID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AppliedResponse{Applied: applied})
}
