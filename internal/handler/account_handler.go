package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
	"store-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
	ledgerService  *service.LedgerService
	admins         AdminDirectory
}

func NewAccountHandler(accountService *service.AccountService, ledgerService *service.LedgerService, admins AdminDirectory) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
		admins:         admins,
	}
}

type EnsureAccountRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type AccountResponse struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	Balance      string `json:"balance"`
	Status       string `json:"status"`
	JoinedAt     string `json:"joined_at"`
	LastActivity string `json:"last_activity"`
}

func accountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		UserID:       account.UserID,
		Username:     account.Username,
		FirstName:    account.FirstName,
		Balance:      account.Balance.String(),
		Status:       string(account.Status),
		JoinedAt:     account.JoinedAt.Format(timeLayout),
		LastActivity: account.LastActivity.Format(timeLayout),
	}
}

func (h *AccountHandler) EnsureAccount(w http.ResponseWriter, r *http.Request) {
	var req EnsureAccountRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	account, err := h.accountService.EnsureAccount(req.UserID, req.Username, req.FirstName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	account, err := h.accountService.GetAccount(vars["user_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}

type BalanceHistoryResponse struct {
	HistoryID    int64  `json:"history_id"`
	OldBalance   string `json:"old_balance"`
	NewBalance   string `json:"new_balance"`
	ChangeAmount string `json:"change_amount"`
	Kind         string `json:"transaction_type"`
	AdminID      *int64 `json:"admin_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func (h *AccountHandler) BalanceHistory(w http.ResponseWriter, r *http.Request) {
	userID, appErr := pathID(r, "user_id")
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	entries, err := h.accountService.BalanceHistory(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]BalanceHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, BalanceHistoryResponse{
			HistoryID:    entry.HistoryID,
			OldBalance:   entry.OldBalance.String(),
			NewBalance:   entry.NewBalance.String(),
			ChangeAmount: entry.ChangeAmount.String(),
			Kind:         string(entry.Kind),
			AdminID:      entry.AdminID,
			CreatedAt:    entry.CreatedAt.Format(timeLayout),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

type ModifyBalanceRequest struct {
	AdminID int64  `json:"admin_id" validate:"required,gt=0"`
	Amount  string `json:"amount" validate:"required"`
}

func (h *AccountHandler) ModifyBalance(w http.ResponseWriter, r *http.Request) {
	userID, appErr := pathID(r, "user_id")
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	var req ModifyBalanceRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	if !requireAdmin(w, h.admins, req.AdminID) {
		return
	}

	delta, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format"))
		return
	}

	if err := h.ledgerService.ModifyBalance(userID, delta, req.AdminID); err != nil {
		writeServiceError(w, err)
		return
	}

	account, err := h.accountService.GetAccount(strconv.FormatInt(userID, 10))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(account))
}

type AdminActionRequest struct {
	AdminID int64 `json:"admin_id" validate:"required,gt=0"`
}

type AppliedResponse struct {
	Applied bool `json:"applied"`
}

func (h *AccountHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.ledgerService.Ban)
}

func (h *AccountHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.ledgerService.Unban)
}

func (h *AccountHandler) setStatus(w http.ResponseWriter, r *http.Request, fn func(userID, adminID int64) (bool, error)) {
	userID, appErr := pathID(r, "user_id")
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

	applied, err := fn(userID, req.AdminID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AppliedResponse{Applied: applied})
}

func pathID(r *http.Request, name string) (int64, *errors.AppError) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewAppError(errors.InvalidInput, "invalid "+name)
	}
	return id, nil
}
