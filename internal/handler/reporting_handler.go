package handler

import (
	"net/http"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
	"store-ledger/internal/service"
)

type ReportingHandler struct {
	reportingService *service.ReportingService
}

func NewReportingHandler(reportingService *service.ReportingService) *ReportingHandler {
	return &ReportingHandler{
		reportingService: reportingService,
	}
}

type UserStatsResponse struct {
	UserID            int64  `json:"user_id"`
	Username          string `json:"username"`
	FirstName         string `json:"first_name"`
	CurrentBalance    string `json:"current_balance"`
	JoinedAt          string `json:"joined_at"`
	LastActivity      string `json:"last_activity"`
	IsBanned          bool   `json:"is_banned"`
	TotalTransactions int64  `json:"total_transactions"`
	TotalDeposits     string `json:"total_deposits"`
	TotalWithdrawals  string `json:"total_withdrawals"`
	TotalOrders       int64  `json:"total_orders"`
	TotalSpent        string `json:"total_spent"`
}

func (h *ReportingHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, appErr := pathID(r, "user_id")
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	stats, err := h.reportingService.UserStats(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userStatsResponse(stats))
}

func userStatsResponse(stats *domain.UserStats) UserStatsResponse {
	return UserStatsResponse{
		UserID:            stats.UserID,
		Username:          stats.Username,
		FirstName:         stats.FirstName,
		CurrentBalance:    stats.CurrentBalance.String(),
		JoinedAt:          stats.JoinedAt.Format(timeLayout),
		LastActivity:      stats.LastActivity.Format(timeLayout),
		IsBanned:          stats.IsBanned,
		TotalTransactions: stats.TotalTransactions,
		TotalDeposits:     stats.TotalDeposits.String(),
		TotalWithdrawals:  stats.TotalWithdrawals.String(),
		TotalOrders:       stats.TotalOrders,
		TotalSpent:        stats.TotalSpent.String(),
	}
}

type LookupResponse struct {
	UserID int64 `json:"user_id"`
}

func (h *ReportingHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, errors.NewAppError(errors.InvalidInput, "username query parameter is required"))
		return
	}

	userID, err := h.reportingService.UserIDByUsername(username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LookupResponse{UserID: userID})
}

type OverviewResponse struct {
	TotalUsers        int64  `json:"total_users"`
	ActiveUsersLast24 int64  `json:"active_users_last_24h"`
	CompletedVolume   string `json:"completed_volume"`
}

func (h *ReportingHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.reportingService.Overview()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OverviewResponse{
		TotalUsers:        overview.TotalUsers,
		ActiveUsersLast24: overview.ActiveUsersLast24,
		CompletedVolume:   overview.CompletedVolume.String(),
	})
}
