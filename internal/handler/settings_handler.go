package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"store-ledger/internal/errors"
	"store-ledger/internal/settings"
)

// SettingsHandler exposes the runtime key-value settings store to
// admins: exchange rates, payment numbers, wallet addresses.
type SettingsHandler struct {
	settings *settings.Store
}

func NewSettingsHandler(settingsStore *settings.Store) *SettingsHandler {
	return &SettingsHandler{
		settings: settingsStore,
	}
}

type SettingResponse struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Version int64  `json:"version"`
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.adminFromQuery(w, r) {
		return
	}

	key := mux.Vars(r)["key"]
	value, ok := h.settings.Get(key)
	if !ok {
		writeError(w, errors.NewAppErrorf(errors.InvalidInput, "unknown setting %q", key))
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{
		Key:     key,
		Value:   value,
		Version: h.settings.Version(),
	})
}

type SetSettingRequest struct {
	AdminID int64  `json:"admin_id" validate:"required,gt=0"`
	Value   string `json:"value" validate:"required"`
}

func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req SetSettingRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	if !h.settings.IsAdmin(req.AdminID) {
		writeError(w, errors.ErrNotPermitted)
		return
	}

	if err := h.settings.Set(key, req.Value); err != nil {
		writeError(w, errors.NewAppError(errors.InternalError, "failed to persist setting").WithDetails(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{
		Key:     key,
		Value:   req.Value,
		Version: h.settings.Version(),
	})
}

func (h *SettingsHandler) adminFromQuery(w http.ResponseWriter, r *http.Request) bool {
	adminID, err := strconv.ParseInt(r.URL.Query().Get("admin_id"), 10, 64)
	if err != nil || !h.settings.IsAdmin(adminID) {
		writeError(w, errors.ErrNotPermitted)
		return false
	}
	return true
}
