package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"store-ledger/internal/errors"
)

// timeLayout is how timestamps appear in responses.
const timeLayout = time.RFC3339

// AdminDirectory answers whether an id is allowed to perform
// privileged operations. Backed by the runtime settings store.
type AdminDirectory interface {
	IsAdmin(id int64) bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := Response{Data: data}
	json.NewEncoder(w).Encode(response)
}

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")

	statusCode := appErr.HTTPStatus()
	errResponse := Error{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Error: &errResponse})
}

// writeServiceError converts any error crossing the operation boundary
// into a typed response; nothing propagates as an uncaught failure.
func writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		writeError(w, appErr)
		return
	}
	writeError(w, errors.NewAppError(errors.InternalError, "an unexpected error occurred"))
}

// decodeAndValidate decodes the JSON body into req and applies the
// struct validation tags.
func decodeAndValidate(r *http.Request, req interface{}) *errors.AppError {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return errors.NewAppError(errors.InvalidInput, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return errors.NewAppError(errors.InvalidInput, "request validation failed").WithDetails(err.Error())
	}
	return nil
}

func requireAdmin(w http.ResponseWriter, admins AdminDirectory, adminID int64) bool {
	if !admins.IsAdmin(adminID) {
		writeError(w, errors.ErrNotPermitted)
		return false
	}
	return true
}
