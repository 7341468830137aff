package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Error: code, Detail: detail})
}

// writeServiceError maps auth service errors to responses. Expired and
// unknown refresh tokens look the same to the caller.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "invalid_email", err.Error())
	case errors.Is(err, common.ErrPasswordLength):
		writeError(w, http.StatusBadRequest, "invalid_password", err.Error())
	case errors.Is(err, common.ErrMissingRefreshToken):
		writeError(w, http.StatusBadRequest, "invalid_request", "refresh token required")
	case errors.Is(err, common.ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, "email_already_exists", "email already registered")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, common.ErrInvalidRefreshToken), errors.Is(err, common.ErrExpiredRefreshToken):
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token", "invalid or expired refresh token")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, common.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, "too_many_requests", "too many login attempts, try again later")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
