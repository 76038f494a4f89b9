package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fitroomserver/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, domain.ErrUsernameTaken):
		WriteError(w, http.StatusConflict, "username_taken", "username already taken")
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "email_taken", "email already taken")
	case errors.Is(err, domain.ErrExternalAccountExists):
		WriteError(w, http.StatusConflict, "external_account_exists", "account already linked")
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid login or password")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrUserDisabled):
		WriteError(w, http.StatusForbidden, "user_disabled", "user is disabled")
	case errors.Is(err, domain.ErrResetTokenInvalid):
		WriteError(w, http.StatusBadRequest, "reset_token_invalid", "reset token is invalid")
	case errors.Is(err, domain.ErrResetTokenExpired):
		WriteError(w, http.StatusBadRequest, "reset_token_expired", "reset token has expired")
	case errors.Is(err, domain.ErrRoomCodeInvalid):
		WriteError(w, http.StatusNotFound, "room_code_invalid", "room code is invalid")
	case errors.Is(err, domain.ErrAlreadyMember):
		WriteError(w, http.StatusConflict, "already_member", "already a member of this room")
	case errors.Is(err, domain.ErrRoutineExists):
		WriteError(w, http.StatusConflict, "routine_exists", "exercise is already in your routines")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func formatMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func formatMillisPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	out := formatMillis(*t)
	return &out
}
