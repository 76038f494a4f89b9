package httpapi

import (
	"net/http"
	"strings"
	"time"

	"fitroomserver/internal/domain"
)

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (a *api) handleAuthForgot(w http.ResponseWriter, r *http.Request) {
	if a.resetSvc == nil {
		WriteError(w, http.StatusServiceUnavailable, "reset_unavailable", "password reset unavailable")
		return
	}

	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"email": "must be a valid email"}))
		return
	}

	now := time.Now()
	ip := clientIP(r)
	if !a.loginLimiter.Allow("forgot:ip:"+ip, now) || !a.loginLimiter.Allow("forgot:email:"+email, now) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	if err := a.resetSvc.RequestReset(r.Context(), email); err != nil {
		a.logger.Error("password reset request failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "reset_failed", "failed to send reset email")
		return
	}

	// Same response whether or not the email has an account.
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleAuthReset(w http.ResponseWriter, r *http.Request) {
	if a.resetSvc == nil {
		WriteError(w, http.StatusServiceUnavailable, "reset_unavailable", "password reset unavailable")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" || req.Password == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"token": "required", "password": "required"}))
		return
	}
	if len(req.Password) < 12 {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"password": "must be at least 12 characters"}))
		return
	}

	if err := a.resetSvc.ResetPassword(r.Context(), token, req.Password); err != nil {
		WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
