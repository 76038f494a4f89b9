package httpapi

import (
	"net/http"
	"time"

	"fitroomserver/internal/domain"
)

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
	LastLoginAt *string   `json:"last_login_at,omitempty"`
}

func writeUser(w http.ResponseWriter, status int, u domain.User) {
	resp := userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   formatMillis(u.UpdatedAt),
		LastLoginAt: formatMillisPtr(u.LastLoginAt),
	}
	WriteJSON(w, status, resp)
}

func (a *api) handleUsersMe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=0")
	writeUser(w, http.StatusOK, u)
}
