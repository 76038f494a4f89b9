package httpapi

import (
	"net/http"
	"strconv"

	"fitroomserver/internal/domain"
)

type notificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	ReadAt    *string           `json:"read_at,omitempty"`
	CreatedAt string            `json:"created_at"`
}

func notificationToResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Data,
		Read:      n.Read,
		ReadAt:    formatMillisPtr(n.ReadAt),
		CreatedAt: formatMillis(n.CreatedAt),
	}
}

type notificationListResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

func (a *api) handleNotificationsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	page, err := a.notificationsSvc.List(r.Context(), u.ID, limit, offset)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := notificationListResponse{
		Notifications: make([]notificationResponse, 0, len(page.Notifications)),
		UnreadCount:   page.UnreadCount,
		Limit:         limit,
		Offset:        offset,
	}
	for _, n := range page.Notifications {
		resp.Notifications = append(resp.Notifications, notificationToResponse(n))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (a *api) handleNotificationsRead(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	n, err := a.notificationsSvc.MarkRead(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, notificationToResponse(n))
}

func (a *api) handleNotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	updated, err := a.notificationsSvc.MarkAllRead(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (a *api) handleNotificationsDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.notificationsSvc.Delete(r.Context(), r.PathValue("id"), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
