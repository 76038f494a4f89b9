package httpapi

import (
	"net/http"
	"strings"

	"fitroomserver/internal/domain"
)

// pushSubscribeRequest mirrors PushSubscription.toJSON() from the browser.
type pushSubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	ContentEncoding string `json:"content_encoding"`
}

func (a *api) handlePushSubscribe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req pushSubscribeRequest
	if err := decodeJSONAllowUnknownFields(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	sub, created, err := a.subscriptionSvc.Subscribe(r.Context(), u.ID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, req.ContentEncoding)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, map[string]any{
		"id":         sub.ID,
		"endpoint":   sub.Endpoint,
		"created":    created,
		"created_at": formatMillis(sub.CreatedAt),
	})
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (a *api) handlePushUnsubscribe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req pushUnsubscribeRequest
	if err := decodeJSONAllowUnknownFields(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.subscriptionSvc.Unsubscribe(r.Context(), u.ID, req.Endpoint); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handlePushVAPIDKey(w http.ResponseWriter, r *http.Request) {
	key := a.subscriptionSvc.PublicKey()
	if key == "" {
		WriteError(w, http.StatusServiceUnavailable, "push_unavailable", "web push is not configured")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"public_key": key})
}

type pushTestRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// handlePushTest sends a test notification to the caller's own devices.
// Delivery failures come back in the result body, never as a 5xx.
func (a *api) handlePushTest(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req pushTestRequest
	if _, err := decodeJSONAllowEmpty(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.Title == "" {
		req.Title = "Test notification"
	}
	if req.Body == "" {
		req.Body = "Push notifications are working."
	}

	result, err := a.dispatchSvc.SendToUser(r.Context(), u.ID, req.Title, req.Body, map[string]string{"type": "test"})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type pushDeviceTestRequest struct {
	Token  string   `json:"token"`
	Tokens []string `json:"tokens"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
}

// handlePushDeviceTest does an ad-hoc FCM send to raw device tokens. It
// bypasses the subscription registry and the notification log.
func (a *api) handlePushDeviceTest(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req pushDeviceTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.Title == "" {
		req.Title = "Test notification"
	}
	if req.Body == "" {
		req.Body = "Push notifications are working."
	}

	data := map[string]string{"type": "test"}

	if len(req.Tokens) > 0 {
		result := a.dispatchSvc.SendToMultipleDevices(r.Context(), req.Tokens, req.Title, req.Body, data)
		WriteJSON(w, http.StatusOK, result)
		return
	}

	if strings.TrimSpace(req.Token) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"token": "required"}))
		return
	}
	result := a.dispatchSvc.SendToDevice(r.Context(), req.Token, req.Title, req.Body, data)
	WriteJSON(w, http.StatusOK, result)
}
