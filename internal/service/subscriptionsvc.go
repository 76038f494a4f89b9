package service

import (
	"context"
	"strings"

	"fitroomserver/internal/domain"
)

const defaultContentEncoding = "aes128gcm"

type PushSubscriptionsStore interface {
	UpsertSubscription(ctx context.Context, sub domain.PushSubscription) (domain.PushSubscription, bool, error)
	DeleteSubscription(ctx context.Context, userID, endpoint string) error
	ListSubscriptions(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	RemoveSubscription(ctx context.Context, subscriptionID string) error
}

// SubscriptionService is the registry of per-user push endpoints. It never
// performs network calls; delivery is the dispatcher's job.
type SubscriptionService struct {
	Subs PushSubscriptionsStore

	// VAPIDPublicKey is handed to clients so the browser can validate the
	// server's signature on delivered messages.
	VAPIDPublicKey string
}

// Subscribe registers a device endpoint for the user. Registering the same
// (user, endpoint) pair again reports created=false and is a success.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, endpoint, p256dh, authToken, contentEncoding string) (domain.PushSubscription, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	p256dh = strings.TrimSpace(p256dh)
	authToken = strings.TrimSpace(authToken)
	contentEncoding = strings.TrimSpace(contentEncoding)

	fields := map[string]string{}
	if endpoint == "" {
		fields["endpoint"] = "required"
	}
	if p256dh == "" {
		fields["keys.p256dh"] = "required"
	}
	if authToken == "" {
		fields["keys.auth"] = "required"
	}
	if len(fields) > 0 {
		return domain.PushSubscription{}, false, domain.NewValidationError(fields)
	}
	if contentEncoding == "" {
		contentEncoding = defaultContentEncoding
	}

	return s.Subs.UpsertSubscription(ctx, domain.PushSubscription{
		UserID:          userID,
		Endpoint:        endpoint,
		PublicKey:       p256dh,
		AuthToken:       authToken,
		ContentEncoding: contentEncoding,
	})
}

// Unsubscribe removes a device endpoint. Unsubscribing an endpoint that is
// already gone is a no-op success.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return domain.NewValidationError(map[string]string{"endpoint": "required"})
	}
	return s.Subs.DeleteSubscription(ctx, userID, endpoint)
}

func (s *SubscriptionService) ListForUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	return s.Subs.ListSubscriptions(ctx, userID)
}

func (s *SubscriptionService) PublicKey() string {
	return s.VAPIDPublicKey
}
