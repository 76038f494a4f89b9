package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SherClockHolmes/webpush-go"

	"fitroomserver/internal/domain"
)

const defaultTTL = 60

// WebPushTransport sends encrypted, VAPID-signed messages straight to the
// endpoint stored on each subscription.
type WebPushTransport struct {
	subject    string
	publicKey  string
	privateKey string
	ttl        int
	client     *http.Client
}

func NewWebPushTransport(subject, publicKey, privateKey string) (*WebPushTransport, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("vapid subject required")
	}
	if strings.TrimSpace(publicKey) == "" || strings.TrimSpace(privateKey) == "" {
		return nil, fmt.Errorf("vapid key pair required")
	}
	return &WebPushTransport{
		subject:    subject,
		publicKey:  publicKey,
		privateKey: privateKey,
		ttl:        defaultTTL,
		client:     http.DefaultClient,
	}, nil
}

func (t *WebPushTransport) Send(ctx context.Context, sub domain.PushSubscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.PublicKey,
			Auth:   sub.AuthToken,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.subject,
		VAPIDPublicKey:  t.publicKey,
		VAPIDPrivateKey: t.privateKey,
		TTL:             t.ttl,
	})
	if err != nil {
		return fmt.Errorf("webpush send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrEndpointExpired
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("webpush send failed: status %d", resp.StatusCode)
	}
}

// GenerateVAPIDKeys returns a fresh private/public key pair for operators
// bootstrapping a deployment.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}
