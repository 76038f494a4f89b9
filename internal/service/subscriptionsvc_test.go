package service

import (
	"context"
	"errors"
	"testing"

	"fitroomserver/internal/domain"
)

func TestSubscribeValidatesKeys(t *testing.T) {
	svc := &SubscriptionService{Subs: &stubSubsStore{}}

	_, _, err := svc.Subscribe(context.Background(), "user-1", "https://push.example/ep", "", "", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if _, ok := verr.Fields["keys.p256dh"]; !ok {
		t.Fatalf("expected keys.p256dh field error: %v", verr.Fields)
	}
}

func TestSubscribeDefaultsContentEncoding(t *testing.T) {
	var stored domain.PushSubscription
	svc := &SubscriptionService{
		Subs: &stubSubsStore{
			upsertFunc: func(_ context.Context, sub domain.PushSubscription) (domain.PushSubscription, bool, error) {
				stored = sub
				sub.ID = "sub-1"
				return sub, true, nil
			},
		},
	}

	sub, created, err := svc.Subscribe(context.Background(), "user-1", "https://push.example/ep", "p256dh-key", "auth-token", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || sub.ID != "sub-1" {
		t.Fatalf("unexpected result: created=%v sub=%+v", created, sub)
	}
	if stored.ContentEncoding != "aes128gcm" {
		t.Fatalf("expected default content encoding, got %q", stored.ContentEncoding)
	}
}

func TestSubscribeTwiceIsIdempotent(t *testing.T) {
	svc := &SubscriptionService{
		Subs: &stubSubsStore{
			upsertFunc: func(_ context.Context, sub domain.PushSubscription) (domain.PushSubscription, bool, error) {
				// Second registration of the same pair returns the
				// existing row.
				sub.ID = "sub-1"
				return sub, false, nil
			},
		},
	}

	sub, created, err := svc.Subscribe(context.Background(), "user-1", "https://push.example/ep", "p256dh-key", "auth-token", "aesgcm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected created=false on re-subscribe")
	}
	if sub.ID != "sub-1" {
		t.Fatalf("expected existing subscription back, got %+v", sub)
	}
}

func TestUnsubscribeMissingEndpointIsNoop(t *testing.T) {
	called := false
	svc := &SubscriptionService{
		Subs: &stubSubsStore{
			deleteFunc: func(_ context.Context, userID, endpoint string) error {
				called = true
				if userID != "user-1" || endpoint != "https://push.example/gone" {
					t.Fatalf("unexpected delete args: %s %s", userID, endpoint)
				}
				return nil
			},
		},
	}

	if err := svc.Unsubscribe(context.Background(), "user-1", "https://push.example/gone"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("expected delete to be called")
	}

	if err := svc.Unsubscribe(context.Background(), "user-1", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty endpoint, got %v", err)
	}
}
