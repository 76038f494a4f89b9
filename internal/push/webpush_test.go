package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitroomserver/internal/domain"
)

func testSubscription(t *testing.T, endpoint string) domain.PushSubscription {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate subscription key: %v", err)
	}
	authSecret := make([]byte, 16)
	if _, err := rand.Read(authSecret); err != nil {
		t.Fatalf("generate auth secret: %v", err)
	}

	return domain.PushSubscription{
		ID:              "sub-1",
		UserID:          "user-1",
		Endpoint:        endpoint,
		PublicKey:       base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		AuthToken:       base64.RawURLEncoding.EncodeToString(authSecret),
		ContentEncoding: "aes128gcm",
	}
}

func testTransport(t *testing.T) *WebPushTransport {
	t.Helper()

	privateKey, publicKey, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate vapid keys: %v", err)
	}
	transport, err := NewWebPushTransport("mailto:ops@fitroom.example", publicKey, privateKey)
	if err != nil {
		t.Fatalf("build transport: %v", err)
	}
	return transport
}

func TestWebPushSendDeliversEncryptedPayload(t *testing.T) {
	var gotEncoding string
	var gotLength int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEncoding = r.Header.Get("Content-Encoding")
		body := make([]byte, 1<<16)
		n, _ := r.Body.Read(body)
		gotLength = n
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	transport := testTransport(t)
	sub := testSubscription(t, srv.URL)

	err := transport.Send(context.Background(), sub, Message{Title: "Hi", Body: "there"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotEncoding != "aes128gcm" {
		t.Fatalf("unexpected content encoding: %q", gotEncoding)
	}
	if gotLength == 0 {
		t.Fatal("expected an encrypted body")
	}
}

func TestWebPushSendClassifiesGoneAsExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	transport := testTransport(t)
	sub := testSubscription(t, srv.URL)

	err := transport.Send(context.Background(), sub, Message{Title: "Hi"})
	if !errors.Is(err, ErrEndpointExpired) {
		t.Fatalf("expected expired endpoint, got %v", err)
	}
}

func TestWebPushSendClassifiesNotFoundAsExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	transport := testTransport(t)
	sub := testSubscription(t, srv.URL)

	err := transport.Send(context.Background(), sub, Message{Title: "Hi"})
	if !errors.Is(err, ErrEndpointExpired) {
		t.Fatalf("expected expired endpoint, got %v", err)
	}
}

func TestWebPushSendServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	transport := testTransport(t)
	sub := testSubscription(t, srv.URL)

	err := transport.Send(context.Background(), sub, Message{Title: "Hi"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrEndpointExpired) {
		t.Fatalf("5xx must not prune the subscription: %v", err)
	}
}
