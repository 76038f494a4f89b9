package push

import (
	"errors"
	"strings"
	"testing"
)

func TestFCMErrorFromResponseUnregisteredToken(t *testing.T) {
	body := `{"error":{"status":"NOT_FOUND","message":"Requested entity was not found.","details":[{"@type":"type.googleapis.com/google.firebase.fcm.v1.FcmError","errorCode":"UNREGISTERED"}]}}`

	err := fcmErrorFromResponse([]byte(body))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestFCMErrorFromResponseOtherError(t *testing.T) {
	body := `{"error":{"status":"PERMISSION_DENIED","message":"The caller does not have permission"}}`

	err := fcmErrorFromResponse([]byte(body))
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatalf("permission error must not be treated as a dead token: %v", err)
	}
	if !strings.Contains(err.Error(), "does not have permission") {
		t.Fatalf("expected message to carry through: %v", err)
	}
}

func TestFCMErrorFromResponseMalformedBody(t *testing.T) {
	err := fcmErrorFromResponse([]byte("upstream exploded"))
	if err == nil {
		t.Fatal("expected an error")
	}
}
