package domain

import "time"

// PushSubscription is one device's Web Push registration for one user.
// (user_id, endpoint) is unique; rows are removed on opt-out or when the
// transport reports the endpoint permanently expired.
type PushSubscription struct {
	ID              string
	UserID          string
	Endpoint        string
	PublicKey       string
	AuthToken       string
	ContentEncoding string
	CreatedAt       time.Time
}

// Notification is the durable record of one logical notification intent,
// created exactly once per recipient regardless of how many devices were
// targeted. Only its read state mutates after creation.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Body      string
	Data      map[string]string
	Read      bool
	ReadAt    *time.Time
	CreatedAt time.Time
}

// SendResult is the aggregate outcome of delivering one intent to all of a
// user's devices. Expired endpoints count toward Failed.
type SendResult struct {
	Success bool   `json:"success"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Reason  string `json:"reason,omitempty"`
}

// DeviceSendResult is the outcome of a single ad-hoc device-token send.
type DeviceSendResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// MulticastResult is the receipt for an ad-hoc send to several device tokens.
type MulticastResult struct {
	SuccessCount int                         `json:"success_count"`
	FailureCount int                         `json:"failure_count"`
	Results      map[string]DeviceSendResult `json:"results"`
}
