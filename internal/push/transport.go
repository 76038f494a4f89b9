package push

import (
	"context"
	"errors"

	"fitroomserver/internal/domain"
)

// ErrEndpointExpired reports that the push service will never deliver to this
// endpoint again. Callers must prune the subscription instead of retrying.
var ErrEndpointExpired = errors.New("push_endpoint_expired")

// Message is the logical payload of one push notification. Transports encode
// it for the wire; the Data map is opaque to the server and used by clients to
// deep-link.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon,omitempty"`
	Badge string            `json:"badge,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Transport delivers one message to one Web Push subscription. Implementations
// return ErrEndpointExpired for permanently dead endpoints and plain errors
// for transient failures; they never retry.
type Transport interface {
	Send(ctx context.Context, sub domain.PushSubscription, msg Message) error
}
