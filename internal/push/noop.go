package push

import (
	"context"
	"log/slog"

	"fitroomserver/internal/domain"
)

// NoopTransport logs instead of sending. It stands in for the real transport
// in dev environments without VAPID keys, so the rest of the pipeline
// (notification log, pruning, aggregate counts) behaves exactly as in prod.
type NoopTransport struct {
	Logger *slog.Logger
}

func (t *NoopTransport) Send(_ context.Context, sub domain.PushSubscription, msg Message) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("push dry-run", "endpoint", sub.Endpoint, "title", msg.Title)
	return nil
}
