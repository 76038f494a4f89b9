package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fitroomserver/internal/domain"
	"fitroomserver/internal/push"
)

const (
	defaultNotificationType = "general"
	pushIconPath            = "/icon.png"
	pushBadgePath           = "/badge.png"
)

type NotificationCreator interface {
	CreateNotification(ctx context.Context, userID, notifType, title, body string, data map[string]string) (domain.Notification, error)
}

// DeviceSender is the vendor-gateway transport for raw device tokens.
type DeviceSender interface {
	Send(ctx context.Context, token string, msg push.Message) error
}

// DispatchService fans one notification intent out to every device of a user.
// Per-endpoint transport failures are absorbed into aggregate counts; the only
// hard error is failing to write the durable notification record.
type DispatchService struct {
	Subs          PushSubscriptionsStore
	Notifications NotificationCreator
	Transport     push.Transport
	Devices       DeviceSender
	Logger        *slog.Logger
}

// SendToUser delivers one intent to all of the user's subscriptions and
// persists exactly one notification record regardless of fan-out size.
// Expired endpoints are pruned immediately and count toward Failed.
func (s *DispatchService) SendToUser(ctx context.Context, userID, title, body string, data map[string]string) (domain.SendResult, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	notifType := data["type"]
	if notifType == "" {
		notifType = defaultNotificationType
	}

	subs, err := s.Subs.ListSubscriptions(ctx, userID)
	if err != nil {
		return domain.SendResult{}, err
	}

	var result domain.SendResult
	if len(subs) == 0 {
		// No live push channel, but the in-app notification center must
		// still show the entry.
		if _, err := s.Notifications.CreateNotification(ctx, userID, notifType, title, body, data); err != nil {
			return domain.SendResult{}, err
		}
		result.Reason = "no_subscriptions"
		return result, nil
	}

	msg := push.Message{
		Title: title,
		Body:  body,
		Icon:  pushIconPath,
		Badge: pushBadgePath,
		Data:  data,
	}

	for _, sub := range subs {
		sendErr := s.Transport.Send(ctx, sub, msg)
		switch {
		case sendErr == nil:
			result.Sent++
		case errors.Is(sendErr, push.ErrEndpointExpired):
			result.Failed++
			if remErr := s.Subs.RemoveSubscription(ctx, sub.ID); remErr != nil {
				logger.Error("prune expired subscription failed", "err", remErr, "user_id", userID, "subscription_id", sub.ID)
			} else {
				logger.Info("pruned expired push subscription", "user_id", userID, "subscription_id", sub.ID)
			}
		default:
			result.Failed++
			logger.Error("push send failed", "err", sendErr, "user_id", userID, "endpoint", sub.Endpoint)
		}
	}

	if _, err := s.Notifications.CreateNotification(ctx, userID, notifType, title, body, data); err != nil {
		return result, err
	}

	result.Success = result.Sent > 0
	return result, nil
}

// SendToMultipleUsers fans out sequentially. A failure for one recipient,
// including a panic below the transport, never aborts the batch.
func (s *DispatchService) SendToMultipleUsers(ctx context.Context, userIDs []string, title, body string, data map[string]string) map[string]domain.SendResult {
	results := make(map[string]domain.SendResult, len(userIDs))
	for _, userID := range userIDs {
		results[userID] = s.sendToUserContained(ctx, userID, title, body, data)
	}
	return results
}

func (s *DispatchService) sendToUserContained(ctx context.Context, userID, title, body string, data map[string]string) (result domain.SendResult) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic during notification dispatch", "panic", rec, "user_id", userID)
			result = domain.SendResult{Reason: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	result, err := s.SendToUser(ctx, userID, title, body, data)
	if err != nil {
		logger.Error("dispatch failed", "err", err, "user_id", userID)
		result.Success = false
		if result.Reason == "" {
			result.Reason = err.Error()
		}
	}
	return result
}

// SendToDevice is a stateless single-shot send to the vendor gateway. It does
// not touch the subscription registry or the notification log.
func (s *DispatchService) SendToDevice(ctx context.Context, token, title, body string, data map[string]string) domain.DeviceSendResult {
	if s.Devices == nil {
		return domain.DeviceSendResult{Error: "device transport not configured"}
	}
	if strings.TrimSpace(token) == "" {
		return domain.DeviceSendResult{Error: "token required"}
	}

	err := s.Devices.Send(ctx, token, push.Message{Title: title, Body: body, Data: data})
	if err != nil {
		return domain.DeviceSendResult{Error: err.Error()}
	}
	return domain.DeviceSendResult{Success: true}
}

func (s *DispatchService) SendToMultipleDevices(ctx context.Context, tokens []string, title, body string, data map[string]string) domain.MulticastResult {
	receipt := domain.MulticastResult{
		Results: make(map[string]domain.DeviceSendResult, len(tokens)),
	}
	for _, token := range tokens {
		res := s.SendToDevice(ctx, token, title, body, data)
		receipt.Results[token] = res
		if res.Success {
			receipt.SuccessCount++
		} else {
			receipt.FailureCount++
		}
	}
	return receipt
}
