package service

import (
	"context"
	"time"

	"fitroomserver/internal/domain"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type NotificationsStore interface {
	CreateNotification(ctx context.Context, userID, notifType, title, body string, data map[string]string) (domain.Notification, error)
	ListNotificationsForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string, when time.Time) (domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string, when time.Time) (int, error)
	DeleteNotification(ctx context.Context, notificationID, userID string) error
}

// NotificationService backs the in-app notification center. All reads and
// writes are scoped to the requesting user; a foreign id behaves like a
// missing one.
type NotificationService struct {
	Notifications NotificationsStore

	Now func() time.Time
}

func (s *NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NotificationPage is one page of the log plus the user's unread total.
type NotificationPage struct {
	Notifications []domain.Notification
	UnreadCount   int
}

func (s *NotificationService) List(ctx context.Context, userID string, limit, offset int) (NotificationPage, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.Notifications.ListNotificationsForUser(ctx, userID, limit, offset)
	if err != nil {
		return NotificationPage{}, err
	}
	unread, err := s.Notifications.CountUnread(ctx, userID)
	if err != nil {
		return NotificationPage{}, err
	}
	return NotificationPage{Notifications: items, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) (domain.Notification, error) {
	return s.Notifications.MarkNotificationRead(ctx, notificationID, userID, s.now().UTC())
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.Notifications.MarkAllRead(ctx, userID, s.now().UTC())
}

func (s *NotificationService) Delete(ctx context.Context, notificationID, userID string) error {
	return s.Notifications.DeleteNotification(ctx, notificationID, userID)
}
