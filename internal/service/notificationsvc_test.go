package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitroomserver/internal/domain"
)

type stubNotificationsStore struct {
	stubNotificationCreator

	listFunc        func(context.Context, string, int, int) ([]domain.Notification, error)
	countUnreadFunc func(context.Context, string) (int, error)
	markReadFunc    func(context.Context, string, string, time.Time) (domain.Notification, error)
	markAllReadFunc func(context.Context, string, time.Time) (int, error)
	deleteFunc      func(context.Context, string, string) error
}

func (s *stubNotificationsStore) ListNotificationsForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, userID, limit, offset)
	}
	return nil, errors.New("list not stubbed")
}

func (s *stubNotificationsStore) CountUnread(ctx context.Context, userID string) (int, error) {
	if s.countUnreadFunc != nil {
		return s.countUnreadFunc(ctx, userID)
	}
	return 0, errors.New("count not stubbed")
}

func (s *stubNotificationsStore) MarkNotificationRead(ctx context.Context, notificationID, userID string, when time.Time) (domain.Notification, error) {
	if s.markReadFunc != nil {
		return s.markReadFunc(ctx, notificationID, userID, when)
	}
	return domain.Notification{}, errors.New("mark read not stubbed")
}

func (s *stubNotificationsStore) MarkAllRead(ctx context.Context, userID string, when time.Time) (int, error) {
	if s.markAllReadFunc != nil {
		return s.markAllReadFunc(ctx, userID, when)
	}
	return 0, errors.New("mark all read not stubbed")
}

func (s *stubNotificationsStore) DeleteNotification(ctx context.Context, notificationID, userID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, notificationID, userID)
	}
	return errors.New("delete not stubbed")
}

func TestNotificationListClampsLimit(t *testing.T) {
	var gotLimit, gotOffset int
	svc := &NotificationService{
		Notifications: &stubNotificationsStore{
			listFunc: func(_ context.Context, _ string, limit, offset int) ([]domain.Notification, error) {
				gotLimit, gotOffset = limit, offset
				return nil, nil
			},
			countUnreadFunc: func(context.Context, string) (int, error) { return 0, nil },
		},
	}

	if _, err := svc.List(context.Background(), "user-1", 0, -5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 50 || gotOffset != 0 {
		t.Fatalf("expected defaults 50/0, got %d/%d", gotLimit, gotOffset)
	}

	if _, err := svc.List(context.Background(), "user-1", 10_000, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 200 || gotOffset != 20 {
		t.Fatalf("expected cap 200, got %d/%d", gotLimit, gotOffset)
	}
}

func TestNotificationListIncludesUnreadCount(t *testing.T) {
	svc := &NotificationService{
		Notifications: &stubNotificationsStore{
			listFunc: func(context.Context, string, int, int) ([]domain.Notification, error) {
				return []domain.Notification{{ID: "n-1"}, {ID: "n-2"}}, nil
			},
			countUnreadFunc: func(context.Context, string) (int, error) { return 7, nil },
		},
	}

	page, err := svc.List(context.Background(), "user-1", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Notifications) != 2 || page.UnreadCount != 7 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestNotificationMarkReadForeignIDReportsNotFound(t *testing.T) {
	svc := &NotificationService{
		Notifications: &stubNotificationsStore{
			markReadFunc: func(_ context.Context, notificationID, userID string, _ time.Time) (domain.Notification, error) {
				if notificationID != "n-1" || userID != "intruder" {
					t.Fatalf("unexpected args: %s %s", notificationID, userID)
				}
				return domain.Notification{}, domain.ErrNotFound
			},
		},
	}

	if _, err := svc.MarkRead(context.Background(), "n-1", "intruder"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNotificationMarkAllReadUsesInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &NotificationService{
		Notifications: &stubNotificationsStore{
			markAllReadFunc: func(_ context.Context, userID string, when time.Time) (int, error) {
				if userID != "user-1" {
					t.Fatalf("unexpected user id: %s", userID)
				}
				if !when.Equal(now) {
					t.Fatalf("unexpected clock value: %s", when)
				}
				return 3, nil
			},
		},
		Now: func() time.Time { return now },
	}

	updated, err := svc.MarkAllRead(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != 3 {
		t.Fatalf("unexpected updated count: %d", updated)
	}
}
