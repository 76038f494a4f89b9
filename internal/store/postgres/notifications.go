package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitroomserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationsStore struct {
	pool *pgxpool.Pool
}

func NewNotificationsStore(pool *pgxpool.Pool) *NotificationsStore {
	return &NotificationsStore{pool: pool}
}

const notificationColumns = "id, user_id, type, title, body, data, read, read_at, created_at"

func (s *NotificationsStore) CreateNotification(ctx context.Context, userID, notifType, title, body string, data map[string]string) (domain.Notification, error) {
	const q = `
		INSERT INTO notifications (user_id, type, title, body, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + notificationColumns

	var dataJSON any
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return domain.Notification{}, fmt.Errorf("marshal notification data: %w", err)
		}
		dataJSON = raw
	}

	n, err := scanNotification(s.pool.QueryRow(ctx, q, userID, notifType, title, body, dataJSON))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

// ListNotificationsForUser returns the user's notifications newest first.
func (s *NotificationsStore) ListNotificationsForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	const q = `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *NotificationsStore) CountUnread(ctx context.Context, userID string) (int, error) {
	const q = `
		SELECT count(*)
		FROM notifications
		WHERE user_id = $1 AND NOT read
	`

	var n int
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead flips one record to read. The ownership predicate is
// part of the statement so a foreign id reads as not-found, never as another
// user's record.
func (s *NotificationsStore) MarkNotificationRead(ctx context.Context, notificationID, userID string, when time.Time) (domain.Notification, error) {
	const q = `
		UPDATE notifications
		SET read = true, read_at = $3
		WHERE id = $1 AND user_id = $2 AND NOT read
		RETURNING ` + notificationColumns

	n, err := scanNotification(s.pool.QueryRow(ctx, q, notificationID, userID, when))
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}

	// Already read, or not owned. Re-select to tell the two apart.
	const get = `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE id = $1 AND user_id = $2
	`
	n, err = scanNotification(s.pool.QueryRow(ctx, get, notificationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notification{}, domain.ErrNotFound
		}
		return domain.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// MarkAllRead transitions every unread record for the user. Idempotent: an
// empty unread set affects zero rows and is still a success.
func (s *NotificationsStore) MarkAllRead(ctx context.Context, userID string, when time.Time) (int, error) {
	const q = `
		UPDATE notifications
		SET read = true, read_at = $2
		WHERE user_id = $1 AND NOT read
	`

	tag, err := s.pool.Exec(ctx, q, userID, when)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *NotificationsStore) DeleteNotification(ctx context.Context, notificationID, userID string) error {
	const q = `
		DELETE FROM notifications
		WHERE id = $1 AND user_id = $2
	`
	tag, err := s.pool.Exec(ctx, q, notificationID, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanNotification(row rowScanner) (domain.Notification, error) {
	var (
		n        domain.Notification
		idUUID   pgtype.UUID
		userUUID pgtype.UUID
		dataRaw  []byte
		readAt   pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&userUUID,
		&n.Type,
		&n.Title,
		&n.Body,
		&dataRaw,
		&n.Read,
		&readAt,
		&n.CreatedAt,
	)
	if err != nil {
		return domain.Notification{}, err
	}
	n.ID = uuidOrEmpty(idUUID)
	n.UserID = uuidOrEmpty(userUUID)
	n.ReadAt = timestamptzPtr(readAt)
	if len(dataRaw) > 0 {
		if err := json.Unmarshal(dataRaw, &n.Data); err != nil {
			return domain.Notification{}, fmt.Errorf("unmarshal notification data: %w", err)
		}
	}
	return n, nil
}
