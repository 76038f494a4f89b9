package postgres

import (
	"context"
	"errors"
	"fmt"

	"fitroomserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PushSubscriptionsStore struct {
	pool *pgxpool.Pool
}

func NewPushSubscriptionsStore(pool *pgxpool.Pool) *PushSubscriptionsStore {
	return &PushSubscriptionsStore{pool: pool}
}

const subscriptionColumns = "id, user_id, endpoint, public_key, auth_token, content_encoding, created_at"

// UpsertSubscription registers a device endpoint. The insert is a single
// atomic statement; re-registering an existing (user, endpoint) pair reports
// created=false and leaves the stored keys untouched.
func (s *PushSubscriptionsStore) UpsertSubscription(ctx context.Context, sub domain.PushSubscription) (domain.PushSubscription, bool, error) {
	const insert = `
		INSERT INTO push_subscriptions (user_id, endpoint, public_key, auth_token, content_encoding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, endpoint) DO NOTHING
		RETURNING ` + subscriptionColumns

	out, err := scanSubscription(s.pool.QueryRow(ctx, insert,
		sub.UserID,
		sub.Endpoint,
		sub.PublicKey,
		sub.AuthToken,
		sub.ContentEncoding,
	))
	if err == nil {
		return out, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.PushSubscription{}, false, fmt.Errorf("upsert push subscription: %w", err)
	}

	const get = `
		SELECT ` + subscriptionColumns + `
		FROM push_subscriptions
		WHERE user_id = $1 AND endpoint = $2
	`

	out, err = scanSubscription(s.pool.QueryRow(ctx, get, sub.UserID, sub.Endpoint))
	if err != nil {
		return domain.PushSubscription{}, false, fmt.Errorf("get push subscription: %w", err)
	}
	return out, false, nil
}

// DeleteSubscription unsubscribes one endpoint. Deleting an absent
// subscription is a no-op so concurrent unsubscribes both succeed.
func (s *PushSubscriptionsStore) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	const q = `
		DELETE FROM push_subscriptions
		WHERE user_id = $1 AND endpoint = $2
	`
	if _, err := s.pool.Exec(ctx, q, userID, endpoint); err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns a user's device endpoints in insertion order,
// the order the dispatcher fans out in.
func (s *PushSubscriptionsStore) ListSubscriptions(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	const q = `
		SELECT ` + subscriptionColumns + `
		FROM push_subscriptions
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var out []domain.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return out, nil
}

// RemoveSubscription prunes a dead endpoint by id. Idempotent: concurrent
// dispatchers pruning the same row both succeed.
func (s *PushSubscriptionsStore) RemoveSubscription(ctx context.Context, subscriptionID string) error {
	const q = `DELETE FROM push_subscriptions WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, subscriptionID); err != nil {
		return fmt.Errorf("remove push subscription: %w", err)
	}
	return nil
}

func scanSubscription(row rowScanner) (domain.PushSubscription, error) {
	var (
		sub      domain.PushSubscription
		idUUID   pgtype.UUID
		userUUID pgtype.UUID
	)
	err := row.Scan(
		&idUUID,
		&userUUID,
		&sub.Endpoint,
		&sub.PublicKey,
		&sub.AuthToken,
		&sub.ContentEncoding,
		&sub.CreatedAt,
	)
	if err != nil {
		return domain.PushSubscription{}, err
	}
	sub.ID = uuidOrEmpty(idUUID)
	sub.UserID = uuidOrEmpty(userUUID)
	return sub, nil
}
