package postgres

import (
	"context"
	"errors"
	"fmt"

	"fitroomserver/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomMembersStore struct {
	pool *pgxpool.Pool
}

func NewRoomMembersStore(pool *pgxpool.Pool) *RoomMembersStore {
	return &RoomMembersStore{pool: pool}
}

func (s *RoomMembersStore) AddMember(ctx context.Context, roomID, userID string) (domain.RoomMember, error) {
	const q = `
		INSERT INTO room_members (room_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	var (
		member domain.RoomMember
		idUUID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, roomID, userID).Scan(&idUUID, &member.JoinedAt)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return domain.RoomMember{}, domain.ErrAlreadyMember
		}
		return domain.RoomMember{}, fmt.Errorf("add room member: %w", err)
	}

	member.ID = uuidOrEmpty(idUUID)
	member.RoomID = roomID
	member.UserID = userID
	return member, nil
}

// RemoveMember is idempotent: removing an absent membership is a no-op.
func (s *RoomMembersStore) RemoveMember(ctx context.Context, roomID, userID string) error {
	const q = `
		DELETE FROM room_members
		WHERE room_id = $1 AND user_id = $2
	`
	if _, err := s.pool.Exec(ctx, q, roomID, userID); err != nil {
		return fmt.Errorf("remove room member: %w", err)
	}
	return nil
}

func (s *RoomMembersStore) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM room_members
			WHERE room_id = $1 AND user_id = $2
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, roomID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check room member: %w", err)
	}
	return exists, nil
}

func (s *RoomMembersStore) ListMembers(ctx context.Context, roomID string) ([]domain.RoomMember, error) {
	const q = `
		SELECT m.id, m.room_id, m.user_id, u.username, m.created_at
		FROM room_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.created_at ASC
	`

	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room members: %w", err)
	}
	defer rows.Close()

	var out []domain.RoomMember
	for rows.Next() {
		var (
			member   domain.RoomMember
			idUUID   pgtype.UUID
			roomUUID pgtype.UUID
			userUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &roomUUID, &userUUID, &member.Username, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan room member: %w", err)
		}
		member.ID = uuidOrEmpty(idUUID)
		member.RoomID = uuidOrEmpty(roomUUID)
		member.UserID = uuidOrEmpty(userUUID)
		out = append(out, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list room members: %w", err)
	}
	return out, nil
}

// ListMemberUserIDs returns the ids used for notification fan-out when a new
// exercise lands in the room.
func (s *RoomMembersStore) ListMemberUserIDs(ctx context.Context, roomID string) ([]string, error) {
	const q = `
		SELECT user_id
		FROM room_members
		WHERE room_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room member ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userUUID pgtype.UUID
		if err := rows.Scan(&userUUID); err != nil {
			return nil, fmt.Errorf("scan room member id: %w", err)
		}
		out = append(out, uuidOrEmpty(userUUID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list room member ids: %w", err)
	}
	return out, nil
}
