package postgres

import (
	"context"
	"errors"
	"fmt"

	"fitroomserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomsStore struct {
	pool *pgxpool.Pool
}

func NewRoomsStore(pool *pgxpool.Pool) *RoomsStore {
	return &RoomsStore{pool: pool}
}

func (s *RoomsStore) CreateRoom(ctx context.Context, name, code, ownerID string) (domain.Room, error) {
	const q = `
		INSERT INTO rooms (name, code, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, code, owner_id, created_at, updated_at
	`

	room, err := scanRoom(s.pool.QueryRow(ctx, q, name, code, ownerID))
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "rooms_code_uq" {
			return domain.Room{}, domain.ErrRoomCodeTaken
		}
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

func (s *RoomsStore) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	const q = `
		SELECT id, name, code, owner_id, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	room, err := scanRoom(s.pool.QueryRow(ctx, q, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, domain.ErrNotFound
		}
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func (s *RoomsStore) GetRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	const q = `
		SELECT id, name, code, owner_id, created_at, updated_at
		FROM rooms
		WHERE code = $1
	`

	room, err := scanRoom(s.pool.QueryRow(ctx, q, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, domain.ErrNotFound
		}
		return domain.Room{}, fmt.Errorf("get room by code: %w", err)
	}
	return room, nil
}

func (s *RoomsStore) ListRoomsByOwner(ctx context.Context, ownerID string) ([]domain.RoomWithCounts, error) {
	const q = `
		SELECT r.id, r.name, r.code, r.owner_id, r.created_at, r.updated_at,
		       (SELECT count(*) FROM exercises e WHERE e.room_id = r.id),
		       (SELECT count(*) FROM room_members m WHERE m.room_id = r.id)
		FROM rooms r
		WHERE r.owner_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list rooms by owner: %w", err)
	}
	defer rows.Close()

	var out []domain.RoomWithCounts
	for rows.Next() {
		var (
			room      domain.RoomWithCounts
			idUUID    pgtype.UUID
			ownerUUID pgtype.UUID
		)
		if err := rows.Scan(
			&idUUID,
			&room.Name,
			&room.Code,
			&ownerUUID,
			&room.CreatedAt,
			&room.UpdatedAt,
			&room.ExerciseCount,
			&room.TraineeCount,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		room.ID = uuidOrEmpty(idUUID)
		room.OwnerID = uuidOrEmpty(ownerUUID)
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms by owner: %w", err)
	}
	return out, nil
}

func (s *RoomsStore) ListRoomsByMember(ctx context.Context, userID string) ([]domain.RoomWithCounts, error) {
	const q = `
		SELECT r.id, r.name, r.code, r.owner_id, r.created_at, r.updated_at,
		       (SELECT count(*) FROM exercises e WHERE e.room_id = r.id),
		       (SELECT count(*) FROM room_members m2 WHERE m2.room_id = r.id)
		FROM rooms r
		JOIN room_members m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms by member: %w", err)
	}
	defer rows.Close()

	var out []domain.RoomWithCounts
	for rows.Next() {
		var (
			room      domain.RoomWithCounts
			idUUID    pgtype.UUID
			ownerUUID pgtype.UUID
		)
		if err := rows.Scan(
			&idUUID,
			&room.Name,
			&room.Code,
			&ownerUUID,
			&room.CreatedAt,
			&room.UpdatedAt,
			&room.ExerciseCount,
			&room.TraineeCount,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		room.ID = uuidOrEmpty(idUUID)
		room.OwnerID = uuidOrEmpty(ownerUUID)
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms by member: %w", err)
	}
	return out, nil
}

func (s *RoomsStore) RenameRoom(ctx context.Context, roomID, name string) (domain.Room, error) {
	const q = `
		UPDATE rooms
		SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, code, owner_id, created_at, updated_at
	`

	room, err := scanRoom(s.pool.QueryRow(ctx, q, roomID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, domain.ErrNotFound
		}
		return domain.Room{}, fmt.Errorf("rename room: %w", err)
	}
	return room, nil
}

func (s *RoomsStore) DeleteRoom(ctx context.Context, roomID string) error {
	const q = `DELETE FROM rooms WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *RoomsStore) GetOwnerTotals(ctx context.Context, ownerID string) (domain.RoomTotals, error) {
	const q = `
		SELECT count(DISTINCT r.id),
		       count(DISTINCT e.id),
		       count(DISTINCT m.id)
		FROM rooms r
		LEFT JOIN exercises e ON e.room_id = r.id
		LEFT JOIN room_members m ON m.room_id = r.id
		WHERE r.owner_id = $1
	`

	var totals domain.RoomTotals
	err := s.pool.QueryRow(ctx, q, ownerID).Scan(
		&totals.TotalRooms,
		&totals.TotalExercises,
		&totals.TotalTrainees,
	)
	if err != nil {
		return domain.RoomTotals{}, fmt.Errorf("get owner totals: %w", err)
	}
	return totals, nil
}

func scanRoom(row rowScanner) (domain.Room, error) {
	var (
		room      domain.Room
		idUUID    pgtype.UUID
		ownerUUID pgtype.UUID
	)
	err := row.Scan(
		&idUUID,
		&room.Name,
		&room.Code,
		&ownerUUID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return domain.Room{}, err
	}
	room.ID = uuidOrEmpty(idUUID)
	room.OwnerID = uuidOrEmpty(ownerUUID)
	return room, nil
}
