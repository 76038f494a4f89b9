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

type RoutinesStore struct {
	pool *pgxpool.Pool
}

func NewRoutinesStore(pool *pgxpool.Pool) *RoutinesStore {
	return &RoutinesStore{pool: pool}
}

func (s *RoutinesStore) CreateRoutine(ctx context.Context, userID, exerciseID string) (domain.Routine, error) {
	const q = `
		INSERT INTO routines (user_id, exercise_id, status, favorite)
		VALUES ($1, $2, 'in_progress', false)
		RETURNING id, user_id, exercise_id, status, favorite, created_at, updated_at
	`

	routine, err := scanRoutine(s.pool.QueryRow(ctx, q, userID, exerciseID))
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return domain.Routine{}, domain.ErrRoutineExists
		}
		return domain.Routine{}, fmt.Errorf("create routine: %w", err)
	}
	return routine, nil
}

func (s *RoutinesStore) GetRoutine(ctx context.Context, routineID, userID string) (domain.Routine, error) {
	const q = `
		SELECT id, user_id, exercise_id, status, favorite, created_at, updated_at
		FROM routines
		WHERE id = $1 AND user_id = $2
	`

	routine, err := scanRoutine(s.pool.QueryRow(ctx, q, routineID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Routine{}, domain.ErrNotFound
		}
		return domain.Routine{}, fmt.Errorf("get routine: %w", err)
	}
	return routine, nil
}

func (s *RoutinesStore) ListRoutinesForUser(ctx context.Context, userID string) ([]domain.RoutineWithExercise, error) {
	const q = `
		SELECT r.id, r.user_id, r.exercise_id, r.status, r.favorite, r.created_at, r.updated_at,
		       e.id, e.room_id, e.title, e.type, e.instructions, e.difficulty, e.media_paths, e.urls, e.created_at, e.updated_at
		FROM routines r
		JOIN exercises e ON e.id = r.exercise_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	var out []domain.RoutineWithExercise
	for rows.Next() {
		var (
			item         domain.RoutineWithExercise
			idUUID       pgtype.UUID
			userUUID     pgtype.UUID
			exUUID       pgtype.UUID
			exIDUUID     pgtype.UUID
			roomUUID     pgtype.UUID
			typeText     pgtype.Text
			instructions pgtype.Text
			difficulty   pgtype.Text
			mediaPaths   pgtype.FlatArray[string]
			urls         pgtype.FlatArray[string]
		)
		if err := rows.Scan(
			&idUUID,
			&userUUID,
			&exUUID,
			&item.Status,
			&item.Favorite,
			&item.CreatedAt,
			&item.UpdatedAt,
			&exIDUUID,
			&roomUUID,
			&item.Exercise.Title,
			&typeText,
			&instructions,
			&difficulty,
			&mediaPaths,
			&urls,
			&item.Exercise.CreatedAt,
			&item.Exercise.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		item.ID = uuidOrEmpty(idUUID)
		item.UserID = uuidOrEmpty(userUUID)
		item.ExerciseID = uuidOrEmpty(exUUID)
		item.Exercise.ID = uuidOrEmpty(exIDUUID)
		item.Exercise.RoomID = uuidOrEmpty(roomUUID)
		item.Exercise.Type = textOrEmpty(typeText)
		item.Exercise.Instructions = textOrEmpty(instructions)
		item.Exercise.Difficulty = domain.ExerciseDifficulty(textOrEmpty(difficulty))
		item.Exercise.MediaPaths = textArrayOrEmpty(mediaPaths)
		item.Exercise.URLs = textArrayOrEmpty(urls)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	return out, nil
}

func (s *RoutinesStore) SetRoutineStatus(ctx context.Context, routineID, userID string, status domain.RoutineStatus) (domain.Routine, error) {
	const q = `
		UPDATE routines
		SET status = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, exercise_id, status, favorite, created_at, updated_at
	`

	routine, err := scanRoutine(s.pool.QueryRow(ctx, q, routineID, userID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Routine{}, domain.ErrNotFound
		}
		return domain.Routine{}, fmt.Errorf("set routine status: %w", err)
	}
	return routine, nil
}

func (s *RoutinesStore) SetRoutineFavorite(ctx context.Context, routineID, userID string, favorite bool) (domain.Routine, error) {
	const q = `
		UPDATE routines
		SET favorite = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, exercise_id, status, favorite, created_at, updated_at
	`

	routine, err := scanRoutine(s.pool.QueryRow(ctx, q, routineID, userID, favorite))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Routine{}, domain.ErrNotFound
		}
		return domain.Routine{}, fmt.Errorf("set routine favorite: %w", err)
	}
	return routine, nil
}

func (s *RoutinesStore) DeleteRoutine(ctx context.Context, routineID, userID string) error {
	const q = `
		DELETE FROM routines
		WHERE id = $1 AND user_id = $2
	`
	tag, err := s.pool.Exec(ctx, q, routineID, userID)
	if err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRoutine(row rowScanner) (domain.Routine, error) {
	var (
		routine  domain.Routine
		idUUID   pgtype.UUID
		userUUID pgtype.UUID
		exUUID   pgtype.UUID
	)
	err := row.Scan(
		&idUUID,
		&userUUID,
		&exUUID,
		&routine.Status,
		&routine.Favorite,
		&routine.CreatedAt,
		&routine.UpdatedAt,
	)
	if err != nil {
		return domain.Routine{}, err
	}
	routine.ID = uuidOrEmpty(idUUID)
	routine.UserID = uuidOrEmpty(userUUID)
	routine.ExerciseID = uuidOrEmpty(exUUID)
	return routine, nil
}
