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

type ExercisesStore struct {
	pool *pgxpool.Pool
}

func NewExercisesStore(pool *pgxpool.Pool) *ExercisesStore {
	return &ExercisesStore{pool: pool}
}

const exerciseColumns = "id, room_id, title, type, instructions, difficulty, media_paths, urls, created_at, updated_at"

func (s *ExercisesStore) CreateExercise(ctx context.Context, ex domain.Exercise) (domain.Exercise, error) {
	const q = `
		INSERT INTO exercises (room_id, title, type, instructions, difficulty, media_paths, urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + exerciseColumns

	out, err := scanExercise(s.pool.QueryRow(ctx, q,
		ex.RoomID,
		ex.Title,
		nullIfEmpty(ex.Type),
		nullIfEmpty(ex.Instructions),
		nullIfEmpty(string(ex.Difficulty)),
		ex.MediaPaths,
		ex.URLs,
	))
	if err != nil {
		return domain.Exercise{}, fmt.Errorf("create exercise: %w", err)
	}
	return out, nil
}

func (s *ExercisesStore) GetExercise(ctx context.Context, exerciseID string) (domain.Exercise, error) {
	const q = `
		SELECT ` + exerciseColumns + `
		FROM exercises
		WHERE id = $1
	`

	out, err := scanExercise(s.pool.QueryRow(ctx, q, exerciseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Exercise{}, domain.ErrNotFound
		}
		return domain.Exercise{}, fmt.Errorf("get exercise: %w", err)
	}
	return out, nil
}

func (s *ExercisesStore) ListExercisesByRoom(ctx context.Context, roomID string) ([]domain.Exercise, error) {
	const q = `
		SELECT ` + exerciseColumns + `
		FROM exercises
		WHERE room_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var out []domain.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return out, nil
}

func (s *ExercisesStore) UpdateExercise(ctx context.Context, ex domain.Exercise) (domain.Exercise, error) {
	const q = `
		UPDATE exercises
		SET title = $2, type = $3, instructions = $4, difficulty = $5,
		    media_paths = $6, urls = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + exerciseColumns

	out, err := scanExercise(s.pool.QueryRow(ctx, q,
		ex.ID,
		ex.Title,
		nullIfEmpty(ex.Type),
		nullIfEmpty(ex.Instructions),
		nullIfEmpty(string(ex.Difficulty)),
		ex.MediaPaths,
		ex.URLs,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Exercise{}, domain.ErrNotFound
		}
		return domain.Exercise{}, fmt.Errorf("update exercise: %w", err)
	}
	return out, nil
}

func (s *ExercisesStore) DeleteExercise(ctx context.Context, exerciseID string) error {
	const q = `DELETE FROM exercises WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, exerciseID)
	if err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanExercise(row rowScanner) (domain.Exercise, error) {
	var (
		ex           domain.Exercise
		idUUID       pgtype.UUID
		roomUUID     pgtype.UUID
		typeText     pgtype.Text
		instructions pgtype.Text
		difficulty   pgtype.Text
		mediaPaths   pgtype.FlatArray[string]
		urls         pgtype.FlatArray[string]
	)
	err := row.Scan(
		&idUUID,
		&roomUUID,
		&ex.Title,
		&typeText,
		&instructions,
		&difficulty,
		&mediaPaths,
		&urls,
		&ex.CreatedAt,
		&ex.UpdatedAt,
	)
	if err != nil {
		return domain.Exercise{}, err
	}
	ex.ID = uuidOrEmpty(idUUID)
	ex.RoomID = uuidOrEmpty(roomUUID)
	ex.Type = textOrEmpty(typeText)
	ex.Instructions = textOrEmpty(instructions)
	ex.Difficulty = domain.ExerciseDifficulty(textOrEmpty(difficulty))
	ex.MediaPaths = textArrayOrEmpty(mediaPaths)
	ex.URLs = textArrayOrEmpty(urls)
	return ex, nil
}
