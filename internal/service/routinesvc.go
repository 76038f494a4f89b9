package service

import (
	"context"

	"fitroomserver/internal/domain"
)

type RoutinesStore interface {
	CreateRoutine(ctx context.Context, userID, exerciseID string) (domain.Routine, error)
	GetRoutine(ctx context.Context, routineID, userID string) (domain.Routine, error)
	ListRoutinesForUser(ctx context.Context, userID string) ([]domain.RoutineWithExercise, error)
	SetRoutineStatus(ctx context.Context, routineID, userID string, status domain.RoutineStatus) (domain.Routine, error)
	SetRoutineFavorite(ctx context.Context, routineID, userID string, favorite bool) (domain.Routine, error)
	DeleteRoutine(ctx context.Context, routineID, userID string) error
}

// RoutineService tracks a trainee's personal progress over exercises.
type RoutineService struct {
	Routines  RoutinesStore
	Exercises ExercisesStore
	Rooms     RoomsStore
	Members   RoomMembersStore
}

// Add starts tracking an exercise. The user must still have access to the
// exercise's room; adding the same exercise twice is a conflict.
func (s *RoutineService) Add(ctx context.Context, userID, exerciseID string) (domain.Routine, error) {
	ex, err := s.Exercises.GetExercise(ctx, exerciseID)
	if err != nil {
		return domain.Routine{}, err
	}

	room, err := s.Rooms.GetRoom(ctx, ex.RoomID)
	if err != nil {
		return domain.Routine{}, err
	}
	if room.OwnerID != userID {
		member, err := s.Members.IsMember(ctx, ex.RoomID, userID)
		if err != nil {
			return domain.Routine{}, err
		}
		if !member {
			return domain.Routine{}, domain.ErrNotFound
		}
	}

	return s.Routines.CreateRoutine(ctx, userID, exerciseID)
}

func (s *RoutineService) ListMine(ctx context.Context, userID string) ([]domain.RoutineWithExercise, error) {
	return s.Routines.ListRoutinesForUser(ctx, userID)
}

func (s *RoutineService) SetStatus(ctx context.Context, routineID, userID, status string) (domain.Routine, error) {
	switch domain.RoutineStatus(status) {
	case domain.RoutineInProgress, domain.RoutineCompleted:
	default:
		return domain.Routine{}, domain.NewValidationError(map[string]string{"status": "must be in_progress or completed"})
	}
	return s.Routines.SetRoutineStatus(ctx, routineID, userID, domain.RoutineStatus(status))
}

func (s *RoutineService) SetFavorite(ctx context.Context, routineID, userID string, favorite bool) (domain.Routine, error) {
	return s.Routines.SetRoutineFavorite(ctx, routineID, userID, favorite)
}

func (s *RoutineService) Remove(ctx context.Context, routineID, userID string) error {
	return s.Routines.DeleteRoutine(ctx, routineID, userID)
}
