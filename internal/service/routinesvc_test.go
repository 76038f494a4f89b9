package service

import (
	"context"
	"errors"
	"testing"

	"fitroomserver/internal/domain"
)

type stubRoutinesStore struct {
	createFunc      func(context.Context, string, string) (domain.Routine, error)
	getFunc         func(context.Context, string, string) (domain.Routine, error)
	listFunc        func(context.Context, string) ([]domain.RoutineWithExercise, error)
	setStatusFunc   func(context.Context, string, string, domain.RoutineStatus) (domain.Routine, error)
	setFavoriteFunc func(context.Context, string, string, bool) (domain.Routine, error)
	deleteFunc      func(context.Context, string, string) error
}

func (s *stubRoutinesStore) CreateRoutine(ctx context.Context, userID, exerciseID string) (domain.Routine, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, userID, exerciseID)
	}
	return domain.Routine{}, errors.New("create not stubbed")
}

func (s *stubRoutinesStore) GetRoutine(ctx context.Context, routineID, userID string) (domain.Routine, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, routineID, userID)
	}
	return domain.Routine{}, errors.New("get not stubbed")
}

func (s *stubRoutinesStore) ListRoutinesForUser(ctx context.Context, userID string) ([]domain.RoutineWithExercise, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, userID)
	}
	return nil, errors.New("list not stubbed")
}

func (s *stubRoutinesStore) SetRoutineStatus(ctx context.Context, routineID, userID string, status domain.RoutineStatus) (domain.Routine, error) {
	if s.setStatusFunc != nil {
		return s.setStatusFunc(ctx, routineID, userID, status)
	}
	return domain.Routine{}, errors.New("set status not stubbed")
}

func (s *stubRoutinesStore) SetRoutineFavorite(ctx context.Context, routineID, userID string, favorite bool) (domain.Routine, error) {
	if s.setFavoriteFunc != nil {
		return s.setFavoriteFunc(ctx, routineID, userID, favorite)
	}
	return domain.Routine{}, errors.New("set favorite not stubbed")
}

func (s *stubRoutinesStore) DeleteRoutine(ctx context.Context, routineID, userID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, routineID, userID)
	}
	return errors.New("delete not stubbed")
}

func TestRoutineAddRequiresRoomAccess(t *testing.T) {
	svc := &RoutineService{
		Routines: &stubRoutinesStore{},
		Exercises: &stubExercisesStore{
			getFunc: func(_ context.Context, exerciseID string) (domain.Exercise, error) {
				return domain.Exercise{ID: exerciseID, RoomID: "room-1", Title: "Plank"}, nil
			},
		},
		Rooms: &stubRoomsStore{
			getFunc: func(_ context.Context, roomID string) (domain.Room, error) {
				return domain.Room{ID: roomID, OwnerID: "trainer-1"}, nil
			},
		},
		Members: &stubRoomMembersStore{
			isMemberFunc: func(context.Context, string, string) (bool, error) {
				return false, nil
			},
		},
	}

	_, err := svc.Add(context.Background(), "stranger-1", "ex-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRoutineAddAsMember(t *testing.T) {
	svc := &RoutineService{
		Routines: &stubRoutinesStore{
			createFunc: func(_ context.Context, userID, exerciseID string) (domain.Routine, error) {
				if userID != "trainee-1" || exerciseID != "ex-1" {
					t.Fatalf("unexpected create args: %s %s", userID, exerciseID)
				}
				return domain.Routine{ID: "rt-1", UserID: userID, ExerciseID: exerciseID, Status: domain.RoutineInProgress}, nil
			},
		},
		Exercises: &stubExercisesStore{
			getFunc: func(_ context.Context, exerciseID string) (domain.Exercise, error) {
				return domain.Exercise{ID: exerciseID, RoomID: "room-1", Title: "Plank"}, nil
			},
		},
		Rooms: &stubRoomsStore{
			getFunc: func(_ context.Context, roomID string) (domain.Room, error) {
				return domain.Room{ID: roomID, OwnerID: "trainer-1"}, nil
			},
		},
		Members: &stubRoomMembersStore{
			isMemberFunc: func(_ context.Context, roomID, userID string) (bool, error) {
				if roomID != "room-1" || userID != "trainee-1" {
					t.Fatalf("unexpected membership check: %s %s", roomID, userID)
				}
				return true, nil
			},
		},
	}

	rt, err := svc.Add(context.Background(), "trainee-1", "ex-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rt.ID != "rt-1" || rt.Status != domain.RoutineInProgress {
		t.Fatalf("unexpected routine: %+v", rt)
	}
}

func TestRoutineAddDuplicateReportsConflict(t *testing.T) {
	svc := &RoutineService{
		Routines: &stubRoutinesStore{
			createFunc: func(context.Context, string, string) (domain.Routine, error) {
				return domain.Routine{}, domain.ErrRoutineExists
			},
		},
		Exercises: &stubExercisesStore{
			getFunc: func(_ context.Context, exerciseID string) (domain.Exercise, error) {
				return domain.Exercise{ID: exerciseID, RoomID: "room-1"}, nil
			},
		},
		Rooms: &stubRoomsStore{
			getFunc: func(_ context.Context, roomID string) (domain.Room, error) {
				return domain.Room{ID: roomID, OwnerID: "trainee-1"}, nil
			},
		},
		Members: &stubRoomMembersStore{},
	}

	_, err := svc.Add(context.Background(), "trainee-1", "ex-1")
	if !errors.Is(err, domain.ErrRoutineExists) {
		t.Fatalf("expected routine exists, got %v", err)
	}
}

func TestRoutineSetStatusValidation(t *testing.T) {
	called := false
	svc := &RoutineService{
		Routines: &stubRoutinesStore{
			setStatusFunc: func(_ context.Context, routineID, userID string, status domain.RoutineStatus) (domain.Routine, error) {
				called = true
				return domain.Routine{ID: routineID, UserID: userID, Status: status}, nil
			},
		},
	}

	_, err := svc.SetStatus(context.Background(), "rt-1", "trainee-1", "paused")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("store should not be called for an invalid status")
	}

	rt, err := svc.SetStatus(context.Background(), "rt-1", "trainee-1", "completed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rt.Status != domain.RoutineCompleted {
		t.Fatalf("unexpected status: %s", rt.Status)
	}
}
