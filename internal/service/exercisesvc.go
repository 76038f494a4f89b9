package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fitroomserver/internal/domain"
)

const (
	maxExerciseMedia = 4
	maxExerciseURLs  = 2
)

type ExercisesStore interface {
	CreateExercise(ctx context.Context, ex domain.Exercise) (domain.Exercise, error)
	GetExercise(ctx context.Context, exerciseID string) (domain.Exercise, error)
	ListExercisesByRoom(ctx context.Context, roomID string) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, ex domain.Exercise) (domain.Exercise, error)
	DeleteExercise(ctx context.Context, exerciseID string) error
}

// Notifier is the dispatch entry point the exercise trigger uses. Results are
// advisory; a delivery problem must never surface as an exercise error.
type Notifier interface {
	SendToMultipleUsers(ctx context.Context, userIDs []string, title, body string, data map[string]string) map[string]domain.SendResult
}

// ExerciseInput carries the writable fields for create and update.
type ExerciseInput struct {
	Title        string
	Type         string
	Instructions string
	Difficulty   string
	MediaPaths   []string
	URLs         []string
}

type ExerciseService struct {
	Exercises ExercisesStore
	Rooms     RoomsStore
	Members   RoomMembersStore
	Notifier  Notifier
	Logger    *slog.Logger
}

func (s *ExerciseService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func validateExerciseInput(in ExerciseInput) (ExerciseInput, error) {
	fields := map[string]string{}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		fields["title"] = "required"
	} else if len(in.Title) > 150 {
		fields["title"] = "must be at most 150 characters"
	}

	in.Type = strings.TrimSpace(in.Type)
	in.Instructions = strings.TrimSpace(in.Instructions)

	in.Difficulty = strings.ToLower(strings.TrimSpace(in.Difficulty))
	switch domain.ExerciseDifficulty(in.Difficulty) {
	case "", domain.DifficultyBeginner, domain.DifficultyIntermediate, domain.DifficultyAdvanced:
	default:
		fields["difficulty"] = "must be beginner, intermediate or advanced"
	}

	if len(in.MediaPaths) > maxExerciseMedia {
		fields["media"] = fmt.Sprintf("at most %d media files", maxExerciseMedia)
	}
	if len(in.URLs) > maxExerciseURLs {
		fields["urls"] = fmt.Sprintf("at most %d external urls", maxExerciseURLs)
	}

	if len(fields) > 0 {
		return ExerciseInput{}, domain.NewValidationError(fields)
	}
	return in, nil
}

// Create stores the exercise in an owned room and then notifies every room
// trainee. The notification fan-out is best effort.
func (s *ExerciseService) Create(ctx context.Context, roomID, ownerID string, in ExerciseInput) (domain.Exercise, error) {
	in, err := validateExerciseInput(in)
	if err != nil {
		return domain.Exercise{}, err
	}

	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Exercise{}, err
	}
	if room.OwnerID != ownerID {
		return domain.Exercise{}, domain.ErrNotFound
	}

	ex, err := s.Exercises.CreateExercise(ctx, domain.Exercise{
		RoomID:       roomID,
		Title:        in.Title,
		Type:         in.Type,
		Instructions: in.Instructions,
		Difficulty:   domain.ExerciseDifficulty(in.Difficulty),
		MediaPaths:   in.MediaPaths,
		URLs:         in.URLs,
	})
	if err != nil {
		return domain.Exercise{}, err
	}

	s.notifyNewExercise(ctx, room, ex)
	return ex, nil
}

func (s *ExerciseService) notifyNewExercise(ctx context.Context, room domain.Room, ex domain.Exercise) {
	if s.Notifier == nil {
		return
	}

	traineeIDs, err := s.Members.ListMemberUserIDs(ctx, room.ID)
	if err != nil {
		s.logger().Error("list room trainees for notification failed", "err", err, "room_id", room.ID)
		return
	}
	if len(traineeIDs) == 0 {
		return
	}

	results := s.Notifier.SendToMultipleUsers(ctx, traineeIDs, "New exercise available",
		fmt.Sprintf("%s was added to %s", ex.Title, room.Name),
		map[string]string{
			"type":        "new_exercise",
			"exercise_id": ex.ID,
			"room_id":     room.ID,
			"room_name":   room.Name,
		})

	var sent, failed int
	for _, r := range results {
		sent += r.Sent
		failed += r.Failed
	}
	s.logger().Info("new exercise notifications dispatched",
		"room_id", room.ID, "exercise_id", ex.ID,
		"recipients", len(traineeIDs), "sent", sent, "failed", failed)
}

// Get returns the exercise when the caller owns the room or is a member of it.
func (s *ExerciseService) Get(ctx context.Context, exerciseID, userID string) (domain.Exercise, error) {
	ex, err := s.Exercises.GetExercise(ctx, exerciseID)
	if err != nil {
		return domain.Exercise{}, err
	}
	if err := s.requireRoomAccess(ctx, ex.RoomID, userID); err != nil {
		return domain.Exercise{}, err
	}
	return ex, nil
}

func (s *ExerciseService) ListByRoom(ctx context.Context, roomID, userID string) ([]domain.Exercise, error) {
	if err := s.requireRoomAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.Exercises.ListExercisesByRoom(ctx, roomID)
}

func (s *ExerciseService) Update(ctx context.Context, exerciseID, ownerID string, in ExerciseInput) (domain.Exercise, error) {
	in, err := validateExerciseInput(in)
	if err != nil {
		return domain.Exercise{}, err
	}

	ex, err := s.ownedExercise(ctx, exerciseID, ownerID)
	if err != nil {
		return domain.Exercise{}, err
	}

	ex.Title = in.Title
	ex.Type = in.Type
	ex.Instructions = in.Instructions
	ex.Difficulty = domain.ExerciseDifficulty(in.Difficulty)
	ex.MediaPaths = in.MediaPaths
	ex.URLs = in.URLs
	return s.Exercises.UpdateExercise(ctx, ex)
}

func (s *ExerciseService) Delete(ctx context.Context, exerciseID, ownerID string) error {
	if _, err := s.ownedExercise(ctx, exerciseID, ownerID); err != nil {
		return err
	}
	return s.Exercises.DeleteExercise(ctx, exerciseID)
}

func (s *ExerciseService) ownedExercise(ctx context.Context, exerciseID, ownerID string) (domain.Exercise, error) {
	ex, err := s.Exercises.GetExercise(ctx, exerciseID)
	if err != nil {
		return domain.Exercise{}, err
	}
	room, err := s.Rooms.GetRoom(ctx, ex.RoomID)
	if err != nil {
		return domain.Exercise{}, err
	}
	if room.OwnerID != ownerID {
		return domain.Exercise{}, domain.ErrNotFound
	}
	return ex, nil
}

func (s *ExerciseService) requireRoomAccess(ctx context.Context, roomID, userID string) error {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID == userID {
		return nil
	}
	member, err := s.Members.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return domain.ErrNotFound
	}
	return nil
}
