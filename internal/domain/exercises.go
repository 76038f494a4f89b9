package domain

import "time"

type ExerciseDifficulty string

const (
	DifficultyBeginner     ExerciseDifficulty = "beginner"
	DifficultyIntermediate ExerciseDifficulty = "intermediate"
	DifficultyAdvanced     ExerciseDifficulty = "advanced"
)

type Exercise struct {
	ID           string
	RoomID       string
	Title        string
	Type         string
	Instructions string
	Difficulty   ExerciseDifficulty
	MediaPaths   []string
	URLs         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RoutineStatus string

const (
	RoutineInProgress RoutineStatus = "in_progress"
	RoutineCompleted  RoutineStatus = "completed"
)

// Routine is one trainee's personal tracking entry over an exercise.
type Routine struct {
	ID         string
	UserID     string
	ExerciseID string
	Status     RoutineStatus
	Favorite   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type RoutineWithExercise struct {
	Routine
	Exercise Exercise
}
