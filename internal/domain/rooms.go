package domain

import "time"

// Room is a trainer-owned class that trainees join via a short code.
type Room struct {
	ID        string
	Name      string
	Code      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomWithCounts decorates a room with aggregate counts for list views.
type RoomWithCounts struct {
	Room
	ExerciseCount int
	TraineeCount  int
}

type RoomMember struct {
	ID       string
	RoomID   string
	UserID   string
	Username string
	JoinedAt time.Time
}

type RoomTotals struct {
	TotalRooms     int
	TotalExercises int
	TotalTrainees  int
}
