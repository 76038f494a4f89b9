package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"fitroomserver/internal/domain"
)

// roomCodeAlphabet skips easily confused glyphs (O/0, I/1).
const (
	roomCodeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength    = 7
	roomCodeAttempts  = 5
	roomNameMinLength = 2
	roomNameMaxLength = 100
)

type RoomsStore interface {
	CreateRoom(ctx context.Context, name, code, ownerID string) (domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (domain.Room, error)
	ListRoomsByOwner(ctx context.Context, ownerID string) ([]domain.RoomWithCounts, error)
	ListRoomsByMember(ctx context.Context, userID string) ([]domain.RoomWithCounts, error)
	RenameRoom(ctx context.Context, roomID, name string) (domain.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
	GetOwnerTotals(ctx context.Context, ownerID string) (domain.RoomTotals, error)
}

type RoomMembersStore interface {
	AddMember(ctx context.Context, roomID, userID string) (domain.RoomMember, error)
	RemoveMember(ctx context.Context, roomID, userID string) error
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
	ListMembers(ctx context.Context, roomID string) ([]domain.RoomMember, error)
	ListMemberUserIDs(ctx context.Context, roomID string) ([]string, error)
}

// RoomService manages trainer-owned rooms and their trainee membership.
type RoomService struct {
	Rooms   RoomsStore
	Members RoomMembersStore
}

func validateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < roomNameMinLength {
		return "", domain.NewValidationError(map[string]string{"name": fmt.Sprintf("must be at least %d characters", roomNameMinLength)})
	}
	if len(name) > roomNameMaxLength {
		return "", domain.NewValidationError(map[string]string{"name": fmt.Sprintf("must be at most %d characters", roomNameMaxLength)})
	}
	return name, nil
}

func generateRoomCode() (string, error) {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf), nil
}

func (s *RoomService) Create(ctx context.Context, ownerID, name string) (domain.Room, error) {
	name, err := validateRoomName(name)
	if err != nil {
		return domain.Room{}, err
	}

	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		code, err := generateRoomCode()
		if err != nil {
			return domain.Room{}, err
		}
		room, err := s.Rooms.CreateRoom(ctx, name, code, ownerID)
		if errors.Is(err, domain.ErrRoomCodeTaken) {
			continue
		}
		if err != nil {
			return domain.Room{}, err
		}
		return room, nil
	}
	return domain.Room{}, fmt.Errorf("create room: exhausted %d code attempts", roomCodeAttempts)
}

// ListMine returns rooms the user owns plus rooms they joined as a trainee.
type RoomOverview struct {
	Owned  []domain.RoomWithCounts
	Joined []domain.RoomWithCounts
}

func (s *RoomService) ListMine(ctx context.Context, userID string) (RoomOverview, error) {
	owned, err := s.Rooms.ListRoomsByOwner(ctx, userID)
	if err != nil {
		return RoomOverview{}, err
	}
	joined, err := s.Rooms.ListRoomsByMember(ctx, userID)
	if err != nil {
		return RoomOverview{}, err
	}
	return RoomOverview{Owned: owned, Joined: joined}, nil
}

func (s *RoomService) Get(ctx context.Context, roomID, userID string) (domain.Room, error) {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if room.OwnerID == userID {
		return room, nil
	}
	member, err := s.Members.IsMember(ctx, roomID, userID)
	if err != nil {
		return domain.Room{}, err
	}
	if !member {
		return domain.Room{}, domain.ErrNotFound
	}
	return room, nil
}

func (s *RoomService) Rename(ctx context.Context, roomID, ownerID, name string) (domain.Room, error) {
	name, err := validateRoomName(name)
	if err != nil {
		return domain.Room{}, err
	}
	if _, err := s.ownedRoom(ctx, roomID, ownerID); err != nil {
		return domain.Room{}, err
	}
	return s.Rooms.RenameRoom(ctx, roomID, name)
}

func (s *RoomService) Delete(ctx context.Context, roomID, ownerID string) error {
	if _, err := s.ownedRoom(ctx, roomID, ownerID); err != nil {
		return err
	}
	return s.Rooms.DeleteRoom(ctx, roomID)
}

// Join adds the user to the room matching the code. Owners cannot join
// their own room, and joining twice is reported as a conflict.
func (s *RoomService) Join(ctx context.Context, userID, code string) (domain.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != roomCodeLength {
		return domain.Room{}, domain.ErrRoomCodeInvalid
	}

	room, err := s.Rooms.GetRoomByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Room{}, domain.ErrRoomCodeInvalid
		}
		return domain.Room{}, err
	}
	if room.OwnerID == userID {
		return domain.Room{}, domain.ErrAlreadyMember
	}

	if _, err := s.Members.AddMember(ctx, room.ID, userID); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (s *RoomService) Leave(ctx context.Context, roomID, userID string) error {
	if _, err := s.Rooms.GetRoom(ctx, roomID); err != nil {
		return err
	}
	return s.Members.RemoveMember(ctx, roomID, userID)
}

func (s *RoomService) ListMembers(ctx context.Context, roomID, ownerID string) ([]domain.RoomMember, error) {
	if _, err := s.ownedRoom(ctx, roomID, ownerID); err != nil {
		return nil, err
	}
	return s.Members.ListMembers(ctx, roomID)
}

func (s *RoomService) Totals(ctx context.Context, ownerID string) (domain.RoomTotals, error) {
	return s.Rooms.GetOwnerTotals(ctx, ownerID)
}

func (s *RoomService) ownedRoom(ctx context.Context, roomID, ownerID string) (domain.Room, error) {
	room, err := s.Rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if room.OwnerID != ownerID {
		return domain.Room{}, domain.ErrNotFound
	}
	return room, nil
}
