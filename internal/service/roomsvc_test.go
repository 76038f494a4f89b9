package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fitroomserver/internal/domain"
)

type stubRoomsStore struct {
	createFunc       func(context.Context, string, string, string) (domain.Room, error)
	getFunc          func(context.Context, string) (domain.Room, error)
	getByCodeFunc    func(context.Context, string) (domain.Room, error)
	listByOwnerFunc  func(context.Context, string) ([]domain.RoomWithCounts, error)
	listByMemberFunc func(context.Context, string) ([]domain.RoomWithCounts, error)
	renameFunc       func(context.Context, string, string) (domain.Room, error)
	deleteFunc       func(context.Context, string) error
	totalsFunc       func(context.Context, string) (domain.RoomTotals, error)
}

func (s *stubRoomsStore) CreateRoom(ctx context.Context, name, code, ownerID string) (domain.Room, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, name, code, ownerID)
	}
	return domain.Room{}, errors.New("create not stubbed")
}

func (s *stubRoomsStore) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, roomID)
	}
	return domain.Room{}, errors.New("get not stubbed")
}

func (s *stubRoomsStore) GetRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	if s.getByCodeFunc != nil {
		return s.getByCodeFunc(ctx, code)
	}
	return domain.Room{}, errors.New("get by code not stubbed")
}

func (s *stubRoomsStore) ListRoomsByOwner(ctx context.Context, ownerID string) ([]domain.RoomWithCounts, error) {
	if s.listByOwnerFunc != nil {
		return s.listByOwnerFunc(ctx, ownerID)
	}
	return nil, errors.New("list by owner not stubbed")
}

func (s *stubRoomsStore) ListRoomsByMember(ctx context.Context, userID string) ([]domain.RoomWithCounts, error) {
	if s.listByMemberFunc != nil {
		return s.listByMemberFunc(ctx, userID)
	}
	return nil, errors.New("list by member not stubbed")
}

func (s *stubRoomsStore) RenameRoom(ctx context.Context, roomID, name string) (domain.Room, error) {
	if s.renameFunc != nil {
		return s.renameFunc(ctx, roomID, name)
	}
	return domain.Room{}, errors.New("rename not stubbed")
}

func (s *stubRoomsStore) DeleteRoom(ctx context.Context, roomID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, roomID)
	}
	return errors.New("delete not stubbed")
}

func (s *stubRoomsStore) GetOwnerTotals(ctx context.Context, ownerID string) (domain.RoomTotals, error) {
	if s.totalsFunc != nil {
		return s.totalsFunc(ctx, ownerID)
	}
	return domain.RoomTotals{}, errors.New("totals not stubbed")
}

type stubRoomMembersStore struct {
	addFunc         func(context.Context, string, string) (domain.RoomMember, error)
	removeFunc      func(context.Context, string, string) error
	isMemberFunc    func(context.Context, string, string) (bool, error)
	listFunc        func(context.Context, string) ([]domain.RoomMember, error)
	listUserIDsFunc func(context.Context, string) ([]string, error)
}

func (s *stubRoomMembersStore) AddMember(ctx context.Context, roomID, userID string) (domain.RoomMember, error) {
	if s.addFunc != nil {
		return s.addFunc(ctx, roomID, userID)
	}
	return domain.RoomMember{}, errors.New("add not stubbed")
}

func (s *stubRoomMembersStore) RemoveMember(ctx context.Context, roomID, userID string) error {
	if s.removeFunc != nil {
		return s.removeFunc(ctx, roomID, userID)
	}
	return errors.New("remove not stubbed")
}

func (s *stubRoomMembersStore) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	if s.isMemberFunc != nil {
		return s.isMemberFunc(ctx, roomID, userID)
	}
	return false, errors.New("is member not stubbed")
}

func (s *stubRoomMembersStore) ListMembers(ctx context.Context, roomID string) ([]domain.RoomMember, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, roomID)
	}
	return nil, errors.New("list members not stubbed")
}

func (s *stubRoomMembersStore) ListMemberUserIDs(ctx context.Context, roomID string) ([]string, error) {
	if s.listUserIDsFunc != nil {
		return s.listUserIDsFunc(ctx, roomID)
	}
	return nil, errors.New("list member ids not stubbed")
}

func TestRoomCreateGeneratesValidCode(t *testing.T) {
	var gotCode string
	svc := &RoomService{
		Rooms: &stubRoomsStore{
			createFunc: func(_ context.Context, name, code, ownerID string) (domain.Room, error) {
				gotCode = code
				return domain.Room{ID: "room-1", Name: name, Code: code, OwnerID: ownerID}, nil
			},
		},
	}

	room, err := svc.Create(context.Background(), "owner-1", "  Morning HIIT  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.Name != "Morning HIIT" {
		t.Fatalf("expected trimmed name, got %q", room.Name)
	}
	if len(gotCode) != 7 {
		t.Fatalf("expected 7-char code, got %q", gotCode)
	}
	for _, r := range gotCode {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			t.Fatalf("code %q contains %q outside the alphabet", gotCode, r)
		}
	}
}

func TestRoomCreateRetriesOnCodeCollision(t *testing.T) {
	attempts := 0
	codes := map[string]bool{}
	svc := &RoomService{
		Rooms: &stubRoomsStore{
			createFunc: func(_ context.Context, name, code, ownerID string) (domain.Room, error) {
				attempts++
				codes[code] = true
				if attempts < 3 {
					return domain.Room{}, domain.ErrRoomCodeTaken
				}
				return domain.Room{ID: "room-1", Code: code}, nil
			},
		},
	}

	room, err := svc.Create(context.Background(), "owner-1", "Strength")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if room.ID != "room-1" {
		t.Fatalf("unexpected room: %+v", room)
	}
	if len(codes) != 3 {
		t.Fatalf("expected a fresh code per attempt, got %v", codes)
	}
}

func TestRoomCreateRejectsShortName(t *testing.T) {
	svc := &RoomService{Rooms: &stubRoomsStore{}}

	if _, err := svc.Create(context.Background(), "owner-1", " x "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRoomJoinByCode(t *testing.T) {
	added := false
	svc := &RoomService{
		Rooms: &stubRoomsStore{
			getByCodeFunc: func(_ context.Context, code string) (domain.Room, error) {
				if code != "ABCD234" {
					t.Fatalf("expected normalized code, got %q", code)
				}
				return domain.Room{ID: "room-1", OwnerID: "owner-1", Code: code}, nil
			},
		},
		Members: &stubRoomMembersStore{
			addFunc: func(_ context.Context, roomID, userID string) (domain.RoomMember, error) {
				added = true
				if roomID != "room-1" || userID != "trainee-1" {
					t.Fatalf("unexpected add args: %s %s", roomID, userID)
				}
				return domain.RoomMember{RoomID: roomID, UserID: userID}, nil
			},
		},
	}

	room, err := svc.Join(context.Background(), "trainee-1", " abcd234 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.ID != "room-1" || !added {
		t.Fatalf("unexpected join result: %+v added=%v", room, added)
	}
}

func TestRoomJoinRejectsOwnRoom(t *testing.T) {
	svc := &RoomService{
		Rooms: &stubRoomsStore{
			getByCodeFunc: func(_ context.Context, code string) (domain.Room, error) {
				return domain.Room{ID: "room-1", OwnerID: "owner-1", Code: code}, nil
			},
		},
		Members: &stubRoomMembersStore{},
	}

	if _, err := svc.Join(context.Background(), "owner-1", "ABCD234"); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected already member, got %v", err)
	}
}

func TestRoomJoinUnknownCode(t *testing.T) {
	svc := &RoomService{
		Rooms: &stubRoomsStore{
			getByCodeFunc: func(context.Context, string) (domain.Room, error) {
				return domain.Room{}, domain.ErrNotFound
			},
		},
		Members: &stubRoomMembersStore{},
	}

	if _, err := svc.Join(context.Background(), "trainee-1", "ZZZZZZZ"); !errors.Is(err, domain.ErrRoomCodeInvalid) {
		t.Fatalf("expected invalid code, got %v", err)
	}
	if _, err := svc.Join(context.Background(), "trainee-1", "short"); !errors.Is(err, domain.ErrRoomCodeInvalid) {
		t.Fatalf("expected invalid code for wrong length, got %v", err)
	}
}

func TestRoomRenameByNonOwnerIsNotFound(t *testing.T) {
	svc := &RoomService{
		Rooms: &stubRoomsStore{
			getFunc: func(context.Context, string) (domain.Room, error) {
				return domain.Room{ID: "room-1", OwnerID: "owner-1"}, nil
			},
		},
	}

	if _, err := svc.Rename(context.Background(), "room-1", "intruder", "New Name"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRoomMembersVisibleToOwnerOnly(t *testing.T) {
	svc := &RoomService{
		Rooms: &stubRoomsStore{
			getFunc: func(context.Context, string) (domain.Room, error) {
				return domain.Room{ID: "room-1", OwnerID: "owner-1"}, nil
			},
		},
		Members: &stubRoomMembersStore{
			listFunc: func(context.Context, string) ([]domain.RoomMember, error) {
				return []domain.RoomMember{{UserID: "trainee-1", Username: "sam"}}, nil
			},
		},
	}

	members, err := svc.ListMembers(context.Background(), "room-1", "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 || members[0].Username != "sam" {
		t.Fatalf("unexpected members: %+v", members)
	}

	if _, err := svc.ListMembers(context.Background(), "room-1", "trainee-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for non-owner, got %v", err)
	}
}
