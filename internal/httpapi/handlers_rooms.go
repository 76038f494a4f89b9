package httpapi

import (
	"net/http"
	"time"

	"fitroomserver/internal/domain"
)

type roomResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code,omitempty"`
	OwnerID       string    `json:"owner_id"`
	ExerciseCount *int      `json:"exercise_count,omitempty"`
	TraineeCount  *int      `json:"trainee_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     string    `json:"updated_at"`
}

// The join code is only disclosed to the room owner.
func roomToResponse(room domain.Room, viewerID string) roomResponse {
	resp := roomResponse{
		ID:        room.ID,
		Name:      room.Name,
		OwnerID:   room.OwnerID,
		CreatedAt: room.CreatedAt,
		UpdatedAt: formatMillis(room.UpdatedAt),
	}
	if room.OwnerID == viewerID {
		resp.Code = room.Code
	}
	return resp
}

func roomWithCountsToResponse(room domain.RoomWithCounts, viewerID string) roomResponse {
	resp := roomToResponse(room.Room, viewerID)
	exercises, trainees := room.ExerciseCount, room.TraineeCount
	resp.ExerciseCount = &exercises
	resp.TraineeCount = &trainees
	return resp
}

type createRoomRequest struct {
	Name string `json:"name"`
}

func (a *api) handleRoomsCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	room, err := a.roomSvc.Create(r.Context(), u.ID, req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, roomToResponse(room, u.ID))
}

type roomListResponse struct {
	Owned  []roomResponse `json:"owned"`
	Joined []roomResponse `json:"joined"`
}

func (a *api) handleRoomsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	overview, err := a.roomSvc.ListMine(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := roomListResponse{
		Owned:  make([]roomResponse, 0, len(overview.Owned)),
		Joined: make([]roomResponse, 0, len(overview.Joined)),
	}
	for _, room := range overview.Owned {
		resp.Owned = append(resp.Owned, roomWithCountsToResponse(room, u.ID))
	}
	for _, room := range overview.Joined {
		resp.Joined = append(resp.Joined, roomWithCountsToResponse(room, u.ID))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (a *api) handleRoomsGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	room, err := a.roomSvc.Get(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, roomToResponse(room, u.ID))
}

type renameRoomRequest struct {
	Name string `json:"name"`
}

func (a *api) handleRoomsRename(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req renameRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	room, err := a.roomSvc.Rename(r.Context(), r.PathValue("id"), u.ID, req.Name)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, roomToResponse(room, u.ID))
}

func (a *api) handleRoomsDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.roomSvc.Delete(r.Context(), r.PathValue("id"), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

func (a *api) handleRoomsJoin(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req joinRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	room, err := a.roomSvc.Join(r.Context(), u.ID, req.Code)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, roomToResponse(room, u.ID))
}

func (a *api) handleRoomsLeave(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.roomSvc.Leave(r.Context(), r.PathValue("id"), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roomMemberResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	JoinedAt string `json:"joined_at"`
}

func (a *api) handleRoomsMembers(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	members, err := a.roomSvc.ListMembers(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := make([]roomMemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, roomMemberResponse{
			UserID:   m.UserID,
			Username: m.Username,
			JoinedAt: formatMillis(m.JoinedAt),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"members": resp})
}

func (a *api) handleRoomsTotals(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	totals, err := a.roomSvc.Totals(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{
		"total_rooms":     totals.TotalRooms,
		"total_exercises": totals.TotalExercises,
		"total_trainees":  totals.TotalTrainees,
	})
}
