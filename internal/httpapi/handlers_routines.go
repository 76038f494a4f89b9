package httpapi

import (
	"net/http"
	"strings"

	"fitroomserver/internal/domain"
)

type routineResponse struct {
	ID         string            `json:"id"`
	ExerciseID string            `json:"exercise_id"`
	Status     string            `json:"status"`
	Favorite   bool              `json:"favorite"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
	Exercise   *exerciseResponse `json:"exercise,omitempty"`
}

func routineToResponse(rt domain.Routine) routineResponse {
	return routineResponse{
		ID:         rt.ID,
		ExerciseID: rt.ExerciseID,
		Status:     string(rt.Status),
		Favorite:   rt.Favorite,
		CreatedAt:  formatMillis(rt.CreatedAt),
		UpdatedAt:  formatMillis(rt.UpdatedAt),
	}
}

type addRoutineRequest struct {
	ExerciseID string `json:"exercise_id"`
}

func (a *api) handleRoutinesAdd(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req addRoutineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if strings.TrimSpace(req.ExerciseID) == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"exercise_id": "required"}))
		return
	}

	rt, err := a.routineSvc.Add(r.Context(), u.ID, req.ExerciseID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, routineToResponse(rt))
}

func (a *api) handleRoutinesList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	routines, err := a.routineSvc.ListMine(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := make([]routineResponse, 0, len(routines))
	for _, rt := range routines {
		item := routineToResponse(rt.Routine)
		ex := exerciseToResponse(rt.Exercise)
		item.Exercise = &ex
		resp = append(resp, item)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"routines": resp})
}

type routineStatusRequest struct {
	Status string `json:"status"`
}

func (a *api) handleRoutinesSetStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req routineStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	rt, err := a.routineSvc.SetStatus(r.Context(), r.PathValue("id"), u.ID, req.Status)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, routineToResponse(rt))
}

type routineFavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

func (a *api) handleRoutinesSetFavorite(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req routineFavoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	rt, err := a.routineSvc.SetFavorite(r.Context(), r.PathValue("id"), u.ID, req.Favorite)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, routineToResponse(rt))
}

func (a *api) handleRoutinesRemove(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.routineSvc.Remove(r.Context(), r.PathValue("id"), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
