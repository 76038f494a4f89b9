package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fitroomserver/internal/domain"
	"fitroomserver/internal/service"

	"github.com/google/uuid"
)

const maxMediaUploadBytes = 20 << 20

type exerciseResponse struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"room_id"`
	Title        string    `json:"title"`
	Type         string    `json:"type,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	Difficulty   string    `json:"difficulty,omitempty"`
	MediaURLs    []string  `json:"media_urls"`
	URLs         []string  `json:"urls"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

func exerciseToResponse(ex domain.Exercise) exerciseResponse {
	mediaURLs := make([]string, 0, len(ex.MediaPaths))
	for _, p := range ex.MediaPaths {
		mediaURLs = append(mediaURLs, "/media/"+p)
	}
	urls := ex.URLs
	if urls == nil {
		urls = []string{}
	}
	return exerciseResponse{
		ID:           ex.ID,
		RoomID:       ex.RoomID,
		Title:        ex.Title,
		Type:         ex.Type,
		Instructions: ex.Instructions,
		Difficulty:   string(ex.Difficulty),
		MediaURLs:    mediaURLs,
		URLs:         urls,
		CreatedAt:    ex.CreatedAt,
		UpdatedAt:    formatMillis(ex.UpdatedAt),
	}
}

type exerciseRequest struct {
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Instructions string   `json:"instructions"`
	Difficulty   string   `json:"difficulty"`
	MediaPaths   []string `json:"media_paths"`
	URLs         []string `json:"urls"`
}

func (req exerciseRequest) toInput() service.ExerciseInput {
	return service.ExerciseInput{
		Title:        req.Title,
		Type:         req.Type,
		Instructions: req.Instructions,
		Difficulty:   req.Difficulty,
		MediaPaths:   req.MediaPaths,
		URLs:         req.URLs,
	}
}

func (a *api) handleExercisesCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req exerciseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if err := a.validateMediaPaths(req.MediaPaths); err != nil {
		WriteDomainError(w, err)
		return
	}

	ex, err := a.exerciseSvc.Create(r.Context(), r.PathValue("id"), u.ID, req.toInput())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, exerciseToResponse(ex))
}

func (a *api) handleExercisesList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	exercises, err := a.exerciseSvc.ListByRoom(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	resp := make([]exerciseResponse, 0, len(exercises))
	for _, ex := range exercises {
		resp = append(resp, exerciseToResponse(ex))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"exercises": resp})
}

func (a *api) handleExercisesGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	ex, err := a.exerciseSvc.Get(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, exerciseToResponse(ex))
}

func (a *api) handleExercisesUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req exerciseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if err := a.validateMediaPaths(req.MediaPaths); err != nil {
		WriteDomainError(w, err)
		return
	}

	ex, err := a.exerciseSvc.Update(r.Context(), r.PathValue("id"), u.ID, req.toInput())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, exerciseToResponse(ex))
}

func (a *api) handleExercisesDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.exerciseSvc.Delete(r.Context(), r.PathValue("id"), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExercisesMediaUpload stores one multipart file under the media dir
// and returns the path to reference from a later exercise create/update.
func (a *api) handleExercisesMediaUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMediaUploadBytes)
	if err := r.ParseMultipartForm(maxMediaUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_upload", "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"file": "required"}))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".mp4", ".webm", ".mov":
	default:
		WriteDomainError(w, domain.NewValidationError(map[string]string{"file": "unsupported file type"}))
		return
	}

	if err := os.MkdirAll(a.mediaDir, 0o755); err != nil {
		a.logger.Error("create media dir failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store media")
		return
	}

	filename := uuid.NewString() + ext
	targetPath := filepath.Join(a.mediaDir, filename)

	tmpFile, err := os.CreateTemp(a.mediaDir, "media-*")
	if err != nil {
		a.logger.Error("create media file failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store media")
		return
	}

	writeErr := func(err error) {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large",
				fmt.Sprintf("file exceeds %d bytes", maxMediaUploadBytes))
			return
		}
		a.logger.Error("write media failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store media")
	}

	if _, err := io.Copy(tmpFile, file); err != nil {
		writeErr(err)
		return
	}
	if err := tmpFile.Close(); err != nil {
		writeErr(err)
		return
	}
	if err := os.Rename(tmpFile.Name(), targetPath); err != nil {
		writeErr(err)
		return
	}
	if err := os.Chmod(targetPath, 0o644); err != nil {
		a.logger.Error("chmod media failed", "err", err)
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"path": filename,
		"url":  "/media/" + filename,
	})
}

// Paths must be bare filenames produced by the upload endpoint.
func (a *api) validateMediaPaths(paths []string) error {
	for _, p := range paths {
		if p == "" || p != filepath.Base(p) || strings.Contains(p, "..") {
			return domain.NewValidationError(map[string]string{"media_paths": "invalid media path"})
		}
	}
	return nil
}
