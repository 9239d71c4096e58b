// Package api provides the HTTP API handlers for the camera registry.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/ssilva/epivision/internal/store"
)

// Machine-readable error codes returned in the "error" field.
const (
	ErrCodeCameraNotFound = "CameraNotFound"
	ErrCodeDuplicateName  = "DuplicateName"
	ErrCodeInvalidRequest = "InvalidRequest"
	ErrCodeInternal       = "Internal"
)

// StreamStopper releases any live streaming resources for a camera.
// Deleting a camera must not leave its capture handle open.
type StreamStopper interface {
	Stop(cameraID string)
}

// CameraHandler handles CRUD requests for camera configurations.
type CameraHandler struct {
	cameras *store.CameraRepository
	stopper StreamStopper
}

// NewCameraHandler creates a CameraHandler backed by the given store.
func NewCameraHandler(s *store.Store, stopper StreamStopper) *CameraHandler {
	return &CameraHandler{
		cameras: s.Cameras(),
		stopper: stopper,
	}
}

// Register mounts the camera routes on the router.
func (h *CameraHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/cameras", h.list).Methods(http.MethodGet)
	r.HandleFunc("/api/cameras", h.create).Methods(http.MethodPost)
	r.HandleFunc("/api/cameras/names/list", h.names).Methods(http.MethodGet)
	r.HandleFunc("/api/cameras/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/cameras/{id}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/api/cameras/{id}", h.delete).Methods(http.MethodDelete)
}

// Request and response types

type createCameraRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	FPS    int    `json:"fps"`
	Active *bool  `json:"active"`
}

// updateCameraRequest uses pointers so absent fields leave the stored
// value untouched.
type updateCameraRequest struct {
	Name   *string `json:"name"`
	Source *string `json:"source"`
	FPS    *int    `json:"fps"`
	Active *bool   `json:"active"`
}

type cameraResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	FPS       int    `json:"fps"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listCamerasResponse struct {
	Cameras []cameraResponse `json:"cameras"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// toResponse converts a store.Camera to a cameraResponse.
func toResponse(c *store.Camera) cameraResponse {
	return cameraResponse{
		ID:        c.ID,
		Name:      c.Name,
		Source:    c.Source,
		FPS:       c.FPS,
		Active:    c.Active,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response with a machine-readable code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// list handles GET /api/cameras and returns all registered cameras.
func (h *CameraHandler) list(w http.ResponseWriter, r *http.Request) {
	cameras, err := h.cameras.List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to list cameras")
		return
	}

	writeJSON(w, http.StatusOK, listCamerasResponse{
		Cameras: lo.Map(cameras, func(c *store.Camera, _ int) cameraResponse {
			return toResponse(c)
		}),
	})
}

// names handles GET /api/cameras/names/list and returns the display
// names as a plain array.
func (h *CameraHandler) names(w http.ResponseWriter, r *http.Request) {
	cameras, err := h.cameras.List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to list cameras")
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(cameras, func(c *store.Camera, _ int) string {
		return c.Name
	}))
}

// get handles GET /api/cameras/{id} and returns a single camera.
func (h *CameraHandler) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	camera, err := h.cameras.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrCodeCameraNotFound, "Camera not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to get camera")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(camera))
}

// create handles POST /api/cameras and registers a new camera. Names are
// unique case-insensitively; a clash is rejected before anything is
// stored.
func (h *CameraHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createCameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Name is required")
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Source is required")
		return
	}

	if _, err := h.cameras.GetByName(req.Name); err == nil {
		WriteError(w, http.StatusBadRequest, ErrCodeDuplicateName, "A camera with this name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to check camera name")
		return
	}

	fps := req.FPS
	if fps <= 0 {
		fps = store.DefaultFPS
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	camera := &store.Camera{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Source: req.Source,
		FPS:    fps,
		Active: active,
	}

	if err := h.cameras.Create(camera); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to create camera")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(camera))
}

// update handles PUT /api/cameras/{id}. Absent fields keep their stored
// values; renames are checked against the case-insensitive name index,
// but a camera may always keep (or re-case) its own name.
func (h *CameraHandler) update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	camera, err := h.cameras.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrCodeCameraNotFound, "Camera not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to get camera")
		return
	}

	var req updateCameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Name must not be empty")
			return
		}

		existing, err := h.cameras.GetByName(name)
		if err == nil && existing.ID != camera.ID {
			WriteError(w, http.StatusBadRequest, ErrCodeDuplicateName, "A camera with this name already exists")
			return
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to check camera name")
			return
		}

		camera.Name = name
	}
	if req.Source != nil {
		camera.Source = *req.Source
	}
	if req.FPS != nil {
		fps := *req.FPS
		if fps <= 0 {
			fps = store.DefaultFPS
		}
		camera.FPS = fps
	}
	if req.Active != nil {
		camera.Active = *req.Active
	}

	if err := h.cameras.Update(camera); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to update camera")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(camera))
}

// delete handles DELETE /api/cameras/{id}. It stops any live stream
// before removing the registry entry.
func (h *CameraHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if h.stopper != nil {
		h.stopper.Stop(id)
	}

	if err := h.cameras.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrCodeCameraNotFound, "Camera not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to delete camera")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
