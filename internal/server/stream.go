package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ssilva/epivision/internal/server/api"
	"github.com/ssilva/epivision/internal/store"
)

// handleStream serves GET /api/stream/{id}: an MJPEG stream of annotated
// frames that lasts until the client disconnects or the camera is
// deleted.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Resolve the camera before committing to the multipart response so
	// unknown ids still get a proper 404.
	if _, err := s.config.Store.Cameras().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.ErrCodeCameraNotFound, "Camera not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.ErrCodeInternal, "Failed to get camera")
		return
	}

	mw := newMJPEGWriter(w)
	s.config.Pipeline.Run(r.Context(), id, mw)
}

// handleStreamStop serves POST /api/stream/{id}/stop. Stopping releases
// the camera's capture handle; stopping an idle camera succeeds too.
func (s *Server) handleStreamStop(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.config.Store.Cameras().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.ErrCodeCameraNotFound, "Camera not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.ErrCodeInternal, "Failed to get camera")
		return
	}

	s.config.Pipeline.Stop(id)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"camera_id": id,
		"stopped":   true,
	})
}

// handleStreamStatus serves GET /api/stream/{id}/status.
func (s *Server) handleStreamStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	status, err := s.config.Pipeline.Status(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.ErrCodeCameraNotFound, "Camera not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.ErrCodeInternal, "Failed to get stream status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
