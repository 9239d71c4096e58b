package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ssilva/epivision/internal/capture"
	"github.com/ssilva/epivision/internal/lgr"
	"github.com/ssilva/epivision/internal/server/api"
	"github.com/ssilva/epivision/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStreamEvents serves GET /api/stream/{id}/events: a WebSocket
// feed of per-frame detection snapshots, without the video itself. Each
// connection paces its own detection loop at the camera's rate.
func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	cam, err := s.config.Store.Cameras().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.ErrCodeCameraNotFound, "Camera not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.ErrCodeInternal, "Failed to get camera")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		lgr.Logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	// Drain client messages so pings and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(capture.Interval(cam.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		event, err := s.config.Pipeline.DetectOnce(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return
			}
			// Inactive cameras and source hiccups are transient; keep
			// the connection open so reactivation resumes the feed.
			continue
		}

		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
