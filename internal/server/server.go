// Package server provides the HTTP surface of the EPI monitoring
// service: the camera registry API, the MJPEG stream endpoints, and the
// detection events feed.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ssilva/epivision/internal/server/api"
	"github.com/ssilva/epivision/internal/store"
	"github.com/ssilva/epivision/internal/stream"
)

// Config holds the server's collaborators.
type Config struct {
	Store    *store.Store
	Pipeline *stream.Pipeline
}

// Server routes HTTP requests for the EPI monitoring service.
type Server struct {
	config  Config
	handler http.Handler
	start   time.Time
}

// New creates a Server with the given configuration. Responses carry
// permissive CORS headers so browser dashboards on other origins can
// call the API directly.
func New(config Config) *Server {
	s := &Server{
		config: config,
		start:  time.Now(),
	}

	r := mux.NewRouter()
	s.setupRoutes(r)

	s.handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)

	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	cameraHandler := api.NewCameraHandler(s.config.Store, s.config.Pipeline)
	cameraHandler.Register(r)

	r.HandleFunc("/api/stream/{id}", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/api/stream/{id}/stop", s.handleStreamStop).Methods(http.MethodPost)
	r.HandleFunc("/api/stream/{id}/status", s.handleStreamStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/stream/{id}/events", s.handleStreamEvents).Methods(http.MethodGet)
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleRoot handles GET / with a short service descriptor.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "epivision",
		"message": "EPI detection streaming service",
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
