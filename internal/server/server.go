// Package server provides the HTTP server for watching and controlling a
// painting session.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/chitra/internal/app"
	"github.com/ayusman/chitra/internal/server/api"
	"github.com/ayusman/chitra/internal/store"
)

// Source provides session state and composited frames. *app.Monitor
// implements it.
type Source interface {
	State() app.State
	Subscribe() (<-chan app.State, func())
	SubscribeFrames() (<-chan []byte, func())
}

// Controller pauses and resumes hand detection. *app.App implements it.
type Controller interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
}

// Config holds the server configuration. Endpoints whose dependency is nil
// are not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Source     Source
	Controller Controller
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Source != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Source))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.Source))
	}

	if s.config.Controller != nil {
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleState handles GET /api/state with the latest session snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, s.config.Source.State())
}

type enabledBody struct {
	Enabled bool `json:"enabled"`
}

// handleEnabled reports (GET) or sets (PUT) whether detection is running.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var body enabledBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		s.config.Controller.SetEnabled(body.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, enabledBody{Enabled: s.config.Controller.IsEnabled()})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
