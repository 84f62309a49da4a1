// Package server provides the local HTTP server for the FormCoach companion UI.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/formcoach/internal/capture"
	"github.com/ayusman/formcoach/internal/server/api"
	"github.com/ayusman/formcoach/internal/store"
)

// WorkoutStatus describes the currently running session, if any.
type WorkoutStatus struct {
	Active    bool   `json:"active"`
	SessionID string `json:"session_id,omitempty"`
	Exercise  string `json:"exercise,omitempty"`
	RepCount  int    `json:"rep_count"`
	SetCount  int    `json:"set_count"`
}

// WorkoutController is the application surface the UI drives: session
// lifecycle and status. Implemented by the app package.
type WorkoutController interface {
	StartSession(exerciseType, userID string) (sessionID string, err error)
	CompleteSet() error
	EndSession() error
	CancelSession() error
	Status() (active bool, sessionID, exercise string, repCount, setCount int)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Live      *LiveHandler
	Workout   WorkoutController
}

// Server represents the HTTP server for the FormCoach application.
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

	// Register session API handler if Store is configured
	if s.config.Store != nil {
		sessionHandler := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionHandler)
		s.mux.Handle("/api/sessions/", sessionHandler)
	}

	// Register workout control endpoints if a controller is configured
	if s.config.Workout != nil {
		s.mux.HandleFunc("/api/workout/start", s.handleWorkoutStart)
		s.mux.HandleFunc("/api/workout/set", s.handleWorkoutSet)
		s.mux.HandleFunc("/api/workout/end", s.handleWorkoutEnd)
		s.mux.HandleFunc("/api/workout/cancel", s.handleWorkoutCancel)
		s.mux.HandleFunc("/api/workout/status", s.handleWorkoutStatus)
	}

	// Register camera stream endpoint if Camera is configured
	if s.config.Camera != nil {
		streamHandler := NewStreamHandler(s.config.Camera)
		s.mux.Handle("/api/stream", streamHandler)
	}

	// Register live results WebSocket endpoint if configured
	if s.config.Live != nil {
		s.mux.Handle("/api/live", s.config.Live)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	writeJSON(w, http.StatusOK, response)
}

type startWorkoutRequest struct {
	Exercise string `json:"exercise"`
	UserID   string `json:"user_id"`
}

func (s *Server) handleWorkoutStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id, err := s.config.Workout.StartSession(req.Exercise, req.UserID)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleWorkoutSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.config.Workout.CompleteSet(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorkoutEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.config.Workout.EndSession(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorkoutCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.config.Workout.CancelSession(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorkoutStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	active, id, ex, reps, sets := s.config.Workout.Status()
	writeJSON(w, http.StatusOK, WorkoutStatus{
		Active:    active,
		SessionID: id,
		Exercise:  ex,
		RepCount:  reps,
		SetCount:  sets,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
