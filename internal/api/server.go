// Package api serves the HTTP surface: login, logout, health and the
// WebSocket endpoint.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/AltairaLabs/codegen-suggest/internal/session"
	"github.com/AltairaLabs/codegen-suggest/internal/suggest"
)

// Sessions is the subset of the session store used by the API
type Sessions interface {
	Login(username, password string) (*session.Session, error)
	Logout(token string) error
	Count() int
}

// QueueState reports the dispatch state for health checks
type QueueState interface {
	Len() int
	IsProcessing() bool
}

// SuggestInfo reports the suggestion client configuration
type SuggestInfo interface {
	Info() suggest.Info
}

// Channels is the WebSocket endpoint
type Channels interface {
	http.Handler
	Count() int
}

// Server holds the HTTP handlers
type Server struct {
	sessions       Sessions
	queue          QueueState
	suggest        SuggestInfo
	channels       Channels
	allowedOrigins []string
	logger         *slog.Logger
}

// NewServer creates the API server
func NewServer(
	sessions Sessions,
	queue QueueState,
	info SuggestInfo,
	channels Channels,
	allowedOrigins []string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sessions:       sessions,
		queue:          queue,
		suggest:        info,
		channels:       channels,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /ws", s.channels)
	return s.withCORS(mux)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Token   string    `json:"token,omitempty"`
	User    *userView `json:"user,omitempty"`
}

type logoutRequest struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type suggestionHealth struct {
	Configured     bool   `json:"configured"`
	Model          string `json:"model"`
	MaxRetries     int    `json:"maxRetries"`
	TimeoutMS      int64  `json:"timeout"`
	MaxInputLength int    `json:"maxInputLength"`
}

type queueHealth struct {
	QueueLength  int  `json:"queueLength"`
	IsProcessing bool `json:"isProcessing"`
}

type healthResponse struct {
	Status     string           `json:"status"`
	Suggestion suggestionHealth `json:"suggestion"`
	Queue      queueHealth      `json:"queue"`
	Channels   int              `json:"channels"`
	Sessions   int              `json:"sessions"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}

	sess, err := s.sessions.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Username and password are required"})
		return
	case errors.Is(err, session.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid username or password"})
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "Login successful",
		Token:   sess.Token,
		User:    &userView{ID: sess.UserID, Username: sess.Username},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return
	}

	err := s.sessions.Logout(req.Token)
	switch {
	case errors.Is(err, session.ErrTokenRequired):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Token is required"})
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Session not found"})
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Logout failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	default:
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logout successful"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	info := s.suggest.Info()
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Suggestion: suggestionHealth{
			Configured:     info.Configured,
			Model:          info.Model,
			MaxRetries:     info.MaxRetries,
			TimeoutMS:      info.Timeout.Milliseconds(),
			MaxInputLength: info.MaxInputLength,
		},
		Queue: queueHealth{
			QueueLength:  s.queue.Len(),
			IsProcessing: s.queue.IsProcessing(),
		},
		Channels: s.channels.Count(),
		Sessions: s.sessions.Count(),
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	return len(s.allowedOrigins) == 0 || slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
