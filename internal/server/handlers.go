package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xeot403/chatx/internal/store"
)

// credentials is the request body of /register and /login.
type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.config.StaticDir, "index.html"))
}

// handleOnline lists joined clients, optionally filtered by the q parameter
// (case-insensitive substring over email).
func (s *Server) handleOnline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Snapshot(r.URL.Query().Get("q")))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"db_ready":          s.users.Ready(),
		"connected_clients": s.registry.Count(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.users.Ready() {
		writeError(w, http.StatusServiceUnavailable, "Database not ready, try again shortly")
		return
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	err := s.users.CreateUser(r.Context(), creds.Email, creds.Password, creds.DisplayName)
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "Email already registered")
	case err != nil:
		s.logger.Error("register failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.users.Ready() {
		writeError(w, http.StatusServiceUnavailable, "Database not ready, try again shortly")
		return
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := s.users.Authenticate(r.Context(), creds.Email, creds.Password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case err != nil:
		s.logger.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"email":        user.Email,
			"display_name": user.DisplayName,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
