package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type readiness struct {
	Status   string      `json:"status"`
	Checks   interface{} `json:"checks"`
	Sessions *int        `json:"sessions,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	statuses, ready := s.health.CheckAll(r.Context())
	if !ready {
		for _, st := range statuses {
			if !st.Healthy {
				slog.Warn("readiness check failed", "check", st.Name, "error", st.Error)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(apiResponse{
			Success: false,
			Data:    readiness{Status: "not_ready", Checks: statuses},
			Error:   &apiError{Code: "not_ready", Message: "service not ready"},
		})
		return
	}

	resp := readiness{Status: "ready", Checks: statuses}
	if n, err := s.manager.ActiveSessions(r.Context()); err != nil {
		slog.Warn("failed to count sessions", "error", err)
	} else {
		resp.Sessions = &n
	}
	respondJSON(w, http.StatusOK, resp)
}
