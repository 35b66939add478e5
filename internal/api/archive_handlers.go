package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pritechvior/project-wizard/internal/backend"
)

// Archive handlers proxy the project archive of the backend. Write calls
// forward the caller's bearer token; the backend decides what it allows.

func respondBackendError(w http.ResponseWriter, err error, what, action string) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			respondError(w, http.StatusNotFound, "not_found", what+" not found")
			return
		case http.StatusBadRequest:
			respondError(w, http.StatusBadRequest, "validation_error", apiErr.Message)
			return
		case http.StatusUnauthorized, http.StatusForbidden:
			respondError(w, apiErr.Status, "backend_unauthorized", apiErr.Message)
			return
		}
	}
	slog.Error("backend request failed", "what", what, "error", err)
	respondError(w, http.StatusBadGateway, "backend_error", "failed to "+action+" "+what)
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (s *Server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	archives, err := s.archives.GetArchives(r.Context(), r.URL.Query())
	if err != nil {
		respondBackendError(w, err, "archives", "load")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"archives": archives,
		"total":    len(archives),
	})
}

func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	archive, err := s.archives.GetArchive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondBackendError(w, err, "archive", "load")
		return
	}
	respondJSON(w, http.StatusOK, archive)
}

func (s *Server) handleGetArchiveComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.archives.GetArchiveComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondBackendError(w, err, "archive comments", "load")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"comments": comments,
		"total":    len(comments),
	})
}

// AddCommentRequest is the body of an add-comment call
type AddCommentRequest struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

func (s *Server) handleAddArchiveComment(w http.ResponseWriter, r *http.Request) {
	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.Comment = strings.TrimSpace(req.Comment)
	if req.Comment == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "comment is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "validation_error", "rating must be between 1 and 5")
		return
	}

	comment, err := s.archives.AddComment(r.Context(), chi.URLParam(r, "id"), req.Comment, req.Rating, bearerToken(r))
	if err != nil {
		respondBackendError(w, err, "archive", "comment on")
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// DownloadRequest is the body of a request-download call
type DownloadRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (s *Server) handleRequestArchiveDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "email is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.archives.RequestDownload(r.Context(), id, req.Email, req.Message, bearerToken(r)); err != nil {
		respondBackendError(w, err, "archive", "request download of")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "requested"})
}

func (s *Server) handleArchiveDownload(w http.ResponseWriter, r *http.Request) {
	info, err := s.archives.GetDownloadInfo(r.Context(), chi.URLParam(r, "id"), bearerToken(r))
	if err != nil {
		respondBackendError(w, err, "archive", "download")
		return
	}
	respondJSON(w, http.StatusOK, info)
}
