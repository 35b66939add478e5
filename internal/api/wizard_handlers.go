package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pritechvior/project-wizard/internal/intake"
	"github.com/pritechvior/project-wizard/internal/models"
	"github.com/pritechvior/project-wizard/internal/wizard"
)

// respondManagerError maps manager errors onto HTTP statuses
func respondManagerError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, intake.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "wizard session not found")
	case errors.Is(err, intake.ErrTemplateNotFound):
		respondError(w, http.StatusNotFound, "template_not_found", "project template not found")
	case errors.Is(err, wizard.ErrInvalidUserType),
		errors.Is(err, wizard.ErrInvalidMode),
		errors.Is(err, wizard.ErrTemplateRequired):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, wizard.ErrUnknownField):
		respondError(w, http.StatusBadRequest, "unknown_field", err.Error())
	case errors.Is(err, wizard.ErrFieldKind):
		respondError(w, http.StatusBadRequest, "invalid_value", err.Error())
	case errors.Is(err, wizard.ErrFieldNotApplicable):
		respondError(w, http.StatusUnprocessableEntity, "field_not_applicable", err.Error())
	case errors.Is(err, wizard.ErrSessionSubmitted):
		respondError(w, http.StatusConflict, "already_submitted", "wizard already submitted")
	case errors.Is(err, intake.ErrSubmissionFailed):
		respondError(w, http.StatusServiceUnavailable, "submission_failed",
			"Failed to submit project request. Please try again.")
	default:
		slog.Error("wizard operation failed", "action", action, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

func (s *Server) handleCreateWizard(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWizardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.UserType == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user_type is required")
		return
	}

	view, err := s.manager.Create(r.Context(), req)
	if err != nil {
		respondManagerError(w, err, "create wizard")
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetWizard(w http.ResponseWriter, r *http.Request) {
	view, err := s.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondManagerError(w, err, "get wizard")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteWizard(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondManagerError(w, err, "delete wizard")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req models.FieldValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	view, err := s.manager.UpdateField(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"), req.Value)
	if err != nil {
		respondManagerError(w, err, "update field")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleToggleField(w http.ResponseWriter, r *http.Request) {
	var req models.FieldValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	value, ok := req.Value.(string)
	if !ok || value == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "value must be a non-empty string")
		return
	}

	view, err := s.manager.ToggleField(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"), value)
	if err != nil {
		respondManagerError(w, err, "toggle field")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	view, err := s.manager.Next(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondManagerError(w, err, "advance wizard")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	view, err := s.manager.Prev(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondManagerError(w, err, "go back")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	estimate, err := s.manager.Estimate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondManagerError(w, err, "estimate cost")
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.manager.Submit(r.Context(), id)
	if err != nil {
		if errors.Is(err, intake.ErrSubmissionFailed) {
			slog.Warn("submission failed", "id", id, "error", err)
		}
		respondManagerError(w, err, "submit wizard")
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	respondJSON(w, status, res)
}

// Submission handlers

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	filters := models.SubmissionFilters{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	if v := r.URL.Query().Get("user_type"); v != "" {
		ut, err := models.ParseUserType(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		filters.UserType = ut
	}

	records, err := s.manager.ListSubmissions(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list submissions", "error", err, "operator", OperatorFromContext(r.Context()))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list submissions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": records,
		"count":       len(records),
		"limit":       filters.Limit,
		"offset":      filters.Offset,
	})
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "reference")

	rec, err := s.manager.GetSubmission(r.Context(), code)
	if err != nil {
		slog.Error("failed to get submission", "error", err, "reference", code)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get submission")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "not_found", "submission not found")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}
