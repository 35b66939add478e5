package api

import (
	"net/http"

	"github.com/pritechvior/project-wizard/internal/models"
)

// Catalog handlers: reference data behind the wizard choices

type catalogResponse struct {
	*models.ReferenceData
	Notices []models.Notice `json:"notices"`
}

func parseUserTypeParam(w http.ResponseWriter, r *http.Request, required bool) (models.UserType, bool) {
	v := r.URL.Query().Get("user_type")
	if v == "" {
		if required {
			respondError(w, http.StatusBadRequest, "validation_error", "user_type is required")
			return "", false
		}
		return "", true
	}
	ut, err := models.ParseUserType(v)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return "", false
	}
	return ut, true
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	ut, ok := parseUserTypeParam(w, r, true)
	if !ok {
		return
	}

	data, notices := s.catalog.Load(r.Context(), ut)
	if notices == nil {
		notices = []models.Notice{}
	}
	respondJSON(w, http.StatusOK, catalogResponse{ReferenceData: data, Notices: notices})
}

func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	ut, ok := parseUserTypeParam(w, r, false)
	if !ok {
		return
	}

	if ut == "" && r.URL.Query().Get("drop") == "true" {
		// the next load of every user type goes to the backend
		s.catalog.Invalidate()
		respondJSON(w, http.StatusOK, map[string]interface{}{"dropped": true})
		return
	}

	if ut == "" {
		n := s.catalog.RefreshAll(r.Context())
		respondJSON(w, http.StatusOK, map[string]interface{}{"refreshed": n})
		return
	}

	data, notices := s.catalog.Refresh(r.Context(), ut)
	if notices == nil {
		notices = []models.Notice{}
	}
	respondJSON(w, http.StatusOK, catalogResponse{ReferenceData: data, Notices: notices})
}

func (s *Server) handleGetHardware(w http.ResponseWriter, r *http.Request) {
	items := s.hardware
	if items == nil {
		items = []models.HardwareItem{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hardware": items,
		"total":    len(items),
	})
}
