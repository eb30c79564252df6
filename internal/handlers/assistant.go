package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/assistant"
)

// GenerateApplicationRequest is the body of POST /generate-application.
type GenerateApplicationRequest struct {
	Resume   string `json:"resume" validate:"required,max=20000"`
	JobTitle string `json:"job_title" validate:"required,max=200"`
}

// GenerateApplication asks the writing assistant to draft application fields
// from the caller's resume text.
func (h *Handler) GenerateApplication(w http.ResponseWriter, r *http.Request) {
	if h.Assistant == nil {
		h.Error(w, http.StatusServiceUnavailable, assistant.ErrNotConfigured.Error())
		return
	}
	var req GenerateApplicationRequest
	if !h.decode(w, r, &req) {
		return
	}

	suggestion, err := h.Assistant.GenerateApplication(r.Context(), strings.TrimSpace(req.Resume), strings.TrimSpace(req.JobTitle))
	if errors.Is(err, assistant.ErrNotConfigured) {
		h.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.Upstream(w, r, "Failed to generate application", err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"suggestion": suggestion})
}
