package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// JobRequest is the body of POST /add-job.
type JobRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Location    string   `json:"location" validate:"max=200"`
	Salary      float64  `json:"salary" validate:"gte=0"`
	Skills      []string `json:"skills"`
	Languages   []string `json:"languages"`
}

// ListJobs returns job offers. Filters: ?q, ?status, ?enterprise_id, ?limit, ?offset.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.JobFilter{
		Status: models.JobStatus(strings.ToUpper(q.Get("status"))),
		Query:  strings.TrimSpace(q.Get("q")),
	}
	filter.Limit, filter.Offset = pageParams(r)
	if raw := q.Get("enterprise_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid enterprise_id")
			return
		}
		filter.EnterpriseID = &id
	}

	jobs, err := h.Store.ListJobs(r.Context(), filter)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, jobs)
}

// GetJob returns a single job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	job, err := h.Store.GetJob(r.Context(), id)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "Job not found")
		return
	}
	h.JSON(w, http.StatusOK, job)
}

// CreateJob publishes a job for the calling enterprise.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if !h.decode(w, r, &req) {
		return
	}

	job := &models.Job{
		EnterpriseID: h.claims(r).UserID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Location:     req.Location,
		Salary:       req.Salary,
		Skills:       cleanList(req.Skills),
		Languages:    cleanList(req.Languages),
		Status:       models.JobOpen,
	}
	if err := h.Store.CreateJob(r.Context(), job); err != nil {
		h.Internal(w, r, err)
		return
	}
	metrics.JobsPosted.Inc()
	h.JSON(w, http.StatusCreated, job)
}

// UpdateJobRequest carries editable job fields. Nil fields are left unchanged.
type UpdateJobRequest struct {
	Title       *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string           `json:"description"`
	Location    *string           `json:"location"`
	Salary      *float64          `json:"salary" validate:"omitempty,gte=0"`
	Skills      []string          `json:"skills"`
	Languages   []string          `json:"languages"`
	Status      *models.JobStatus `json:"status" validate:"omitempty,oneof=OPEN CLOSED"`
}

// UpdateJob edits a job owned by the caller.
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r, "id")
	if !ok {
		return
	}
	var req UpdateJobRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Title != nil {
		job.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Location != nil {
		job.Location = *req.Location
	}
	if req.Salary != nil {
		job.Salary = *req.Salary
	}
	if req.Skills != nil {
		job.Skills = cleanList(req.Skills)
	}
	if req.Languages != nil {
		job.Languages = cleanList(req.Languages)
	}
	if req.Status != nil {
		job.Status = *req.Status
	}

	if err := h.Store.UpdateJob(r.Context(), job); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, job)
}

// DeleteJob removes a job owned by the caller, with its applications and quiz.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Store.DeleteJob(r.Context(), job.ID); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Job deleted"})
}

// ownedJob loads the job named by the URL parameter and checks that the
// caller owns it or is an admin.
func (h *Handler) ownedJob(w http.ResponseWriter, r *http.Request, param string) (*models.Job, bool) {
	id, ok := h.uuidParam(w, r, param)
	if !ok {
		return nil, false
	}
	return h.loadOwnedJob(w, r, id)
}

func (h *Handler) loadOwnedJob(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*models.Job, bool) {
	job, err := h.Store.GetJob(r.Context(), id)
	if err != nil {
		h.Internal(w, r, err)
		return nil, false
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "Job not found")
		return nil, false
	}
	if !h.selfOrAdmin(r, job.EnterpriseID) {
		h.Error(w, http.StatusForbidden, "You do not own this job")
		return nil, false
	}
	return job, true
}

// cleanList trims entries and drops blanks and duplicates.
func cleanList(in []string) []string {
	out := lo.Uniq(lo.Compact(lo.Map(in, func(s string, _ int) string {
		return strings.TrimSpace(s)
	})))
	if out == nil {
		return []string{}
	}
	return out
}
