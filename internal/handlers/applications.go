package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

// ApplyRequest is the body of POST /apply-job.
type ApplyRequest struct {
	JobID    uuid.UUID `json:"job_id" validate:"required"`
	FullName string    `json:"full_name" validate:"required,max=100"`
	Email    string    `json:"email" validate:"required,email"`
	Phone    string    `json:"phone" validate:"max=30"`
	CV       string    `json:"cv"`
}

// ApplyJob submits the caller's application to an open job.
func (h *Handler) ApplyJob(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !h.decode(w, r, &req) {
		return
	}
	candidateID := h.claims(r).UserID

	job, err := h.Store.GetJob(r.Context(), req.JobID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "Job not found")
		return
	}
	if job.Status != models.JobOpen {
		h.Error(w, http.StatusBadRequest, "This job is no longer accepting applications")
		return
	}

	cv := req.CV
	if cv == "" {
		if candidate, err := h.Store.GetUserByID(r.Context(), candidateID); err == nil && candidate != nil {
			cv = candidate.Profile.Resume
		}
	}

	app := &models.Application{
		JobID:        job.ID,
		EnterpriseID: job.EnterpriseID,
		CandidateID:  candidateID,
		FullName:     sanitizeName(req.FullName),
		Email:        normalizeEmail(req.Email),
		Phone:        req.Phone,
		CV:           cv,
		Status:       models.ApplicationPending,
	}
	if err := h.Store.CreateApplication(r.Context(), app); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.Error(w, http.StatusConflict, "You have already applied to this job")
			return
		}
		h.Internal(w, r, err)
		return
	}
	metrics.ApplicationsSubmitted.Inc()

	h.notify(r, job.EnterpriseID, models.NotificationApplicationReceived,
		fmt.Sprintf("%s applied to %s", app.FullName, job.Title), &job.ID)

	h.JSON(w, http.StatusCreated, app)
}

// ListApplications returns the caller's applications: submitted for
// candidates, received for enterprises. Admins pass ?candidate_id or ?enterprise_id.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	c := h.claims(r)
	var (
		apps []models.Application
		err  error
	)
	switch c.Role {
	case models.RoleCandidate:
		apps, err = h.Store.ListApplicationsByCandidate(r.Context(), c.UserID)
	case models.RoleEnterprise:
		apps, err = h.Store.ListApplicationsByEnterprise(r.Context(), c.UserID)
	default:
		q := r.URL.Query()
		if id, perr := uuid.Parse(q.Get("candidate_id")); perr == nil {
			apps, err = h.Store.ListApplicationsByCandidate(r.Context(), id)
		} else if id, perr := uuid.Parse(q.Get("enterprise_id")); perr == nil {
			apps, err = h.Store.ListApplicationsByEnterprise(r.Context(), id)
		} else {
			h.Error(w, http.StatusBadRequest, "candidate_id or enterprise_id is required")
			return
		}
	}
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, apps)
}

// ListJobApplications returns the applications of a job owned by the caller.
func (h *Handler) ListJobApplications(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r, "id")
	if !ok {
		return
	}
	apps, err := h.Store.ListApplicationsByJob(r.Context(), job.ID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, apps)
}

// StatusRequest carries a new status value.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateApplicationStatus approves or rejects an application to one of the caller's jobs.
func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	status := models.ApplicationStatus(req.Status)
	if !status.Valid() {
		h.Error(w, http.StatusBadRequest, "status must be one of: Pending Approved Rejected")
		return
	}

	app, err := h.Store.GetApplication(r.Context(), id)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if app == nil {
		h.Error(w, http.StatusNotFound, "Application not found")
		return
	}
	if !h.selfOrAdmin(r, app.EnterpriseID) {
		h.Error(w, http.StatusForbidden, "Access denied")
		return
	}

	if err := h.Store.UpdateApplicationStatus(r.Context(), id, status); err != nil {
		h.Internal(w, r, err)
		return
	}
	app.Status = status

	text := fmt.Sprintf("Your application status changed to %s", status)
	h.notify(r, app.CandidateID, models.NotificationSystem, text, &app.JobID)
	h.systemMessage(r, app.CandidateID, text)

	h.JSON(w, http.StatusOK, app)
}

// ApprovedCandidates lists approved applications for the hiring dashboard.
// Enterprises see their own hires; admins see all unless they pass ?enterprise_id.
func (h *Handler) ApprovedCandidates(w http.ResponseWriter, r *http.Request) {
	enterpriseID, ok := h.enterpriseScope(w, r)
	if !ok {
		return
	}
	hires, err := h.Store.ListHires(r.Context(), enterpriseID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, hires)
}

// notify sends a best-effort notification; failures are logged only.
func (h *Handler) notify(r *http.Request, userID uuid.UUID, typ models.NotificationType, message string, jobID *uuid.UUID) {
	if h.Dispatcher == nil {
		return
	}
	if _, err := h.Dispatcher.Notify(r.Context(), userID, typ, message, jobID); err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("notification failed")
	}
}

// systemMessage posts a best-effort message from the system sender.
func (h *Handler) systemMessage(r *http.Request, userID uuid.UUID, text string) {
	if h.Dispatcher == nil {
		return
	}
	if _, err := h.Dispatcher.SystemMessage(r.Context(), userID, text); err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("system message failed")
	}
}
