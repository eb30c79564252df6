package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/email"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// ScheduleRequest is the body of POST /interviews. EnterpriseID defaults to
// the caller.
type ScheduleRequest struct {
	JobID        uuid.UUID          `json:"job_id" validate:"required"`
	CandidateID  uuid.UUID          `json:"candidate_id" validate:"required"`
	EnterpriseID uuid.UUID          `json:"enterprise_id"`
	ScheduledAt  time.Time          `json:"scheduled_at" validate:"required"`
	MeetingType  models.MeetingType `json:"meeting_type" validate:"omitempty,oneof=In-person Virtual TBD"`
	MeetingLink  string             `json:"meeting_link" validate:"omitempty,url"`
	Notes        string             `json:"notes" validate:"max=2000"`
}

// ScheduleInterview books an interview, emails the candidate and notifies them.
// Every referenced record must exist; nothing is stored otherwise.
func (h *Handler) ScheduleInterview(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.EnterpriseID == uuid.Nil {
		req.EnterpriseID = h.claims(r).UserID
	}
	if !h.selfOrAdmin(r, req.EnterpriseID) {
		h.Error(w, http.StatusForbidden, "Access denied")
		return
	}
	ctx := r.Context()

	job, err := h.Store.GetJob(ctx, req.JobID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "Job not found")
		return
	}
	enterprise, err := h.Store.GetUserByID(ctx, req.EnterpriseID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if enterprise == nil || enterprise.Role != models.RoleEnterprise {
		h.Error(w, http.StatusNotFound, "Enterprise not found")
		return
	}
	candidate, err := h.Store.GetUserByID(ctx, req.CandidateID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if candidate == nil || candidate.Role != models.RoleCandidate {
		h.Error(w, http.StatusNotFound, "Candidate not found")
		return
	}
	if job.EnterpriseID != enterprise.ID {
		h.Error(w, http.StatusForbidden, "You do not own this job")
		return
	}

	iv := &models.Interview{
		JobID:        job.ID,
		EnterpriseID: enterprise.ID,
		CandidateID:  candidate.ID,
		ScheduledAt:  req.ScheduledAt.UTC(),
		Status:       models.InterviewPending,
		MeetingType:  lo.Ternary(req.MeetingType == "", models.MeetingTBD, req.MeetingType),
		MeetingLink:  req.MeetingLink,
		Notes:        req.Notes,
		CallStatus:   models.CallInitiated,
	}
	if err := h.Store.CreateInterview(ctx, iv); err != nil {
		h.Internal(w, r, err)
		return
	}
	metrics.InterviewsScheduled.Inc()

	invitation := email.Interview{
		CandidateName: candidate.Name,
		Enterprise:    enterprise.DisplayName(),
		JobTitle:      job.Title,
		ScheduledAt:   iv.ScheduledAt,
		MeetingType:   string(iv.MeetingType),
		MeetingLink:   iv.MeetingLink,
		Notes:         iv.Notes,
		InterviewID:   iv.ID.String(),
	}
	if err := h.Mailer.SendInterviewInvitation(ctx, candidate.Email, invitation); err != nil {
		h.logger.Warn().Err(err).Str("interview_id", iv.ID.String()).Msg("interview invitation email failed")
	}
	h.notify(r, candidate.ID, models.NotificationInterview,
		fmt.Sprintf("%s invited you to an interview for %s", enterprise.DisplayName(), job.Title), &job.ID)

	h.JSON(w, http.StatusCreated, iv)
}

// ListInterviews returns every interview the caller takes part in.
func (h *Handler) ListInterviews(w http.ResponseWriter, r *http.Request) {
	interviews, err := h.Store.ListInterviewsForUser(r.Context(), h.claims(r).UserID, nil)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, interviews)
}

// UpcomingInterviews returns the caller's future interviews that are still on.
func (h *Handler) UpcomingInterviews(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	interviews, err := h.Store.ListInterviewsForUser(r.Context(), h.claims(r).UserID, &now)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	upcoming := lo.Filter(interviews, func(iv models.Interview, _ int) bool {
		return iv.Status == models.InterviewPending || iv.Status == models.InterviewConfirmed
	})
	h.JSON(w, http.StatusOK, upcoming)
}

// GetInterview returns an interview to one of its participants or an admin.
func (h *Handler) GetInterview(w http.ResponseWriter, r *http.Request) {
	iv, ok := h.participantInterview(w, r)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, iv)
}

// InterviewStatusRequest is the body of PUT /interviews/{id}/status.
type InterviewStatusRequest struct {
	Status models.InterviewStatus `json:"status" validate:"required,oneof=pending confirmed declined completed cancelled"`
	Score  *int                   `json:"score" validate:"omitempty,gte=0,lte=100"`
}

// UpdateInterviewStatus moves an interview through its lifecycle. Candidates
// confirm or decline; either side may cancel; completion may carry a score.
func (h *Handler) UpdateInterviewStatus(w http.ResponseWriter, r *http.Request) {
	iv, ok := h.participantInterview(w, r)
	if !ok {
		return
	}
	var req InterviewStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !iv.Status.CanTransition(req.Status) {
		h.Error(w, http.StatusBadRequest, fmt.Sprintf("cannot change interview from %s to %s", iv.Status, req.Status))
		return
	}
	c := h.claims(r)
	if (req.Status == models.InterviewConfirmed || req.Status == models.InterviewDeclined) &&
		c.UserID != iv.CandidateID && c.Role != models.RoleAdmin {
		h.Error(w, http.StatusForbidden, "Only the candidate can respond to an invitation")
		return
	}

	iv.Status = req.Status
	if req.Score != nil {
		iv.Score = req.Score
	}
	if err := h.Store.UpdateInterview(r.Context(), iv); err != nil {
		h.Internal(w, r, err)
		return
	}

	if iv.HasParticipant(c.UserID) {
		h.notify(r, iv.Counterpart(c.UserID), models.NotificationInterview,
			fmt.Sprintf("Interview status changed to %s", iv.Status), &iv.JobID)
	}
	h.JSON(w, http.StatusOK, iv)
}

// StartCall marks the interview's video call as ongoing.
func (h *Handler) StartCall(w http.ResponseWriter, r *http.Request) {
	iv, ok := h.participantInterview(w, r)
	if !ok {
		return
	}
	if iv.CallStatus == models.CallOngoing {
		h.Error(w, http.StatusConflict, "Call already in progress")
		return
	}
	if iv.Status != models.InterviewPending && iv.Status != models.InterviewConfirmed {
		h.Error(w, http.StatusBadRequest, fmt.Sprintf("cannot start a call for a %s interview", iv.Status))
		return
	}

	now := time.Now().UTC()
	iv.CallStatus = models.CallOngoing
	iv.CallStartedAt = &now
	iv.CallEndedAt = nil
	iv.CallDurationSeconds = 0
	if err := h.Store.UpdateInterview(r.Context(), iv); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, iv)
}

// EndCall closes the video call and records its duration.
func (h *Handler) EndCall(w http.ResponseWriter, r *http.Request) {
	iv, ok := h.participantInterview(w, r)
	if !ok {
		return
	}
	if iv.CallStatus != models.CallOngoing || iv.CallStartedAt == nil {
		h.Error(w, http.StatusBadRequest, "Call has not started")
		return
	}

	now := time.Now().UTC()
	iv.CallStatus = models.CallCompleted
	iv.CallEndedAt = &now
	iv.CallDurationSeconds = int(now.Sub(*iv.CallStartedAt).Seconds())
	if err := h.Store.UpdateInterview(r.Context(), iv); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, iv)
}

func (h *Handler) participantInterview(w http.ResponseWriter, r *http.Request) (*models.Interview, bool) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return nil, false
	}
	iv, err := h.Store.GetInterview(r.Context(), id)
	if err != nil {
		h.Internal(w, r, err)
		return nil, false
	}
	if iv == nil {
		h.Error(w, http.StatusNotFound, "Interview not found")
		return nil, false
	}
	if !iv.HasParticipant(h.claims(r).UserID) && !h.isAdmin(r) {
		h.Error(w, http.StatusForbidden, "Access denied")
		return nil, false
	}
	return iv, true
}
