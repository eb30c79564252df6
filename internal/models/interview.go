package models

import (
	"time"

	"github.com/google/uuid"
)

// InterviewStatus is the scheduling state of an interview.
type InterviewStatus string

const (
	InterviewPending   InterviewStatus = "pending"
	InterviewConfirmed InterviewStatus = "confirmed"
	InterviewDeclined  InterviewStatus = "declined"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

var interviewTransitions = map[InterviewStatus][]InterviewStatus{
	InterviewPending:   {InterviewConfirmed, InterviewDeclined, InterviewCancelled},
	InterviewConfirmed: {InterviewCompleted, InterviewCancelled},
}

// CanTransition reports whether an interview may move from s to next.
func (s InterviewStatus) CanTransition(next InterviewStatus) bool {
	for _, allowed := range interviewTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CallStatus tracks the video call attached to an interview.
type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallOngoing   CallStatus = "ongoing"
	CallCompleted CallStatus = "completed"
	CallFailed    CallStatus = "failed"
)

// MeetingType describes where the interview happens.
type MeetingType string

const (
	MeetingInPerson MeetingType = "In-person"
	MeetingVirtual  MeetingType = "Virtual"
	MeetingTBD      MeetingType = "TBD"
)

// Interview is a scheduled meeting between an enterprise and a candidate for a job.
type Interview struct {
	ID                  uuid.UUID       `json:"id"`
	JobID               uuid.UUID       `json:"job_id"`
	EnterpriseID        uuid.UUID       `json:"enterprise_id"`
	CandidateID         uuid.UUID       `json:"candidate_id"`
	ScheduledAt         time.Time       `json:"scheduled_at"`
	Status              InterviewStatus `json:"status"`
	Score               *int            `json:"score,omitempty"`
	MeetingType         MeetingType     `json:"meeting_type"`
	MeetingLink         string          `json:"meeting_link,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CallStatus          CallStatus      `json:"call_status"`
	CallStartedAt       *time.Time      `json:"call_started_at,omitempty"`
	CallEndedAt         *time.Time      `json:"call_ended_at,omitempty"`
	CallDurationSeconds int             `json:"call_duration_seconds"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// HasParticipant reports whether userID is the candidate or the enterprise.
func (i *Interview) HasParticipant(userID uuid.UUID) bool {
	return i.CandidateID == userID || i.EnterpriseID == userID
}

// Counterpart returns the other participant of the interview.
func (i *Interview) Counterpart(userID uuid.UUID) uuid.UUID {
	if i.CandidateID == userID {
		return i.EnterpriseID
	}
	return i.CandidateID
}
