package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "Pending"
	ApplicationApproved ApplicationStatus = "Approved"
	ApplicationRejected ApplicationStatus = "Rejected"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// Application is a candidate's submission for a job.
type Application struct {
	ID           uuid.UUID         `json:"id"`
	JobID        uuid.UUID         `json:"job_id"`
	EnterpriseID uuid.UUID         `json:"enterprise_id"`
	CandidateID  uuid.UUID         `json:"candidate_id"`
	FullName     string            `json:"full_name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	CV           string            `json:"cv"`
	QuizScore    *int              `json:"quiz_score,omitempty"`
	Status       ApplicationStatus `json:"status"`
	AppliedAt    time.Time         `json:"applied_at"`
}

// Hire is an approved application as shown on the hiring dashboard.
type Hire struct {
	ApplicationID uuid.UUID  `json:"application_id"`
	CandidateID   uuid.UUID  `json:"candidate_id"`
	CandidateName string     `json:"candidate_name"`
	Picture       string     `json:"picture"`
	JobID         uuid.UUID  `json:"job_id"`
	Position      string     `json:"position"`
	EnterpriseID  uuid.UUID  `json:"enterprise_id"`
	HiredBy       string     `json:"hired_by"`
	InterviewDate *time.Time `json:"interview_date,omitempty"`
}
