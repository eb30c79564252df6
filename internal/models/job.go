package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a job posting.
type JobStatus string

const (
	JobOpen   JobStatus = "OPEN"
	JobClosed JobStatus = "CLOSED"
)

// Job represents a posting published by an enterprise.
type Job struct {
	ID           uuid.UUID `json:"id"`
	EnterpriseID uuid.UUID `json:"enterprise_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	Salary       float64   `json:"salary"`
	Skills       []string  `json:"skills"`
	Languages    []string  `json:"languages"`
	Status       JobStatus `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// JobSummary is a job as shown in listings.
type JobSummary struct {
	Job
	EnterpriseName string `json:"enterprise_name"`
	ApplicantCount int    `json:"applicant_count"`
}

// JobFilter narrows job listings. Zero values match everything.
type JobFilter struct {
	EnterpriseID *uuid.UUID
	Status       JobStatus
	Query        string
	Limit        int
	Offset       int
}
