package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotificationInterview           NotificationType = "INTERVIEW"
	NotificationApplicationReceived NotificationType = "APPLICATION_RECEIVED"
	NotificationMessage             NotificationType = "MESSAGE"
	NotificationSystem              NotificationType = "SYSTEM"
)

// Notification is a persisted alert for a single user.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	JobID     *uuid.UUID       `json:"job_id,omitempty"`
	Seen      bool             `json:"seen"`
	CreatedAt time.Time        `json:"created_at"`
}

// PlatformStats aggregates counters for the admin dashboard.
type PlatformStats struct {
	Candidates   int64 `json:"candidates"`
	Enterprises  int64 `json:"enterprises"`
	Admins       int64 `json:"admins"`
	Jobs         int64 `json:"jobs"`
	OpenJobs     int64 `json:"open_jobs"`
	Applications int64 `json:"applications"`
	Interviews   int64 `json:"interviews"`
	Messages     int64 `json:"messages"`
}
