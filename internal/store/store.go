package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// Lookups return (nil, nil) when the record does not exist.

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) (bool, error)
	ListUsers(ctx context.Context, role models.Role, limit, offset int) ([]models.User, int, error)
}

// JobStore persists job postings.
type JobStore interface {
	CreateJob(ctx context.Context, j *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateJob(ctx context.Context, j *models.Job) error
	DeleteJob(ctx context.Context, id uuid.UUID) (bool, error)
	ListJobs(ctx context.Context, filter models.JobFilter) ([]models.JobSummary, error)
}

// ApplicationStore persists job applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListApplicationsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]models.Application, error)
	ListApplicationsByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Application, error)
	ListApplicationsByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error
	SetApplicationQuizScore(ctx context.Context, jobID, candidateID uuid.UUID, score int) (bool, error)
	InitApplicationQuizScore(ctx context.Context, jobID, candidateID uuid.UUID, score int) (bool, error)
	ListHires(ctx context.Context, enterpriseID uuid.UUID) ([]models.Hire, error)
}

// QuizStore persists quizzes and their results.
type QuizStore interface {
	UpsertQuiz(ctx context.Context, q *models.Quiz) error
	GetQuizByJob(ctx context.Context, jobID uuid.UUID) (*models.Quiz, error)
	SaveQuizResult(ctx context.Context, r *models.QuizResult) error
	GetQuizResult(ctx context.Context, jobID, candidateID uuid.UUID) (*models.QuizResult, error)
	ListQuizResultsByJob(ctx context.Context, jobID uuid.UUID) ([]models.QuizResult, error)
	ListQuizzes(ctx context.Context, enterpriseID uuid.UUID) ([]models.QuizSummary, error)
}

// InterviewStore persists interviews.
type InterviewStore interface {
	CreateInterview(ctx context.Context, i *models.Interview) error
	GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error)
	UpdateInterview(ctx context.Context, i *models.Interview) error
	ListInterviewsForUser(ctx context.Context, userID uuid.UUID, from *time.Time) ([]models.Interview, error)
}

// MessageStore is the durable, append-only log of chat messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	GetConversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error)
	ListMessagesForUser(ctx context.Context, userID string, limit int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, reader, partner string) (int64, error)
}

// NotificationStore persists per-user notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkNotificationSeen(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// DataStore defines the interface for persistent storage.
// Both PostgresStore and SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	UserStore
	JobStore
	ApplicationStore
	QuizStore
	InterviewStore
	MessageStore
	NotificationStore

	GetPlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

const defaultListLimit = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
