package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/crypto"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

const interviewColumns = `id, job_id, enterprise_id, candidate_id, scheduled_at, status, score,
	meeting_type, meeting_link, notes, call_status, call_started_at, call_ended_at,
	call_duration_seconds, created_at, updated_at`

func scanInterview(row scanner) (*models.Interview, error) {
	i := &models.Interview{}
	err := row.Scan(
		&i.ID,
		&i.JobID,
		&i.EnterpriseID,
		&i.CandidateID,
		&i.ScheduledAt,
		&i.Status,
		&i.Score,
		&i.MeetingType,
		&i.MeetingLink,
		&i.Notes,
		&i.CallStatus,
		&i.CallStartedAt,
		&i.CallEndedAt,
		&i.CallDurationSeconds,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func prepareInterview(i *models.Interview) {
	if i.ID == uuid.Nil {
		i.ID = crypto.NewUUIDv7()
	}
	if i.Status == "" {
		i.Status = models.InterviewPending
	}
	if i.CallStatus == "" {
		i.CallStatus = models.CallInitiated
	}
	if i.MeetingType == "" {
		i.MeetingType = models.MeetingVirtual
	}
	now := time.Now().UTC()
	i.CreatedAt, i.UpdatedAt = now, now
	i.ScheduledAt = i.ScheduledAt.UTC()
}

// CreateInterview inserts an interview.
func (s *PostgresStore) CreateInterview(ctx context.Context, i *models.Interview) error {
	defer observe(time.Now())
	prepareInterview(i)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO interviews (`+interviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, i.ID, i.JobID, i.EnterpriseID, i.CandidateID, i.ScheduledAt, i.Status, i.Score,
		i.MeetingType, i.MeetingLink, i.Notes, i.CallStatus, i.CallStartedAt, i.CallEndedAt,
		i.CallDurationSeconds, i.CreatedAt, i.UpdatedAt)
	return err
}

// GetInterview retrieves an interview by ID.
func (s *PostgresStore) GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	defer observe(time.Now())

	i, err := scanInterview(s.pool.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

// UpdateInterview overwrites the mutable fields of an interview.
func (s *PostgresStore) UpdateInterview(ctx context.Context, i *models.Interview) error {
	defer observe(time.Now())
	i.UpdatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		UPDATE interviews SET scheduled_at = $2, status = $3, score = $4, meeting_type = $5,
			meeting_link = $6, notes = $7, call_status = $8, call_started_at = $9,
			call_ended_at = $10, call_duration_seconds = $11, updated_at = $12
		WHERE id = $1
	`, i.ID, i.ScheduledAt.UTC(), i.Status, i.Score, i.MeetingType, i.MeetingLink, i.Notes,
		i.CallStatus, i.CallStartedAt, i.CallEndedAt, i.CallDurationSeconds, i.UpdatedAt)
	return err
}

// ListInterviewsForUser returns the interviews a user takes part in, soonest first.
// When from is set only interviews scheduled at or after it are returned.
func (s *PostgresStore) ListInterviewsForUser(ctx context.Context, userID uuid.UUID, from *time.Time) ([]models.Interview, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT `+interviewColumns+` FROM interviews
		WHERE (candidate_id = $1 OR enterprise_id = $1)
			AND ($2::timestamptz IS NULL OR scheduled_at >= $2)
		ORDER BY scheduled_at ASC
	`, userID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interviews := []models.Interview{}
	for rows.Next() {
		i, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, *i)
	}
	return interviews, rows.Err()
}

// CreateNotification inserts a notification.
func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	defer observe(time.Now())

	if n.ID == uuid.Nil {
		n.ID = crypto.NewUUIDv7()
	}
	n.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, message, job_id, seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.Type, n.Message, n.JobID, n.Seen, n.CreatedAt)
	return err
}

// ListNotifications returns a user's notifications, newest first.
func (s *PostgresStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, type, message, job_id, seen, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.JobID, &n.Seen, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationSeen flags a notification owned by userID as seen.
func (s *PostgresStore) MarkNotificationSeen(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	defer observe(time.Now())

	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET seen = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
