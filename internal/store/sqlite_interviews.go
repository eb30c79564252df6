package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/crypto"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// CreateInterview inserts an interview.
func (s *SQLiteStore) CreateInterview(ctx context.Context, i *models.Interview) error {
	prepareInterview(i)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interviews (`+interviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, i.JobID, i.EnterpriseID, i.CandidateID, i.ScheduledAt, i.Status, i.Score,
		i.MeetingType, i.MeetingLink, i.Notes, i.CallStatus, utcPtr(i.CallStartedAt), utcPtr(i.CallEndedAt),
		i.CallDurationSeconds, i.CreatedAt, i.UpdatedAt)
	return err
}

// GetInterview retrieves an interview by ID.
func (s *SQLiteStore) GetInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	i, err := scanInterview(s.db.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

// UpdateInterview overwrites the mutable fields of an interview.
func (s *SQLiteStore) UpdateInterview(ctx context.Context, i *models.Interview) error {
	i.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		UPDATE interviews SET scheduled_at = ?, status = ?, score = ?, meeting_type = ?,
			meeting_link = ?, notes = ?, call_status = ?, call_started_at = ?,
			call_ended_at = ?, call_duration_seconds = ?, updated_at = ?
		WHERE id = ?
	`, i.ScheduledAt.UTC(), i.Status, i.Score, i.MeetingType, i.MeetingLink, i.Notes,
		i.CallStatus, utcPtr(i.CallStartedAt), utcPtr(i.CallEndedAt), i.CallDurationSeconds, i.UpdatedAt, i.ID)
	return err
}

// ListInterviewsForUser returns the interviews a user takes part in, soonest first.
// When from is set only interviews scheduled at or after it are returned.
func (s *SQLiteStore) ListInterviewsForUser(ctx context.Context, userID uuid.UUID, from *time.Time) ([]models.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE (candidate_id = ? OR enterprise_id = ?)`
	args := []any{userID, userID}
	if from != nil {
		query += ` AND scheduled_at >= ?`
		args = append(args, from.UTC())
	}
	query += ` ORDER BY scheduled_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
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
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = crypto.NewUUIDv7()
	}
	n.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, message, job_id, seen, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Type, n.Message, n.JobID, n.Seen, n.CreatedAt)
	return err
}

// ListNotifications returns a user's notifications, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, message, job_id, seen, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
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
func (s *SQLiteStore) MarkNotificationSeen(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET seen = 1 WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
