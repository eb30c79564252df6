package store

import (
	"context"
	"database/sql"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// CreateMessage appends a message to the log.
func (s *SQLiteStore) CreateMessage(ctx context.Context, m *models.Message) error {
	prepareMessage(m)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, from_id, to_id, text, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.From, m.To, m.Text, m.Read, m.CreatedAt)
	return err
}

// GetConversation returns the latest messages exchanged between two users in
// ascending time order. The result does not depend on argument order.
func (s *SQLiteStore) GetConversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_id, to_id, text, read, created_at FROM (
			SELECT id, from_id, to_id, text, read, created_at FROM messages
			WHERE (from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, id ASC
	`, userA, userB, userB, userA, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectSQLiteMessages(rows)
}

// ListMessagesForUser returns messages sent or received by a user, oldest first.
func (s *SQLiteStore) ListMessagesForUser(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_id, to_id, text, read, created_at FROM (
			SELECT id, from_id, to_id, text, read, created_at FROM messages
			WHERE from_id = ? OR to_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, id ASC
	`, userID, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectSQLiteMessages(rows)
}

// MarkConversationRead marks every message from partner to reader as read.
func (s *SQLiteStore) MarkConversationRead(ctx context.Context, reader, partner string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE messages SET read = 1 WHERE to_id = ? AND from_id = ? AND read = 0
	`, reader, partner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collectSQLiteMessages(rows *sql.Rows) ([]models.Message, error) {
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Text, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
