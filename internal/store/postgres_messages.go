package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// prepareMessage assigns the ULID and timestamp of a new message.
func prepareMessage(m *models.Message) {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.CreatedAt = m.CreatedAt.UTC()
}

// CreateMessage appends a message to the log.
func (s *PostgresStore) CreateMessage(ctx context.Context, m *models.Message) error {
	defer observe(time.Now())
	prepareMessage(m)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, from_id, to_id, text, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.From, m.To, m.Text, m.Read, m.CreatedAt)
	return err
}

// GetConversation returns the latest messages exchanged between two users in
// ascending time order. The result does not depend on argument order.
func (s *PostgresStore) GetConversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, from_id, to_id, text, read, created_at FROM (
			SELECT id, from_id, to_id, text, read, created_at FROM messages
			WHERE (from_id = $1 AND to_id = $2) OR (from_id = $2 AND to_id = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC, id ASC
	`, userA, userB, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectPGMessages(rows)
}

// ListMessagesForUser returns messages sent or received by a user, oldest first.
func (s *PostgresStore) ListMessagesForUser(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, from_id, to_id, text, read, created_at FROM (
			SELECT id, from_id, to_id, text, read, created_at FROM messages
			WHERE from_id = $1 OR to_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectPGMessages(rows)
}

// MarkConversationRead marks every message from partner to reader as read.
func (s *PostgresStore) MarkConversationRead(ctx context.Context, reader, partner string) (int64, error) {
	defer observe(time.Now())

	tag, err := s.pool.Exec(ctx, `
		UPDATE messages SET read = TRUE WHERE to_id = $1 AND from_id = $2 AND read = FALSE
	`, reader, partner)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectPGMessages(rows pgx.Rows) ([]models.Message, error) {
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
