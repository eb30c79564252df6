package models

import "time"

// SystemSender is the sender id used for platform-generated messages.
const SystemSender = "system"

// Message is a direct chat message. Messages are append-only; only Read changes.
type Message struct {
	ID        string    `json:"id"` // ULID
	From      string    `json:"from"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"timestamp"`
}
