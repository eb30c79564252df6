package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

type sentEvent struct {
	Event   string
	Payload any
}

type fakeConn struct {
	id      string
	sendErr error

	mu     sync.Mutex
	events []sentEvent
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) UserID() string { return c.id }

func (c *fakeConn) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.events = append(c.events, sentEvent{Event: event, Payload: payload})
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Events() []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentEvent(nil), c.events...)
}

func (c *fakeConn) EventNames() []string {
	var names []string
	for _, e := range c.Events() {
		names = append(names, e.Event)
	}
	return names
}

// failingMessages rejects every write.
type failingMessages struct {
	store.MessageStore
}

func (failingMessages) CreateMessage(context.Context, *models.Message) error {
	return errors.New("disk full")
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func decodeEnvelope(t *testing.T, data []byte) (string, map[string]any) {
	t.Helper()
	var env struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	return env.Event, env.Data
}
