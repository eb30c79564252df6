package realtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

func TestDispatcher_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and delivers to a connected recipient", func(t *testing.T) {
		req := require.New(t)
		st := newTestStore(t)
		reg := NewMemoryRegistry()
		bob := newFakeConn("bob")
		reg.Register("bob", bob)
		d := NewDispatcher(st, st, st, reg, zerolog.Nop())

		msg, err := d.SendMessage(ctx, "alice", "bob", "  hello  ")
		req.NoError(err)
		req.NotEmpty(msg.ID)
		req.Equal("hello", msg.Text)

		history, err := st.GetConversation(ctx, "bob", "alice", 50)
		req.NoError(err)
		req.Len(history, 1)
		req.Equal(msg.ID, history[0].ID)

		events := bob.Events()
		req.Len(events, 1)
		req.Equal(EventReceiveMessage, events[0].Event)
		req.Equal(msg, events[0].Payload)
	})

	t.Run("persists without delivery when recipient is offline", func(t *testing.T) {
		req := require.New(t)
		st := newTestStore(t)
		d := NewDispatcher(st, st, st, NewMemoryRegistry(), zerolog.Nop())

		_, err := d.SendMessage(ctx, "alice", "bob", "are you there?")
		req.NoError(err)

		history, err := st.GetConversation(ctx, "alice", "bob", 50)
		req.NoError(err)
		req.Len(history, 1)
	})

	t.Run("delivery failure does not fail the send", func(t *testing.T) {
		req := require.New(t)
		st := newTestStore(t)
		reg := NewMemoryRegistry()
		bob := newFakeConn("bob")
		bob.sendErr = ErrSendBufferFull
		reg.Register("bob", bob)
		d := NewDispatcher(st, st, st, reg, zerolog.Nop())

		_, err := d.SendMessage(ctx, "alice", "bob", "hi")
		req.NoError(err)

		history, err := st.GetConversation(ctx, "alice", "bob", 50)
		req.NoError(err)
		req.Len(history, 1)
	})

	t.Run("persistence failure delivers nothing", func(t *testing.T) {
		req := require.New(t)
		st := newTestStore(t)
		reg := NewMemoryRegistry()
		bob := newFakeConn("bob")
		reg.Register("bob", bob)
		d := NewDispatcher(st, failingMessages{}, st, reg, zerolog.Nop())

		_, err := d.SendMessage(ctx, "alice", "bob", "hi")
		req.Error(err)
		req.Empty(bob.Events())
	})

	t.Run("validation", func(t *testing.T) {
		req := require.New(t)
		st := newTestStore(t)
		d := NewDispatcher(st, st, st, NewMemoryRegistry(), zerolog.Nop())

		_, err := d.SendMessage(ctx, "alice", "", "hi")
		req.ErrorIs(err, ErrNoRecipient)
		_, err = d.SendMessage(ctx, "alice", "bob", "   ")
		req.ErrorIs(err, ErrEmptyMessage)
		_, err = d.SendMessage(ctx, "alice", "bob", strings.Repeat("x", MaxMessageLength+1))
		req.ErrorIs(err, ErrMessageTooLong)

		history, err := st.GetConversation(ctx, "alice", "bob", 50)
		req.NoError(err)
		req.Empty(history)
	})

	t.Run("messages keep call order", func(t *testing.T) {
		req := require.New(t)
		st := newTestStore(t)
		d := NewDispatcher(st, st, st, NewMemoryRegistry(), zerolog.Nop())

		for _, text := range []string{"one", "two", "three"} {
			_, err := d.SendMessage(ctx, "alice", "bob", text)
			req.NoError(err)
		}

		history, err := st.GetConversation(ctx, "bob", "alice", 50)
		req.NoError(err)
		req.Len(history, 3)
		req.Equal([]string{"one", "two", "three"}, []string{history[0].Text, history[1].Text, history[2].Text})
	})
}

func TestDispatcher_Notify(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	st := newTestStore(t)

	user := &models.User{Email: "cand@example.com", Name: "Cand", Role: models.RoleCandidate}
	req.NoError(st.CreateUser(ctx, user))

	reg := NewMemoryRegistry()
	conn := newFakeConn(user.ID.String())
	reg.Register(user.ID.String(), conn)
	d := NewDispatcher(st, st, st, reg, zerolog.Nop())

	jobID := uuid.New()
	n, err := d.Notify(ctx, user.ID, models.NotificationInterview, "Interview scheduled", &jobID)
	req.NoError(err)
	req.NotEqual(uuid.Nil, n.ID)

	stored, err := st.ListNotifications(ctx, user.ID, 10)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("Interview scheduled", stored[0].Message)
	req.Equal(jobID, *stored[0].JobID)

	req.Equal([]string{EventNotification}, conn.EventNames())

	// unknown user violates the foreign key, so nothing is delivered
	_, err = d.Notify(ctx, uuid.New(), models.NotificationSystem, "x", nil)
	req.Error(err)
	req.False(errors.Is(err, ErrNoRecipient))
	req.Len(conn.Events(), 1)
}

func TestDispatcher_SendUserMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	st := newTestStore(t)
	bob := &models.User{Email: "bob@example.com", Name: "Bob", Role: models.RoleEnterprise}
	req.NoError(st.CreateUser(ctx, bob))
	d := NewDispatcher(st, st, st, NewMemoryRegistry(), zerolog.Nop())

	tests := []struct {
		name string
		to   string
		want error
	}{
		{"empty", "", ErrNoRecipient},
		{"not an id", "bob", ErrUnknownRecipient},
		{"reserved sender", models.SystemSender, ErrUnknownRecipient},
		{"no such account", uuid.NewString(), ErrUnknownRecipient},
	}
	for _, tt := range tests {
		_, err := d.SendUserMessage(ctx, "alice", tt.to, "hi")
		req.ErrorIs(err, tt.want, tt.name)
	}
	msgs, err := st.ListMessagesForUser(ctx, "alice", 0)
	req.NoError(err)
	req.Empty(msgs)

	msg, err := d.SendUserMessage(ctx, "alice", strings.ToUpper(bob.ID.String()), "hi")
	req.NoError(err)
	req.Equal(bob.ID.String(), msg.To)
}

func TestDispatcher_SystemMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	st := newTestStore(t)
	reg := NewMemoryRegistry()
	userID := uuid.New()
	conn := newFakeConn(userID.String())
	reg.Register(userID.String(), conn)
	d := NewDispatcher(st, st, st, reg, zerolog.Nop())

	msg, err := d.SystemMessage(ctx, userID, "Your application was approved")
	req.NoError(err)
	req.Equal(models.SystemSender, msg.From)

	history, err := st.GetConversation(ctx, userID.String(), models.SystemSender, 0)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal([]string{EventReceiveMessage}, conn.EventNames())
}
