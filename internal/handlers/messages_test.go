package handlers_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/handlers"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// recordingConn is a live connection that keeps every event it is sent.
type recordingConn struct {
	user   string
	mu     sync.Mutex
	events []string
}

func (c *recordingConn) UserID() string { return c.user }

func (c *recordingConn) Send(event string, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConn) Close() {}

func (c *recordingConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func TestSendMessageAndHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	a := env.createUser(t, models.RoleCandidate, "jane@example.com")
	b := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	aTok, bTok := env.token(t, a), env.token(t, b)

	// b is connected, a is not
	live := &recordingConn{user: b.ID.String()}
	env.registry.Register(b.ID.String(), live)

	rec := env.do(t, http.MethodPost, "/api/messages/send", aTok, map[string]any{"to": b.ID, "text": "  hello  "})
	req.Equal(http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeBody[models.Message](t, rec)
	req.Equal("hello", first.Text)
	req.Equal(a.ID.String(), first.From)
	req.Len(live.received(), 1)

	rec = env.do(t, http.MethodPost, "/api/messages/send", bTok, map[string]any{"to": a.ID, "text": "hi back"})
	req.Equal(http.StatusCreated, rec.Code)

	// History is the same from either side, oldest first
	ab := decodeBody[[]models.Message](t, env.do(t, http.MethodGet, "/api/messages/history/"+a.ID.String()+"/"+b.ID.String(), aTok, nil))
	ba := decodeBody[[]models.Message](t, env.do(t, http.MethodGet, "/api/messages/history/"+b.ID.String()+"/"+a.ID.String(), bTok, nil))
	req.Len(ab, 2)
	req.Equal(ab, ba)
	req.Equal("hello", ab[0].Text)
	req.Equal("hi back", ab[1].Text)

	// A third party cannot read it
	stranger := env.createUser(t, models.RoleCandidate, "john@example.com")
	rec = env.do(t, http.MethodGet, "/api/messages/history/"+a.ID.String()+"/"+b.ID.String(), env.token(t, stranger), nil)
	req.Equal(http.StatusForbidden, rec.Code)

	// Marking read only touches messages addressed to the caller
	rec = env.do(t, http.MethodPut, "/api/messages/read/"+a.ID.String(), bTok, nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Equal(float64(1), decodeBody[map[string]any](t, rec)["updated"])

	rec = env.do(t, http.MethodGet, "/api/messages/user/"+b.ID.String(), bTok, nil)
	req.Equal(http.StatusOK, rec.Code)
	msgs := decodeBody[[]models.Message](t, rec)
	req.Len(msgs, 2)
	req.True(msgs[0].Read)
	req.False(msgs[1].Read)

	rec = env.do(t, http.MethodGet, "/api/messages/user/"+b.ID.String(), aTok, nil)
	req.Equal(http.StatusForbidden, rec.Code)
}

func TestSendMessageErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)
	a := env.createUser(t, models.RoleCandidate, "jane@example.com")
	b := env.createUser(t, models.RoleCandidate, "john@example.com")
	tok := env.token(t, a)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"unknown recipient", map[string]any{"to": "0190a0f0-0000-7000-8000-000000000000", "text": "hi"}, http.StatusNotFound},
		{"blank text", map[string]any{"to": b.ID, "text": "   "}, http.StatusBadRequest},
		{"missing text", map[string]any{"to": b.ID}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/messages/send", tok, tt.body)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	msgs, err := env.store.ListMessagesForUser(context.Background(), a.ID.String(), 0)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestSystemConversation(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")
	job := env.createJob(t, ent, "Backend Engineer")
	candTok := env.token(t, cand)

	// Given an application whose status the enterprise changes
	rec := env.do(t, http.MethodPost, "/apply-job", candTok, map[string]any{
		"job_id": job.ID, "full_name": "Jane", "email": "jane@example.com",
	})
	req.Equal(http.StatusCreated, rec.Code)
	app := decodeBody[models.Application](t, rec)
	rec = env.do(t, http.MethodPut, "/applications/"+app.ID.String()+"/status", env.token(t, ent), map[string]string{"status": "Approved"})
	req.Equal(http.StatusOK, rec.Code)

	// Then the candidate has a message from the system sender, in either order
	for _, path := range []string{
		"/api/messages/history/" + cand.ID.String() + "/" + models.SystemSender,
		"/api/messages/history/" + models.SystemSender + "/" + cand.ID.String(),
	} {
		rec = env.do(t, http.MethodGet, path, candTok, nil)
		req.Equal(http.StatusOK, rec.Code, path)
		msgs := decodeBody[[]models.Message](t, rec)
		req.Len(msgs, 1)
		req.Equal(models.SystemSender, msgs[0].From)
		req.Contains(msgs[0].Text, "Approved")
	}

	rec = env.do(t, http.MethodGet, "/api/messages/history/system/system", candTok, nil)
	req.Equal(http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/messages/history/"+cand.ID.String()+"/system", env.token(t, ent), nil)
	req.Equal(http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/messages/history/nobody/system", candTok, nil)
	req.Equal(http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/messages/read/system", candTok, nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Equal(float64(1), decodeBody[map[string]any](t, rec)["updated"])

	// Nobody can write as or to the system sender
	rec = env.do(t, http.MethodPost, "/api/messages/send", candTok, map[string]any{"to": models.SystemSender, "text": "hi"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestNotifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")
	job := env.createJob(t, ent, "Backend Engineer")

	rec := env.do(t, http.MethodPost, "/apply-job", env.token(t, cand), map[string]any{
		"job_id": job.ID, "full_name": "Jane", "email": "jane@example.com",
	})
	req.Equal(http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/notifications", env.token(t, ent), nil)
	req.Equal(http.StatusOK, rec.Code)
	notes := decodeBody[[]models.Notification](t, rec)
	req.Len(notes, 1)
	req.False(notes[0].Seen)

	// Only the owner can mark it
	rec = env.do(t, http.MethodPut, "/notifications/"+notes[0].ID.String()+"/seen", env.token(t, cand), nil)
	req.Equal(http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/notifications/"+notes[0].ID.String()+"/seen", env.token(t, ent), nil)
	req.Equal(http.StatusOK, rec.Code)

	stored, err := env.store.ListNotifications(context.Background(), ent.ID, 10)
	req.NoError(err)
	req.True(stored[0].Seen)

	// Others start empty, not null
	rec = env.do(t, http.MethodGet, "/notifications", env.token(t, cand), nil)
	req.JSONEq("[]", rec.Body.String())
}

func TestPresence(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	a := env.createUser(t, models.RoleCandidate, "jane@example.com")
	b := env.createUser(t, models.RoleCandidate, "john@example.com")
	tok := env.token(t, a)

	rec := env.do(t, http.MethodGet, "/presence/"+b.ID.String(), tok, nil)
	req.Equal(http.StatusOK, rec.Code)
	req.False(decodeBody[handlers.PresenceResponse](t, rec).Online)

	env.registry.Register(b.ID.String(), &recordingConn{user: b.ID.String()})

	rec = env.do(t, http.MethodGet, "/presence/"+b.ID.String(), tok, nil)
	got := decodeBody[handlers.PresenceResponse](t, rec)
	req.True(got.Online)
	req.Equal(b.ID.String(), got.UserID)
}
