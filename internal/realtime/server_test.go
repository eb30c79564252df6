package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/api/middleware"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

type wsFixture struct {
	srv    *httptest.Server
	st     *store.SQLiteStore
	reg    *MemoryRegistry
	sig    *Signaling
	tokens *auth.TokenService
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	st := newTestStore(t)
	reg := NewMemoryRegistry()
	tokens := auth.NewTokenService("ws-secret", time.Hour)
	d := NewDispatcher(st, st, st, reg, zerolog.Nop())
	sig := NewSignaling(reg, allowAll, zerolog.Nop())
	server := NewServer(reg, d, sig, nil, zerolog.Nop())

	srv := httptest.NewServer(middleware.NewAuthMiddleware(tokens).RequireAuth(server))
	t.Cleanup(srv.Close)
	return &wsFixture{srv: srv, st: st, reg: reg, sig: sig, tokens: tokens}
}

func (f *wsFixture) dial(t *testing.T, role models.Role) (*websocket.Conn, string) {
	t.Helper()
	user := &models.User{Email: uuid.NewString() + "@example.com", Name: "ws user", Role: role, IsActive: true}
	require.NoError(t, f.st.CreateUser(context.Background(), user))
	id := user.ID
	token, err := f.tokens.GenerateFor(id, user.Email, role)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		_, ok := f.reg.Lookup(id.String())
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	return conn, id.String()
}

// readEvent returns the next non-ping event.
func readEvent(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		event, payload := decodeEnvelope(t, data)
		if event != EventPing {
			return event, payload
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, data map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func TestServer_RejectsUnauthenticated(t *testing.T) {
	f := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_RelaysChatMessages(t *testing.T) {
	req := require.New(t)
	f := newWSFixture(t)
	alice, _ := f.dial(t, models.RoleCandidate)
	bob, bobID := f.dial(t, models.RoleEnterprise)

	send(t, alice, EventSendMessage, map[string]any{"to": bobID, "text": "hello bob"})

	event, data := readEvent(t, alice)
	req.Equal(EventMessageSent, event)
	req.Equal("hello bob", data["text"])

	event, data = readEvent(t, bob)
	req.Equal(EventReceiveMessage, event)
	req.Equal("hello bob", data["text"])
	req.Equal(bobID, data["to"])
}

func TestServer_ReportsErrors(t *testing.T) {
	req := require.New(t)
	f := newWSFixture(t)
	alice, _ := f.dial(t, models.RoleCandidate)
	_, bobID := f.dial(t, models.RoleEnterprise)

	send(t, alice, EventSendMessage, map[string]any{"to": bobID, "text": ""})
	event, data := readEvent(t, alice)
	req.Equal(EventError, event)
	req.Equal(ErrEmptyMessage.Error(), data["message"])

	send(t, alice, "dance", map[string]any{})
	event, _ = readEvent(t, alice)
	req.Equal(EventError, event)

	send(t, alice, EventNotifyCandidate, map[string]any{"to": uuid.NewString(), "message": "hi"})
	event, data = readEvent(t, alice)
	req.Equal(EventError, event)
	req.Contains(data["message"], "only enterprises")
}

func TestServer_RejectsUnknownRecipients(t *testing.T) {
	req := require.New(t)
	f := newWSFixture(t)
	alice, aliceID := f.dial(t, models.RoleCandidate)

	for _, to := range []string{"someone", models.SystemSender, uuid.NewString()} {
		send(t, alice, EventSendMessage, map[string]any{"to": to, "text": "hi"})
		event, data := readEvent(t, alice)
		req.Equal(EventError, event, to)
		req.Equal(ErrUnknownRecipient.Error(), data["message"], to)
	}

	msgs, err := f.st.ListMessagesForUser(context.Background(), aliceID, 0)
	req.NoError(err)
	req.Empty(msgs)
}

func TestServer_SignalingAndDisconnect(t *testing.T) {
	req := require.New(t)
	f := newWSFixture(t)
	alice, _ := f.dial(t, models.RoleEnterprise)
	bob, bobID := f.dial(t, models.RoleCandidate)

	send(t, alice, EventJoinInterview, map[string]any{"interviewId": "iv-9"})
	req.Eventually(func() bool { return len(f.sig.Members("iv-9")) == 1 }, 2*time.Second, 10*time.Millisecond)
	send(t, bob, EventJoinInterview, map[string]any{"interviewId": "iv-9"})

	event, data := readEvent(t, alice)
	req.Equal(EventUserConnected, event)
	req.Equal(bobID, data["userId"])

	send(t, alice, EventOffer, map[string]any{"interviewId": "iv-9", "offer": map[string]any{"sdp": "x"}})
	event, data = readEvent(t, bob)
	req.Equal(EventOffer, event)
	req.Equal(map[string]any{"sdp": "x"}, data["offer"])

	// closing bob's socket tears the room down
	req.NoError(bob.Close())
	event, data = readEvent(t, alice)
	req.Equal(EventUserDisconnected, event)
	req.Equal(bobID, data["userId"])

	req.Eventually(func() bool {
		_, ok := f.reg.Lookup(bobID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestInterviewAccessFromStore(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	st := newTestStore(t)
	access := InterviewAccessFromStore(st)

	ok, err := access(ctx, "not-a-uuid", uuid.NewString())
	req.NoError(err)
	req.False(ok)

	ok, err = access(ctx, uuid.NewString(), uuid.NewString())
	req.NoError(err)
	req.False(ok)
}
