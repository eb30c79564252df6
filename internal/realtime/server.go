package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/api/middleware"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

// Server upgrades authenticated requests to websockets and runs the
// per-connection event loop.
type Server struct {
	registry   Registry
	dispatcher *Dispatcher
	signaling  *Signaling
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// NewServer creates the websocket endpoint. allowedOrigins empty or
// containing "*" accepts any origin.
func NewServer(registry Registry, dispatcher *Dispatcher, signaling *Signaling, allowedOrigins []string, logger zerolog.Logger) *Server {
	s := &Server{
		registry:   registry,
		dispatcher: dispatcher,
		signaling:  signaling,
		logger:     logger.With().Str("component", "realtime").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || lo.Contains(allowedOrigins, "*") {
				return true
			}
			return lo.Contains(allowedOrigins, origin)
		},
	}
	return s
}

// ServeHTTP handles GET /ws. It must run behind the auth middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID.String()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	conn := NewWSConn(ws, userID, s.logger)
	if prev := s.registry.Register(userID, conn); prev != nil && prev != Conn(conn) {
		s.logger.Debug().Str("user_id", userID).Msg("connection replaced")
	}
	s.logger.Info().Str("user_id", userID).Msg("websocket connected")

	conn.ReadLoop(func(data []byte) {
		s.handle(ctx, conn, claims, data)
	})

	if s.registry.RemoveIf(userID, conn) {
		s.signaling.Disconnect(userID)
	}
	s.logger.Info().Str("user_id", userID).Msg("websocket disconnected")
}

func (s *Server) handle(ctx context.Context, conn Conn, claims *auth.Claims, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
		s.sendError(conn, "malformed event")
		return
	}
	userID := conn.UserID()

	switch env.Event {
	case EventSendMessage:
		var p sendMessagePayload
		if !s.decode(conn, env, &p) {
			return
		}
		msg, err := s.dispatcher.SendUserMessage(ctx, userID, p.To, p.Text)
		if err != nil {
			s.replyError(conn, err)
			return
		}
		_ = conn.Send(EventMessageSent, msg)

	case EventNotifyCandidate:
		var p notifyPayload
		if !s.decode(conn, env, &p) {
			return
		}
		if claims.Role != models.RoleEnterprise && claims.Role != models.RoleAdmin {
			s.sendError(conn, "only enterprises can notify candidates")
			return
		}
		to, err := uuid.Parse(p.To)
		if err != nil {
			s.sendError(conn, "invalid recipient")
			return
		}
		var jobID *uuid.UUID
		if p.JobID != "" {
			if id, err := uuid.Parse(p.JobID); err == nil {
				jobID = &id
			}
		}
		if _, err := s.dispatcher.Notify(ctx, to, models.NotificationInterview, p.Message, jobID); err != nil {
			s.replyError(conn, err)
		}

	case EventJoinInterview:
		var p signalPayload
		if !s.decode(conn, env, &p) {
			return
		}
		if err := s.signaling.Join(ctx, p.InterviewID, userID); err != nil {
			s.replyError(conn, err)
		}

	case EventOffer, EventAnswer, EventICECandidate, EventPeerConnected:
		var p signalPayload
		if !s.decode(conn, env, &p) {
			return
		}
		if err := s.signaling.Relay(env.Event, p.InterviewID, userID, p); err != nil {
			s.replyError(conn, err)
		}

	case EventLeaveInterview:
		var p signalPayload
		if !s.decode(conn, env, &p) {
			return
		}
		s.signaling.Leave(p.InterviewID, userID)

	case EventPong:
		if hb, ok := s.registry.(heartbeater); ok {
			hb.Heartbeat(userID)
		}

	default:
		s.sendError(conn, "unknown event: "+env.Event)
	}
}

func (s *Server) decode(conn Conn, env Envelope, v any) bool {
	if len(env.Data) == 0 {
		s.sendError(conn, "missing data for "+env.Event)
		return false
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		s.sendError(conn, "invalid data for "+env.Event)
		return false
	}
	return true
}

// replyError reports domain errors verbatim and hides everything else.
func (s *Server) replyError(conn Conn, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong), errors.Is(err, ErrNoRecipient),
		errors.Is(err, ErrUnknownRecipient), errors.Is(err, ErrRoomFull), errors.Is(err, ErrNotInRoom), errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrNoInterviewID):
		s.sendError(conn, err.Error())
	default:
		s.logger.Error().Err(err).Str("user_id", conn.UserID()).Msg("realtime event failed")
		s.sendError(conn, "internal error")
	}
}

func (s *Server) sendError(conn Conn, message string) {
	_ = conn.Send(EventError, ErrorEvent{Message: message})
}

// InterviewAccessFromStore checks room membership against persisted interviews.
func InterviewAccessFromStore(interviews store.InterviewStore) InterviewAccess {
	return func(ctx context.Context, interviewID, userID string) (bool, error) {
		iid, err := uuid.Parse(interviewID)
		if err != nil {
			return false, nil
		}
		uid, err := uuid.Parse(userID)
		if err != nil {
			return false, nil
		}
		interview, err := interviews.GetInterview(ctx, iid)
		if err != nil {
			return false, err
		}
		if interview == nil {
			return false, nil
		}
		return interview.HasParticipant(uid), nil
	}
}
