package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
)

// RoomState is the negotiation phase of an interview room.
type RoomState string

const (
	RoomOneJoined   RoomState = "one-joined"
	RoomNegotiating RoomState = "negotiating"
	RoomConnected   RoomState = "connected"
	RoomClosed      RoomState = "closed"
)

const maxRoomMembers = 2

var (
	ErrRoomFull       = errors.New("interview room is full")
	ErrNotInRoom      = errors.New("you have not joined this interview room")
	ErrNotParticipant = errors.New("you are not a participant of this interview")
	ErrNoInterviewID  = errors.New("interviewId is required")
)

// InterviewAccess reports whether userID takes part in interviewID.
type InterviewAccess func(ctx context.Context, interviewID, userID string) (bool, error)

type room struct {
	members []string
	state   RoomState
}

func (r *room) has(userID string) bool {
	for _, m := range r.members {
		if m == userID {
			return true
		}
	}
	return false
}

func (r *room) counterpart(userID string) (string, bool) {
	for _, m := range r.members {
		if m != userID {
			return m, true
		}
	}
	return "", false
}

// Signaling relays WebRTC negotiation between the two members of an
// interview room. Payloads are forwarded opaquely and no media state is kept.
type Signaling struct {
	mu       sync.Mutex
	rooms    map[string]*room
	registry Registry
	access   InterviewAccess
	logger   zerolog.Logger
}

func NewSignaling(registry Registry, access InterviewAccess, logger zerolog.Logger) *Signaling {
	return &Signaling{
		rooms:    make(map[string]*room),
		registry: registry,
		access:   access,
		logger:   logger.With().Str("component", "signaling").Logger(),
	}
}

// Join adds userID to the interview room, creating it on first join.
func (s *Signaling) Join(ctx context.Context, interviewID, userID string) error {
	if interviewID == "" {
		return ErrNoInterviewID
	}
	if s.access != nil {
		ok, err := s.access(ctx, interviewID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotParticipant
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[interviewID]
	if !ok {
		r = &room{}
		s.rooms[interviewID] = r
	}
	if r.has(userID) {
		return nil
	}
	if len(r.members) >= maxRoomMembers {
		return ErrRoomFull
	}
	r.members = append(r.members, userID)

	if len(r.members) == 1 {
		r.state = RoomOneJoined
		return nil
	}
	r.state = RoomNegotiating
	other, _ := r.counterpart(userID)
	s.send(other, EventUserConnected, PeerEvent{UserID: userID, InterviewID: interviewID})
	return nil
}

// Relay forwards a signaling event from userID to the other room member.
// Without a counterpart the event is dropped.
func (s *Signaling) Relay(event, interviewID, userID string, payload signalPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[interviewID]
	if !ok || !r.has(userID) {
		return ErrNotInRoom
	}

	other, ok := r.counterpart(userID)
	if !ok {
		s.drop(event, interviewID, userID)
		return nil
	}

	switch event {
	case EventOffer:
		r.state = RoomNegotiating
	case EventAnswer, EventPeerConnected:
		r.state = RoomConnected
	}

	s.send(other, event, PeerEvent{
		UserID:      userID,
		InterviewID: interviewID,
		Offer:       payload.Offer,
		Answer:      payload.Answer,
		Candidate:   payload.Candidate,
	})
	return nil
}

// Leave closes the room and tells the remaining member.
func (s *Signaling) Leave(interviewID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown(interviewID, userID)
}

// Disconnect tears down every room userID belongs to.
func (s *Signaling) Disconnect(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.rooms {
		if r.has(userID) {
			s.teardown(id, userID)
		}
	}
}

// State returns the room state; closed rooms are gone.
func (s *Signaling) State(interviewID string) RoomState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[interviewID]; ok {
		return r.state
	}
	return RoomClosed
}

// Members returns a copy of the room members.
func (s *Signaling) Members(interviewID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[interviewID]
	if !ok {
		return nil
	}
	return append([]string(nil), r.members...)
}

// caller holds mu
func (s *Signaling) teardown(interviewID, userID string) {
	r, ok := s.rooms[interviewID]
	if !ok || !r.has(userID) {
		return
	}
	r.state = RoomClosed
	delete(s.rooms, interviewID)
	if other, ok := r.counterpart(userID); ok {
		s.send(other, EventUserDisconnected, PeerEvent{UserID: userID, InterviewID: interviewID})
	}
}

func (s *Signaling) send(userID, event string, payload any) {
	conn, ok := s.registry.Lookup(userID)
	if !ok {
		s.drop(event, "", userID)
		return
	}
	if err := conn.Send(event, payload); err != nil {
		metrics.DeliveryFailures.WithLabelValues(event).Inc()
		s.logger.Warn().Err(err).Str("user_id", userID).Str("event", event).Msg("signal delivery failed")
		return
	}
	metrics.SignalsRelayed.WithLabelValues(event).Inc()
}

func (s *Signaling) drop(event, interviewID, userID string) {
	metrics.SignalsDropped.WithLabelValues(event).Inc()
	s.logger.Debug().
		Str("event", event).
		Str("interview_id", interviewID).
		Str("user_id", userID).
		Msg("signal dropped, no counterpart")
}
