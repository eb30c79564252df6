package realtime

import "encoding/json"

// Client to server events.
const (
	EventSendMessage     = "send-message"
	EventNotifyCandidate = "notify-candidate"
	EventJoinInterview   = "join-interview"
	EventLeaveInterview  = "leave-interview"
	EventOffer           = "offer"
	EventAnswer          = "answer"
	EventICECandidate    = "ice-candidate"
	EventPeerConnected   = "peer-connected"
	EventPong            = "pong"
)

// Server to client events.
const (
	EventReceiveMessage   = "receive-message"
	EventMessageSent      = "message-sent"
	EventNotification     = "notification"
	EventUserConnected    = "user-connected"
	EventUserDisconnected = "user-disconnected"
	EventPing             = "ping"
	EventError            = "error"
)

// Envelope is the wire frame for every realtime event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// EncodeEvent marshals an outbound event.
func EncodeEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(outboundEnvelope{Event: event, Data: payload})
}

type sendMessagePayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type notifyPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
	JobID   string `json:"jobId,omitempty"`
}

// signalPayload covers join, leave and the relayed WebRTC events. The
// session description and candidate are forwarded without inspection.
type signalPayload struct {
	InterviewID string          `json:"interviewId"`
	Offer       json.RawMessage `json:"offer,omitempty"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	Candidate   json.RawMessage `json:"candidate,omitempty"`
}

// PeerEvent is what the counterpart receives for signaling events.
type PeerEvent struct {
	UserID      string          `json:"userId"`
	InterviewID string          `json:"interviewId,omitempty"`
	Offer       json.RawMessage `json:"offer,omitempty"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	Candidate   json.RawMessage `json:"candidate,omitempty"`
}

// ErrorEvent is sent back to the originating connection.
type ErrorEvent struct {
	Message string `json:"message"`
}
