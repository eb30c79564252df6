package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/realtime"
)

// SendMessageRequest is the body of POST /api/messages/send.
type SendMessageRequest struct {
	To   uuid.UUID `json:"to" validate:"required"`
	Text string    `json:"text" validate:"required"`
}

// SendMessage stores a chat message from the caller and relays it to the
// recipient when they are connected.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	msg, err := h.Dispatcher.SendUserMessage(r.Context(), h.claims(r).UserID.String(), req.To.String(), req.Text)
	switch {
	case errors.Is(err, realtime.ErrUnknownRecipient):
		h.Error(w, http.StatusNotFound, "Recipient not found")
		return
	case errors.Is(err, realtime.ErrEmptyMessage), errors.Is(err, realtime.ErrMessageTooLong), errors.Is(err, realtime.ErrNoRecipient):
		h.Error(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, msg)
}

// conversationParty reads a user id path parameter that may also name the
// system sender. id is uuid.Nil for the system sender.
func (h *Handler) conversationParty(w http.ResponseWriter, r *http.Request, name string) (party string, id uuid.UUID, ok bool) {
	raw := chi.URLParam(r, name)
	if raw == models.SystemSender {
		return raw, uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid "+name)
		return "", uuid.Nil, false
	}
	return id.String(), id, true
}

// History returns the conversation between two users, oldest first. The
// result does not depend on the order of the two ids. Either side may be the
// system sender.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user1, id1, ok := h.conversationParty(w, r, "user1")
	if !ok {
		return
	}
	user2, id2, ok := h.conversationParty(w, r, "user2")
	if !ok {
		return
	}
	if id1 == uuid.Nil && id2 == uuid.Nil {
		h.Error(w, http.StatusBadRequest, "one side must be a user")
		return
	}
	if !h.conversationMember(r, id1) && !h.conversationMember(r, id2) {
		h.Error(w, http.StatusForbidden, "Access denied")
		return
	}

	msgs, err := h.Store.GetConversation(r.Context(), user1, user2, messageLimit(r))
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, emptyIfNil(msgs))
}

func (h *Handler) conversationMember(r *http.Request, id uuid.UUID) bool {
	return id != uuid.Nil && h.selfOrAdmin(r, id)
}

// MarkRead marks every message from partnerId to the caller as read. The
// partner may be the system sender.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	partner, _, ok := h.conversationParty(w, r, "partnerId")
	if !ok {
		return
	}
	n, err := h.Store.MarkConversationRead(r.Context(), h.claims(r).UserID.String(), partner)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func messageLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

func emptyIfNil(msgs []models.Message) []models.Message {
	if msgs == nil {
		return []models.Message{}
	}
	return msgs
}
