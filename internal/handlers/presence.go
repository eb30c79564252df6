package handlers

import (
	"net/http"
)

// PresenceResponse reports whether a user currently holds a live connection.
type PresenceResponse struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// Presence answers from the Redis presence set when configured, falling back
// to this process's connection registry.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.uuidParam(w, r, "userId")
	if !ok {
		return
	}
	id := userID.String()

	online := false
	if h.Redis != nil {
		var err error
		online, err = h.Redis.IsOnline(r.Context(), id)
		if err != nil {
			h.logger.Warn().Err(err).Str("user_id", id).Msg("presence lookup failed")
		}
	}
	if !online && h.Registry != nil {
		_, online = h.Registry.Lookup(id)
	}
	h.JSON(w, http.StatusOK, PresenceResponse{UserID: id, Online: online})
}
