package handlers

import (
	"net/http"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := pageParams(r)
	notifications, err := h.Store.ListNotifications(r.Context(), h.claims(r).UserID, limit)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	h.JSON(w, http.StatusOK, notifications)
}

// MarkNotificationSeen flags one of the caller's notifications as seen.
func (h *Handler) MarkNotificationSeen(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	updated, err := h.Store.MarkNotificationSeen(r.Context(), id, h.claims(r).UserID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if !updated {
		h.Error(w, http.StatusNotFound, "Notification not found")
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as seen"})
}
