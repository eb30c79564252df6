package handlers

import (
	"net/http"
)

// StatsResponse is the admin dashboard payload.
type StatsResponse struct {
	Users       int64 `json:"users"`
	Candidates  int64 `json:"candidates"`
	Enterprises int64 `json:"enterprises"`
	Admins      int64 `json:"admins"`

	Jobs         int64 `json:"jobs"`
	OpenJobs     int64 `json:"open_jobs"`
	Applications int64 `json:"applications"`
	Interviews   int64 `json:"interviews"`
	Messages     int64 `json:"messages"`

	OnlineUsers int `json:"online_users"`
}

// Stats returns platform counters for the admin dashboard.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.Store.GetPlatformStats(ctx)
	if err != nil {
		h.Internal(w, r, err)
		return
	}

	online := 0
	if h.Redis != nil {
		users, err := h.Redis.OnlineUsers(ctx)
		if err != nil {
			// Non-fatal, report zero
			h.logger.Warn().Err(err).Msg("online users lookup failed")
		}
		online = len(users)
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		Users:        stats.Candidates + stats.Enterprises + stats.Admins,
		Candidates:   stats.Candidates,
		Enterprises:  stats.Enterprises,
		Admins:       stats.Admins,
		Jobs:         stats.Jobs,
		OpenJobs:     stats.OpenJobs,
		Applications: stats.Applications,
		Interviews:   stats.Interviews,
		Messages:     stats.Messages,
		OnlineUsers:  online,
	})
}
