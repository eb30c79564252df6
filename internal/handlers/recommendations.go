package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/recommender"
)

// Recommendations proxies the caller's ranked job matches from the
// recommendation service. ?top_k overrides the default count.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if h.Recommender == nil {
		h.Error(w, http.StatusServiceUnavailable, recommender.ErrNotConfigured.Error())
		return
	}
	topK, _ := strconv.Atoi(r.URL.Query().Get("top_k"))
	if topK <= 0 || topK > 50 {
		topK = recommender.DefaultTopK
	}

	recs, err := h.Recommender.Recommend(r.Context(), h.claims(r).UserID.String(), topK)
	if errors.Is(err, recommender.ErrNotConfigured) {
		h.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.Upstream(w, r, "Failed to fetch recommendations", err)
		return
	}
	if recs == nil {
		recs = []recommender.Recommendation{}
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}
