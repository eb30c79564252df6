package recommender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, body string, status int, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Recommend(t *testing.T) {
	t.Run("wrapped response", func(t *testing.T) {
		req := require.New(t)
		var seen map[string]any
		srv := newService(t, `{"recommendations":[{"_id":"j1","title":"Go Dev","match_score":0.91}]}`, http.StatusOK, &seen)

		recs, err := NewClient(srv.URL, time.Second).Recommend(context.Background(), "cand-1", 0)
		req.NoError(err)
		req.Len(recs, 1)
		req.Equal("j1", recs[0].ID)
		req.InDelta(0.91, recs[0].MatchScore, 1e-9)
		req.Equal([]string{}, recs[0].Skills)

		req.Equal("cand-1", seen["candidate_id"])
		req.Equal(float64(DefaultTopK), seen["top_k"])
	})

	t.Run("bare array", func(t *testing.T) {
		req := require.New(t)
		srv := newService(t, `[{"id":"j2","skills":["Go"],"match_score":0.5},{"job_id":"j3"}]`, http.StatusOK, nil)

		recs, err := NewClient(srv.URL, time.Second).Recommend(context.Background(), "cand-1", 3)
		req.NoError(err)
		req.Len(recs, 2)
		req.Equal("j2", recs[0].ID)
		req.Equal([]string{"Go"}, recs[0].Skills)
		req.Equal("j3", recs[1].ID)
	})

	t.Run("invalid shape", func(t *testing.T) {
		srv := newService(t, `{"status":"ok"}`, http.StatusOK, nil)
		_, err := NewClient(srv.URL, time.Second).Recommend(context.Background(), "cand-1", 3)
		require.ErrorContains(t, err, "invalid recommendations format")
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := newService(t, `boom`, http.StatusServiceUnavailable, nil)
		_, err := NewClient(srv.URL, time.Second).Recommend(context.Background(), "cand-1", 3)
		require.ErrorContains(t, err, "503")
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewClient("", 0).Recommend(context.Background(), "cand-1", 3)
		require.ErrorIs(t, err, ErrNotConfigured)
	})
}
