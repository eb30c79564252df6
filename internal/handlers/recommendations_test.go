package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/handlers"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/recommender"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/mocks"
)

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		topK   int
		recs   []recommender.Recommendation
		err    error
		status int
		count  int
	}{
		{
			name:   "default top k",
			topK:   recommender.DefaultTopK,
			recs:   []recommender.Recommendation{{ID: "j1", Title: "Go Developer"}, {ID: "j2", Title: "SRE"}},
			status: http.StatusOK,
			count:  2,
		},
		{name: "explicit top k", query: "?top_k=10", topK: 10, status: http.StatusOK},
		{name: "top k capped", query: "?top_k=500", topK: recommender.DefaultTopK, status: http.StatusOK},
		{name: "upstream down", topK: recommender.DefaultTopK, err: errors.New("connection refused"), status: http.StatusBadGateway},
		{name: "service unset", topK: recommender.DefaultTopK, err: recommender.ErrNotConfigured, status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			rec := mocks.NewMockRecommender(ctrl)
			env := newTestEnv(t, ctrl, func(d *handlers.Deps) { d.Recommender = rec })
			cand := env.createUser(t, models.RoleCandidate, "jane@example.com")

			rec.EXPECT().Recommend(gomock.Any(), cand.ID.String(), tt.topK).Return(tt.recs, tt.err).Times(1)

			resp := env.do(t, http.MethodGet, "/recommendations"+tt.query, env.token(t, cand), nil)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())
			if tt.status == http.StatusOK {
				body := decodeBody[map[string][]recommender.Recommendation](t, resp)
				require.NotNil(t, body["recommendations"])
				require.Len(t, body["recommendations"], tt.count)
			}
		})
	}
}

func TestRecommendationsAccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")

	rec := env.do(t, http.MethodGet, "/recommendations", env.token(t, ent), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/recommendations", env.token(t, cand), nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	admin := env.createUser(t, models.RoleAdmin, "admin@nexthire.io")
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")
	env.createJob(t, ent, "Backend Engineer")

	rec := env.do(t, http.MethodGet, "/stats", env.token(t, cand), nil)
	req.Equal(http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/stats", env.token(t, admin), nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	stats := decodeBody[handlers.StatsResponse](t, rec)
	req.Equal(int64(3), stats.Users)
	req.Equal(int64(1), stats.Candidates)
	req.Equal(int64(1), stats.Enterprises)
	req.Equal(int64(1), stats.Jobs)
	req.Equal(int64(1), stats.OpenJobs)
	req.Zero(stats.OnlineUsers)
}

func TestHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	req.Equal(http.StatusOK, rec.Code)
	health := decodeBody[handlers.HealthResponse](t, rec)
	req.Equal("healthy", health.Status)
	req.Equal("pass", health.Checks["database"].Status)
	req.Equal("not configured", health.Checks["redis"].Message)

	// Closing the database degrades the service
	env.store.Close()
	rec = env.do(t, http.MethodGet, "/health", "", nil)
	req.Equal(http.StatusServiceUnavailable, rec.Code)
	req.Equal("degraded", decodeBody[handlers.HealthResponse](t, rec).Status)

	rec = env.do(t, http.MethodGet, "/api", "", nil)
	req.Equal("NextHire", decodeBody[handlers.RootResponse](t, rec).Name)
}
