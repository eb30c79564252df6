package nexthire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("NEXTHIRE_CONFIG", t.TempDir())
	return NewClient(srv.URL)
}

func TestLoginSavesToken(t *testing.T) {
	req := require.New(t)

	userID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid email or password!"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok",
			"user":  models.User{ID: userID, Email: body["email"], Role: models.RoleCandidate},
		})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		req.Equal("Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.User{ID: userID})
	})
	c := newTestClient(t, mux)

	// wrong password surfaces the server message
	_, err := c.Login(context.Background(), "a@b.co", "nope")
	var apiErr *APIError
	req.ErrorAs(err, &apiErr)
	req.Equal(http.StatusUnauthorized, apiErr.Status)
	req.Equal("Invalid email or password!", apiErr.Message)

	resp, err := c.Login(context.Background(), "a@b.co", "secret123")
	req.NoError(err)
	req.Equal(userID, resp.User.ID)

	// a fresh client picks the saved token up
	again := NewClient(c.BaseURL)
	req.Equal("tok", again.Token)
	me, err := again.Me(context.Background())
	req.NoError(err)
	req.Equal(userID, me.ID)
}

func TestAuthenticatedCallWithoutToken(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.Notifications(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestHealthDegraded(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded"}`))
	}))

	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "degraded", resp.Status)
}

func TestListJobsEscapesQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "go dev", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode([]models.JobSummary{{EnterpriseName: "Acme"}})
	}))

	jobs, err := c.ListJobs(context.Background(), "go dev")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "Acme", jobs[0].EnterpriseName)
}
