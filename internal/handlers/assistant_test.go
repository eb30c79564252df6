package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/handlers"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/assistant"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/mocks"
)

func TestGenerateApplication(t *testing.T) {
	valid := map[string]any{"resume": "  Go, Kubernetes, 3 years  ", "job_title": "Backend Engineer"}

	tests := []struct {
		name   string
		body   map[string]any
		called bool
		out    string
		err    error
		status int
	}{
		{name: "suggestion", body: valid, called: true, out: "1. Experienced (non-manager)", status: http.StatusOK},
		{name: "upstream down", body: valid, called: true, err: errors.New("timeout"), status: http.StatusBadGateway},
		{name: "no api key", body: valid, called: true, err: assistant.ErrNotConfigured, status: http.StatusServiceUnavailable},
		{name: "missing job title", body: map[string]any{"resume": "Go"}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			gen := mocks.NewMockGenerator(ctrl)
			env := newTestEnv(t, ctrl, func(d *handlers.Deps) { d.Assistant = gen })
			cand := env.createUser(t, models.RoleCandidate, "jane@example.com")

			if tt.called {
				gen.EXPECT().
					GenerateApplication(gomock.Any(), "Go, Kubernetes, 3 years", "Backend Engineer").
					Return(tt.out, tt.err).
					Times(1)
			}

			rec := env.do(t, http.MethodPost, "/generate-application", env.token(t, cand), tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				require.Equal(t, tt.out, decodeBody[map[string]string](t, rec)["suggestion"])
			}
		})
	}
}

func TestGenerateApplicationAccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, ctrl)
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")
	body := map[string]any{"resume": "Go", "job_title": "Dev"}

	rec := env.do(t, http.MethodPost, "/generate-application", "", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/generate-application", env.token(t, ent), body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/generate-application", env.token(t, cand), body)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
