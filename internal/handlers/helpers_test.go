package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/api"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/handlers"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/realtime"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/mocks"
)

const testPassword = "correct-horse"

type testEnv struct {
	router   http.Handler
	store    *store.SQLiteStore
	tokens   *auth.TokenService
	registry *realtime.MemoryRegistry
	mailer   *mocks.MockMailer
}

// newTestEnv builds the full router over a fresh SQLite database. customize
// may set optional collaborators before the router is built.
func newTestEnv(t *testing.T, ctrl *gomock.Controller, customize ...func(*handlers.Deps)) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)

	tokens := auth.NewTokenService("handler-test-secret", time.Hour)
	registry := realtime.NewMemoryRegistry()
	mailer := mocks.NewMockMailer(ctrl)

	deps := handlers.Deps{
		Store:      st,
		Tokens:     tokens,
		Mailer:     mailer,
		Dispatcher: realtime.NewDispatcher(st, st, st, registry, zerolog.Nop()),
		Registry:   registry,
		UploadDir:  t.TempDir(),
		Logger:     zerolog.Nop(),
	}
	for _, fn := range customize {
		fn(&deps)
	}

	router := api.NewRouter(zerolog.Nop(), deps, api.Options{AllowedOrigins: []string{"http://localhost:3000"}})
	return &testEnv{router: router, store: st, tokens: tokens, registry: registry, mailer: mailer}
}

// createUser inserts a verified, active user with testPassword.
func (e *testEnv) createUser(t *testing.T, role models.Role, email string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	u := &models.User{
		Email:              email,
		Name:               string(role) + " user",
		Role:               role,
		PasswordHash:       hash,
		IsActive:           true,
		EmailVerified:      true,
		VerificationStatus: models.VerificationApproved,
	}
	if role == models.RoleEnterprise {
		u.Enterprise = &models.Enterprise{Name: "Acme"}
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := e.tokens.Generate(u)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) createJob(t *testing.T, enterprise *models.User, title string) *models.Job {
	t.Helper()
	job := &models.Job{
		EnterpriseID: enterprise.ID,
		Title:        title,
		Description:  "Build things",
		Skills:       []string{"go"},
		Status:       models.JobOpen,
	}
	require.NoError(t, e.store.CreateJob(context.Background(), job))
	return job
}

// do sends a JSON request through the router. body may be nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, rec)["message"].(string)
}
