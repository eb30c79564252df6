package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

func TestCreateAndListJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")

	body := map[string]any{
		"title":       "  Go Developer ",
		"description": "Services and tooling",
		"skills":      []string{"go", " go ", "", "sql"},
	}

	// Candidates cannot post jobs
	rec := env.do(t, http.MethodPost, "/add-job", env.token(t, cand), body)
	req.Equal(http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/add-job", env.token(t, ent), body)
	req.Equal(http.StatusCreated, rec.Code, rec.Body.String())
	job := decodeBody[models.Job](t, rec)
	req.Equal("Go Developer", job.Title)
	req.Equal([]string{"go", "sql"}, job.Skills)
	req.Equal(ent.ID, job.EnterpriseID)
	req.Equal(models.JobOpen, job.Status)

	// Listing is public and carries the enterprise name
	rec = env.do(t, http.MethodGet, "/jobs?q=developer", "", nil)
	req.Equal(http.StatusOK, rec.Code)
	jobs := decodeBody[[]models.JobSummary](t, rec)
	req.Len(jobs, 1)
	req.Equal("Acme", jobs[0].EnterpriseName)
	req.Equal(0, jobs[0].ApplicantCount)

	rec = env.do(t, http.MethodGet, "/jobs/"+job.ID.String(), "", nil)
	req.Equal(http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/jobs/not-a-uuid", "", nil)
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteJobOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	owner := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	other := env.createUser(t, models.RoleEnterprise, "hr@globex.com")
	admin := env.createUser(t, models.RoleAdmin, "admin@nexthire.io")
	job := env.createJob(t, owner, "Backend Engineer")

	rec := env.do(t, http.MethodPut, "/jobs/"+job.ID.String(), env.token(t, other), map[string]any{"title": "Hijacked"})
	req.Equal(http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/jobs/"+job.ID.String(), env.token(t, owner), map[string]any{"status": "CLOSED"})
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	req.Equal(models.JobClosed, decodeBody[models.Job](t, rec).Status)

	rec = env.do(t, http.MethodPut, "/jobs/"+job.ID.String(), env.token(t, owner), map[string]any{"status": "ARCHIVED"})
	req.Equal(http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/delete-job/"+job.ID.String(), env.token(t, admin), nil)
	req.Equal(http.StatusOK, rec.Code)

	got, err := env.store.GetJob(context.Background(), job.ID)
	req.NoError(err)
	req.Nil(got)
}

func TestApplyJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")
	job := env.createJob(t, ent, "Backend Engineer")
	tok := env.token(t, cand)

	apply := map[string]any{"job_id": job.ID, "full_name": "Jane Doe", "email": "jane@example.com"}

	rec := env.do(t, http.MethodPost, "/apply-job", tok, apply)
	req.Equal(http.StatusCreated, rec.Code, rec.Body.String())
	app := decodeBody[models.Application](t, rec)
	req.Equal(models.ApplicationPending, app.Status)
	req.Equal(ent.ID, app.EnterpriseID)

	// Applying twice conflicts
	rec = env.do(t, http.MethodPost, "/apply-job", tok, apply)
	req.Equal(http.StatusConflict, rec.Code)

	// The enterprise was notified
	notes, err := env.store.ListNotifications(context.Background(), ent.ID, 10)
	req.NoError(err)
	req.Len(notes, 1)
	req.Equal(models.NotificationApplicationReceived, notes[0].Type)

	// Each side sees the application
	rec = env.do(t, http.MethodGet, "/applications", tok, nil)
	req.Len(decodeBody[[]models.Application](t, rec), 1)
	rec = env.do(t, http.MethodGet, "/jobs/"+job.ID.String()+"/applications", env.token(t, ent), nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Len(decodeBody[[]models.Application](t, rec), 1)

	// Status changes notify the candidate
	rec = env.do(t, http.MethodPut, "/applications/"+app.ID.String()+"/status", env.token(t, ent), map[string]string{"status": "Approved"})
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	notes, err = env.store.ListNotifications(context.Background(), cand.ID, 10)
	req.NoError(err)
	req.Len(notes, 1)

	rec = env.do(t, http.MethodPut, "/applications/"+app.ID.String()+"/status", env.token(t, ent), map[string]string{"status": "Maybe"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestApplyJobErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")
	job := env.createJob(t, ent, "Backend Engineer")
	tok := env.token(t, cand)

	rec := env.do(t, http.MethodPost, "/apply-job", tok, map[string]any{
		"job_id": "0190a0f0-0000-7000-8000-000000000000", "full_name": "Jane", "email": "jane@example.com",
	})
	req.Equal(http.StatusNotFound, rec.Code)

	job.Status = models.JobClosed
	req.NoError(env.store.UpdateJob(context.Background(), job))
	rec = env.do(t, http.MethodPost, "/apply-job", tok, map[string]any{
		"job_id": job.ID, "full_name": "Jane", "email": "jane@example.com",
	})
	req.Equal(http.StatusBadRequest, rec.Code)

	// Enterprises cannot apply
	rec = env.do(t, http.MethodPost, "/apply-job", env.token(t, ent), map[string]any{
		"job_id": job.ID, "full_name": "Acme", "email": "hr@acme.com",
	})
	req.Equal(http.StatusForbidden, rec.Code)
}

func TestUsersAccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	cand := env.createUser(t, models.RoleCandidate, "jane@example.com")
	other := env.createUser(t, models.RoleCandidate, "john@example.com")
	admin := env.createUser(t, models.RoleAdmin, "admin@nexthire.io")

	rec := env.do(t, http.MethodGet, "/users", env.token(t, cand), nil)
	req.Equal(http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/users?role=CANDIDATE", env.token(t, admin), nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Equal(2, int(decodeBody[map[string]any](t, rec)["total"].(float64)))

	rec = env.do(t, http.MethodPut, "/users/"+other.ID.String(), env.token(t, cand), map[string]any{"name": "Nope"})
	req.Equal(http.StatusForbidden, rec.Code)

	// Users cannot promote themselves
	rec = env.do(t, http.MethodPut, "/users/"+cand.ID.String(), env.token(t, cand), map[string]any{"role": "ADMIN"})
	req.Equal(http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/users/"+cand.ID.String(), env.token(t, cand), map[string]any{
		"name":    "Jane D.",
		"profile": map[string]any{"skills": []string{"go"}, "phone": "+216 555"},
	})
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[models.User](t, rec)
	req.Equal("Jane D.", updated.Name)
	req.Equal([]string{"go"}, updated.Profile.Skills)

	rec = env.do(t, http.MethodDelete, "/users/"+other.ID.String(), env.token(t, admin), nil)
	req.Equal(http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/users/"+other.ID.String(), env.token(t, admin), nil)
	req.Equal(http.StatusNotFound, rec.Code)
}
