package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

func TestApprovedCandidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	req := require.New(t)
	env := newTestEnv(t, ctrl)
	ent := env.createUser(t, models.RoleEnterprise, "hr@acme.com")
	other := env.createUser(t, models.RoleEnterprise, "hr@globex.com")
	admin := env.createUser(t, models.RoleAdmin, "admin@nexthire.io")
	jane := env.createUser(t, models.RoleCandidate, "jane@example.com")
	john := env.createUser(t, models.RoleCandidate, "john@example.com")
	job := env.createJob(t, ent, "Backend Engineer")
	entTok := env.token(t, ent)

	var janeApp models.Application
	for _, cand := range []*models.User{jane, john} {
		rec := env.do(t, http.MethodPost, "/apply-job", env.token(t, cand), map[string]any{
			"job_id": job.ID, "full_name": cand.Name, "email": cand.Email,
		})
		req.Equal(http.StatusCreated, rec.Code)
		if cand == jane {
			janeApp = decodeBody[models.Application](t, rec)
		}
	}

	// Given Jane was interviewed and approved while John is still pending
	interviewed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	req.NoError(env.store.CreateInterview(context.Background(), &models.Interview{
		JobID:        job.ID,
		EnterpriseID: ent.ID,
		CandidateID:  jane.ID,
		ScheduledAt:  interviewed,
		Status:       models.InterviewCompleted,
		MeetingType:  models.MeetingVirtual,
	}))
	rec := env.do(t, http.MethodPut, "/applications/"+janeApp.ID.String()+"/status", entTok, map[string]string{"status": "Approved"})
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())

	// Then only Jane is listed as a hire
	rec = env.do(t, http.MethodGet, "/approved-candidates", entTok, nil)
	req.Equal(http.StatusOK, rec.Code, rec.Body.String())
	hires := decodeBody[[]models.Hire](t, rec)
	req.Len(hires, 1)
	req.Equal(janeApp.ID, hires[0].ApplicationID)
	req.Equal(jane.ID, hires[0].CandidateID)
	req.Equal("Backend Engineer", hires[0].Position)
	req.Equal("Acme", hires[0].HiredBy)
	req.NotNil(hires[0].InterviewDate)
	req.True(interviewed.Equal(*hires[0].InterviewDate))

	// Other enterprises see none of it
	rec = env.do(t, http.MethodGet, "/approved-candidates", env.token(t, other), nil)
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/approved-candidates", env.token(t, admin), nil)
	req.Equal(http.StatusOK, rec.Code)
	req.Len(decodeBody[[]models.Hire](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/approved-candidates", env.token(t, john), nil)
	req.Equal(http.StatusForbidden, rec.Code)
}
