package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, role models.Role, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: email, Role: role, IsActive: true}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestSQLiteUsers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)

	u := seedUser(t, s, models.RoleEnterprise, "hr@acme.com")
	req.NotEqual(uuid.Nil, u.ID)

	// Unique email
	req.ErrorIs(s.CreateUser(ctx, &models.User{Email: "hr@acme.com", Name: "dup", Role: models.RoleCandidate}), ErrDuplicate)

	// Missing records are (nil, nil)
	missing, err := s.GetUserByID(ctx, uuid.New())
	req.NoError(err)
	req.Nil(missing)
	missing, err = s.GetUserByResetToken(ctx, "")
	req.NoError(err)
	req.Nil(missing)

	// Nested documents survive a round trip
	u.Enterprise = &models.Enterprise{Name: "Acme", Industry: "Software"}
	u.Profile.Skills = []string{"hiring"}
	req.NoError(s.UpdateUser(ctx, u))
	got, err := s.GetUserByEmail(ctx, "hr@acme.com")
	req.NoError(err)
	req.Equal("Acme", got.Enterprise.Name)
	req.Equal([]string{"hiring"}, got.Profile.Skills)

	deleted, err := s.DeleteUser(ctx, u.ID)
	req.NoError(err)
	req.True(deleted)
	deleted, err = s.DeleteUser(ctx, u.ID)
	req.NoError(err)
	req.False(deleted)
}

func TestSQLiteConversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	texts := []struct{ from, to, text string }{
		{"a", "b", "one"},
		{"b", "a", "two"},
		{"a", "c", "elsewhere"},
		{"a", "b", "three"},
	}
	for i, m := range texts {
		req.NoError(s.CreateMessage(ctx, &models.Message{
			From: m.from, To: m.to, Text: m.text, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	ab, err := s.GetConversation(ctx, "a", "b", 0)
	req.NoError(err)
	ba, err := s.GetConversation(ctx, "b", "a", 0)
	req.NoError(err)
	req.Equal(ab, ba)
	req.Equal([]string{"one", "two", "three"}, []string{ab[0].Text, ab[1].Text, ab[2].Text})

	// A limit keeps the latest messages, still ascending
	latest, err := s.GetConversation(ctx, "a", "b", 2)
	req.NoError(err)
	req.Len(latest, 2)
	req.Equal("two", latest[0].Text)
	req.Equal("three", latest[1].Text)

	n, err := s.MarkConversationRead(ctx, "b", "a")
	req.NoError(err)
	req.Equal(int64(2), n)
	n, err = s.MarkConversationRead(ctx, "b", "a")
	req.NoError(err)
	req.Zero(n)

	all, err := s.ListMessagesForUser(ctx, "a", 0)
	req.NoError(err)
	req.Len(all, 4)
}

func TestSQLiteApplicationsAndQuiz(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLite(t)
	ent := seedUser(t, s, models.RoleEnterprise, "hr@acme.com")
	cand := seedUser(t, s, models.RoleCandidate, "jane@example.com")

	job := &models.Job{EnterpriseID: ent.ID, Title: "SRE", Status: models.JobOpen}
	req.NoError(s.CreateJob(ctx, job))

	app := &models.Application{JobID: job.ID, EnterpriseID: ent.ID, CandidateID: cand.ID, FullName: "Jane", Email: cand.Email}
	req.NoError(s.CreateApplication(ctx, app))
	req.ErrorIs(s.CreateApplication(ctx, &models.Application{
		JobID: job.ID, EnterpriseID: ent.ID, CandidateID: cand.ID, FullName: "Jane", Email: cand.Email,
	}), ErrDuplicate)

	jobs, err := s.ListJobs(ctx, models.JobFilter{})
	req.NoError(err)
	req.Len(jobs, 1)
	req.Equal(1, jobs[0].ApplicantCount)

	// One attempt per candidate and job
	req.NoError(s.SaveQuizResult(ctx, &models.QuizResult{CandidateID: cand.ID, JobID: job.ID, Score: 1, Total: 3}))
	req.ErrorIs(s.SaveQuizResult(ctx, &models.QuizResult{CandidateID: cand.ID, JobID: job.ID, Score: 3, Total: 3}), ErrDuplicate)
	results, err := s.ListQuizResultsByJob(ctx, job.ID)
	req.NoError(err)
	req.Len(results, 1)
	req.Equal(1, results[0].Score)

	got, err := s.GetQuizResult(ctx, job.ID, cand.ID)
	req.NoError(err)
	req.Equal(results[0].ID, got.ID)
	missing, err := s.GetQuizResult(ctx, job.ID, uuid.New())
	req.NoError(err)
	req.Nil(missing)

	// A submitted score only fills an empty application score
	updated, err := s.InitApplicationQuizScore(ctx, job.ID, cand.ID, 1)
	req.NoError(err)
	req.True(updated)
	updated, err = s.SetApplicationQuizScore(ctx, job.ID, cand.ID, 3)
	req.NoError(err)
	req.True(updated)
	updated, err = s.InitApplicationQuizScore(ctx, job.ID, cand.ID, 0)
	req.NoError(err)
	req.False(updated)
	app, err = s.GetApplication(ctx, app.ID)
	req.NoError(err)
	req.Equal(3, *app.QuizScore)

	updated, err = s.SetApplicationQuizScore(ctx, job.ID, uuid.New(), 3)
	req.NoError(err)
	req.False(updated)

	// Deleting the job takes its applications with it
	deleted, err := s.DeleteJob(ctx, job.ID)
	req.NoError(err)
	req.True(deleted)
	apps, err := s.ListApplicationsByCandidate(ctx, cand.ID)
	req.NoError(err)
	req.Empty(apps)

	stats, err := s.GetPlatformStats(ctx)
	req.NoError(err)
	req.Equal(int64(1), stats.Candidates)
	req.Equal(int64(1), stats.Enterprises)
	req.Zero(stats.Jobs)
}
