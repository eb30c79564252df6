package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/crypto"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

const pgJobColumns = `j.id, j.enterprise_id, j.title, j.description, j.location, j.salary,
	j.skills, j.languages, j.status, j.created_at`

func scanPGJob(row scanner, extra ...any) (*models.Job, error) {
	j := &models.Job{}
	var skills, languages []byte
	dest := []any{
		&j.ID, &j.EnterpriseID, &j.Title, &j.Description, &j.Location, &j.Salary,
		&skills, &languages, &j.Status, &j.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := decodeJSON(skills, &j.Skills); err != nil {
		return nil, err
	}
	if err := decodeJSON(languages, &j.Languages); err != nil {
		return nil, err
	}
	j.Skills = nonNilStrings(j.Skills)
	j.Languages = nonNilStrings(j.Languages)
	return j, nil
}

// CreateJob inserts a job posting.
func (s *PostgresStore) CreateJob(ctx context.Context, j *models.Job) error {
	defer observe(time.Now())

	if j.ID == uuid.Nil {
		j.ID = crypto.NewUUIDv7()
	}
	if j.Status == "" {
		j.Status = models.JobOpen
	}
	j.CreatedAt = time.Now().UTC()

	skills, err := encodeJSON(nonNilStrings(j.Skills))
	if err != nil {
		return err
	}
	languages, err := encodeJSON(nonNilStrings(j.Languages))
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO jobs (id, enterprise_id, title, description, location, salary, skills, languages, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, j.ID, j.EnterpriseID, j.Title, j.Description, j.Location, j.Salary, skills, languages, j.Status, j.CreatedAt)
	return err
}

// GetJob retrieves a job by ID.
func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	defer observe(time.Now())

	j, err := scanPGJob(s.pool.QueryRow(ctx, `SELECT `+pgJobColumns+` FROM jobs j WHERE j.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return j, nil
}

// UpdateJob overwrites the editable fields of a job.
func (s *PostgresStore) UpdateJob(ctx context.Context, j *models.Job) error {
	defer observe(time.Now())

	skills, err := encodeJSON(nonNilStrings(j.Skills))
	if err != nil {
		return err
	}
	languages, err := encodeJSON(nonNilStrings(j.Languages))
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE jobs SET title = $2, description = $3, location = $4, salary = $5,
			skills = $6, languages = $7, status = $8
		WHERE id = $1
	`, j.ID, j.Title, j.Description, j.Location, j.Salary, skills, languages, j.Status)
	return err
}

// DeleteJob removes a job together with its applications, quiz and interviews.
func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) (bool, error) {
	defer observe(time.Now())

	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListJobs returns jobs with their enterprise name and applicant count, newest first.
func (s *PostgresStore) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.JobSummary, error) {
	defer observe(time.Now())

	query := `
		SELECT ` + pgJobColumns + `,
			COALESCE(NULLIF(u.enterprise->>'name', ''), u.name),
			(SELECT COUNT(*) FROM applications a WHERE a.job_id = j.id)
		FROM jobs j
		JOIN users u ON u.id = j.enterprise_id
		WHERE TRUE`
	var args []any
	if filter.EnterpriseID != nil {
		args = append(args, *filter.EnterpriseID)
		query += fmt.Sprintf(" AND j.enterprise_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND j.status = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (j.title ILIKE $%d OR j.description ILIKE $%d OR j.location ILIKE $%d)", n, n, n)
	}
	args = append(args, clampLimit(filter.Limit), filter.Offset)
	query += fmt.Sprintf(" ORDER BY j.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []models.JobSummary{}
	for rows.Next() {
		var summary models.JobSummary
		j, err := scanPGJob(rows, &summary.EnterpriseName, &summary.ApplicantCount)
		if err != nil {
			return nil, err
		}
		summary.Job = *j
		jobs = append(jobs, summary)
	}
	return jobs, rows.Err()
}

const pgApplicationColumns = `id, job_id, enterprise_id, candidate_id, full_name, email, phone, cv,
	quiz_score, status, applied_at`

func scanPGApplication(row scanner) (*models.Application, error) {
	a := &models.Application{}
	err := row.Scan(
		&a.ID,
		&a.JobID,
		&a.EnterpriseID,
		&a.CandidateID,
		&a.FullName,
		&a.Email,
		&a.Phone,
		&a.CV,
		&a.QuizScore,
		&a.Status,
		&a.AppliedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateApplication inserts an application. A second application by the same
// candidate for the same job returns ErrDuplicate.
func (s *PostgresStore) CreateApplication(ctx context.Context, a *models.Application) error {
	defer observe(time.Now())

	if a.ID == uuid.Nil {
		a.ID = crypto.NewUUIDv7()
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	a.AppliedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO applications (`+pgApplicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.JobID, a.EnterpriseID, a.CandidateID, a.FullName, a.Email, a.Phone, a.CV,
		a.QuizScore, a.Status, a.AppliedAt)
	if isPGUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetApplication retrieves an application by ID.
func (s *PostgresStore) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	defer observe(time.Now())

	a, err := scanPGApplication(s.pool.QueryRow(ctx,
		`SELECT `+pgApplicationColumns+` FROM applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListApplicationsByCandidate returns a candidate's applications, newest first.
func (s *PostgresStore) ListApplicationsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]models.Application, error) {
	return s.listApplications(ctx, `candidate_id = $1`, candidateID)
}

// ListApplicationsByEnterprise returns applications received by an enterprise.
func (s *PostgresStore) ListApplicationsByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Application, error) {
	return s.listApplications(ctx, `enterprise_id = $1`, enterpriseID)
}

// ListApplicationsByJob returns the applications for a job.
func (s *PostgresStore) ListApplicationsByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error) {
	return s.listApplications(ctx, `job_id = $1`, jobID)
}

func (s *PostgresStore) listApplications(ctx context.Context, where string, arg any) ([]models.Application, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx,
		`SELECT `+pgApplicationColumns+` FROM applications WHERE `+where+` ORDER BY applied_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		a, err := scanPGApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// UpdateApplicationStatus sets the review status of an application.
func (s *PostgresStore) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	defer observe(time.Now())
	_, err := s.pool.Exec(ctx, `UPDATE applications SET status = $2 WHERE id = $1`, id, status)
	return err
}

// SetApplicationQuizScore records a quiz score on the candidate's application.
// It reports false when the candidate has not applied to the job.
func (s *PostgresStore) SetApplicationQuizScore(ctx context.Context, jobID, candidateID uuid.UUID, score int) (bool, error) {
	defer observe(time.Now())

	tag, err := s.pool.Exec(ctx, `
		UPDATE applications SET quiz_score = $3 WHERE job_id = $1 AND candidate_id = $2
	`, jobID, candidateID, score)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// InitApplicationQuizScore records a submitted quiz score on the candidate's
// application unless a score is already set there.
func (s *PostgresStore) InitApplicationQuizScore(ctx context.Context, jobID, candidateID uuid.UUID, score int) (bool, error) {
	defer observe(time.Now())

	tag, err := s.pool.Exec(ctx, `
		UPDATE applications SET quiz_score = $3
		WHERE job_id = $1 AND candidate_id = $2 AND quiz_score IS NULL
	`, jobID, candidateID, score)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertQuiz creates or replaces the quiz of a job.
func (s *PostgresStore) UpsertQuiz(ctx context.Context, q *models.Quiz) error {
	defer observe(time.Now())

	if q.ID == uuid.Nil {
		q.ID = crypto.NewUUIDv7()
	}
	q.CreatedAt = time.Now().UTC()

	questions, err := encodeJSON(q.Questions)
	if err != nil {
		return err
	}

	return s.pool.QueryRow(ctx, `
		INSERT INTO quizzes (id, job_id, questions, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id) DO UPDATE SET questions = EXCLUDED.questions, created_at = EXCLUDED.created_at
		RETURNING id
	`, q.ID, q.JobID, questions, q.CreatedAt).Scan(&q.ID)
}

// GetQuizByJob retrieves the quiz attached to a job.
func (s *PostgresStore) GetQuizByJob(ctx context.Context, jobID uuid.UUID) (*models.Quiz, error) {
	defer observe(time.Now())

	q := &models.Quiz{}
	var questions []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, job_id, questions, created_at FROM quizzes WHERE job_id = $1
	`, jobID).Scan(&q.ID, &q.JobID, &questions, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := decodeJSON(questions, &q.Questions); err != nil {
		return nil, err
	}
	return q, nil
}

// SaveQuizResult stores a candidate's only attempt at a quiz. A second attempt
// returns ErrDuplicate.
func (s *PostgresStore) SaveQuizResult(ctx context.Context, r *models.QuizResult) error {
	defer observe(time.Now())

	if r.ID == uuid.Nil {
		r.ID = crypto.NewUUIDv7()
	}
	r.SubmittedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_results (id, candidate_id, job_id, score, total, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.CandidateID, r.JobID, r.Score, r.Total, r.SubmittedAt)
	if isPGUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetQuizResult returns the candidate's attempt at a job's quiz.
func (s *PostgresStore) GetQuizResult(ctx context.Context, jobID, candidateID uuid.UUID) (*models.QuizResult, error) {
	defer observe(time.Now())

	var r models.QuizResult
	err := s.pool.QueryRow(ctx, `
		SELECT id, candidate_id, job_id, score, total, submitted_at
		FROM quiz_results WHERE job_id = $1 AND candidate_id = $2
	`, jobID, candidateID).Scan(&r.ID, &r.CandidateID, &r.JobID, &r.Score, &r.Total, &r.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// ListQuizResultsByJob returns results for a job, best score first.
func (s *PostgresStore) ListQuizResultsByJob(ctx context.Context, jobID uuid.UUID) ([]models.QuizResult, error) {
	defer observe(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, candidate_id, job_id, score, total, submitted_at
		FROM quiz_results WHERE job_id = $1
		ORDER BY score DESC, submitted_at ASC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.QuizResult{}
	for rows.Next() {
		var r models.QuizResult
		if err := rows.Scan(&r.ID, &r.CandidateID, &r.JobID, &r.Score, &r.Total, &r.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListQuizzes returns quizzes with their job titles, newest first. uuid.Nil for
// enterpriseID lists every enterprise's quizzes.
func (s *PostgresStore) ListQuizzes(ctx context.Context, enterpriseID uuid.UUID) ([]models.QuizSummary, error) {
	defer observe(time.Now())

	query := `
		SELECT q.id, q.job_id, q.questions, q.created_at, j.title
		FROM quizzes q
		JOIN jobs j ON j.id = q.job_id`
	var args []any
	if enterpriseID != uuid.Nil {
		query += ` WHERE j.enterprise_id = $1`
		args = append(args, enterpriseID)
	}
	query += ` ORDER BY q.created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []models.QuizSummary{}
	for rows.Next() {
		var q models.QuizSummary
		var questions []byte
		if err := rows.Scan(&q.ID, &q.JobID, &questions, &q.CreatedAt, &q.JobTitle); err != nil {
			return nil, err
		}
		if err := decodeJSON(questions, &q.Questions); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// ListHires returns approved applications with the candidate, job and
// enterprise names, plus the date of the latest completed interview for the
// same job. uuid.Nil for enterpriseID lists every enterprise's hires.
func (s *PostgresStore) ListHires(ctx context.Context, enterpriseID uuid.UUID) ([]models.Hire, error) {
	defer observe(time.Now())

	query := `
		SELECT a.id, a.candidate_id, COALESCE(NULLIF(c.name, ''), c.email), c.picture,
			a.job_id, j.title, a.enterprise_id,
			COALESCE(NULLIF(e.enterprise->>'name', ''), e.name),
			i.scheduled_at
		FROM applications a
		JOIN users c ON c.id = a.candidate_id
		JOIN jobs j ON j.id = a.job_id
		JOIN users e ON e.id = a.enterprise_id
		LEFT JOIN LATERAL (
			SELECT i2.scheduled_at FROM interviews i2
			WHERE i2.job_id = a.job_id AND i2.candidate_id = a.candidate_id AND i2.status = $1
			ORDER BY i2.scheduled_at DESC LIMIT 1
		) i ON TRUE
		WHERE a.status = $2`
	args := []any{models.InterviewCompleted, models.ApplicationApproved}
	if enterpriseID != uuid.Nil {
		query += ` AND a.enterprise_id = $3`
		args = append(args, enterpriseID)
	}
	query += ` ORDER BY a.applied_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hires := []models.Hire{}
	for rows.Next() {
		var h models.Hire
		if err := rows.Scan(&h.ApplicationID, &h.CandidateID, &h.CandidateName, &h.Picture,
			&h.JobID, &h.Position, &h.EnterpriseID, &h.HiredBy, &h.InterviewDate); err != nil {
			return nil, err
		}
		hires = append(hires, h)
	}
	return hires, rows.Err()
}
