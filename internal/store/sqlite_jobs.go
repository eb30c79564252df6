package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/crypto"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

const sqliteJobColumns = `j.id, j.enterprise_id, j.title, j.description, j.location, j.salary,
	j.skills, j.languages, j.status, j.created_at`

func scanSQLiteJob(row scanner, extra ...any) (*models.Job, error) {
	j := &models.Job{}
	var skills, languages string
	dest := []any{
		&j.ID, &j.EnterpriseID, &j.Title, &j.Description, &j.Location, &j.Salary,
		&skills, &languages, &j.Status, &j.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := decodeJSON([]byte(skills), &j.Skills); err != nil {
		return nil, err
	}
	if err := decodeJSON([]byte(languages), &j.Languages); err != nil {
		return nil, err
	}
	j.Skills = nonNilStrings(j.Skills)
	j.Languages = nonNilStrings(j.Languages)
	return j, nil
}

// CreateJob inserts a job posting.
func (s *SQLiteStore) CreateJob(ctx context.Context, j *models.Job) error {
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

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, enterprise_id, title, description, location, salary, skills, languages, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.EnterpriseID, j.Title, j.Description, j.Location, j.Salary,
		string(skills), string(languages), j.Status, j.CreatedAt)
	return err
}

// GetJob retrieves a job by ID.
func (s *SQLiteStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, err := scanSQLiteJob(s.db.QueryRowContext(ctx, `SELECT `+sqliteJobColumns+` FROM jobs j WHERE j.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return j, nil
}

// UpdateJob overwrites the editable fields of a job.
func (s *SQLiteStore) UpdateJob(ctx context.Context, j *models.Job) error {
	skills, err := encodeJSON(nonNilStrings(j.Skills))
	if err != nil {
		return err
	}
	languages, err := encodeJSON(nonNilStrings(j.Languages))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE jobs SET title = ?, description = ?, location = ?, salary = ?,
			skills = ?, languages = ?, status = ?
		WHERE id = ?
	`, j.Title, j.Description, j.Location, j.Salary, string(skills), string(languages), j.Status, j.ID)
	return err
}

// DeleteJob removes a job together with its applications, quiz and interviews.
func (s *SQLiteStore) DeleteJob(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListJobs returns jobs with their enterprise name and applicant count, newest first.
func (s *SQLiteStore) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.JobSummary, error) {
	query := `
		SELECT ` + sqliteJobColumns + `,
			COALESCE(NULLIF(json_extract(u.enterprise, '$.name'), ''), u.name),
			(SELECT COUNT(*) FROM applications a WHERE a.job_id = j.id)
		FROM jobs j
		JOIN users u ON u.id = j.enterprise_id
		WHERE 1 = 1`
	var args []any
	if filter.EnterpriseID != nil {
		query += ` AND j.enterprise_id = ?`
		args = append(args, *filter.EnterpriseID)
	}
	if filter.Status != "" {
		query += ` AND j.status = ?`
		args = append(args, filter.Status)
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query += ` AND (j.title LIKE ? OR j.description LIKE ? OR j.location LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY j.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, clampLimit(filter.Limit), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []models.JobSummary{}
	for rows.Next() {
		var summary models.JobSummary
		j, err := scanSQLiteJob(rows, &summary.EnterpriseName, &summary.ApplicantCount)
		if err != nil {
			return nil, err
		}
		summary.Job = *j
		jobs = append(jobs, summary)
	}
	return jobs, rows.Err()
}

const sqliteApplicationColumns = `id, job_id, enterprise_id, candidate_id, full_name, email, phone, cv,
	quiz_score, status, applied_at`

func scanSQLiteApplication(row scanner) (*models.Application, error) {
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
func (s *SQLiteStore) CreateApplication(ctx context.Context, a *models.Application) error {
	if a.ID == uuid.Nil {
		a.ID = crypto.NewUUIDv7()
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	a.AppliedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (`+sqliteApplicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.JobID, a.EnterpriseID, a.CandidateID, a.FullName, a.Email, a.Phone, a.CV,
		a.QuizScore, a.Status, a.AppliedAt)
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetApplication retrieves an application by ID.
func (s *SQLiteStore) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	a, err := scanSQLiteApplication(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteApplicationColumns+` FROM applications WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListApplicationsByCandidate returns a candidate's applications, newest first.
func (s *SQLiteStore) ListApplicationsByCandidate(ctx context.Context, candidateID uuid.UUID) ([]models.Application, error) {
	return s.listApplications(ctx, `candidate_id = ?`, candidateID)
}

// ListApplicationsByEnterprise returns applications received by an enterprise.
func (s *SQLiteStore) ListApplicationsByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Application, error) {
	return s.listApplications(ctx, `enterprise_id = ?`, enterpriseID)
}

// ListApplicationsByJob returns the applications for a job.
func (s *SQLiteStore) ListApplicationsByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error) {
	return s.listApplications(ctx, `job_id = ?`, jobID)
}

func (s *SQLiteStore) listApplications(ctx context.Context, where string, arg any) ([]models.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteApplicationColumns+` FROM applications WHERE `+where+` ORDER BY applied_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		a, err := scanSQLiteApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// UpdateApplicationStatus sets the review status of an application.
func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE applications SET status = ? WHERE id = ?`, status, id)
	return err
}

// SetApplicationQuizScore records a quiz score on the candidate's application.
// It reports false when the candidate has not applied to the job.
func (s *SQLiteStore) SetApplicationQuizScore(ctx context.Context, jobID, candidateID uuid.UUID, score int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications SET quiz_score = ? WHERE job_id = ? AND candidate_id = ?
	`, score, jobID, candidateID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// InitApplicationQuizScore records a submitted quiz score on the candidate's
// application unless a score is already set there.
func (s *SQLiteStore) InitApplicationQuizScore(ctx context.Context, jobID, candidateID uuid.UUID, score int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications SET quiz_score = ?
		WHERE job_id = ? AND candidate_id = ? AND quiz_score IS NULL
	`, score, jobID, candidateID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertQuiz creates or replaces the quiz of a job.
func (s *SQLiteStore) UpsertQuiz(ctx context.Context, q *models.Quiz) error {
	if q.ID == uuid.Nil {
		q.ID = crypto.NewUUIDv7()
	}
	q.CreatedAt = time.Now().UTC()

	questions, err := encodeJSON(q.Questions)
	if err != nil {
		return err
	}

	return s.db.QueryRowContext(ctx, `
		INSERT INTO quizzes (id, job_id, questions, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (job_id) DO UPDATE SET questions = excluded.questions, created_at = excluded.created_at
		RETURNING id
	`, q.ID, q.JobID, string(questions), q.CreatedAt).Scan(&q.ID)
}

// GetQuizByJob retrieves the quiz attached to a job.
func (s *SQLiteStore) GetQuizByJob(ctx context.Context, jobID uuid.UUID) (*models.Quiz, error) {
	q := &models.Quiz{}
	var questions string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, job_id, questions, created_at FROM quizzes WHERE job_id = ?
	`, jobID).Scan(&q.ID, &q.JobID, &questions, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := decodeJSON([]byte(questions), &q.Questions); err != nil {
		return nil, err
	}
	return q, nil
}

// SaveQuizResult stores a candidate's only attempt at a quiz. A second attempt
// returns ErrDuplicate.
func (s *SQLiteStore) SaveQuizResult(ctx context.Context, r *models.QuizResult) error {
	if r.ID == uuid.Nil {
		r.ID = crypto.NewUUIDv7()
	}
	r.SubmittedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_results (id, candidate_id, job_id, score, total, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.CandidateID, r.JobID, r.Score, r.Total, r.SubmittedAt)
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetQuizResult returns the candidate's attempt at a job's quiz.
func (s *SQLiteStore) GetQuizResult(ctx context.Context, jobID, candidateID uuid.UUID) (*models.QuizResult, error) {
	var r models.QuizResult
	err := s.db.QueryRowContext(ctx, `
		SELECT id, candidate_id, job_id, score, total, submitted_at
		FROM quiz_results WHERE job_id = ? AND candidate_id = ?
	`, jobID, candidateID).Scan(&r.ID, &r.CandidateID, &r.JobID, &r.Score, &r.Total, &r.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// ListQuizResultsByJob returns results for a job, best score first.
func (s *SQLiteStore) ListQuizResultsByJob(ctx context.Context, jobID uuid.UUID) ([]models.QuizResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate_id, job_id, score, total, submitted_at
		FROM quiz_results WHERE job_id = ?
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
func (s *SQLiteStore) ListQuizzes(ctx context.Context, enterpriseID uuid.UUID) ([]models.QuizSummary, error) {
	query := `
		SELECT q.id, q.job_id, q.questions, q.created_at, j.title
		FROM quizzes q
		JOIN jobs j ON j.id = q.job_id`
	var args []any
	if enterpriseID != uuid.Nil {
		query += ` WHERE j.enterprise_id = ?`
		args = append(args, enterpriseID)
	}
	query += ` ORDER BY q.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []models.QuizSummary{}
	for rows.Next() {
		var q models.QuizSummary
		var questions string
		if err := rows.Scan(&q.ID, &q.JobID, &questions, &q.CreatedAt, &q.JobTitle); err != nil {
			return nil, err
		}
		if err := decodeJSON([]byte(questions), &q.Questions); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// ListHires returns approved applications with the candidate, job and
// enterprise names, plus the date of the latest completed interview for the
// same job. uuid.Nil for enterpriseID lists every enterprise's hires.
func (s *SQLiteStore) ListHires(ctx context.Context, enterpriseID uuid.UUID) ([]models.Hire, error) {
	query := `
		SELECT a.id, a.candidate_id, COALESCE(NULLIF(c.name, ''), c.email), c.picture,
			a.job_id, j.title, a.enterprise_id,
			COALESCE(NULLIF(json_extract(e.enterprise, '$.name'), ''), e.name),
			i.scheduled_at
		FROM applications a
		JOIN users c ON c.id = a.candidate_id
		JOIN jobs j ON j.id = a.job_id
		JOIN users e ON e.id = a.enterprise_id
		LEFT JOIN interviews i ON i.id = (
			SELECT i2.id FROM interviews i2
			WHERE i2.job_id = a.job_id AND i2.candidate_id = a.candidate_id AND i2.status = ?
			ORDER BY i2.scheduled_at DESC LIMIT 1
		)
		WHERE a.status = ?`
	args := []any{models.InterviewCompleted, models.ApplicationApproved}
	if enterpriseID != uuid.Nil {
		query += ` AND a.enterprise_id = ?`
		args = append(args, enterpriseID)
	}
	query += ` ORDER BY a.applied_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
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
