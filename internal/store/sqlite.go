package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/crypto"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// SQLiteStore handles SQLite database operations. It backs local development
// and tests; production runs on PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/nexthire.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/nexthire.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('ADMIN', 'ENTERPRISE', 'CANDIDATE')),
		password_hash TEXT NOT NULL DEFAULT '',
		google_id TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		email_verified BOOLEAN NOT NULL DEFAULT 0,
		verification_status TEXT NOT NULL DEFAULT 'PENDING',
		verification_code TEXT NOT NULL DEFAULT '',
		reset_token TEXT NOT NULL DEFAULT '',
		reset_expires_at DATETIME,
		picture TEXT NOT NULL DEFAULT '',
		profile TEXT NOT NULL DEFAULT '{}',
		enterprise TEXT,
		last_login DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		enterprise_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		salary REAL NOT NULL DEFAULT 0,
		skills TEXT NOT NULL DEFAULT '[]',
		languages TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'OPEN',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		enterprise_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		candidate_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		cv TEXT NOT NULL DEFAULT '',
		quiz_score INTEGER,
		status TEXT NOT NULL DEFAULT 'Pending',
		applied_at DATETIME NOT NULL,
		UNIQUE (job_id, candidate_id)
	);

	CREATE TABLE IF NOT EXISTS quizzes (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL UNIQUE REFERENCES jobs(id) ON DELETE CASCADE,
		questions TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_results (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		score INTEGER NOT NULL,
		total INTEGER NOT NULL,
		submitted_at DATETIME NOT NULL,
		UNIQUE (candidate_id, job_id)
	);

	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		enterprise_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		candidate_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		scheduled_at DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		score INTEGER,
		meeting_type TEXT NOT NULL DEFAULT 'Virtual',
		meeting_link TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		call_status TEXT NOT NULL DEFAULT 'initiated',
		call_started_at DATETIME,
		call_ended_at DATETIME,
		call_duration_seconds INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		text TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		job_id TEXT,
		seen BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
	CREATE INDEX IF NOT EXISTS idx_jobs_enterprise ON jobs(enterprise_id);
	CREATE INDEX IF NOT EXISTS idx_applications_candidate ON applications(candidate_id);
	CREATE INDEX IF NOT EXISTS idx_applications_enterprise ON applications(enterprise_id);
	CREATE INDEX IF NOT EXISTS idx_interviews_candidate ON interviews(candidate_id, scheduled_at);
	CREATE INDEX IF NOT EXISTS idx_interviews_enterprise ON interviews(enterprise_id, scheduled_at);
	CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(from_id, to_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_to ON messages(to_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// nullableText maps a nil JSON document to SQL NULL.
func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

const sqliteUserColumns = `id, email, name, role, password_hash, google_id, is_active, email_verified,
	verification_status, verification_code, reset_token, reset_expires_at, picture,
	profile, enterprise, last_login, created_at, updated_at`

func scanSQLiteUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var profile string
	var enterprise sql.NullString
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Role,
		&u.PasswordHash,
		&u.GoogleID,
		&u.IsActive,
		&u.EmailVerified,
		&u.VerificationStatus,
		&u.VerificationCode,
		&u.ResetToken,
		&u.ResetExpiresAt,
		&u.Picture,
		&profile,
		&enterprise,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON([]byte(profile), &u.Profile); err != nil {
		return nil, err
	}
	normalizeProfile(&u.Profile)
	if enterprise.Valid && enterprise.String != "" {
		u.Enterprise = &models.Enterprise{}
		if err := decodeJSON([]byte(enterprise.String), u.Enterprise); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// CreateUser inserts a new user. ID and timestamps are assigned when empty.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = crypto.NewUUIDv7()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	profile, err := encodeJSON(u.Profile)
	if err != nil {
		return err
	}
	enterprise, err := encodeEnterprise(u.Enterprise)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (`+sqliteUserColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.GoogleID, u.IsActive, u.EmailVerified,
		u.VerificationStatus, u.VerificationCode, u.ResetToken, utcPtr(u.ResetExpiresAt), u.Picture,
		string(profile), nullableText(enterprise), utcPtr(u.LastLogin), u.CreatedAt, u.UpdatedAt)
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE email = ?`, email)
}

// GetUserByResetToken retrieves the user holding a password reset token.
func (s *SQLiteStore) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return s.getUser(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE reset_token = ?`, token)
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanSQLiteUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// UpdateUser overwrites the mutable fields of a user. Last write wins.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u *models.User) error {
	profile, err := encodeJSON(u.Profile)
	if err != nil {
		return err
	}
	enterprise, err := encodeEnterprise(u.Enterprise)
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, name = ?, role = ?, password_hash = ?, google_id = ?,
			is_active = ?, email_verified = ?, verification_status = ?, verification_code = ?,
			reset_token = ?, reset_expires_at = ?, picture = ?, profile = ?,
			enterprise = ?, last_login = ?, updated_at = ?
		WHERE id = ?
	`, u.Email, u.Name, u.Role, u.PasswordHash, u.GoogleID, u.IsActive, u.EmailVerified,
		u.VerificationStatus, u.VerificationCode, u.ResetToken, utcPtr(u.ResetExpiresAt), u.Picture,
		string(profile), nullableText(enterprise), utcPtr(u.LastLogin), u.UpdatedAt, u.ID)
	if isSQLiteUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteUser removes a user and everything that references it.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListUsers returns users, optionally filtered by role, newest first.
func (s *SQLiteStore) ListUsers(ctx context.Context, role models.Role, limit, offset int) ([]models.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE (? = '' OR role = ?)`, string(role), string(role),
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteUserColumns+` FROM users
		WHERE (? = '' OR role = ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, string(role), string(role), clampLimit(limit), offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// GetPlatformStats returns aggregate counters across all tables.
func (s *SQLiteStore) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	st := &models.PlatformStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'CANDIDATE'),
			(SELECT COUNT(*) FROM users WHERE role = 'ENTERPRISE'),
			(SELECT COUNT(*) FROM users WHERE role = 'ADMIN'),
			(SELECT COUNT(*) FROM jobs),
			(SELECT COUNT(*) FROM jobs WHERE status = 'OPEN'),
			(SELECT COUNT(*) FROM applications),
			(SELECT COUNT(*) FROM interviews),
			(SELECT COUNT(*) FROM messages)
	`).Scan(
		&st.Candidates,
		&st.Enterprises,
		&st.Admins,
		&st.Jobs,
		&st.OpenJobs,
		&st.Applications,
		&st.Interviews,
		&st.Messages,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}
