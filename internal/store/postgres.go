package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/crypto"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isPGUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// observe records query latency.
func observe(start time.Time) {
	metrics.PostgresLatency.Observe(time.Since(start).Seconds())
}

const pgUserColumns = `id, email, name, role, password_hash, google_id, is_active, email_verified,
	verification_status, verification_code, reset_token, reset_expires_at, picture,
	profile, enterprise, last_login, created_at, updated_at`

func scanPGUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var profile, enterprise []byte
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
	if err := decodeJSON(profile, &u.Profile); err != nil {
		return nil, err
	}
	normalizeProfile(&u.Profile)
	if len(enterprise) > 0 {
		u.Enterprise = &models.Enterprise{}
		if err := decodeJSON(enterprise, u.Enterprise); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// CreateUser inserts a new user. ID and timestamps are assigned when empty.
func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	defer observe(time.Now())

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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, google_id, is_active, email_verified,
			verification_status, verification_code, reset_token, reset_expires_at, picture,
			profile, enterprise, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.GoogleID, u.IsActive, u.EmailVerified,
		u.VerificationStatus, u.VerificationCode, u.ResetToken, u.ResetExpiresAt, u.Picture,
		profile, enterprise, u.LastLogin, u.CreatedAt, u.UpdatedAt)
	if isPGUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer observe(time.Now())
	return s.getUser(ctx, `SELECT `+pgUserColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail retrieves a user by email address.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observe(time.Now())
	return s.getUser(ctx, `SELECT `+pgUserColumns+` FROM users WHERE email = $1`, email)
}

// GetUserByResetToken retrieves the user holding a password reset token.
func (s *PostgresStore) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	defer observe(time.Now())
	return s.getUser(ctx, `SELECT `+pgUserColumns+` FROM users WHERE reset_token = $1`, token)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanPGUser(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// UpdateUser overwrites the mutable fields of a user. Last write wins.
func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User) error {
	defer observe(time.Now())

	profile, err := encodeJSON(u.Profile)
	if err != nil {
		return err
	}
	enterprise, err := encodeEnterprise(u.Enterprise)
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()

	_, err = s.pool.Exec(ctx, `
		UPDATE users SET email = $2, name = $3, role = $4, password_hash = $5, google_id = $6,
			is_active = $7, email_verified = $8, verification_status = $9, verification_code = $10,
			reset_token = $11, reset_expires_at = $12, picture = $13, profile = $14,
			enterprise = $15, last_login = $16, updated_at = $17
		WHERE id = $1
	`, u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.GoogleID, u.IsActive, u.EmailVerified,
		u.VerificationStatus, u.VerificationCode, u.ResetToken, u.ResetExpiresAt, u.Picture,
		profile, enterprise, u.LastLogin, u.UpdatedAt)
	if isPGUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteUser removes a user and everything that references it.
func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) (bool, error) {
	defer observe(time.Now())
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListUsers returns users, optionally filtered by role, newest first.
func (s *PostgresStore) ListUsers(ctx context.Context, role models.Role, limit, offset int) ([]models.User, int, error) {
	defer observe(time.Now())

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE ($1 = '' OR role = $1)`, string(role),
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+pgUserColumns+` FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(role), clampLimit(limit), offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanPGUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// GetPlatformStats returns aggregate counters across all tables.
func (s *PostgresStore) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	defer observe(time.Now())

	st := &models.PlatformStats{}
	err := s.pool.QueryRow(ctx, `
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
