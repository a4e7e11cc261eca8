package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
)

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
	date_of_birth, phone, security_question_id, security_answer_hash,
	role, status, last_login_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is required")
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(u.ID),
		u.Username,
		nullString(u.Email),
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.DateOfBirth,
		nullString(u.Phone),
		int(u.SecurityQuestionID),
		u.SecurityAnswerHash,
		string(u.Role),
		string(u.Status),
		u.LastLoginAt,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if strings.Contains(constraint, "email") {
				return fmt.Errorf("create user %q: %w", u.Username, sentinel.ErrEmailTaken)
			}
			return fmt.Errorf("create user %q: %w", u.Username, sentinel.ErrUsernameTaken)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindActiveByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (lower(username) = lower($1) OR lower(email) = lower($1)) AND status = 'active'
	`
	return s.findOne(ctx, query, identifier)
}

func (s *PostgresStore) FindActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(username) = lower($1) AND status = 'active'
	`
	return s.findOne(ctx, query, username)
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return s.findOne(ctx, query, uuid.UUID(userID))
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, userID id.UserID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`
	return s.updateOne(ctx, query, uuid.UUID(userID), at)
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, userID id.UserID, hash string, at time.Time) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	return s.updateOne(ctx, query, uuid.UUID(userID), hash, at)
}

func (s *PostgresStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`
	if err := s.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var (
		u         models.User
		uid       uuid.UUID
		email     sql.NullString
		phone     sql.NullString
		lastLogin sql.NullTime
		role      string
		status    string
		question  int
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&uid, &u.Username, &email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.DateOfBirth, &phone, &question, &u.SecurityAnswerHash,
		&role, &status, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	u.ID = id.UserID(uid)
	u.Email = email.String
	u.Phone = phone.String
	u.SecurityQuestionID = id.QuestionID(question)
	u.Role = models.Role(role)
	u.Status = models.UserStatus(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (s *PostgresStore) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// uniqueViolation reports whether err is a postgres unique-constraint
// violation and returns the violated constraint name.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}
