package user

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresCreateUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	u := &models.User{
		ID:       id.NewUserID(),
		Username: "JOHDOE9005",
		Role:     models.RoleClient,
		Status:   models.UserStatusActive,
	}
	err := store.Create(context.Background(), u)
	assert.ErrorIs(t, err, sentinel.ErrUsernameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateEmailViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := store.Create(context.Background(), &models.User{ID: id.NewUserID(), Username: "X"})
	assert.ErrorIs(t, err, sentinel.ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindActiveByIdentifier(t *testing.T) {
	store, mock := newMockStore(t)

	uid := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "first_name", "last_name",
		"date_of_birth", "phone", "security_question_id", "security_answer_hash",
		"role", "status", "last_login_at", "created_at", "updated_at",
	}).AddRow(
		uid, "JOHDOE9005", "john@example.com", "$2a$10$hash", "John", "Doe",
		time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC), nil, 1, "$2a$10$answer",
		"client", "active", nil, now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("JOHDOE9005").
		WillReturnRows(rows)

	found, err := store.FindActiveByIdentifier(context.Background(), "JOHDOE9005")
	require.NoError(t, err)
	assert.Equal(t, id.UserID(uid), found.ID)
	assert.Equal(t, models.RoleClient, found.Role)
	assert.True(t, found.IsActive())
	assert.Nil(t, found.LastLoginAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.FindActiveByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdatePasswordHash(t *testing.T) {
	store, mock := newMockStore(t)
	userID := id.NewUserID()

	t.Run("affected row", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET password_hash").
			WillReturnResult(sqlmock.NewResult(0, 1))
		err := store.UpdatePasswordHash(context.Background(), userID, "$2a$10$new", time.Now())
		assert.NoError(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET password_hash").
			WillReturnResult(sqlmock.NewResult(0, 0))
		err := store.UpdatePasswordHash(context.Background(), userID, "$2a$10$new", time.Now())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
