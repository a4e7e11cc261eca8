package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
)

// PostgresStore persists sessions in PostgreSQL so they survive restarts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, session *models.Session) error {
	resetState, err := marshalReset(session.Reset)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (
			id, token, user_id, username, role, created_at, last_activity_at,
			device_name, source_ip, reset_state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			role = EXCLUDED.role,
			last_activity_at = EXCLUDED.last_activity_at,
			reset_state = EXCLUDED.reset_state
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(session.ID),
		session.Token,
		nullUUID(uuid.UUID(session.UserID)),
		session.Username,
		string(session.Role),
		session.CreatedAt,
		session.LastActivityAt,
		session.DeviceName,
		session.SourceIP,
		resetState,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, token, user_id, username, role, created_at, last_activity_at,
			device_name, source_ip, reset_state
		FROM sessions
		WHERE token = $1
	`
	var (
		session    models.Session
		sid        uuid.UUID
		userID     *uuid.UUID
		role       string
		resetState []byte
	)
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&sid, &session.Token, &userID, &session.Username, &role,
		&session.CreatedAt, &session.LastActivityAt,
		&session.DeviceName, &session.SourceIP, &resetState,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	session.ID = id.SessionID(sid)
	session.Role = models.Role(role)
	if userID != nil {
		session.UserID = id.UserID(*userID)
	}
	if len(resetState) > 0 {
		var reset models.PasswordResetState
		if err := json.Unmarshal(resetState, &reset); err != nil {
			return nil, fmt.Errorf("decode reset state: %w", err)
		}
		session.Reset = &reset
	}
	return &session, nil
}

func (s *PostgresStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, uuid.UUID(userID)); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (s *PostgresStore) Swap(ctx context.Context, oldToken string, session *models.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, oldToken)
	if err != nil {
		return fmt.Errorf("swap session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}

	resetState, err := marshalReset(session.Reset)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (
			id, token, user_id, username, role, created_at, last_activity_at,
			device_name, source_ip, reset_state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(session.ID),
		session.Token,
		nullUUID(uuid.UUID(session.UserID)),
		session.Username,
		string(session.Role),
		session.CreatedAt,
		session.LastActivityAt,
		session.DeviceName,
		session.SourceIP,
		resetState,
	)
	if err != nil {
		return fmt.Errorf("swap session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_activity_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	return int(affected), nil
}

func marshalReset(reset *models.PasswordResetState) ([]byte, error) {
	if reset == nil {
		return nil, nil
	}
	raw, err := json.Marshal(reset)
	if err != nil {
		return nil, fmt.Errorf("encode reset state: %w", err)
	}
	return raw, nil
}

func nullUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}
