package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
)

// PostgresStore persists client profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `user_id, housing_status, income_source, support_notes,
	intake_completed, intake_completed_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}
	query := `
		INSERT INTO client_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.UserID),
		nullableString(p.HousingStatus),
		nullableString(p.IncomeSource),
		nullableString(p.SupportNotes),
		p.IntakeCompleted,
		p.IntakeCompletedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (*Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM client_profiles
		WHERE user_id = $1
	`
	var (
		p           Profile
		uid         uuid.UUID
		housing     sql.NullString
		income      sql.NullString
		notes       sql.NullString
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(userID)).Scan(
		&uid, &housing, &income, &notes,
		&p.IntakeCompleted, &completedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}

	p.UserID = id.UserID(uid)
	p.HousingStatus = housing.String
	p.IncomeSource = income.String
	p.SupportNotes = notes.String
	if completedAt.Valid {
		t := completedAt.Time
		p.IntakeCompletedAt = &t
	}
	return &p, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE client_profiles
		SET housing_status = $2, income_source = $3, support_notes = $4,
			intake_completed = $5, intake_completed_at = $6, updated_at = $7
		WHERE user_id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.UserID),
		nullableString(p.HousingStatus),
		nullableString(p.IncomeSource),
		nullableString(p.SupportNotes),
		p.IntakeCompleted,
		p.IntakeCompletedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
