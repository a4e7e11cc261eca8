package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "github.com/acesonder/outreach/pkg/domain"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts an audit event into the audit_log table.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_log (
			id, user_id, action, created_at, source_ip, user_agent, old_values, new_values
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	eventID := event.ID
	if eventID == uuid.Nil {
		eventID = uuid.New()
	}

	var userID *uuid.UUID
	if event.UserID != nil {
		uid := uuid.UUID(*event.UserID)
		userID = &uid
	}

	oldValues, err := marshalSnapshot(event.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newValues, err := marshalSnapshot(event.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		eventID,
		userID,
		string(event.Action),
		event.Timestamp,
		event.SourceIP,
		event.UserAgent,
		oldValues,
		newValues,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns the newest events for a user, bounded by limit.
func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, action, created_at, source_ip, user_agent, old_values, new_values
		FROM audit_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			e         Event
			uid       *uuid.UUID
			oldValues []byte
			newValues []byte
			action    string
		)
		if err := rows.Scan(&e.ID, &uid, &action, &e.Timestamp, &e.SourceIP, &e.UserAgent, &oldValues, &newValues); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		if uid != nil {
			parsed := id.UserID(*uid)
			e.UserID = &parsed
		}
		if err := unmarshalSnapshot(oldValues, &e.OldValues); err != nil {
			return nil, fmt.Errorf("unmarshal old values: %w", err)
		}
		if err := unmarshalSnapshot(newValues, &e.NewValues); err != nil {
			return nil, fmt.Errorf("unmarshal new values: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func marshalSnapshot(values map[string]any) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return json.Marshal(values)
}

func unmarshalSnapshot(raw []byte, into *map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, into)
}
