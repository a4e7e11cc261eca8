package audit

import (
	"time"

	"github.com/google/uuid"

	id "github.com/acesonder/outreach/pkg/domain"
)

// Action enumerates the security-relevant actions the trail records.
type Action string

const (
	ActionLoginSuccess         Action = "login_success"
	ActionLoginFailed          Action = "login_failed"
	ActionLogout               Action = "logout"
	ActionRegister             Action = "register"
	ActionPasswordResetSuccess Action = "password_reset_success"
	ActionPasswordResetFailed  Action = "password_reset_failed"
	ActionAccountLocked        Action = "account_locked"
	ActionSessionRotated       Action = "session_rotated"
	ActionIntakeCompleted      Action = "intake_completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Events are append-only:
// once written they are never mutated or deleted.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	// UserID is nil for events with no confirmed user, such as a failed
	// login before identification.
	UserID    *id.UserID
	Action    Action
	SourceIP  string
	UserAgent string
	// OldValues/NewValues hold optional before/after snapshots.
	OldValues map[string]any
	NewValues map[string]any
}
