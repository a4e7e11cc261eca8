// Package session persists server-side session state keyed by the opaque
// token the client holds.
//
// Error Contract:
// All store methods follow this pattern:
//   - Return sentinel.ErrNotFound (wrapped) when the requested entity does not exist
//   - Return nil for successful operations
//   - Return wrapped errors with context for infrastructure failures
package session

import (
	"context"
	"time"

	"github.com/acesonder/outreach/internal/auth/models"
	id "github.com/acesonder/outreach/pkg/domain"
)

// Store is the session-store contract consumed by the session manager.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID id.UserID) error

	// Swap atomically replaces the token under which a session is stored;
	// used for rotation so the old token stops working the moment the new
	// one exists.
	Swap(ctx context.Context, oldToken string, s *models.Session) error

	// DeleteIdleSince removes sessions whose last activity predates the
	// cutoff. Returns the number of sessions removed.
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error)
}
