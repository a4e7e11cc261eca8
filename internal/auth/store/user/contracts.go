// Package user persists credential records.
//
// Error Contract:
// All store methods follow this pattern:
//   - Return sentinel.ErrNotFound (wrapped) when the requested entity does not exist
//   - Return sentinel.ErrUsernameTaken / sentinel.ErrEmailTaken (wrapped) on
//     unique-constraint violations, so the registration retry loop can react
//   - Return nil for successful operations
//   - Return wrapped errors with context for infrastructure failures
package user

import (
	"context"
	"time"

	"github.com/acesonder/outreach/internal/auth/models"
	id "github.com/acesonder/outreach/pkg/domain"
)

// Store is the credential-store contract consumed by the auth service.
type Store interface {
	// Create inserts a new user. Uniqueness of username and email is
	// enforced here, not by a prior lookup: two concurrent registrations
	// racing on the same generated handle must not both succeed.
	Create(ctx context.Context, u *models.User) error

	// FindActiveByIdentifier looks up exactly one active user whose
	// username or email matches. Inactive accounts are invisible to it.
	FindActiveByIdentifier(ctx context.Context, identifier string) (*models.User, error)

	// FindActiveByUsername is the reset-flow lookup: username only.
	FindActiveByUsername(ctx context.Context, username string) (*models.User, error)

	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)

	UpdateLastLogin(ctx context.Context, userID id.UserID, at time.Time) error

	UpdatePasswordHash(ctx context.Context, userID id.UserID, hash string, at time.Time) error

	// EmailExists reports whether any account (active or not) holds the email.
	EmailExists(ctx context.Context, email string) (bool, error)
}
