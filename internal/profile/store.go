package profile

import (
	"context"

	id "github.com/acesonder/outreach/pkg/domain"
)

// Store persists client profiles.
// Error Contract: FindByUser returns sentinel.ErrNotFound (wrapped) when no
// profile exists; Create is a no-op when a profile is already present.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	FindByUser(ctx context.Context, userID id.UserID) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
}
