package audit

import (
	"context"

	id "github.com/acesonder/outreach/pkg/domain"
)

// Store is the persistence contract for the audit trail. Implementations
// only ever insert and read; there is deliberately no update or delete.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]Event, error)
}
