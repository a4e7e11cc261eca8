package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acesonder/outreach/internal/auth/models"
	sessionStore "github.com/acesonder/outreach/internal/auth/store/session"
	id "github.com/acesonder/outreach/pkg/domain"
)

func TestRunOnceSweepsIdleSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	sessions := sessionStore.New()

	idle := &models.Session{
		ID:             id.NewSessionID(),
		Token:          "tok-idle",
		CreatedAt:      now.Add(-3 * time.Hour),
		LastActivityAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, sessions.Save(ctx, idle))

	live := &models.Session{
		ID:             id.NewSessionID(),
		Token:          "tok-live",
		CreatedAt:      now.Add(-3 * time.Hour),
		LastActivityAt: now.Add(-10 * time.Minute),
	}
	require.NoError(t, sessions.Save(ctx, live))

	var observed int
	svc, err := New(sessions, time.Hour,
		WithInterval(10*time.Second),
		WithClock(func() time.Time { return now }),
		WithSweepObserver(func(deleted int) { observed += deleted }),
	)
	require.NoError(t, err)

	res, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.DeletedSessions)
	require.Equal(t, 1, observed)

	_, err = sessions.FindByToken(ctx, "tok-idle")
	require.Error(t, err)
	_, err = sessions.FindByToken(ctx, "tok-live")
	require.NoError(t, err)

	// A second run finds nothing left to remove.
	res, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, res.DeletedSessions)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, time.Hour)
	require.Error(t, err)

	_, err = New(sessionStore.New(), 0)
	require.Error(t, err)
}
