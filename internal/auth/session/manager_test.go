package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/acesonder/outreach/internal/auth/models"
	sessionstore "github.com/acesonder/outreach/internal/auth/store/session"
	"github.com/acesonder/outreach/internal/platform/middleware"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

type ManagerSuite struct {
	suite.Suite
	store   *sessionstore.InMemoryStore
	now     time.Time
	manager *Manager
}

func (s *ManagerSuite) SetupTest() {
	s.store = sessionstore.New()
	s.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	var err error
	s.manager, err = NewManager(s.store,
		WithIdleTimeout(time.Hour),
		WithRotationInterval(30*time.Minute),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *ManagerSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *ManagerSuite) TestStartCreatesAnonymousSession() {
	ctx := middleware.WithClientMetadata(context.Background(),
		"203.0.113.9",
		"Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
	)

	sess, err := s.manager.Start(ctx)
	s.Require().NoError(err)
	s.NotEmpty(sess.Token)
	s.False(sess.IsAuthenticated())
	s.Equal("203.0.113.9", sess.SourceIP)
	s.Contains(sess.DeviceName, "Firefox")

	found, err := s.store.FindByToken(ctx, sess.Token)
	s.Require().NoError(err)
	s.Equal(sess.ID, found.ID)
}

func (s *ManagerSuite) TestCurrentTouchesActivity() {
	ctx := context.Background()
	sess, err := s.manager.Start(ctx)
	s.Require().NoError(err)

	s.advance(10 * time.Minute)

	got, err := s.manager.Current(ctx, sess.Token)
	s.Require().NoError(err)
	s.Equal(sess.Token, got.Token, "no rotation before the interval elapses")
	s.Equal(s.now, got.LastActivityAt)
}

func (s *ManagerSuite) TestCurrentRotatesStaleToken() {
	ctx := context.Background()
	sess, err := s.manager.Start(ctx)
	s.Require().NoError(err)
	oldToken := sess.Token

	s.advance(31 * time.Minute)

	got, err := s.manager.Current(ctx, oldToken)
	s.Require().NoError(err)
	s.NotEqual(oldToken, got.Token)
	s.Equal(sess.ID, got.ID, "rotation keeps the same session identity")

	_, err = s.manager.Current(ctx, oldToken)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "old token is dead after rotation")
}

func (s *ManagerSuite) TestRotationObserverCountsRotations() {
	ctx := context.Background()

	var rotations int
	manager, err := NewManager(s.store,
		WithIdleTimeout(time.Hour),
		WithRotationInterval(30*time.Minute),
		WithClock(func() time.Time { return s.now }),
		WithRotationObserver(func() { rotations++ }),
	)
	s.Require().NoError(err)

	sess, err := manager.Start(ctx)
	s.Require().NoError(err)
	s.Equal(0, rotations, "starting a session is not a rotation")

	s.advance(31 * time.Minute)
	sess, err = manager.Current(ctx, sess.Token)
	s.Require().NoError(err)
	s.Equal(1, rotations, "scheduled rotation is counted")

	_, err = manager.Regenerate(ctx, sess)
	s.Require().NoError(err)
	s.Equal(2, rotations, "forced regeneration is counted")
}

func (s *ManagerSuite) TestCurrentDestroysExpiredSession() {
	ctx := context.Background()
	sess, err := s.manager.Start(ctx)
	s.Require().NoError(err)

	s.advance(61 * time.Minute)

	_, err = s.manager.Current(ctx, sess.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Equal(0, s.store.Len(), "expired session is removed, not left behind")
}

func (s *ManagerSuite) TestCurrentActivityKeepsSessionAlive() {
	ctx := context.Background()
	sess, err := s.manager.Start(ctx)
	s.Require().NoError(err)
	token := sess.Token

	// Each request within the idle window restarts the clock.
	for i := 0; i < 4; i++ {
		s.advance(25 * time.Minute)
		got, err := s.manager.Current(ctx, token)
		s.Require().NoError(err)
		token = got.Token
	}
}

func (s *ManagerSuite) TestCurrentUnknownToken() {
	_, err := s.manager.Current(context.Background(), "no-such-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ManagerSuite) TestRegenerateSwapsTokenImmediately() {
	ctx := context.Background()
	sess, err := s.manager.Start(ctx)
	s.Require().NoError(err)
	oldToken := sess.Token

	user := &models.User{ID: id.NewUserID(), Username: "JOHDOE9005", Role: models.RoleClient}
	sess.BindUser(user)

	got, err := s.manager.Regenerate(ctx, sess)
	s.Require().NoError(err)
	s.NotEqual(oldToken, got.Token)
	s.True(got.IsAuthenticated())

	found, err := s.store.FindByToken(ctx, got.Token)
	s.Require().NoError(err)
	s.Equal(user.ID, found.UserID)
}

func (s *ManagerSuite) TestDestroyIsIdempotent() {
	ctx := context.Background()
	sess, err := s.manager.Start(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Destroy(ctx, sess.Token))
	s.Require().NoError(s.manager.Destroy(ctx, sess.Token))
	s.Require().NoError(s.manager.Destroy(ctx, ""))
}

func (s *ManagerSuite) TestDestroyAllForUser() {
	ctx := context.Background()
	userID := id.NewUserID()

	user := &models.User{ID: userID, Username: "JOHDOE9005", Role: models.RoleClient}
	for i := 0; i < 3; i++ {
		sess, err := s.manager.Start(ctx)
		s.Require().NoError(err)
		sess.BindUser(user)
		s.Require().NoError(s.manager.Save(ctx, sess))
	}
	other, err := s.manager.Start(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.manager.DestroyAllForUser(ctx, userID))
	s.Equal(1, s.store.Len())

	_, err = s.manager.Current(ctx, other.Token)
	s.NoError(err, "unrelated sessions survive")
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(""); got != "Unknown device" {
		t.Errorf("DisplayName(empty) = %q", got)
	}
	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	if got := DisplayName(chrome); got == "Unknown device" || got[:6] != "Chrome" {
		t.Errorf("DisplayName(chrome UA) = %q", got)
	}
}
