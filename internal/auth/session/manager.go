// Package session implements the server-side session lifecycle: creation,
// activity tracking, idle expiry, periodic token rotation, and destruction.
// Session state is an explicit object handed to callers, never ambient
// process-global state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/acesonder/outreach/internal/auth/models"
	sessionstore "github.com/acesonder/outreach/internal/auth/store/session"
	"github.com/acesonder/outreach/internal/platform/middleware"
	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
	"github.com/acesonder/outreach/pkg/secrets"
)

const (
	defaultIdleTimeout      = time.Hour
	defaultRotationInterval = 30 * time.Minute
)

// Manager owns session lifecycle rules over a pluggable store.
type Manager struct {
	store            sessionstore.Store
	idleTimeout      time.Duration
	rotationInterval time.Duration
	logger           *slog.Logger
	now              func() time.Time
	onRotate         func()
}

// Option configures the Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIdleTimeout overrides the inactivity timeout when greater than zero.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// WithRotationInterval overrides the token rotation interval when greater than zero.
func WithRotationInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.rotationInterval = d
		}
	}
}

// WithRotationObserver registers a callback fired after every successful
// token rotation, scheduled or forced. Feeds the rotation counter.
func WithRotationObserver(fn func()) Option {
	return func(m *Manager) { m.onRotate = fn }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a Manager over the given store.
func NewManager(store sessionstore.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	m := &Manager{
		store:            store,
		idleTimeout:      defaultIdleTimeout,
		rotationInterval: defaultRotationInterval,
		logger:           slog.Default(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// IdleTimeout exposes the configured inactivity timeout.
func (m *Manager) IdleTimeout() time.Duration { return m.idleTimeout }

// Start creates a fresh, unauthenticated session and persists it. The
// returned session's Token is the only secret the client receives.
func (m *Manager) Start(ctx context.Context) (*models.Session, error) {
	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	meta := middleware.GetClientMetadata(ctx)
	sess := &models.Session{
		ID:             id.NewSessionID(),
		Token:          token,
		CreatedAt:      now,
		LastActivityAt: now,
		DeviceName:     DisplayName(meta.UserAgent),
		SourceIP:       meta.IP,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	return sess, nil
}

// Current resolves a client token to its live session. Expired sessions are
// actively destroyed - an expired session is logged-out, not merely stale.
// A valid session has its activity touched and its token rotated when the
// identifier has outlived the rotation interval; callers must propagate
// the (possibly new) Token to the client.
func (m *Manager) Current(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no session")
	}

	sess, err := m.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "no session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}

	now := m.now().UTC()
	if sess.ExpiredAt(now, m.idleTimeout) {
		if err := m.store.Delete(ctx, token); err != nil {
			m.logger.ErrorContext(ctx, "failed to destroy expired session", "error", err)
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session expired")
	}

	sess.Touch(now)

	if sess.StaleAt(now, m.rotationInterval) {
		rotated, err := m.rotate(ctx, token, sess, now)
		if err != nil {
			return nil, err
		}
		return rotated, nil
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	return sess, nil
}

// rotate issues a new token for the session, preserving bound state, so a
// leaked token has a bounded useful lifetime.
func (m *Manager) rotate(ctx context.Context, oldToken string, sess *models.Session, now time.Time) (*models.Session, error) {
	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}
	sess.Token = token
	sess.CreatedAt = now
	if err := m.store.Swap(ctx, oldToken, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rotate session")
	}
	if m.onRotate != nil {
		m.onRotate()
	}
	return sess, nil
}

// Regenerate replaces the session's token immediately, regardless of age.
// Used at privilege changes (login, password reset) against fixation.
func (m *Manager) Regenerate(ctx context.Context, sess *models.Session) (*models.Session, error) {
	return m.rotate(ctx, sess.Token, sess, m.now().UTC())
}

// Destroy removes all server-side state for the token. Idempotent: destroying
// an already-destroyed session is not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to destroy session")
	}
	return nil
}

// DestroyAllForUser invalidates every session bound to the user.
func (m *Manager) DestroyAllForUser(ctx context.Context, userID id.UserID) error {
	if err := m.store.DeleteByUser(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to destroy user sessions")
	}
	return nil
}

// Save persists mutations callers made to the session (bound user, reset state).
func (m *Manager) Save(ctx context.Context, sess *models.Session) error {
	if err := m.store.Save(ctx, sess); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	return nil
}
