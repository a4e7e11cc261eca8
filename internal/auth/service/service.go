// Package service implements the authentication workflows: registration with
// generated usernames, credential login, session-bound password reset, and
// logout. It depends on store interfaces, never on concrete stores, and
// translates store sentinels into coded domain errors exactly once.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/metrics"
	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
	"github.com/acesonder/outreach/pkg/secrets"
)

const (
	defaultBcryptCost    = 12
	defaultResetStateTTL = 10 * time.Minute
)

// UserStore is the credential persistence contract.
// Error Contract: Find methods return sentinel.ErrNotFound (wrapped) when no
// entity matches; Create returns sentinel.ErrUsernameTaken or
// sentinel.ErrEmailTaken on unique-constraint violations.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindActiveByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindActiveByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID id.UserID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, userID id.UserID, hash string, at time.Time) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

// SessionManager owns session lifecycle: creation, rotation, destruction.
type SessionManager interface {
	Start(ctx context.Context) (*models.Session, error)
	Regenerate(ctx context.Context, sess *models.Session) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
	Destroy(ctx context.Context, token string) error
	DestroyAllForUser(ctx context.Context, userID id.UserID) error
}

// AuditRecorder appends to the audit trail. Implementations are best-effort
// and must never fail the calling operation.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

// AuditLog reads the trail back for the activity endpoint.
type AuditLog interface {
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]audit.Event, error)
}

// LockoutGuard throttles repeated credential failures per identifier and
// source address.
type LockoutGuard interface {
	IsLocked(ctx context.Context, identifier, ip string) (bool, time.Time)
	RecordFailure(ctx context.Context, identifier, ip string) bool
	Clear(ctx context.Context, identifier, ip string)
}

// ProfileCreator provisions the client-facing profile row alongside a new
// credential record.
type ProfileCreator interface {
	EnsureProfile(ctx context.Context, userID id.UserID) error
}

type Service struct {
	users    UserStore
	sessions SessionManager
	profiles ProfileCreator
	auditor  AuditRecorder
	auditLog AuditLog
	lockout  LockoutGuard
	remember *RememberTokens
	dummy    *secrets.DummyVerifier

	bcryptCost    int
	resetStateTTL time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(recorder AuditRecorder, log AuditLog) Option {
	return func(s *Service) {
		s.auditor = recorder
		s.auditLog = log
	}
}

func WithLockout(guard LockoutGuard) Option {
	return func(s *Service) { s.lockout = guard }
}

func WithProfiles(profiles ProfileCreator) Option {
	return func(s *Service) { s.profiles = profiles }
}

func WithRememberTokens(rt *RememberTokens) Option {
	return func(s *Service) { s.remember = rt }
}

// WithBcryptCost overrides the hashing cost when greater than zero.
// Tests use a low cost to stay fast.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

// WithResetStateTTL overrides how long a step-1 reset challenge stays valid.
func WithResetStateTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.resetStateTTL = ttl
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(users UserStore, sessions SessionManager, opts ...Option) *Service {
	svc := &Service{
		users:         users,
		sessions:      sessions,
		bcryptCost:    defaultBcryptCost,
		resetStateTTL: defaultResetStateTTL,
		logger:        slog.Default(),
		tracer:        otel.Tracer("outreach/auth"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	// The dummy hash must be generated at the cost real credentials verify
	// with, so the verifier is built after options settle bcryptCost.
	dummy, err := secrets.NewDummyVerifier(svc.bcryptCost)
	if err != nil {
		svc.logger.Error("failed to precompute dummy hash", "error", err)
	}
	svc.dummy = dummy
	return svc
}

// Me returns the caller-facing profile of the session's user.
func (s *Service) Me(ctx context.Context, sess *models.Session) (*models.View, error) {
	if sess == nil || !sess.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not logged in")
	}
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "not logged in")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return models.ViewOf(user), nil
}

// ListActivity returns the newest audit events for a user. Authorization is
// the caller's concern; the handler gates this behind the audit permission.
func (s *Service) ListActivity(ctx context.Context, userID id.UserID, limit int) ([]audit.Event, error) {
	if s.auditLog == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit log not configured")
	}
	events, err := s.auditLog.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activity")
	}
	return events, nil
}
