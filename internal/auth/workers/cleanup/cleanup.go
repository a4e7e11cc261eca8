// Package cleanup periodically sweeps idle sessions out of the store so the
// idle-timeout enforced lazily on access also reclaims storage for sessions
// that are never touched again.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionStore exposes bulk removal of idle sessions.
type SessionStore interface {
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error)
}

// Result summarizes one sweep.
type Result struct {
	DeletedSessions int
}

// Service removes sessions whose last activity is older than the idle
// timeout, on a fixed interval.
type Service struct {
	sessions    SessionStore
	idleTimeout time.Duration
	interval    time.Duration
	logger      *slog.Logger
	now         func() time.Time
	onSweep     func(deleted int)
}

// Option configures the Service.
type Option func(*Service)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLogger overrides the logger used for sweep errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
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

// WithSweepObserver registers a callback invoked with the deletion count
// after each successful sweep. Used to feed the expired-sessions metric.
func WithSweepObserver(onSweep func(deleted int)) Option {
	return func(s *Service) {
		s.onSweep = onSweep
	}
}

// New constructs the sweeper. idleTimeout must match the session manager's
// or the sweep will disagree with the lazy expiry.
func New(sessions SessionStore, idleTimeout time.Duration, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if idleTimeout <= 0 {
		return nil, fmt.Errorf("idle timeout must be positive")
	}
	svc := &Service{
		sessions:    sessions,
		idleTimeout: idleTimeout,
		interval:    5 * time.Minute,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start sweeps on the configured interval until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "session sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and reports how many sessions it removed.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	cutoff := s.now().UTC().Add(-s.idleTimeout)
	deleted, err := s.sessions.DeleteIdleSince(ctx, cutoff)
	if err != nil {
		return Result{}, fmt.Errorf("delete idle sessions: %w", err)
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "swept idle sessions", "deleted", deleted)
	}
	if s.onSweep != nil {
		s.onSweep(deleted)
	}
	return Result{DeletedSessions: deleted}, nil
}
