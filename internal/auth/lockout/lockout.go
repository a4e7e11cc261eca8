// Package lockout tracks failed login attempts per account+address and
// temporarily locks credential verification after repeated failures.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Record tracks consecutive failures within a rolling window.
type Record struct {
	Key          string
	Failures     int
	WindowStart  time.Time
	LockedUntil  *time.Time
	LastFailedAt time.Time
}

// Store is the persistence contract for lockout records.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, record *Record) error
	Delete(ctx context.Context, key string) error
}

// Config tunes the failure window and lock duration.
type Config struct {
	Threshold    int
	Window       time.Duration
	LockDuration time.Duration
}

// DefaultConfig matches the deployment default: five failures inside
// fifteen minutes lock the pair for fifteen minutes.
func DefaultConfig() Config {
	return Config{
		Threshold:    5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

// Service applies the lockout policy. Store failures fail open: a broken
// lockout store must not take logins down with it.
type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.Threshold > 0 {
			s.cfg = cfg
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

// New constructs a lockout service over the given store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("lockout store is required")
	}
	svc := &Service{
		store:  store,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func key(identifier, ip string) string {
	return fmt.Sprintf("auth:%s:%s", identifier, ip)
}

// IsLocked reports whether the identifier+IP pair is currently locked and,
// if so, until when.
func (s *Service) IsLocked(ctx context.Context, identifier, ip string) (bool, time.Time) {
	record, err := s.store.Get(ctx, key(identifier, ip))
	if err != nil {
		s.logger.ErrorContext(ctx, "lockout check failed, failing open", "error", err)
		return false, time.Time{}
	}
	if record == nil || record.LockedUntil == nil {
		return false, time.Time{}
	}
	if s.now().After(*record.LockedUntil) {
		return false, time.Time{}
	}
	return true, *record.LockedUntil
}

// RecordFailure counts a failed attempt. Returns true when this failure
// crossed the threshold and locked the pair.
func (s *Service) RecordFailure(ctx context.Context, identifier, ip string) bool {
	k := key(identifier, ip)
	now := s.now()

	record, err := s.store.Get(ctx, k)
	if err != nil {
		s.logger.ErrorContext(ctx, "lockout record lookup failed", "error", err)
		return false
	}
	if record == nil || now.Sub(record.WindowStart) > s.cfg.Window {
		record = &Record{Key: k, WindowStart: now}
	}

	record.Failures++
	record.LastFailedAt = now
	locked := false
	if record.Failures >= s.cfg.Threshold {
		until := now.Add(s.cfg.LockDuration)
		record.LockedUntil = &until
		locked = true
	}

	if err := s.store.Put(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "lockout record update failed", "error", err)
		return false
	}
	return locked
}

// Clear drops the failure record after a successful authentication.
func (s *Service) Clear(ctx context.Context, identifier, ip string) {
	if err := s.store.Delete(ctx, key(identifier, ip)); err != nil {
		s.logger.ErrorContext(ctx, "lockout record clear failed", "error", err)
	}
}
