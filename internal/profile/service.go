package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
	"github.com/acesonder/outreach/pkg/validation"
)

// AuditRecorder appends to the audit trail, best-effort.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

// Service owns profile provisioning and the intake workflow.
type Service struct {
	store   Store
	auditor AuditRecorder
	logger  *slog.Logger
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

func WithAudit(recorder AuditRecorder) Option {
	return func(s *Service) { s.auditor = recorder }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// EnsureProfile creates an empty profile for the user if none exists.
// Idempotent; called during registration.
func (s *Service) EnsureProfile(ctx context.Context, userID id.UserID) error {
	now := s.now().UTC()
	err := s.store.Create(ctx, &Profile{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}
	return nil
}

// Get returns the user's profile.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*Profile, error) {
	p, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

// CompleteIntake fills in the profile from the intake form and marks it
// complete. Completing twice is a conflict; staff correct profiles through
// their own tooling, not by re-running intake.
func (s *Service) CompleteIntake(ctx context.Context, userID id.UserID, req *IntakeRequest) (*Profile, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.IntakeCompleted {
		return nil, dErrors.New(dErrors.CodeConflict, "intake has already been completed")
	}

	now := s.now().UTC()
	p.HousingStatus = req.HousingStatus
	p.IncomeSource = req.IncomeSource
	p.SupportNotes = req.SupportNotes
	p.IntakeCompleted = true
	p.IntakeCompletedAt = &now
	p.UpdatedAt = now

	if err := s.store.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save intake")
	}

	s.logger.InfoContext(ctx, "intake_completed",
		"log_type", "audit",
		"user_id", userID.String(),
	)
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Event{
			UserID: &userID,
			Action: audit.ActionIntakeCompleted,
			NewValues: map[string]any{
				"housing_status": p.HousingStatus,
			},
		})
	}
	return p, nil
}
