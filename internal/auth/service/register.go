package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/auth/username"
	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
	"github.com/acesonder/outreach/pkg/secrets"
	"github.com/acesonder/outreach/pkg/validation"
)

const minRegistrationAge = 16

// Register creates a credential record with a generated username. All
// validation failures are collected and returned together so the intake form
// can show every problem in one round trip.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	// A JSON body of `null` decodes into a nil request without a decode error.
	if req == nil {
		spanErr = dErrors.NewValidation("request body is required")
		return nil, spanErr
	}

	dob, details := s.validateRegistration(req)
	if len(details) > 0 {
		spanErr = dErrors.NewValidation(details...)
		return nil, spanErr
	}

	if req.Email != "" {
		exists, err := s.users.EmailExists(ctx, req.Email)
		if err != nil {
			spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
			return nil, spanErr
		}
		if exists {
			spanErr = dErrors.New(dErrors.CodeConflict, "email is already registered")
			return nil, spanErr
		}
	}

	passwordHash, err := secrets.Hash(req.Password, s.bcryptCost)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		return nil, spanErr
	}
	answerHash, err := secrets.Hash(normalizeAnswer(req.SecurityAnswer), s.bcryptCost)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash security answer")
		return nil, spanErr
	}

	now := s.now().UTC()
	user := &models.User{
		ID:                 id.NewUserID(),
		Email:              req.Email,
		PasswordHash:       passwordHash,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		DateOfBirth:        dob,
		Phone:              req.Phone,
		SecurityQuestionID: req.SecurityQuestionID,
		SecurityAnswerHash: answerHash,
		Role:               models.RoleClient,
		Status:             models.UserStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	attempts, err := s.createWithGeneratedUsername(ctx, user)
	if err != nil {
		spanErr = err
		return nil, err
	}
	s.observeUsernameAttempts(attempts)
	span.SetAttributes(attribute.Int("username_attempts", attempts))

	if s.profiles != nil && user.Role == models.RoleClient {
		if err := s.profiles.EnsureProfile(ctx, user.ID); err != nil {
			spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
			return nil, spanErr
		}
	}

	s.auditChange(ctx, audit.ActionRegister, &user.ID, nil, map[string]any{
		"username": user.Username,
		"role":     string(user.Role),
	})
	s.incrementUsersRegistered()

	return &models.RegistrationResult{UserID: user.ID, Username: user.Username}, nil
}

// validateRegistration collects every validation message. The parsed date of
// birth is returned so the caller does not parse twice.
func (s *Service) validateRegistration(req *models.RegisterRequest) (time.Time, []string) {
	var details []string
	if err := validation.Validate(req); err != nil {
		details = append(details, dErrors.Messages(err)...)
	}

	var dob time.Time
	if req.DateOfBirth != "" {
		if parsed, err := time.Parse("2006-01-02", req.DateOfBirth); err == nil {
			dob = parsed
			if !id.MeetsMinimumAge(dob, s.now(), minRegistrationAge) {
				details = append(details, "you must be at least 16 years old to register")
			}
		}
	}

	if _, ok := models.SecurityQuestionByID(req.SecurityQuestionID); !ok {
		details = append(details, "security_question_id must be a known question")
	}

	details = append(details, passwordPolicyViolations(req.Password)...)
	if req.Password != req.ConfirmPassword {
		details = append(details, "passwords do not match")
	}
	if !req.Consent {
		details = append(details, "consent is required")
	}
	return dob, details
}

// createWithGeneratedUsername derives the username seed from the applicant's
// name and birth date and retries with numeric suffixes until the store
// accepts the insert. Uniqueness lives in the store, not in a prior lookup,
// so two concurrent registrations racing on the same handle cannot both win.
func (s *Service) createWithGeneratedUsername(ctx context.Context, user *models.User) (int, error) {
	seed := username.Seed(user.FirstName, user.LastName, user.DateOfBirth)
	for attempt := 0; attempt < username.MaxAttempts; attempt++ {
		user.Username = username.Candidate(seed, attempt)
		err := s.users.Create(ctx, user)
		if err == nil {
			return attempt + 1, nil
		}
		if errors.Is(err, sentinel.ErrUsernameTaken) {
			continue
		}
		if errors.Is(err, sentinel.ErrEmailTaken) {
			return attempt + 1, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return attempt + 1, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.logger.ErrorContext(ctx, "username space exhausted", "seed", seed)
	return username.MaxAttempts, dErrors.New(dErrors.CodeConflict, "could not allocate a username, please contact support")
}

// endSpan closes a span, recording err when present.
func endSpan(span trace.Span, err error) {
	if err != nil && dErrors.HasCode(err, dErrors.CodeInternal) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
