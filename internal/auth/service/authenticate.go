package service

import (
	"context"
	"errors"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/platform/middleware"
	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
	"github.com/acesonder/outreach/pkg/secrets"
	"github.com/acesonder/outreach/pkg/validation"
)

// errInvalidCredentials is the single rejection every failed login sees.
// Unknown identifier, wrong password, inactive account, and locked account
// are indistinguishable to the caller.
func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
}

// Authenticate verifies credentials and binds the user to a session. When
// sess is nil a fresh session is started; either way the session token is
// regenerated at the privilege change, so the returned token is always new.
func (s *Service) Authenticate(ctx context.Context, sess *models.Session, req *models.LoginRequest) (*models.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Authenticate")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	started := s.now()
	defer func() {
		s.observeAuthenticateDuration(float64(s.now().Sub(started).Milliseconds()))
	}()

	if req == nil {
		spanErr = dErrors.NewValidation("request body is required")
		return nil, spanErr
	}
	if err := validation.Validate(req); err != nil {
		spanErr = err
		return nil, err
	}

	sourceIP := middleware.GetClientMetadata(ctx).IP

	if s.lockout != nil {
		if locked, until := s.lockout.IsLocked(ctx, req.Identifier, sourceIP); locked {
			s.logAuthFailure(ctx, "account_locked", false,
				"identifier", req.Identifier,
				"locked_until", until,
			)
			s.logAudit(ctx, audit.ActionLoginFailed, nil, "identifier", req.Identifier)
			spanErr = errInvalidCredentials()
			return nil, spanErr
		}
	}

	user, err := s.users.FindActiveByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Burn a hash comparison so a miss costs the same as a mismatch.
			s.dummy.Verify(req.Password)
			s.recordLoginFailure(ctx, req.Identifier, sourceIP, nil)
			spanErr = errInvalidCredentials()
			return nil, spanErr
		}
		s.logAuthFailure(ctx, "user_lookup_failed", true, "error", err)
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
		return nil, spanErr
	}

	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		s.recordLoginFailure(ctx, req.Identifier, sourceIP, &user.ID)
		spanErr = errInvalidCredentials()
		return nil, spanErr
	}

	if s.lockout != nil {
		s.lockout.Clear(ctx, req.Identifier, sourceIP)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Non-fatal: the stamp is informational, the login still stands.
		s.logger.ErrorContext(ctx, "failed to stamp last login",
			"user_id", user.ID.String(), "error", err)
	}

	if sess == nil {
		sess, err = s.sessions.Start(ctx)
		if err != nil {
			spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to start session")
			return nil, spanErr
		}
	}
	sess.BindUser(user)
	sess, err = s.sessions.Regenerate(ctx, sess)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind session")
		return nil, spanErr
	}

	result := &models.LoginResult{
		User:    models.ViewOf(user),
		Session: sess.Token,
	}
	if req.RememberMe && s.remember != nil {
		token, err := s.remember.Issue(user.ID, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to issue remember token",
				"user_id", user.ID.String(), "error", err)
		} else {
			result.Remember = token
		}
	}

	s.logAudit(ctx, audit.ActionLoginSuccess, &user.ID, "username", user.Username)
	s.incrementLoginSuccesses()

	return result, nil
}

// recordLoginFailure audits the failure and feeds the lockout counter. When
// this failure crosses the threshold the lock itself is audited too.
func (s *Service) recordLoginFailure(ctx context.Context, identifier, sourceIP string, userID *id.UserID) {
	s.logAuthFailure(ctx, "invalid_credentials", false, "identifier", identifier)
	s.logAudit(ctx, audit.ActionLoginFailed, userID, "identifier", identifier)

	if s.lockout == nil {
		return
	}
	if lockedNow := s.lockout.RecordFailure(ctx, identifier, sourceIP); lockedNow {
		s.logAudit(ctx, audit.ActionAccountLocked, userID, "identifier", identifier)
		s.incrementLockouts()
	}
}

// RedeemRememberToken logs a user in from a persistent remember-me token.
// The account is re-checked against the store so a disabled user cannot ride
// an old token back in.
func (s *Service) RedeemRememberToken(ctx context.Context, tokenString string) (*models.LoginResult, error) {
	if s.remember == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "remember-me not enabled")
	}
	userID, err := s.remember.Redeem(tokenString, s.now())
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if !user.IsActive() {
		return nil, errInvalidCredentials()
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "failed to stamp last login",
			"user_id", user.ID.String(), "error", err)
	}

	sess, err := s.sessions.Start(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start session")
	}
	sess.BindUser(user)
	sess, err = s.sessions.Regenerate(ctx, sess)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind session")
	}

	s.logAudit(ctx, audit.ActionLoginSuccess, &user.ID,
		"username", user.Username, "via", "remember_token")
	s.incrementLoginSuccesses()

	return &models.LoginResult{User: models.ViewOf(user), Session: sess.Token}, nil
}
