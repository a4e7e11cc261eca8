package service

import (
	"context"
	"errors"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/platform/middleware"
	"github.com/acesonder/outreach/internal/sentinel"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
	"github.com/acesonder/outreach/pkg/secrets"
	"github.com/acesonder/outreach/pkg/validation"
)

// resetChallengeMessage is returned by step 1 whether or not the account
// exists. The wording must stay identical across both branches.
const resetChallengeMessage = "If the account exists, answer the security question below to reset the password."

// BeginPasswordReset is step 1 of the reset flow: map a username to its
// security question. The response shape and message are identical for
// unknown accounts; a decoy question drawn deterministically from the
// catalog keeps repeated probing consistent, and no reset state is stored
// for them, so step 2 can never succeed.
func (s *Service) BeginPasswordReset(ctx context.Context, sess *models.Session, req *models.BeginResetRequest) (*models.ResetChallenge, error) {
	ctx, span := s.tracer.Start(ctx, "auth.BeginPasswordReset")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	if req == nil {
		spanErr = dErrors.NewValidation("request body is required")
		return nil, spanErr
	}
	if err := validation.Validate(req); err != nil {
		spanErr = err
		return nil, err
	}
	if sess == nil {
		spanErr = dErrors.New(dErrors.CodeUnauthorized, "no session")
		return nil, spanErr
	}

	user, err := s.users.FindActiveByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			sess.Reset = nil
			if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
				spanErr = saveErr
				return nil, saveErr
			}
			return &models.ResetChallenge{
				Message:      resetChallengeMessage,
				QuestionText: models.DecoyQuestion(req.Username).Text,
			}, nil
		}
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
		return nil, spanErr
	}

	question, ok := models.SecurityQuestionByID(user.SecurityQuestionID)
	if !ok {
		s.logger.ErrorContext(ctx, "user references unknown security question",
			"user_id", user.ID.String(),
			"question_id", int(user.SecurityQuestionID),
		)
		spanErr = dErrors.New(dErrors.CodeInternal, "account recovery unavailable")
		return nil, spanErr
	}

	sess.Reset = &models.PasswordResetState{
		UserID:     user.ID,
		Username:   user.Username,
		QuestionID: user.SecurityQuestionID,
		ExpiresAt:  s.now().UTC().Add(s.resetStateTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		spanErr = err
		return nil, err
	}

	return &models.ResetChallenge{
		Message:      resetChallengeMessage,
		QuestionText: question.Text,
	}, nil
}

// CompletePasswordReset is step 2: verify the security answer and set the
// new password. Success invalidates every other session of the user and
// logs this session in with a fresh token.
func (s *Service) CompletePasswordReset(ctx context.Context, sess *models.Session, req *models.CompleteResetRequest) (*models.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.CompletePasswordReset")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	if req == nil {
		spanErr = dErrors.NewValidation("request body is required")
		return nil, spanErr
	}
	if err := validation.Validate(req); err != nil {
		spanErr = err
		return nil, err
	}
	if sess == nil || sess.Reset == nil || s.now().UTC().After(sess.Reset.ExpiresAt) {
		spanErr = dErrors.New(dErrors.CodeUnauthorized, "password reset failed")
		return nil, spanErr
	}
	state := sess.Reset
	sourceIP := middleware.GetClientMetadata(ctx).IP

	if s.lockout != nil {
		if locked, _ := s.lockout.IsLocked(ctx, state.Username, sourceIP); locked {
			s.failReset(ctx, sess, state, sourceIP, "account_locked", true)
			spanErr = dErrors.New(dErrors.CodeUnauthorized, "password reset failed")
			return nil, spanErr
		}
	}

	// Policy problems are reported before the answer is checked and do not
	// consume the challenge.
	details := passwordPolicyViolations(req.NewPassword)
	if req.NewPassword != req.ConfirmPassword {
		details = append(details, "passwords do not match")
	}
	if len(details) > 0 {
		spanErr = dErrors.NewValidation(details...)
		return nil, spanErr
	}

	user, err := s.users.FindByID(ctx, state.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.dummy.Verify(req.SecurityAnswer)
			s.failReset(ctx, sess, state, sourceIP, "user_gone", true)
			spanErr = dErrors.New(dErrors.CodeUnauthorized, "password reset failed")
			return nil, spanErr
		}
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
		return nil, spanErr
	}
	if !user.IsActive() {
		s.dummy.Verify(req.SecurityAnswer)
		s.failReset(ctx, sess, state, sourceIP, "account_inactive", true)
		spanErr = dErrors.New(dErrors.CodeUnauthorized, "password reset failed")
		return nil, spanErr
	}

	if err := secrets.Verify(normalizeAnswer(req.SecurityAnswer), user.SecurityAnswerHash); err != nil {
		s.failReset(ctx, sess, state, sourceIP, "wrong_answer", false)
		spanErr = dErrors.New(dErrors.CodeUnauthorized, "password reset failed")
		return nil, spanErr
	}

	hash, err := secrets.Hash(req.NewPassword, s.bcryptCost)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		return nil, spanErr
	}
	now := s.now().UTC()
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash, now); err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
		return nil, spanErr
	}

	// Every other session dies with the old password.
	if err := s.sessions.DestroyAllForUser(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after reset",
			"user_id", user.ID.String(), "error", err)
	}
	if s.lockout != nil {
		s.lockout.Clear(ctx, state.Username, sourceIP)
	}

	sess.BindUser(user)
	sess, err = s.sessions.Regenerate(ctx, sess)
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind session")
		return nil, spanErr
	}

	s.auditChange(ctx, audit.ActionPasswordResetSuccess, &user.ID, nil,
		map[string]any{"username": user.Username, "password_changed": true},
	)
	s.countPasswordReset("success")
	s.incrementLoginSuccesses()

	return &models.LoginResult{User: models.ViewOf(user), Session: sess.Token}, nil
}

// failReset audits a failed attempt and feeds the lockout counter. A wrong
// answer keeps the challenge so the flow stays in step 2; clearState kills it
// when the account is gone, inactive, or locked.
func (s *Service) failReset(ctx context.Context, sess *models.Session, state *models.PasswordResetState, sourceIP, reason string, clearState bool) {
	s.logAuthFailure(ctx, reason, false, "username", state.Username)
	s.logAudit(ctx, audit.ActionPasswordResetFailed, &state.UserID, "username", state.Username)
	s.countPasswordReset("failed")

	if s.lockout != nil {
		if lockedNow := s.lockout.RecordFailure(ctx, state.Username, sourceIP); lockedNow {
			s.logAudit(ctx, audit.ActionAccountLocked, &state.UserID, "identifier", state.Username)
			s.incrementLockouts()
			clearState = true
		}
	}

	if !clearState {
		return
	}
	sess.Reset = nil
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear reset state", "error", err)
	}
}
