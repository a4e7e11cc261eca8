package service

import (
	"time"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

// beginReset starts a session and runs step 1 for the username.
func (s *ServiceSuite) beginReset(username string) (*models.Session, *models.ResetChallenge) {
	sess, err := s.manager.Start(s.ctx())
	s.Require().NoError(err)

	challenge, err := s.service.BeginPasswordReset(s.ctx(), sess, &models.BeginResetRequest{Username: username})
	s.Require().NoError(err)
	return sess, challenge
}

func (s *ServiceSuite) TestBeginResetReturnsUsersQuestion() {
	s.mustRegister(validRegistration())

	_, challenge := s.beginReset("JOHDOE9005")
	s.Equal("What was the name of your first pet?", challenge.QuestionText)
	s.NotEmpty(challenge.Message)
}

func (s *ServiceSuite) TestBeginResetUnknownUserLooksIdentical() {
	s.mustRegister(validRegistration())

	_, known := s.beginReset("JOHDOE9005")
	_, unknown := s.beginReset("ZZZYYY0101")

	s.Equal(known.Message, unknown.Message, "step 1 must not reveal whether the account exists")
	s.NotEmpty(unknown.QuestionText, "unknown accounts still get a question")

	// The same unknown username always maps to the same decoy question.
	_, again := s.beginReset("ZZZYYY0101")
	s.Equal(unknown.QuestionText, again.QuestionText)
}

func (s *ServiceSuite) TestCompleteResetHappyPath() {
	reg := s.mustRegister(validRegistration())

	// A second device is logged in; the reset must kill it.
	other, err := s.login(reg.Username, "Str0ng!pass")
	s.Require().NoError(err)

	sess, _ := s.beginReset(reg.Username)
	sess, err = s.manager.Current(s.ctx(), sess.Token)
	s.Require().NoError(err)

	res, err := s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "  REX  ", // normalization must forgive case and spacing
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	})
	s.Require().NoError(err)
	s.Equal(reg.UserID, res.User.ID)
	s.NotEmpty(res.Session, "reset logs the session in")

	// Old password is dead, new one works.
	_, err = s.login(reg.Username, "Str0ng!pass")
	s.Require().Error(err)
	_, err = s.login(reg.Username, "N3w!passwd")
	s.Require().NoError(err)

	// The other device's session was revoked.
	_, err = s.manager.Current(s.ctx(), other.Session)
	s.Require().Error(err)

	s.Contains(s.auditActions(), audit.ActionPasswordResetSuccess)
}

func (s *ServiceSuite) TestCompleteResetWrongAnswer() {
	reg := s.mustRegister(validRegistration())

	sess, _ := s.beginReset(reg.Username)

	_, err := s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "wrong",
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(s.auditActions(), audit.ActionPasswordResetFailed)

	// The old password still works.
	_, err = s.login(reg.Username, "Str0ng!pass")
	s.NoError(err)

	// The flow stays in step 2: the right answer still completes the reset.
	res, err := s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "Rex",
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	})
	s.Require().NoError(err)
	s.Equal(reg.UserID, res.User.ID)
}

func (s *ServiceSuite) TestCompleteResetLockoutEndsChallenge() {
	reg := s.mustRegister(validRegistration())
	sess, _ := s.beginReset(reg.Username)

	wrong := &models.CompleteResetRequest{
		SecurityAnswer:  "wrong",
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	}
	for i := 0; i < 5; i++ {
		_, err := s.service.CompletePasswordReset(s.ctx(), sess, wrong)
		s.Require().Error(err)
	}
	s.Contains(s.auditActions(), audit.ActionAccountLocked)

	// The lock cleared the challenge; even the right answer is refused now.
	_, err := s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "Rex",
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCompleteResetWithoutChallenge() {
	sess, err := s.manager.Start(s.ctx())
	s.Require().NoError(err)

	_, err = s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "Rex",
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCompleteResetUnknownUserAlwaysFails() {
	sess, _ := s.beginReset("ZZZYYY0101")

	// No state was stored in step 1, so any answer fails generically.
	_, err := s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "anything",
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCompleteResetChallengeExpires() {
	reg := s.mustRegister(validRegistration())
	sess, _ := s.beginReset(reg.Username)

	s.advance(11 * time.Minute)

	_, err := s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "Rex",
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCompleteResetPolicyViolationKeepsChallenge() {
	reg := s.mustRegister(validRegistration())
	sess, _ := s.beginReset(reg.Username)

	_, err := s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "Rex",
		NewPassword:     "weak",
		ConfirmPassword: "weak",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	// Policy problems do not consume the challenge.
	res, err := s.service.CompletePasswordReset(s.ctx(), sess, &models.CompleteResetRequest{
		SecurityAnswer:  "Rex",
		NewPassword:     "N3w!passwd",
		ConfirmPassword: "N3w!passwd",
	})
	s.Require().NoError(err)
	s.Equal(reg.UserID, res.User.ID)
}

func (s *ServiceSuite) TestResetNilRequests() {
	sess, err := s.manager.Start(s.ctx())
	s.Require().NoError(err)

	_, err = s.service.BeginPasswordReset(s.ctx(), sess, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.CompletePasswordReset(s.ctx(), sess, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
