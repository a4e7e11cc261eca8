package service

import (
	"time"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

func (s *ServiceSuite) login(identifier, password string) (*models.LoginResult, error) {
	return s.service.Authenticate(s.ctx(), nil, &models.LoginRequest{
		Identifier: identifier,
		Password:   password,
	})
}

func (s *ServiceSuite) TestAuthenticateByUsernameAndEmail() {
	reg := s.mustRegister(validRegistration())

	for _, identifier := range []string{reg.Username, "john.doe@example.com"} {
		res, err := s.login(identifier, "Str0ng!pass")
		s.Require().NoError(err, "identifier %s", identifier)
		s.Equal(reg.UserID, res.User.ID)
		s.NotEmpty(res.Session)
		s.Empty(res.Remember, "no remember token unless requested")
	}

	user, err := s.users.FindByID(s.ctx(), reg.UserID)
	s.Require().NoError(err)
	s.Require().NotNil(user.LastLoginAt)
	s.Equal(s.now.UTC(), *user.LastLoginAt)
}

func (s *ServiceSuite) TestAuthenticateBindsExistingSession() {
	reg := s.mustRegister(validRegistration())

	anon, err := s.manager.Start(s.ctx())
	s.Require().NoError(err)
	anonToken := anon.Token

	res, err := s.service.Authenticate(s.ctx(), anon, &models.LoginRequest{
		Identifier: reg.Username,
		Password:   "Str0ng!pass",
	})
	s.Require().NoError(err)
	s.NotEqual(anonToken, res.Session, "token is regenerated at login")

	_, err = s.manager.Current(s.ctx(), anonToken)
	s.Require().Error(err, "pre-login token is dead")
}

func (s *ServiceSuite) TestAuthenticateFailuresAreIndistinguishable() {
	s.mustRegister(validRegistration())

	_, unknownErr := s.login("NOBODY0001", "whatever!A1")
	_, wrongPwErr := s.login("JOHDOE9005", "Wrong!pass1")

	s.Require().Error(unknownErr)
	s.Require().Error(wrongPwErr)
	s.True(dErrors.HasCode(unknownErr, dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(wrongPwErr, dErrors.CodeUnauthorized))
	s.Equal(unknownErr.Error(), wrongPwErr.Error(),
		"unknown user and wrong password must be indistinguishable")
}

func (s *ServiceSuite) TestAuthenticateNilRequest() {
	_, err := s.service.Authenticate(s.ctx(), nil, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestDummyHashMatchesConfiguredCost() {
	// The miss-path comparison must cost the same as a real verification,
	// so the throwaway hash follows the configured bcrypt cost.
	s.Require().NotNil(s.service.dummy)
	s.Equal(testBcryptCost, s.service.dummy.Cost())
}

func (s *ServiceSuite) TestAuthenticateFailureIsAudited() {
	s.mustRegister(validRegistration())

	_, err := s.login("JOHDOE9005", "Wrong!pass1")
	s.Require().Error(err)
	s.Contains(s.auditActions(), audit.ActionLoginFailed)
}

func (s *ServiceSuite) TestAuthenticateLockoutAfterRepeatedFailures() {
	s.mustRegister(validRegistration())

	for i := 0; i < 5; i++ {
		_, err := s.login("JOHDOE9005", "Wrong!pass1")
		s.Require().Error(err)
	}
	s.Contains(s.auditActions(), audit.ActionAccountLocked)

	// Correct credentials are refused while locked, with the same answer.
	_, err := s.login("JOHDOE9005", "Str0ng!pass")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// The lock expires on its own.
	s.advance(16 * time.Minute)
	_, err = s.login("JOHDOE9005", "Str0ng!pass")
	s.NoError(err)
}

func (s *ServiceSuite) TestAuthenticateSuccessClearsFailureCount() {
	s.mustRegister(validRegistration())

	for i := 0; i < 4; i++ {
		_, err := s.login("JOHDOE9005", "Wrong!pass1")
		s.Require().Error(err)
	}
	_, err := s.login("JOHDOE9005", "Str0ng!pass")
	s.Require().NoError(err)

	// The counter restarted: four more failures do not lock.
	for i := 0; i < 4; i++ {
		_, err := s.login("JOHDOE9005", "Wrong!pass1")
		s.Require().Error(err)
	}
	_, err = s.login("JOHDOE9005", "Str0ng!pass")
	s.NoError(err)
}

func (s *ServiceSuite) TestRememberMeIssueAndRedeem() {
	reg := s.mustRegister(validRegistration())

	res, err := s.service.Authenticate(s.ctx(), nil, &models.LoginRequest{
		Identifier: reg.Username,
		Password:   "Str0ng!pass",
		RememberMe: true,
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(res.Remember)

	// Days later, the session is long gone but the token still works.
	s.advance(72 * time.Hour)
	redeemed, err := s.service.RedeemRememberToken(s.ctx(), res.Remember)
	s.Require().NoError(err)
	s.Equal(reg.UserID, redeemed.User.ID)
	s.NotEmpty(redeemed.Session)
}

func (s *ServiceSuite) TestRememberTokenExpires() {
	reg := s.mustRegister(validRegistration())

	res, err := s.service.Authenticate(s.ctx(), nil, &models.LoginRequest{
		Identifier: reg.Username,
		Password:   "Str0ng!pass",
		RememberMe: true,
	})
	s.Require().NoError(err)

	s.advance(31 * 24 * time.Hour)
	_, err = s.service.RedeemRememberToken(s.ctx(), res.Remember)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestRememberTokenGarbageRejected() {
	_, err := s.service.RedeemRememberToken(s.ctx(), "not-a-jwt")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestMe() {
	reg := s.mustRegister(validRegistration())
	res, err := s.login(reg.Username, "Str0ng!pass")
	s.Require().NoError(err)

	sess, err := s.manager.Current(s.ctx(), res.Session)
	s.Require().NoError(err)

	view, err := s.service.Me(s.ctx(), sess)
	s.Require().NoError(err)
	s.Equal(reg.Username, view.Username)
	s.Equal("John", view.FirstName)

	_, err = s.service.Me(s.ctx(), nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
