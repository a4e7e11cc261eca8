package service

import (
	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

func (s *ServiceSuite) TestLogoutDestroysSession() {
	reg := s.mustRegister(validRegistration())
	res, err := s.login(reg.Username, "Str0ng!pass")
	s.Require().NoError(err)

	sess, err := s.manager.Current(s.ctx(), res.Session)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx(), sess))
	s.Contains(s.auditActions(), audit.ActionLogout)

	_, err = s.manager.Current(s.ctx(), res.Session)
	s.Require().Error(err)
}

func (s *ServiceSuite) TestLogoutIsIdempotent() {
	reg := s.mustRegister(validRegistration())
	res, err := s.login(reg.Username, "Str0ng!pass")
	s.Require().NoError(err)

	sess, err := s.manager.Current(s.ctx(), res.Session)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx(), sess))
	s.Require().NoError(s.service.Logout(s.ctx(), sess), "second logout is a no-op")
	s.Require().NoError(s.service.Logout(s.ctx(), nil))
}

func (s *ServiceSuite) TestRequirePermission() {
	cases := []struct {
		name     string
		sess     *models.Session
		perm     models.Permission
		wantCode dErrors.Code
	}{
		{"nil session", nil, models.PermViewAuditLog, dErrors.CodeUnauthorized},
		{"anonymous", &models.Session{}, models.PermViewAuditLog, dErrors.CodeUnauthorized},
		{
			"client lacks audit access",
			&models.Session{UserID: id.NewUserID(), Role: models.RoleClient},
			models.PermViewAuditLog,
			dErrors.CodeForbidden,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			err := RequirePermission(tc.sess, tc.perm)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, tc.wantCode))
		})
	}

	s.Run("admin passes", func() {
		sess := &models.Session{UserID: id.NewUserID(), Role: models.RoleAdmin}
		s.NoError(RequirePermission(sess, models.PermViewAuditLog))
	})
}
