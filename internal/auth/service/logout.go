package service

import (
	"context"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

// Logout destroys the session. Idempotent: logging out an already-dead
// session succeeds silently.
func (s *Service) Logout(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sess.Token); err != nil {
		return err
	}
	if sess.IsAuthenticated() {
		s.logAudit(ctx, audit.ActionLogout, &sess.UserID, "username", sess.Username)
		s.decrementActiveSessions()
	}
	return nil
}

// RequirePermission gates an operation on the session's role. Unauthenticated
// sessions get unauthorized; authenticated sessions without the permission
// get forbidden.
func RequirePermission(sess *models.Session, p models.Permission) error {
	if sess == nil || !sess.IsAuthenticated() {
		return dErrors.New(dErrors.CodeUnauthorized, "not logged in")
	}
	if !sess.Role.Can(p) {
		return dErrors.New(dErrors.CodeForbidden, "insufficient permissions")
	}
	return nil
}
