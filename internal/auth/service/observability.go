package service

import (
	"context"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/platform/middleware"
	id "github.com/acesonder/outreach/pkg/domain"
)

// Observability helpers for logging, auditing, and metrics. Methods live on
// *Service to reach the logger, recorder, and collectors.

// logAudit writes the structured audit log line and appends the event to the
// persistent trail when a recorder is configured.
func (s *Service) logAudit(ctx context.Context, action audit.Action, userID *id.UserID, attributes ...any) {
	args := append(attributes, "action", string(action), "log_type", "audit")
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if userID != nil {
		args = append(args, "user_id", userID.String())
	}
	s.logger.InfoContext(ctx, string(action), args...)

	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Event{
		UserID: userID,
		Action: action,
	})
}

// auditChange is logAudit with before/after snapshots attached to the event.
func (s *Service) auditChange(ctx context.Context, action audit.Action, userID *id.UserID, oldValues, newValues map[string]any) {
	args := []any{"action", string(action), "log_type", "audit"}
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if userID != nil {
		args = append(args, "user_id", userID.String())
	}
	s.logger.InfoContext(ctx, string(action), args...)

	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Event{
		UserID:    userID,
		Action:    action,
		OldValues: oldValues,
		NewValues: newValues,
	})
}

// logAuthFailure logs a failed authentication attempt. isError marks
// infrastructure trouble as opposed to bad credentials.
func (s *Service) logAuthFailure(ctx context.Context, reason string, isError bool, attributes ...any) {
	args := append(attributes, "reason", reason, "log_type", "standard")
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if isError {
		s.logger.ErrorContext(ctx, "auth_failed", args...)
		return
	}
	s.logger.WarnContext(ctx, "auth_failed", args...)

	if s.metrics != nil {
		s.metrics.AuthFailures.Inc()
	}
}

func (s *Service) incrementUsersRegistered() {
	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
}

func (s *Service) incrementLoginSuccesses() {
	if s.metrics != nil {
		s.metrics.LoginSuccesses.Inc()
		s.metrics.ActiveSessions.Inc()
	}
}

func (s *Service) incrementLockouts() {
	if s.metrics != nil {
		s.metrics.AccountLockouts.Inc()
	}
}

func (s *Service) decrementActiveSessions() {
	if s.metrics != nil {
		s.metrics.ActiveSessions.Dec()
	}
}

func (s *Service) countPasswordReset(outcome string) {
	if s.metrics != nil {
		s.metrics.PasswordResets.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) observeUsernameAttempts(attempts int) {
	if s.metrics != nil {
		s.metrics.UsernameRetries.Observe(float64(attempts))
	}
}

func (s *Service) observeAuthenticateDuration(ms float64) {
	if s.metrics != nil {
		s.metrics.AuthenticateDurations.Observe(ms)
	}
}
