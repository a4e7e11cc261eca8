package models

import (
	"time"

	id "github.com/acesonder/outreach/pkg/domain"
)

// Session is server-side state bound to one authenticated user, or to no
// user while pre-auth (e.g. carrying password-reset progress). The opaque
// Token is the only thing the client holds.
type Session struct {
	ID     id.SessionID
	Token  string
	UserID id.UserID // nil UUID while unauthenticated
	// Username and Role are denormalized from the user record at bind time
	// for cheap role checks; role-sensitive flows re-read the store.
	Username string
	Role     Role

	CreatedAt      time.Time
	LastActivityAt time.Time

	// Device metadata for the session, derived from the User-Agent.
	DeviceName string
	SourceIP   string

	// Reset carries the two-step password-reset state between step 1 and
	// step 2. Server-side only: step 2 refuses to run without it.
	Reset *PasswordResetState
}

// PasswordResetState is the session-bound state machine payload between
// "identify username" and "answer security question".
type PasswordResetState struct {
	UserID     id.UserID
	Username   string
	QuestionID id.QuestionID
	ExpiresAt  time.Time
}

// IsAuthenticated reports whether a user is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return !s.UserID.IsNil()
}

// ExpiredAt reports whether the session has been idle past the timeout.
func (s *Session) ExpiredAt(now time.Time, idleTimeout time.Duration) bool {
	return now.Sub(s.LastActivityAt) > idleTimeout
}

// StaleAt reports whether the session identifier has outlived the rotation
// interval and should be reissued to bound the window of a leaked token.
func (s *Session) StaleAt(now time.Time, rotationInterval time.Duration) bool {
	return now.Sub(s.CreatedAt) > rotationInterval
}

// Touch records activity if the given time is after the current value.
func (s *Session) Touch(at time.Time) {
	if at.After(s.LastActivityAt) {
		s.LastActivityAt = at
	}
}

// BindUser attaches an authenticated user to the session and clears any
// in-flight reset state.
func (s *Session) BindUser(u *User) {
	s.UserID = u.ID
	s.Username = u.Username
	s.Role = u.Role
	s.Reset = nil
}
