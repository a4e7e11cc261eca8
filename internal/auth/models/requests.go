package models

import id "github.com/acesonder/outreach/pkg/domain"

// Request and result shapes crossing the service boundary. Validation tags
// cover syntax; ordering-sensitive business rules (age, password policy)
// live in the service so all messages can be collected per the intake flow.

// RegisterRequest carries a self-registration submission.
type RegisterRequest struct {
	FirstName          string        `json:"first_name" validate:"required,notblank,max=100"`
	LastName           string        `json:"last_name" validate:"required,notblank,max=100"`
	Email              string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone              string        `json:"phone,omitempty" validate:"omitempty,max=30"`
	DateOfBirth        string        `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	SecurityQuestionID id.QuestionID `json:"security_question_id" validate:"required"`
	SecurityAnswer     string        `json:"security_answer" validate:"required,notblank"`
	Password           string        `json:"password" validate:"required"`
	ConfirmPassword    string        `json:"confirm_password" validate:"required"`
	Consent            bool          `json:"consent"`
}

// RegistrationResult returns the generated username exactly once; it is the
// user's primary login handle and is not otherwise recoverable.
type RegistrationResult struct {
	UserID   id.UserID `json:"user_id"`
	Username string    `json:"username"`
}

// LoginRequest carries a login submission. Identifier accepts username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,notblank"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResult is returned on successful authentication. The tokens travel
// as cookies, never in the response body.
type LoginResult struct {
	User     *View  `json:"user"`
	Session  string `json:"-"`
	Remember string `json:"-"` // set only when the login requested remember-me
}

// BeginResetRequest starts the password-reset flow.
type BeginResetRequest struct {
	Username string `json:"username" validate:"required,notblank"`
}

// ResetChallenge is step 1's response. Its shape is identical whether or
// not the account exists.
type ResetChallenge struct {
	Message      string `json:"message"`
	QuestionText string `json:"security_question"`
}

// CompleteResetRequest finishes the flow. The username is deliberately
// absent: it is carried server-side in the session reset state.
type CompleteResetRequest struct {
	SecurityAnswer  string `json:"security_answer" validate:"required,notblank"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}
