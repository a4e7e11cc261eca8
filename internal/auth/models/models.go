package models

import (
	"time"

	id "github.com/acesonder/outreach/pkg/domain"
)

// This file contains pure domain models for authentication: entities
// that should not depend on transport or HTTP-specific concerns.

// UserStatus enumerates account lifecycle states. Only active accounts may
// authenticate, regardless of credential correctness.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
	UserStatusPending  UserStatus = "pending"
)

// User represents a credential record. PasswordHash and SecurityAnswerHash
// are one-way hashes and must never be logged or returned to callers.
type User struct {
	ID                 id.UserID
	Username           string
	Email              string
	PasswordHash       string
	FirstName          string
	LastName           string
	DateOfBirth        time.Time
	Phone              string
	SecurityQuestionID id.QuestionID
	SecurityAnswerHash string
	Role               Role
	Status             UserStatus
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// View is the minimal user projection returned to callers after
// authentication. It never carries hashes.
type View struct {
	ID        id.UserID `json:"user_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
}

// ViewOf projects a user into its caller-facing shape.
func ViewOf(u *User) *View {
	return &View{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// SecurityQuestion is one entry of the fixed recovery-question catalog.
type SecurityQuestion struct {
	ID   id.QuestionID `json:"question_id"`
	Text string        `json:"question_text"`
}

// securityQuestions is the catalog offered at registration. The answer,
// hashed, substitutes for a recovery email in the password-reset flow.
var securityQuestions = []SecurityQuestion{
	{ID: 1, Text: "What was the name of your first pet?"},
	{ID: 2, Text: "What street did you grow up on?"},
	{ID: 3, Text: "What city were you born in?"},
	{ID: 4, Text: "What is your favorite color?"},
	{ID: 5, Text: "What month were you born?"},
}

// SecurityQuestions returns the full catalog in stable order.
func SecurityQuestions() []SecurityQuestion {
	return append([]SecurityQuestion{}, securityQuestions...)
}

// SecurityQuestionByID looks up a catalog entry. ok is false for unknown IDs.
func SecurityQuestionByID(qid id.QuestionID) (SecurityQuestion, bool) {
	for _, q := range securityQuestions {
		if q.ID == qid {
			return q, true
		}
	}
	return SecurityQuestion{}, false
}

// DecoyQuestion deterministically selects a catalog question from an
// arbitrary identifier. Used to keep the step-1 reset response shape
// identical for accounts that do not exist: the same unknown username always
// yields the same question, so repeated probing reveals nothing.
func DecoyQuestion(identifier string) SecurityQuestion {
	var sum uint32
	for _, r := range identifier {
		sum = sum*31 + uint32(r)
	}
	return securityQuestions[int(sum)%len(securityQuestions)]
}
