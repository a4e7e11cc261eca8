// Package profile manages the client-facing profile attached to every
// client account: created empty at registration, filled in by the intake
// flow on first login.
package profile

import (
	"time"

	id "github.com/acesonder/outreach/pkg/domain"
)

// Profile is the client profile row. One per client user.
type Profile struct {
	UserID            id.UserID  `json:"user_id"`
	HousingStatus     string     `json:"housing_status,omitempty"`
	IncomeSource      string     `json:"income_source,omitempty"`
	SupportNotes      string     `json:"support_notes,omitempty"`
	IntakeCompleted   bool       `json:"intake_completed"`
	IntakeCompletedAt *time.Time `json:"intake_completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IntakeRequest carries the intake form submission.
type IntakeRequest struct {
	HousingStatus string `json:"housing_status" validate:"required,oneof=housed at_risk sheltered unsheltered transitional unknown"`
	IncomeSource  string `json:"income_source,omitempty" validate:"omitempty,max=100"`
	SupportNotes  string `json:"support_notes,omitempty" validate:"omitempty,max=2000"`
}
