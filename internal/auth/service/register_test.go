package service

import (
	"strings"
	"sync"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
	"github.com/acesonder/outreach/pkg/secrets"
)

func (s *ServiceSuite) TestRegisterGeneratesUsername() {
	res := s.mustRegister(validRegistration())

	s.Equal("JOHDOE9005", res.Username)
	s.False(res.UserID.IsNil())

	user, err := s.users.FindByID(s.ctx(), res.UserID)
	s.Require().NoError(err)
	s.Equal(models.RoleClient, user.Role)
	s.Equal(models.UserStatusActive, user.Status)
	s.NotEqual("Str0ng!pass", user.PasswordHash, "password is stored hashed")
	s.NoError(secrets.Verify("Str0ng!pass", user.PasswordHash))
	s.NoError(secrets.Verify("rex", user.SecurityAnswerHash), "answer is normalized before hashing")

	s.Contains(s.auditActions(), audit.ActionRegister)
}

func (s *ServiceSuite) TestRegisterCollectsAllValidationMessages() {
	req := &models.RegisterRequest{
		FirstName:          "John",
		LastName:           "Doe",
		DateOfBirth:        "2015-01-01",
		SecurityQuestionID: 99,
		SecurityAnswer:     "x",
		Password:           "short",
		ConfirmPassword:    "different",
		Consent:            false,
	}

	_, err := s.service.Register(s.ctx(), req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	joined := strings.Join(dErrors.Messages(err), "; ")
	s.Contains(joined, "16 years old")
	s.Contains(joined, "known question")
	s.Contains(joined, "at least 8 characters")
	s.Contains(joined, "uppercase")
	s.Contains(joined, "digit")
	s.Contains(joined, "special character")
	s.Contains(joined, "do not match")
	s.Contains(joined, "consent")
}

func (s *ServiceSuite) TestRegisterNilRequest() {
	// A JSON body of `null` reaches the service as a nil request; it must
	// come back as a validation error, not a panic.
	_, err := s.service.Register(s.ctx(), nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(dErrors.Messages(err), "request body is required")
}

func (s *ServiceSuite) TestRegisterRejectsDuplicateEmail() {
	s.mustRegister(validRegistration())

	dup := validRegistration()
	dup.FirstName = "Jane"
	_, err := s.service.Register(s.ctx(), dup)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestRegisterCollisionGetsNumericSuffix() {
	first := s.mustRegister(validRegistration())

	second := validRegistration()
	second.Email = "other.john@example.com"
	res := s.mustRegister(second)

	s.Equal("JOHDOE9005", first.Username)
	s.Equal("JOHDOE900501", res.Username)
}

func (s *ServiceSuite) TestRegisterConcurrentIdenticalSeeds() {
	const n = 5

	var wg sync.WaitGroup
	results := make([]*models.RegistrationResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRegistration()
			req.Email = ""
			results[i], errs[i] = s.service.Register(s.ctx(), req)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		s.Require().NoError(errs[i])
		s.False(seen[results[i].Username], "duplicate username %s", results[i].Username)
		seen[results[i].Username] = true
	}
}

func (s *ServiceSuite) TestRegisterShortNamesPadded() {
	req := validRegistration()
	req.FirstName = "Al"
	req.LastName = "Ng"
	req.Email = ""

	res := s.mustRegister(req)
	s.Equal("ALXNGX9005", res.Username)
}
