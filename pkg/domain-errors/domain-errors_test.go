package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// These are core error primitives used at every trust boundary. Unit tests
// ensure invariants like "wrapped domain errors preserve original code"
// and "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "user not found"}
		s.Equal("user not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeNotFound}
		s.Equal("not_found", err.Error())
	})

	s.Run("joins validation details", func() {
		err := NewValidation("first name is required", "consent is required")
		s.Equal("first name is required; consent is required", err.Error())
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves code of wrapped domain error", func() {
		inner := New(CodeUnauthorized, "bad credentials")
		outer := Wrap(inner, CodeInternal, "login failed")
		s.True(HasCode(outer, CodeUnauthorized))
	})

	s.Run("applies given code to plain errors", func() {
		outer := Wrap(errors.New("connection refused"), CodeInternal, "store unavailable")
		s.True(HasCode(outer, CodeInternal))
	})

	s.Run("unwraps to the original error", func() {
		inner := errors.New("boom")
		outer := Wrap(fmt.Errorf("query: %w", inner), CodeInternal, "store failed")
		s.True(errors.Is(outer, inner))
	})
}

func (s *DomainErrorsSuite) TestMessages() {
	s.Run("returns all validation details", func() {
		err := NewValidation("a", "b")
		s.Equal([]string{"a", "b"}, Messages(err))
	})

	s.Run("falls back to error text", func() {
		s.Equal([]string{"nope"}, Messages(errors.New("nope")))
	})
}
