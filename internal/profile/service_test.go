package profile

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/acesonder/outreach/internal/audit"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

type ProfileSuite struct {
	suite.Suite
	now        time.Time
	auditStore *audit.InMemoryStore
	service    *Service
	userID     id.UserID
}

func (s *ProfileSuite) SetupTest() {
	s.now = time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.auditStore = audit.NewInMemoryStore()
	recorder := audit.NewRecorder(s.auditStore, audit.WithLogger(logger))

	s.service = NewService(NewInMemoryStore(),
		WithLogger(logger),
		WithAudit(recorder),
		WithClock(func() time.Time { return s.now }),
	)
	s.userID = id.NewUserID()
}

func (s *ProfileSuite) TestEnsureProfileIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(s.service.EnsureProfile(ctx, s.userID))
	s.Require().NoError(s.service.EnsureProfile(ctx, s.userID))

	p, err := s.service.Get(ctx, s.userID)
	s.Require().NoError(err)
	s.False(p.IntakeCompleted)
	s.Equal(s.now, p.CreatedAt)
}

func (s *ProfileSuite) TestGetUnknownUser() {
	_, err := s.service.Get(context.Background(), id.NewUserID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ProfileSuite) TestCompleteIntake() {
	ctx := context.Background()
	s.Require().NoError(s.service.EnsureProfile(ctx, s.userID))

	p, err := s.service.CompleteIntake(ctx, s.userID, &IntakeRequest{
		HousingStatus: "sheltered",
		IncomeSource:  "disability benefit",
	})
	s.Require().NoError(err)
	s.True(p.IntakeCompleted)
	s.Require().NotNil(p.IntakeCompletedAt)
	s.Equal(s.now, *p.IntakeCompletedAt)

	events := s.auditStore.All()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionIntakeCompleted, events[0].Action)
	s.Equal("sheltered", events[0].NewValues["housing_status"])
}

func (s *ProfileSuite) TestCompleteIntakeTwiceConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.service.EnsureProfile(ctx, s.userID))

	_, err := s.service.CompleteIntake(ctx, s.userID, &IntakeRequest{HousingStatus: "housed"})
	s.Require().NoError(err)

	_, err = s.service.CompleteIntake(ctx, s.userID, &IntakeRequest{HousingStatus: "at_risk"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ProfileSuite) TestCompleteIntakeValidatesInput() {
	ctx := context.Background()
	s.Require().NoError(s.service.EnsureProfile(ctx, s.userID))

	_, err := s.service.CompleteIntake(ctx, s.userID, &IntakeRequest{HousingStatus: "castle"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestProfileSuite(t *testing.T) {
	suite.Run(t, new(ProfileSuite))
}
