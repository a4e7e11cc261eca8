package lockout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type LockoutSuite struct {
	suite.Suite
	svc *Service
	now time.Time
}

func (s *LockoutSuite) SetupTest() {
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := New(NewInMemoryStore(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func TestLockoutSuite(t *testing.T) {
	suite.Run(t, new(LockoutSuite))
}

func (s *LockoutSuite) TestLocksAfterThreshold() {
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s.False(s.svc.RecordFailure(ctx, "JOHDOE9005", "203.0.113.7"))
	}
	s.True(s.svc.RecordFailure(ctx, "JOHDOE9005", "203.0.113.7"))

	locked, until := s.svc.IsLocked(ctx, "JOHDOE9005", "203.0.113.7")
	s.True(locked)
	s.Equal(s.now.Add(15*time.Minute), until)

	s.Run("other address unaffected", func() {
		locked, _ := s.svc.IsLocked(ctx, "JOHDOE9005", "198.51.100.1")
		s.False(locked)
	})
}

func (s *LockoutSuite) TestLockExpires() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.svc.RecordFailure(ctx, "JOHDOE9005", "203.0.113.7")
	}

	s.now = s.now.Add(16 * time.Minute)
	locked, _ := s.svc.IsLocked(ctx, "JOHDOE9005", "203.0.113.7")
	s.False(locked)
}

func (s *LockoutSuite) TestWindowResets() {
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		s.svc.RecordFailure(ctx, "JOHDOE9005", "203.0.113.7")
	}

	// Failures outside the window start a fresh count.
	s.now = s.now.Add(20 * time.Minute)
	s.False(s.svc.RecordFailure(ctx, "JOHDOE9005", "203.0.113.7"))
	locked, _ := s.svc.IsLocked(ctx, "JOHDOE9005", "203.0.113.7")
	s.False(locked)
}

func (s *LockoutSuite) TestClear() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.svc.RecordFailure(ctx, "JOHDOE9005", "203.0.113.7")
	}

	s.svc.Clear(ctx, "JOHDOE9005", "203.0.113.7")
	locked, _ := s.svc.IsLocked(ctx, "JOHDOE9005", "203.0.113.7")
	s.False(locked)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*Record, error) { return nil, errors.New("down") }
func (brokenStore) Put(context.Context, *Record) error           { return errors.New("down") }
func (brokenStore) Delete(context.Context, string) error         { return errors.New("down") }

func (s *LockoutSuite) TestFailsOpenOnStoreErrors() {
	svc, err := New(brokenStore{}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	locked, _ := svc.IsLocked(context.Background(), "a", "b")
	s.False(locked)
	s.False(svc.RecordFailure(context.Background(), "a", "b"))
	svc.Clear(context.Background(), "a", "b")
}
