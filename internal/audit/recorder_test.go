package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "github.com/acesonder/outreach/pkg/domain"
	"github.com/acesonder/outreach/internal/platform/middleware"
)

type RecorderSuite struct {
	suite.Suite
	store    *InMemoryStore
	recorder *Recorder
}

func (s *RecorderSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.recorder = NewRecorder(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) TestRecordStampsEvent() {
	userID := id.NewUserID()
	ctx := middleware.WithClientMetadata(context.Background(), "203.0.113.7", "test-agent")

	s.recorder.Record(ctx, Event{UserID: &userID, Action: ActionLoginSuccess})

	events := s.store.All()
	s.Require().Len(events, 1)
	s.Equal(ActionLoginSuccess, events[0].Action)
	s.Equal("203.0.113.7", events[0].SourceIP)
	s.Equal("test-agent", events[0].UserAgent)
	s.False(events[0].Timestamp.IsZero())
	s.NotEqual([16]byte{}, [16]byte(events[0].ID))
}

func (s *RecorderSuite) TestListByUserNewestFirst() {
	userID := id.NewUserID()
	other := id.NewUserID()
	ctx := context.Background()

	s.recorder.Record(ctx, Event{UserID: &userID, Action: ActionRegister})
	s.recorder.Record(ctx, Event{UserID: &other, Action: ActionLoginFailed})
	s.recorder.Record(ctx, Event{UserID: &userID, Action: ActionLoginSuccess})

	events, err := s.store.ListByUser(ctx, userID, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(ActionLoginSuccess, events[0].Action)
	s.Equal(ActionRegister, events[1].Action)
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error {
	return errors.New("disk full")
}

func (failingStore) ListByUser(context.Context, id.UserID, int) ([]Event, error) {
	return nil, errors.New("disk full")
}

func (s *RecorderSuite) TestStoreFailureIsSwallowed() {
	recorder := NewRecorder(failingStore{}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	// Must not panic and has no error to return: audit is best-effort.
	recorder.Record(context.Background(), Event{Action: ActionLogout})
}

func (s *RecorderSuite) TestStoreFailureIsCounted() {
	var failures int
	recorder := NewRecorder(failingStore{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithWriteFailureObserver(func() { failures++ }),
	)

	recorder.Record(context.Background(), Event{Action: ActionLogout})
	recorder.Record(context.Background(), Event{Action: ActionLoginFailed})
	s.Equal(2, failures)
}
