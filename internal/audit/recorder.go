package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acesonder/outreach/internal/platform/middleware"
)

// Recorder writes audit events best-effort: a failure to persist an event is
// logged for later inspection but never surfaced to the caller, so the
// primary operation cannot be blocked by the trail.
type Recorder struct {
	store          Store
	logger         *slog.Logger
	now            func() time.Time
	onWriteFailure func()
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger overrides the logger used for persistence failures.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWriteFailureObserver registers a callback fired when an event could
// not be persisted. Feeds the write-failure counter.
func WithWriteFailureObserver(fn func()) RecorderOption {
	return func(r *Recorder) { r.onWriteFailure = fn }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps the event with an ID, timestamp, and the request's client
// metadata, then appends it. Never returns an error.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now().UTC()
	}
	if event.SourceIP == "" || event.UserAgent == "" {
		meta := middleware.GetClientMetadata(ctx)
		if event.SourceIP == "" {
			event.SourceIP = meta.IP
		}
		if event.UserAgent == "" {
			event.UserAgent = meta.UserAgent
		}
	}

	args := []any{
		"action", string(event.Action),
		"log_type", "audit",
		"source_ip", event.SourceIP,
	}
	if event.UserID != nil {
		args = append(args, "user_id", event.UserID.String())
	}
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	r.logger.InfoContext(ctx, string(event.Action), args...)

	if r.store == nil {
		return
	}
	if err := r.store.Append(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist audit event",
			"action", string(event.Action),
			"error", err,
		)
		if r.onWriteFailure != nil {
			r.onWriteFailure()
		}
	}
}
