package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for auth operations.
type Metrics struct {
	UsersRegistered       prometheus.Counter
	LoginSuccesses        prometheus.Counter
	AuthFailures          prometheus.Counter
	AccountLockouts       prometheus.Counter
	PasswordResets        *prometheus.CounterVec
	ActiveSessions        prometheus.Gauge
	SessionRotations      prometheus.Counter
	SessionsExpired       prometheus.Counter
	UsernameRetries       prometheus.Histogram
	AuditWriteFailures    prometheus.Counter
	AuthenticateDurations prometheus.Histogram
}

// New registers and returns auth metrics collectors.
// Call once per process; collectors attach to the default registry.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_users_registered_total",
			Help: "Total number of users registered",
		}),
		LoginSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_login_successes_total",
			Help: "Total number of successful logins",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_auth_failures_total",
			Help: "Total number of authentication failures",
		}),
		AccountLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_account_lockouts_total",
			Help: "Total number of lockouts triggered by repeated failures",
		}),
		PasswordResets: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_password_resets_total",
			Help: "Total number of password-reset attempts by outcome",
		}, []string{"outcome"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "outreach_active_sessions",
			Help: "Current number of live sessions",
		}),
		SessionRotations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_session_rotations_total",
			Help: "Total number of session token rotations",
		}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_sessions_expired_total",
			Help: "Total number of sessions destroyed by idle timeout",
		}),
		UsernameRetries: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "outreach_username_generation_attempts",
			Help:    "Attempts needed to find an unused generated username",
			Buckets: []float64{1, 2, 3, 5, 10},
		}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_audit_write_failures_total",
			Help: "Total number of audit events that could not be persisted",
		}),
		AuthenticateDurations: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "outreach_authenticate_duration_ms",
			Help:    "Duration of authenticate operations in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500},
		}),
	}
}
