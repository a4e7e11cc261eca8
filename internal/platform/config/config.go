package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the outreach service.
type Server struct {
	Addr        string
	DatabaseURL string

	// Session lifecycle (original deployment: 1h idle timeout, 30m rotation).
	SessionIdleTimeout      time.Duration
	SessionRotationInterval time.Duration

	// Password-reset state carried in the session expires independently.
	ResetStateTTL time.Duration

	// Remember-me token lifetime (original deployment: 30 days).
	RememberTokenTTL time.Duration
	RememberKey      string

	// Failed-login lockout.
	LockoutThreshold int
	LockoutWindow    time.Duration
	LockoutDuration  time.Duration

	BcryptCost int

	// TrustProxy enables X-Forwarded-For for client IPs in audit records.
	TrustProxy bool

	CleanupInterval time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                    getenv("OUTREACH_ADDR", ":8080"),
		DatabaseURL:             os.Getenv("OUTREACH_DATABASE_URL"),
		SessionIdleTimeout:      getduration("OUTREACH_SESSION_TIMEOUT", time.Hour),
		SessionRotationInterval: getduration("OUTREACH_SESSION_ROTATION", 30*time.Minute),
		ResetStateTTL:           getduration("OUTREACH_RESET_STATE_TTL", 10*time.Minute),
		RememberTokenTTL:        getduration("OUTREACH_REMEMBER_TTL", 30*24*time.Hour),
		RememberKey:             getenv("OUTREACH_REMEMBER_KEY", "dev-secret-key-change-in-production"),
		LockoutThreshold:        getint("OUTREACH_LOCKOUT_THRESHOLD", 5),
		LockoutWindow:           getduration("OUTREACH_LOCKOUT_WINDOW", 15*time.Minute),
		LockoutDuration:         getduration("OUTREACH_LOCKOUT_DURATION", 15*time.Minute),
		BcryptCost:              getint("OUTREACH_BCRYPT_COST", 0),
		TrustProxy:              os.Getenv("OUTREACH_TRUST_PROXY") == "true",
		CleanupInterval:         getduration("OUTREACH_CLEANUP_INTERVAL", 5*time.Minute),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
