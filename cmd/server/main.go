package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acesonder/outreach/internal/audit"
	authhandler "github.com/acesonder/outreach/internal/auth/handler"
	"github.com/acesonder/outreach/internal/auth/lockout"
	"github.com/acesonder/outreach/internal/auth/metrics"
	"github.com/acesonder/outreach/internal/auth/service"
	"github.com/acesonder/outreach/internal/auth/session"
	sessionstore "github.com/acesonder/outreach/internal/auth/store/session"
	userstore "github.com/acesonder/outreach/internal/auth/store/user"
	"github.com/acesonder/outreach/internal/auth/workers/cleanup"
	"github.com/acesonder/outreach/internal/platform/config"
	"github.com/acesonder/outreach/internal/platform/database"
	"github.com/acesonder/outreach/internal/platform/logger"
	"github.com/acesonder/outreach/internal/profile"
	profilehandler "github.com/acesonder/outreach/internal/profile/handler"
	httptransport "github.com/acesonder/outreach/internal/transport/http"
	"github.com/acesonder/outreach/migrations"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing outreach service",
		"addr", cfg.Addr,
		"database", cfg.DatabaseURL != "",
	)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	if pool != nil {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := migrations.Apply(migrateCtx, pool.DB())
		cancel()
		if err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	// Memory stores back dev and test runs; PostgreSQL backs deployments.
	var (
		users    service.UserStore
		sessions sessionstore.Store
		auditLog audit.Store
		profiles profile.Store
	)
	if pool != nil {
		users = userstore.NewPostgres(pool.DB())
		sessions = sessionstore.NewPostgres(pool.DB())
		auditLog = audit.NewPostgres(pool.DB())
		profiles = profile.NewPostgres(pool.DB())
	} else {
		log.Warn("no database configured, using in-memory stores")
		users = userstore.New()
		sessions = sessionstore.New()
		auditLog = audit.NewInMemoryStore()
		profiles = profile.NewInMemoryStore()
	}

	m := metrics.New()
	recorder := audit.NewRecorder(auditLog,
		audit.WithLogger(log),
		audit.WithWriteFailureObserver(m.AuditWriteFailures.Inc),
	)

	manager, err := session.NewManager(sessions,
		session.WithLogger(log),
		session.WithIdleTimeout(cfg.SessionIdleTimeout),
		session.WithRotationInterval(cfg.SessionRotationInterval),
		session.WithRotationObserver(m.SessionRotations.Inc),
	)
	if err != nil {
		log.Error("session manager init failed", "error", err)
		os.Exit(1)
	}

	guard, err := lockout.New(lockout.NewInMemoryStore(),
		lockout.WithLogger(log),
		lockout.WithConfig(lockout.Config{
			Threshold:    cfg.LockoutThreshold,
			Window:       cfg.LockoutWindow,
			LockDuration: cfg.LockoutDuration,
		}),
	)
	if err != nil {
		log.Error("lockout init failed", "error", err)
		os.Exit(1)
	}

	remember, err := service.NewRememberTokens(cfg.RememberKey, cfg.RememberTokenTTL)
	if err != nil {
		log.Error("remember-me init failed", "error", err)
		os.Exit(1)
	}

	profileSvc := profile.NewService(profiles,
		profile.WithLogger(log),
		profile.WithAudit(recorder),
	)

	authSvc := service.NewService(users, manager,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAudit(recorder, auditLog),
		service.WithLockout(guard),
		service.WithProfiles(profileSvc),
		service.WithRememberTokens(remember),
		service.WithBcryptCost(cfg.BcryptCost),
		service.WithResetStateTTL(cfg.ResetStateTTL),
	)

	sweeper, err := cleanup.New(sessions, cfg.SessionIdleTimeout,
		cleanup.WithInterval(cfg.CleanupInterval),
		cleanup.WithLogger(log),
		cleanup.WithSweepObserver(func(deleted int) {
			m.SessionsExpired.Add(float64(deleted))
			m.ActiveSessions.Sub(float64(deleted))
		}),
	)
	if err != nil {
		log.Error("cleanup worker init failed", "error", err)
		os.Exit(1)
	}

	var health httptransport.HealthChecker
	if pool != nil {
		health = pool
	}
	router := httptransport.NewRouter(log, cfg.TrustProxy, health,
		authhandler.New(authSvc, manager, log, int(cfg.RememberTokenTTL.Seconds())),
		profilehandler.New(profileSvc, manager, log),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	if pool != nil {
		if err := pool.Close(); err != nil {
			log.Error("database close failed", "error", err)
		}
	}
	log.Info("server stopped")
}
