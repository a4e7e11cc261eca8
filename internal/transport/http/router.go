// Package httptransport assembles the HTTP surface: middleware stack, domain
// handlers, and operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acesonder/outreach/internal/platform/middleware"
	jsonResponse "github.com/acesonder/outreach/internal/transport/http/json"
)

// Registrar mounts a handler group's routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewRouter wires the middleware stack and all handler groups.
// health may be nil when the process runs on memory stores only.
func NewRouter(logger *slog.Logger, trustProxy bool, health HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metadata(trustProxy))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Get("/healthz", handleHealth(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func handleHealth(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health.Health(r.Context()); err != nil {
				jsonResponse.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
				})
				return
			}
		}
		jsonResponse.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
