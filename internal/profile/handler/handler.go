// Package handler exposes the client profile and intake endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authhandler "github.com/acesonder/outreach/internal/auth/handler"
	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/profile"
	jsonResponse "github.com/acesonder/outreach/internal/transport/http/json"
	"github.com/acesonder/outreach/internal/transport/http/shared"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

// Service is the profile surface the handler delegates to.
type Service interface {
	Get(ctx context.Context, userID id.UserID) (*profile.Profile, error)
	CompleteIntake(ctx context.Context, userID id.UserID, req *profile.IntakeRequest) (*profile.Profile, error)
}

// Sessions resolves session tokens, shared with the auth handler.
type Sessions interface {
	Current(ctx context.Context, token string) (*models.Session, error)
}

type Handler struct {
	profiles Service
	sessions Sessions
	logger   *slog.Logger
}

func New(profiles Service, sessions Sessions, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, sessions: sessions, logger: logger}
}

// Register mounts the profile routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profile/me", h.HandleGetProfile)
	r.Post("/profile/intake", h.HandleCompleteIntake)
}

// HandleGetProfile implements GET /profile/me.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.requireSession(r, models.PermViewOwnProfile)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	p, err := h.profiles.Get(ctx, sess.UserID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, p)
}

// HandleCompleteIntake implements POST /profile/intake.
func (h *Handler) HandleCompleteIntake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.requireSession(r, models.PermEditOwnProfile)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req *profile.IntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}

	p, err := h.profiles.CompleteIntake(ctx, sess.UserID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "intake failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) requireSession(r *http.Request, perm models.Permission) (*models.Session, error) {
	cookie, err := r.Cookie(authhandler.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not logged in")
	}
	sess, err := h.sessions.Current(r.Context(), cookie.Value)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not logged in")
	}
	if !sess.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not logged in")
	}
	if !sess.Role.Can(perm) {
		return nil, dErrors.New(dErrors.CodeForbidden, "insufficient permissions")
	}
	return sess, nil
}
