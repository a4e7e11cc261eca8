// Package handler is the thin HTTP layer over the auth service. It owns
// cookies and JSON decoding; workflow rules stay in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acesonder/outreach/internal/audit"
	"github.com/acesonder/outreach/internal/auth/models"
	"github.com/acesonder/outreach/internal/platform/middleware"
	jsonResponse "github.com/acesonder/outreach/internal/transport/http/json"
	"github.com/acesonder/outreach/internal/transport/http/shared"
	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

const (
	SessionCookieName  = "outreach_session"
	RememberCookieName = "outreach_remember"

	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// Service is the auth surface the handler delegates to.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegistrationResult, error)
	Authenticate(ctx context.Context, sess *models.Session, req *models.LoginRequest) (*models.LoginResult, error)
	RedeemRememberToken(ctx context.Context, token string) (*models.LoginResult, error)
	Logout(ctx context.Context, sess *models.Session) error
	Me(ctx context.Context, sess *models.Session) (*models.View, error)
	BeginPasswordReset(ctx context.Context, sess *models.Session, req *models.BeginResetRequest) (*models.ResetChallenge, error)
	CompletePasswordReset(ctx context.Context, sess *models.Session, req *models.CompleteResetRequest) (*models.LoginResult, error)
	ListActivity(ctx context.Context, userID id.UserID, limit int) ([]audit.Event, error)
}

// Sessions is the session lifecycle surface the handler needs.
type Sessions interface {
	Start(ctx context.Context) (*models.Session, error)
	Current(ctx context.Context, token string) (*models.Session, error)
}

type Handler struct {
	auth        Service
	sessions    Sessions
	logger      *slog.Logger
	rememberAge int // seconds; 0 disables the remember cookie
}

// New constructs the auth handler. rememberMaxAge is the remember-me cookie
// lifetime in seconds.
func New(auth Service, sessions Sessions, logger *slog.Logger, rememberMaxAge int) *Handler {
	return &Handler{
		auth:        auth,
		sessions:    sessions,
		logger:      logger,
		rememberAge: rememberMaxAge,
	}
}

// Register mounts the auth routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/security-questions", h.HandleSecurityQuestions)
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
	r.Post("/auth/forgot-password", h.HandleForgotPassword)
	r.Post("/auth/reset-password", h.HandleResetPassword)
	r.Get("/auth/users/{user_id}/activity", h.HandleActivity)
}

// HandleSecurityQuestions returns the fixed catalog offered at registration.
func (h *Handler) HandleSecurityQuestions(w http.ResponseWriter, _ *http.Request) {
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{
		"questions": models.SecurityQuestions(),
	})
}

// HandleRegister implements POST /auth/register.
//
// Input: the registration form. Output: { "user_id": ..., "username": "JOHDOE9005" }.
// The generated username is shown exactly once; the client must tell the
// user to write it down.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}

	res, err := h.auth.Register(ctx, req)
	if err != nil {
		h.logError(ctx, "register failed", err)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusCreated, res)
}

// HandleLogin implements POST /auth/login. On success the session token is
// set as a cookie and, when remember-me was requested, so is the remember
// token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}

	sess := h.sessionFromCookie(w, r)
	res, err := h.auth.Authenticate(ctx, sess, req)
	if err != nil {
		h.logError(ctx, "login failed", err)
		shared.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, r, res.Session)
	if res.Remember != "" {
		h.setRememberCookie(w, r, res.Remember)
	}
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleLogout implements POST /auth/logout. Always succeeds; both cookies
// are cleared even when no session existed.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if sess := h.sessionFromCookie(w, r); sess != nil {
		if err := h.auth.Logout(ctx, sess); err != nil {
			h.logError(ctx, "logout failed", err)
			shared.WriteError(w, err)
			return
		}
	}
	h.clearSessionCookie(w, r)
	h.clearRememberCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe implements GET /auth/me. An expired session falls back to the
// remember-me cookie before giving up.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := h.resumeSession(w, r)
	view, err := h.auth.Me(ctx, sess)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, view)
}

// HandleForgotPassword implements POST /auth/forgot-password, step 1 of the
// reset flow. A session is started if the caller has none; the challenge
// state lives in it.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.BeginResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}

	sess := h.sessionFromCookie(w, r)
	if sess == nil {
		var err error
		sess, err = h.sessions.Start(ctx)
		if err != nil {
			h.logError(ctx, "failed to start session", err)
			shared.WriteError(w, err)
			return
		}
	}

	challenge, err := h.auth.BeginPasswordReset(ctx, sess, req)
	if err != nil {
		h.logError(ctx, "forgot-password failed", err)
		shared.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, r, sess.Token)
	jsonResponse.WriteJSON(w, http.StatusOK, challenge)
}

// HandleResetPassword implements POST /auth/reset-password, step 2. Success
// logs the session in, so the fresh token is set like a login.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.CompleteResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}

	sess := h.sessionFromCookie(w, r)
	res, err := h.auth.CompletePasswordReset(ctx, sess, req)
	if err != nil {
		h.logError(ctx, "reset-password failed", err)
		shared.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, r, res.Session)
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleActivity implements GET /auth/users/{user_id}/activity, gated behind
// the audit-log permission.
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := h.resumeSession(w, r)
	if err := requireAuditAccess(sess); err != nil {
		shared.WriteError(w, err)
		return
	}

	userID, err := id.ParseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxActivityLimit {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 200"))
			return
		}
		limit = parsed
	}

	events, err := h.auth.ListActivity(ctx, userID, limit)
	if err != nil {
		h.logError(ctx, "activity listing failed", err)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{
		"events": toActivityEntries(events),
	})
}

// sessionFromCookie resolves the session cookie, or nil when absent/dead.
// Resolution can rotate the token; the new token is written back right here,
// before the outcome of the operation is known, so an error response never
// leaves the client holding a dead token.
func (h *Handler) sessionFromCookie(w http.ResponseWriter, r *http.Request) *models.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := h.sessions.Current(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	if sess.Token != cookie.Value {
		h.setSessionCookie(w, r, sess.Token)
	}
	return sess
}

// resumeSession resolves the current session, falling back to the remember
// cookie when the session is gone. Rotated or freshly minted tokens are
// written back to the client.
func (h *Handler) resumeSession(w http.ResponseWriter, r *http.Request) *models.Session {
	if sess := h.sessionFromCookie(w, r); sess != nil {
		return sess
	}

	cookie, err := r.Cookie(RememberCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	res, err := h.auth.RedeemRememberToken(r.Context(), cookie.Value)
	if err != nil {
		h.clearRememberCookie(w, r)
		return nil
	}
	h.setSessionCookie(w, r, res.Session)

	sess, err := h.sessions.Current(r.Context(), res.Session)
	if err != nil {
		return nil
	}
	return sess
}

func requireAuditAccess(sess *models.Session) error {
	if sess == nil || !sess.IsAuthenticated() {
		return dErrors.New(dErrors.CodeUnauthorized, "not logged in")
	}
	if !sess.Role.Can(models.PermViewAuditLog) {
		return dErrors.New(dErrors.CodeForbidden, "insufficient permissions")
	}
	return nil
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) setRememberCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.rememberAge,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRememberCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	args := []any{"error", err}
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, args...)
		return
	}
	h.logger.WarnContext(ctx, msg, args...)
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// activityEntry is the wire shape of one audit event.
type activityEntry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	UserID    string         `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	SourceIP  string         `json:"source_ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	OldValues map[string]any `json:"old_values,omitempty"`
	NewValues map[string]any `json:"new_values,omitempty"`
}

func toActivityEntries(events []audit.Event) []activityEntry {
	entries := make([]activityEntry, 0, len(events))
	for _, e := range events {
		entry := activityEntry{
			ID:        e.ID.String(),
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Action:    string(e.Action),
			SourceIP:  e.SourceIP,
			UserAgent: e.UserAgent,
			OldValues: e.OldValues,
			NewValues: e.NewValues,
		}
		if e.UserID != nil {
			entry.UserID = e.UserID.String()
		}
		entries = append(entries, entry)
	}
	return entries
}
