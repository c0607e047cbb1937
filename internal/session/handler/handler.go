package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"worldfolio/internal/identity"
	"worldfolio/internal/session"
	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/platform/httputil"
	"worldfolio/pkg/requestcontext"
)

// Handler exposes the session gate over HTTP.
type Handler struct {
	registry    *session.Registry
	logger      *slog.Logger
	waitTimeout time.Duration
}

func New(registry *session.Registry, logger *slog.Logger, waitTimeout time.Duration) *Handler {
	return &Handler{
		registry:    registry,
		logger:      logger,
		waitTimeout: waitTimeout,
	}
}

// Register mounts auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.HandleSignup)
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
		r.Get("/session", h.HandleSession)
	})
}

// HandleSignup handles POST /auth/signup.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, "signup", (*session.Gate).Signup)
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, "login", (*session.Gate).Login)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, action string,
	call func(*session.Gate, context.Context, string, string) (identity.Session, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	gate, ok := h.gate(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CredentialsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := call(gate, ctx, req.Email, req.Password)
	if err != nil {
		h.logger.InfoContext(ctx, action+" failed",
			"request_id", requestID,
			"client_id", requestcontext.ClientID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, action+" succeeded",
		"request_id", requestID,
		"client_id", requestcontext.ClientID(ctx),
		"uid", result.UID,
	)
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{Session: result})
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	gate, ok := h.gate(w, r)
	if !ok {
		return
	}
	if err := gate.Logout(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession handles GET /auth/session. With ?wait=true it blocks until
// the provider has confirmed state at least once.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	gate, ok := h.gate(w, r)
	if !ok {
		return
	}
	state := gate.State()
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
		defer cancel()
		state, _ = gate.WaitConfirmed(ctx)
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) gate(w http.ResponseWriter, r *http.Request) (*session.Gate, bool) {
	clientID := requestcontext.ClientID(r.Context())
	if clientID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "client id is required"))
		return nil, false
	}
	return h.registry.Gate(r.Context(), clientID), true
}
