package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"worldfolio/internal/details"
	"worldfolio/internal/views"
	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/platform/httputil"
	"worldfolio/pkg/requestcontext"
)

// Factory builds a fresh detail view.
type Factory func() (*details.Aggregator, error)

// Handler exposes detail views over HTTP.
type Handler struct {
	registry    *views.Registry[*details.Aggregator]
	newView     Factory
	logger      *slog.Logger
	waitTimeout time.Duration
}

func New(registry *views.Registry[*details.Aggregator], newView Factory, logger *slog.Logger, waitTimeout time.Duration) *Handler {
	return &Handler{
		registry:    registry,
		newView:     newView,
		logger:      logger,
		waitTimeout: waitTimeout,
	}
}

// Register mounts detail endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/views/details", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}/subject", h.HandleNavigate)
		r.Post("/{id}/chat", h.HandleChat)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleCreate handles POST /views/details.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	clientID := requestcontext.ClientID(ctx)
	if clientID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "client id is required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.newView()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create details view",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if err := view.Navigate(ctx, req.Code); err != nil {
		_ = view.Close()
		httputil.WriteError(w, err)
		return
	}
	id := h.registry.Add(clientID, view)

	h.logger.InfoContext(ctx, "details view created",
		"request_id", requestID,
		"client_id", clientID,
		"view_id", id,
		"code", req.Code,
	)
	w.Header().Set("Location", "/views/details/"+id)
	h.respond(w, r, http.StatusCreated, id, view)
}

// HandleGet handles GET /views/details/{id}. With ?wait=true it blocks until
// the country and its enrichment settle; ?widgets=true also waits for the
// gallery and news.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, id, view)
}

// HandleNavigate handles PUT /views/details/{id}/subject.
func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubjectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := view.Navigate(ctx, req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusAccepted, id, view)
}

// HandleChat handles POST /views/details/{id}/chat. It answers once the
// assistant has replied.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ChatRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	chat, err := view.Ask(ctx, req.Question)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ChatResponse{ID: id, Chat: chat})
}

// HandleDelete handles DELETE /views/details/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Remove(requestcontext.ClientID(r.Context()), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (string, *details.Aggregator, bool) {
	id := chi.URLParam(r, "id")
	view, err := h.registry.Get(requestcontext.ClientID(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, err)
		return "", nil, false
	}
	return id, view, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, id string, view *details.Aggregator) {
	state := view.State()
	query := r.URL.Query()
	if wait, _ := strconv.ParseBool(query.Get("wait")); wait {
		widgets, _ := strconv.ParseBool(query.Get("widgets"))
		ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
		defer cancel()
		state, _ = view.Wait(ctx, widgets)
		if status == http.StatusAccepted {
			status = http.StatusOK
		}
	}
	httputil.WriteJSON(w, status, ViewResponse{ID: id, View: state})
}
