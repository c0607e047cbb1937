package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"worldfolio/internal/discovery"
	"worldfolio/internal/views"
	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/platform/httputil"
	"worldfolio/pkg/requestcontext"
)

// Factory builds a fresh discovery view.
type Factory func() (*discovery.Controller, error)

// Handler exposes discovery views over HTTP.
type Handler struct {
	registry    *views.Registry[*discovery.Controller]
	newView     Factory
	logger      *slog.Logger
	waitTimeout time.Duration
}

// New constructs a discovery handler.
func New(registry *views.Registry[*discovery.Controller], newView Factory, logger *slog.Logger, waitTimeout time.Duration) *Handler {
	return &Handler{
		registry:    registry,
		newView:     newView,
		logger:      logger,
		waitTimeout: waitTimeout,
	}
}

// Register mounts discovery endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/views/discovery", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}/mode", h.HandleSetMode)
		r.Post("/{id}/more", h.HandleLoadMore)
		r.Post("/{id}/input", h.HandleInput)
		r.Post("/{id}/select", h.HandleSelect)
		r.Post("/{id}/submit", h.HandleSubmit)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleCreate handles POST /views/discovery: a new view loading every country.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := requestcontext.ClientID(ctx)
	if clientID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "client id is required"))
		return
	}

	view, err := h.newView()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create discovery view",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if err := view.SetMode(ctx, discovery.ModeAll, ""); err != nil {
		_ = view.Close()
		httputil.WriteError(w, err)
		return
	}
	id := h.registry.Add(clientID, view)

	h.logger.InfoContext(ctx, "discovery view created",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID,
		"view_id", id,
	)
	w.Header().Set("Location", "/views/discovery/"+id)
	h.respond(w, r, http.StatusCreated, id, view)
}

// HandleGet handles GET /views/discovery/{id}. With ?wait=true it blocks
// until the current request settles.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, id, view)
}

// HandleSetMode handles PUT /views/discovery/{id}/mode.
func (h *Handler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ModeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := view.SetMode(ctx, req.ParsedMode(), req.Value); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusAccepted, id, view)
}

// HandleLoadMore handles POST /views/discovery/{id}/more.
func (h *Handler) HandleLoadMore(w http.ResponseWriter, r *http.Request) {
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ViewResponse{ID: id, View: view.LoadMore()})
}

// HandleInput handles POST /views/discovery/{id}/input.
func (h *Handler) HandleInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TextRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view.Input(ctx, req.Text)
	httputil.WriteJSON(w, http.StatusAccepted, ViewResponse{ID: id, View: view.State()})
}

// HandleSelect handles POST /views/discovery/{id}/select.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SelectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := view.Select(ctx, req.Value); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusAccepted, id, view)
}

// HandleSubmit handles POST /views/discovery/{id}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TextRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := view.Submit(ctx, req.Text); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.respond(w, r, http.StatusAccepted, id, view)
}

// HandleDelete handles DELETE /views/discovery/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.registry.Remove(requestcontext.ClientID(ctx), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (string, *discovery.Controller, bool) {
	id := chi.URLParam(r, "id")
	view, err := h.registry.Get(requestcontext.ClientID(r.Context()), id)
	if err != nil {
		httputil.WriteError(w, err)
		return "", nil, false
	}
	return id, view, true
}

// respond writes the view state, first waiting for it to settle when the
// client asked for ?wait=true.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, id string, view *discovery.Controller) {
	state := view.State()
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
		defer cancel()
		// A timed-out wait still answers with the in-flight state.
		state, _ = view.Wait(ctx)
		if status == http.StatusAccepted {
			status = http.StatusOK
		}
	}
	httputil.WriteJSON(w, status, ViewResponse{ID: id, View: state})
}
