// Package httpapi exposes the application services over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mojifeed/mojifeed/internal/app"
	"github.com/mojifeed/mojifeed/internal/errors"
	"github.com/mojifeed/mojifeed/internal/httputil"
	"github.com/mojifeed/mojifeed/internal/middleware"
	"github.com/mojifeed/mojifeed/pkg/logger"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
}

// Options configures router construction.
type Options struct {
	// Middlewares are applied to every route, in order.
	Middlewares []mux.MiddlewareFunc
	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
}

// NewHandler returns a router exposing the REST API.
func NewHandler(application *app.Application, log *logger.Logger, opts Options) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	for _, mw := range opts.Middlewares {
		r.Use(mw)
	}

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", h.listPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts", h.createPost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", h.getPost).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/posts", h.listUserPosts).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	feed, err := h.app.Feed.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, feed)
}

func (h *handler) getPost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	enriched, err := h.app.Feed.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enriched)
}

func (h *handler) listUserPosts(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	feed, err := h.app.Feed.GetByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, feed)
}

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	authorID := middleware.GetUserID(r.Context())
	if authorID == "" {
		httputil.Unauthorized(w, "")
		return
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("body", "Invalid request body"))
		return
	}

	created, err := h.app.Posts.Create(r.Context(), authorID, payload.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// writeError maps a service error onto the wire envelope. Internal causes
// are logged but never serialized.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("", err)
	}
	if serviceErr.HTTPStatus >= 500 {
		h.log.WithContext(r.Context()).WithError(err).Error("request failed")
	}
	httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
}
