// Package handler implements the HTTP API of the gradebook service.
//
// The handlers translate requests into record store and aggregation engine
// calls and map service errors onto HTTP statuses. Concurrent identical
// aggregation requests are collapsed with singleflight so one computation
// serves them all.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/rollcall/gradebook/internal/aggregate"
	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/logging"
	"github.com/rollcall/gradebook/internal/store"
)

// Handler holds the dependencies shared by all routes.
type Handler struct {
	store    *store.Store
	engine   *aggregate.Engine
	flight   singleflight.Group
	validate *validator.Validate
	log      *slog.Logger
}

// New creates a Handler over the given store and engine.
func New(st *store.Store, engine *aggregate.Engine) *Handler {
	return &Handler{
		store:    st,
		engine:   engine,
		validate: validator.New(),
		log:      logging.Component("handler"),
	}
}

// Routes assembles the router with all middleware and endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.ListRecords)
		r.Post("/", h.CreateRecord)
		r.Get("/{id}", h.GetRecord)
		r.Put("/{id}", h.UpdateRecord)
		r.Delete("/{id}", h.DeleteRecord)
	})

	r.Get("/averages", h.GetAverages)
	r.Get("/summary", h.GetSummary)

	return r
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// Response Helpers
// =============================================================================

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	logger := logging.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	h.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) respondBadRequest(w http.ResponseWriter, msg string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
